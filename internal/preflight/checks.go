package preflight

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Access selects the permissions a directory check requires.
type Access uint32

const (
	ReadOnly  Access = unix.R_OK | unix.X_OK
	ReadWrite Access = unix.R_OK | unix.W_OK | unix.X_OK
)

func (a Access) String() string {
	if a == ReadWrite {
		return "read/write"
	}
	return "read"
}

// CheckDirectoryAccess verifies that the directory exists and grants the
// requested access.
func CheckDirectoryAccess(name, path string, access Access) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, uint32(access)); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s ok)", path, access)}
}

// CheckSession reports whether download credentials are present. Public URL
// lists work without them, so a missing session is reported but not fatal.
func CheckSession(token, cookie string) Result {
	const name = "Download session"
	switch {
	case token != "" && cookie != "":
		return Result{Name: name, Passed: true, Detail: "bearer token and cookie"}
	case token != "":
		return Result{Name: name, Passed: true, Detail: "bearer token"}
	case cookie != "":
		return Result{Name: name, Passed: true, Detail: "cookie"}
	default:
		return Result{Name: name, Passed: true, Optional: true, Detail: "anonymous (no credentials configured)"}
	}
}
