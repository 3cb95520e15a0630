package fileutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteFileAtomic fills a temporary file in the destination directory and
// renames it over path once fill and the final sync succeed. A failed write
// leaves any existing file at path untouched.
func WriteFileAtomic(path string, mode os.FileMode, fill func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if err := fill(tmp); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}

// CopyVerified streams r into dst atomically and returns the byte count and the
// SHA256 hex digest of what was written. When expectedSize is non-negative a
// different byte count is an error and dst is not created.
func CopyVerified(dst string, r io.Reader, expectedSize int64) (int64, string, error) {
	hasher := sha256.New()
	var written int64
	err := WriteFileAtomic(dst, 0o644, func(w io.Writer) error {
		n, err := io.Copy(io.MultiWriter(w, hasher), r)
		written = n
		if err != nil {
			return err
		}
		if expectedSize >= 0 && n != expectedSize {
			return fmt.Errorf("copy size mismatch: expected %d bytes, copied %d bytes", expectedSize, n)
		}
		return nil
	})
	if err != nil {
		return written, "", err
	}
	return written, hex.EncodeToString(hasher.Sum(nil)), nil
}
