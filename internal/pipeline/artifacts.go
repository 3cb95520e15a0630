package pipeline

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"curadiff/internal/fileutil"
	"curadiff/internal/frame"
	"curadiff/internal/tsv"
)

const (
	artifactMode       = 0o644
	countMapSuffix     = ".cntmap"
	intermediateSuffix = ".sep.gz"
)

// Artifacts names the files written for one expression file.
type Artifacts struct {
	Diff         string
	CountMap     string
	Intermediate string
}

// ArtifactPaths returns the artifact paths for an output base name in dir.
func ArtifactPaths(dir, output string) Artifacts {
	base := filepath.Join(dir, output)
	return Artifacts{
		Diff:         base,
		CountMap:     base + countMapSuffix,
		Intermediate: base + intermediateSuffix,
	}
}

// writeArtifacts writes every file of a resolved result. Each file is replaced
// atomically. An intermediate left by an earlier run is removed when the
// winning path produced none.
func writeArtifacts(paths Artifacts, result Result) error {
	if result.Intermediate != nil {
		if err := writeMatrix(paths.Intermediate, result.Intermediate, tsv.WriteMatrixGzip); err != nil {
			return err
		}
	} else if err := os.Remove(paths.Intermediate); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: remove stale %s: %v", ErrWrite, filepath.Base(paths.Intermediate), err)
	}

	if err := writeMatrix(paths.Diff, result.Matrix, tsv.WriteMatrix); err != nil {
		return err
	}

	err := fileutil.WriteFileAtomic(paths.CountMap, artifactMode, func(w io.Writer) error {
		return tsv.WriteCounts(w, result.Counts)
	})
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, filepath.Base(paths.CountMap), err)
	}
	return nil
}

func writeMatrix(path string, m *frame.Matrix, write func(io.Writer, *frame.Matrix) error) error {
	err := fileutil.WriteFileAtomic(path, artifactMode, func(w io.Writer) error {
		return write(w, m)
	})
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, filepath.Base(path), err)
	}
	return nil
}
