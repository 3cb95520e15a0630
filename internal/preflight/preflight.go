package preflight

import (
	"errors"
	"fmt"
	"path/filepath"

	"curadiff/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// RunAll executes the checks needed before processing a batch.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Raw directory", cfg.Paths.RawDir, ReadOnly),
		CheckDirectoryAccess("Diff directory", cfg.Paths.DiffDir, ReadWrite),
	}
	if cfg.Ledger.Enabled {
		results = append(results, CheckDirectoryAccess("Ledger directory", filepath.Dir(cfg.Ledger.Path), ReadWrite))
	}
	return results
}

// Err joins every failed result into one error, or returns nil.
func Err(results []Result) error {
	var errs []error
	for _, r := range results {
		if !r.Passed {
			errs = append(errs, fmt.Errorf("%s: %s", r.Name, r.Detail))
		}
	}
	return errors.Join(errs...)
}
