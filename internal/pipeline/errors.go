package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"curadiff/internal/differential"
	"curadiff/internal/grouping"
	"curadiff/internal/metadata"
	"curadiff/internal/replicates"
)

var (
	// ErrSchemeExhausted marks a dataset for which every scheme failed.
	ErrSchemeExhausted = errors.New("every grouping scheme failed")
	// ErrLoad marks an input file that could not be read or parsed.
	ErrLoad = errors.New("load failed")
	// ErrWrite marks an artifact that could not be written.
	ErrWrite = errors.New("write failed")
	// ErrLocked is returned when another run holds the output directory.
	ErrLocked = errors.New("output directory is locked by another run")
)

// Failure kinds recorded in the ledger and logs.
const (
	KindMissingColumns          = "missing_columns"
	KindInsufficientSamples     = "insufficient_samples"
	KindInsufficientOverlap     = "insufficient_overlap"
	KindNoQualifyingGroup       = "no_qualifying_group"
	KindNoQualifyingMerge       = "no_qualifying_merge"
	KindNotSufficientReplicates = "not_sufficient_replicates"
	KindSchemeExhausted         = "scheme_exhausted"
	KindLoadFailed              = "load_failed"
	KindWriteFailed             = "write_failed"
	KindNoDataFiles             = "no_data_files"
	KindCanceled                = "canceled"
	KindUnknown                 = "unknown"
)

// Classify maps an error to its failure kind.
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSchemeExhausted):
		return KindSchemeExhausted
	case errors.Is(err, metadata.ErrMissingColumns):
		return KindMissingColumns
	case errors.Is(err, metadata.ErrInsufficientSamples):
		return KindInsufficientSamples
	case errors.Is(err, differential.ErrInsufficientOverlap):
		return KindInsufficientOverlap
	case errors.Is(err, differential.ErrNoQualifyingGroup):
		return KindNoQualifyingGroup
	case errors.Is(err, replicates.ErrNoQualifyingMerge):
		return KindNoQualifyingMerge
	case errors.Is(err, replicates.ErrNotSufficientReplicates):
		return KindNotSufficientReplicates
	case errors.Is(err, ErrLoad):
		return KindLoadFailed
	case errors.Is(err, ErrWrite):
		return KindWriteFailed
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	default:
		return KindUnknown
	}
}

// Attempt is one failed scheme evaluation.
type Attempt struct {
	Scheme grouping.Scheme
	Err    error
}

// ExhaustedError lists why each scheme of a dataset failed. It matches
// ErrSchemeExhausted under errors.Is.
type ExhaustedError struct {
	Attempts []Attempt
}

func (e *ExhaustedError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("scheme %d: %s", a.Scheme.Index+1, Classify(a.Err)))
	}
	if len(parts) == 0 {
		return ErrSchemeExhausted.Error()
	}
	return ErrSchemeExhausted.Error() + " (" + strings.Join(parts, "; ") + ")"
}

func (e *ExhaustedError) Unwrap() error {
	return ErrSchemeExhausted
}
