package ledger

import (
	"errors"
	"time"
)

// Status is the terminal state of one dataset file within a run.
type Status string

const (
	StatusResolved Status = "resolved"
	StatusFailed   Status = "failed"
	StatusSkipped  Status = "skipped"
)

// ErrRunNotFound is returned when a run identifier is unknown.
var ErrRunNotFound = errors.New("run not found")

// Run is one batch invocation.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	RawDir     string
	DiffDir    string
	Resolved   int
	Failed     int
	Skipped    int
}

// Finished reports whether FinishRun was recorded.
func (r Run) Finished() bool {
	return !r.FinishedAt.IsZero()
}

// Outcome records how one expression file of a dataset ended.
type Outcome struct {
	RunID           string
	Dataset         string
	Curator         string
	DataFile        string
	Status          Status
	SchemeIndex     int
	ConditionFields []string
	DecoratorFields []string
	Columns         int
	Kind            string
	Message         string
	RecordedAt      time.Time
}

// Totals are the per-status outcome counts stored on a finished run.
type Totals struct {
	Resolved int
	Failed   int
	Skipped  int
}
