package pipeline

import (
	"context"
	"log/slog"

	"curadiff/internal/differential"
	"curadiff/internal/frame"
	"curadiff/internal/grouping"
	"curadiff/internal/logging"
	"curadiff/internal/replicates"
)

// Input is one sanitized metadata table paired with one expression matrix.
type Input struct {
	Table           *frame.Metadata
	HasSubCondition bool
	Matrix          *frame.Matrix
}

// Path names the merge strategy that produced a result.
type Path string

const (
	PathSubCondition Path = "sub_condition_merge"
	PathCountFilter  Path = "count_filter"
	PathSimpleGroup  Path = "simple_grouping"
)

// Result is the outcome of the first scheme whose chain succeeded.
type Result struct {
	Scheme grouping.Scheme
	Path   Path
	Matrix *frame.Matrix
	Counts frame.CountMap
	// Intermediate is the pre-merge differential matrix, set only on the
	// sub-condition and simple grouping paths.
	Intermediate *frame.Matrix
}

// Resolve evaluates the grouping schemes of in.Table in order and returns the
// first full success. Later schemes are never evaluated once one succeeds.
func Resolve(ctx context.Context, in Input, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	var attempts []Attempt
	for _, scheme := range grouping.Schemes(in.Table) {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		logger.Debug("trying grouping scheme",
			logging.String(logging.FieldEventType, "scheme_attempt"),
			logging.Int(logging.FieldScheme, scheme.Index+1),
			logging.Strings("condition_fields", scheme.ConditionFields),
			logging.Strings("decorator_fields", scheme.DecoratorFields),
		)
		result, err := resolveScheme(scheme, in)
		if err == nil {
			return result, nil
		}
		logger.Debug("grouping scheme failed",
			logging.String(logging.FieldEventType, "scheme_failed"),
			logging.Int(logging.FieldScheme, scheme.Index+1),
			logging.String(logging.FieldErrorKind, Classify(err)),
			logging.Error(err),
		)
		attempts = append(attempts, Attempt{Scheme: scheme, Err: err})
	}
	return Result{}, &ExhaustedError{Attempts: attempts}
}

func resolveScheme(scheme grouping.Scheme, in Input) (Result, error) {
	diff, err := differential.Compute(scheme.Assign(in.Table), in.Matrix)
	if err != nil {
		return Result{}, err
	}
	diff = diff.DropZeroRows()

	if in.HasSubCondition {
		merged, counts, err := replicates.MergeSubConditions(diff)
		if err != nil {
			return Result{}, err
		}
		return finish(scheme, PathSubCondition, merged, counts, diff), nil
	}

	filtered, counts, ok, err := replicates.FilterCounts(diff)
	if err != nil {
		return Result{}, err
	}
	if ok {
		return finish(scheme, PathCountFilter, filtered, counts, nil), nil
	}

	grouped, counts, err := replicates.SimpleGroup(diff)
	if err != nil {
		return Result{}, err
	}
	return finish(scheme, PathSimpleGroup, grouped, counts, diff), nil
}

// finish drops rows that became all-zero once columns were merged or removed.
func finish(scheme grouping.Scheme, path Path, m *frame.Matrix, counts frame.CountMap, intermediate *frame.Matrix) Result {
	return Result{
		Scheme:       scheme,
		Path:         path,
		Matrix:       m.DropZeroRows(),
		Counts:       counts,
		Intermediate: intermediate,
	}
}
