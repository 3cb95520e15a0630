package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"curadiff/internal/discovery"
	"curadiff/internal/ledger"
	"curadiff/internal/logging"
	"curadiff/internal/metadata"
	"curadiff/internal/tsv"
)

// LockFileName is created in the diff directory while a batch runs.
const LockFileName = ".curadiff.lock"

// Ledger records batch runs. *ledger.Store satisfies it.
type Ledger interface {
	BeginRun(ctx context.Context, rawDir, diffDir string) (string, error)
	RecordOutcome(ctx context.Context, o ledger.Outcome) error
	FinishRun(ctx context.Context, id string, totals ledger.Totals) error
}

// Runner processes every dataset in RawDir and writes artifacts to DiffDir.
type Runner struct {
	RawDir  string
	DiffDir string
	// Ledger is optional.
	Ledger Ledger
	Logger *slog.Logger
}

// Summary reports how a batch ended.
type Summary struct {
	RunID    string
	Resolved int
	Failed   int
	Skipped  int
	Outcomes []ledger.Outcome
	Elapsed  time.Duration
}

// Totals converts the summary counts for the ledger.
func (s Summary) Totals() ledger.Totals {
	return ledger.Totals{Resolved: s.Resolved, Failed: s.Failed, Skipped: s.Skipped}
}

// Run processes the batch. Dataset failures are logged and counted, never
// returned. The returned error covers setup problems, a held lock, and
// cancellation, which stops the batch between expression files.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	logger := r.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "pipeline")

	if err := os.MkdirAll(r.DiffDir, 0o755); err != nil {
		return Summary{}, fmt.Errorf("create diff directory: %w", err)
	}
	lock := flock.New(filepath.Join(r.DiffDir, LockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return Summary{}, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return Summary{}, ErrLocked
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release diff directory lock", logging.Error(err))
		}
	}()

	datasets, err := discovery.Scan(r.RawDir)
	if err != nil {
		return Summary{}, err
	}

	started := time.Now()
	var summary Summary
	if r.Ledger != nil {
		id, err := r.Ledger.BeginRun(ctx, r.RawDir, r.DiffDir)
		if err != nil {
			return Summary{}, fmt.Errorf("begin ledger run: %w", err)
		}
		summary.RunID = id
		ctx = logging.WithRunID(ctx, id)
	}
	logger.Info("batch started",
		logging.String(logging.FieldEventType, "batch_started"),
		logging.String("raw_dir", r.RawDir),
		logging.String("diff_dir", r.DiffDir),
		logging.Int("datasets", len(datasets)),
	)

	var runErr error
	for _, ds := range datasets {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		if err := r.processDataset(ctx, logger, ds, &summary); err != nil {
			runErr = err
			break
		}
	}
	summary.Elapsed = time.Since(started)

	if r.Ledger != nil {
		// Finish with a fresh context so a cancelled batch still closes its run.
		if err := r.Ledger.FinishRun(context.WithoutCancel(ctx), summary.RunID, summary.Totals()); err != nil {
			logging.WarnWithContext(logger, "failed to finish ledger run", "ledger_error",
				logging.Error(err),
				logging.String(logging.FieldImpact, "run stays open in the ledger"),
			)
		}
	}

	logger.Info("batch finished",
		logging.String(logging.FieldEventType, "batch_finished"),
		logging.Int("resolved", summary.Resolved),
		logging.Int("failed", summary.Failed),
		logging.Int("skipped", summary.Skipped),
		logging.Duration("elapsed", summary.Elapsed),
	)
	return summary, runErr
}

// processDataset returns an error only on cancellation.
func (r *Runner) processDataset(ctx context.Context, logger *slog.Logger, ds discovery.Dataset, summary *Summary) error {
	ctx = logging.WithDataset(ctx, ds.ID)
	dsLogger := logging.WithContext(ctx, logger).With(logging.String(logging.FieldCurator, ds.Curator))

	base := ledger.Outcome{Dataset: ds.ID, Curator: ds.Curator}
	if len(ds.DataFiles) == 0 {
		dsLogger.Info("dataset has no expression files",
			logging.String(logging.FieldEventType, "dataset_skipped"),
			logging.String(logging.FieldErrorKind, KindNoDataFiles),
		)
		base.Status = ledger.StatusSkipped
		base.Kind = KindNoDataFiles
		r.record(ctx, dsLogger, summary, base)
		return nil
	}

	raw, err := tsv.ReadMetadataFile(ds.MetaPath)
	if err != nil {
		err = fmt.Errorf("%w: %s: %v", ErrLoad, filepath.Base(ds.MetaPath), err)
		r.fail(ctx, dsLogger, summary, base, err)
		return nil
	}
	sanitized, err := metadata.Sanitize(raw)
	if err != nil {
		kind := Classify(err)
		dsLogger.Info("dataset metadata unusable",
			logging.String(logging.FieldEventType, "dataset_skipped"),
			logging.String(logging.FieldErrorKind, kind),
			logging.Error(err),
		)
		base.Status = ledger.StatusSkipped
		base.Kind = kind
		base.Message = err.Error()
		r.record(ctx, dsLogger, summary, base)
		return nil
	}
	if len(sanitized.DroppedFields) > 0 || sanitized.DroppedRows > 0 {
		dsLogger.Debug("metadata sanitized",
			logging.Int("dropped_rows", sanitized.DroppedRows),
			logging.Strings("dropped_fields", sanitized.DroppedFields),
			logging.Bool("sub_condition", sanitized.HasSubCondition),
		)
	}

	for _, df := range ds.DataFiles {
		if err := ctx.Err(); err != nil {
			return err
		}
		outcome := base
		outcome.DataFile = df.Name
		fileLogger := dsLogger.With(logging.String(logging.FieldDataFile, df.Name))

		matrix, err := tsv.ReadMatrixFile(df.Path)
		if err != nil {
			r.fail(ctx, fileLogger, summary, outcome, fmt.Errorf("%w: %s: %v", ErrLoad, df.Name, err))
			continue
		}
		result, err := Resolve(ctx, Input{
			Table:           sanitized.Table,
			HasSubCondition: sanitized.HasSubCondition,
			Matrix:          matrix,
		}, fileLogger)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			r.fail(ctx, fileLogger, summary, outcome, err)
			continue
		}
		if err := writeArtifacts(ArtifactPaths(r.DiffDir, df.Output), result); err != nil {
			r.fail(ctx, fileLogger, summary, outcome, err)
			continue
		}

		outcome.Status = ledger.StatusResolved
		outcome.SchemeIndex = result.Scheme.Index + 1
		outcome.ConditionFields = result.Scheme.ConditionFields
		outcome.DecoratorFields = result.Scheme.DecoratorFields
		outcome.Columns = len(result.Matrix.Columns)
		fileLogger.Info("dataset resolved",
			logging.String(logging.FieldEventType, "dataset_resolved"),
			logging.Int(logging.FieldScheme, outcome.SchemeIndex),
			logging.String("path", string(result.Path)),
			logging.Int("columns", outcome.Columns),
			logging.Int("genes", len(result.Matrix.Rows)),
			logging.String("output", df.Output),
		)
		r.record(ctx, fileLogger, summary, outcome)
	}
	return nil
}

func (r *Runner) fail(ctx context.Context, logger *slog.Logger, summary *Summary, outcome ledger.Outcome, err error) {
	kind := Classify(err)
	logging.WarnWithContext(logger, "dataset failed", "dataset_failed",
		logging.String(logging.FieldErrorKind, kind),
		logging.String(logging.FieldErrorHint, hintFor(kind)),
		logging.String(logging.FieldImpact, "no artifacts written for this file"),
		logging.Error(err),
	)
	outcome.Status = ledger.StatusFailed
	outcome.Kind = kind
	outcome.Message = err.Error()
	r.record(ctx, logger, summary, outcome)
}

func (r *Runner) record(ctx context.Context, logger *slog.Logger, summary *Summary, outcome ledger.Outcome) {
	switch outcome.Status {
	case ledger.StatusResolved:
		summary.Resolved++
	case ledger.StatusFailed:
		summary.Failed++
	case ledger.StatusSkipped:
		summary.Skipped++
	}
	outcome.RunID = summary.RunID
	summary.Outcomes = append(summary.Outcomes, outcome)
	if r.Ledger == nil {
		return
	}
	if err := r.Ledger.RecordOutcome(ctx, outcome); err != nil {
		logging.WarnWithContext(logger, "failed to record outcome", "ledger_error",
			logging.Error(err),
			logging.String(logging.FieldImpact, "outcome missing from run history"),
		)
	}
}

func hintFor(kind string) string {
	switch kind {
	case KindSchemeExhausted:
		return "no grouping yields replicated treatments; review Condition annotations"
	case KindLoadFailed:
		return "check the file is tab-separated with numeric expression values"
	case KindWriteFailed:
		return "check free space and permissions on the diff directory"
	default:
		return "check logs for details"
	}
}
