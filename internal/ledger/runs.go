package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BeginRun inserts a new run and returns its identifier.
func (s *Store) BeginRun(ctx context.Context, rawDir, diffDir string) (string, error) {
	id := uuid.NewString()
	_, err := s.execWithRetry(ctx,
		`INSERT INTO runs (id, started_at, raw_dir, diff_dir) VALUES (?, ?, ?, ?)`,
		id, formatTime(time.Now()), rawDir, diffDir,
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// RecordOutcome appends one outcome to its run.
func (s *Store) RecordOutcome(ctx context.Context, o Outcome) error {
	conditions, err := encodeFields(o.ConditionFields)
	if err != nil {
		return err
	}
	decorators, err := encodeFields(o.DecoratorFields)
	if err != nil {
		return err
	}
	recorded := o.RecordedAt
	if recorded.IsZero() {
		recorded = time.Now()
	}
	_, err = s.execWithRetry(ctx,
		`INSERT INTO outcomes (
            run_id, dataset, curator, data_file, status, scheme_index,
            condition_fields, decorator_fields, column_count, kind, message, recorded_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.RunID, o.Dataset, o.Curator, o.DataFile, string(o.Status), o.SchemeIndex,
		conditions, decorators, o.Columns, nullableString(o.Kind), nullableString(o.Message), formatTime(recorded),
	)
	if err != nil {
		return fmt.Errorf("insert outcome: %w", err)
	}
	return nil
}

// FinishRun stamps the run's end time and totals.
func (s *Store) FinishRun(ctx context.Context, id string, totals Totals) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE runs SET finished_at = ?, resolved = ?, failed = ?, skipped = ? WHERE id = ?`,
		formatTime(time.Now()), totals.Resolved, totals.Failed, totals.Skipped, id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

const runColumns = `id, started_at, finished_at, raw_dir, diff_dir, resolved, failed, skipped`

// ListRuns returns the most recent runs first. A non-positive limit returns all runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun fetches a run by identifier or unique prefix.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = ? OR id LIKE ? ORDER BY id LIMIT 2`,
		id, id+"%",
	)
	if err != nil {
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	defer rows.Close()

	var matches []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return Run{}, err
		}
		if run.ID == id {
			return run, nil
		}
		matches = append(matches, run)
	}
	if err := rows.Err(); err != nil {
		return Run{}, err
	}
	switch len(matches) {
	case 0:
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	case 1:
		return matches[0], nil
	default:
		return Run{}, fmt.Errorf("run prefix %q is ambiguous", id)
	}
}

// Outcomes lists a run's outcomes in recording order.
func (s *Store) Outcomes(ctx context.Context, runID string) ([]Outcome, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, dataset, curator, data_file, status, scheme_index,
            condition_fields, decorator_fields, column_count, kind, message, recorded_at
        FROM outcomes WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}
	defer rows.Close()

	var out []Outcome
	for rows.Next() {
		var (
			o                      Outcome
			status, recorded       string
			conditions, decorators sql.NullString
			kind, message          sql.NullString
		)
		if err := rows.Scan(&o.RunID, &o.Dataset, &o.Curator, &o.DataFile, &status, &o.SchemeIndex,
			&conditions, &decorators, &o.Columns, &kind, &message, &recorded); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		o.Status = Status(status)
		o.Kind = kind.String
		o.Message = message.String
		if o.ConditionFields, err = decodeFields(conditions); err != nil {
			return nil, err
		}
		if o.DecoratorFields, err = decodeFields(decorators); err != nil {
			return nil, err
		}
		if o.RecordedAt, err = parseTime(recorded); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run      Run
		started  string
		finished sql.NullString
	)
	if err := row.Scan(&run.ID, &started, &finished, &run.RawDir, &run.DiffDir,
		&run.Resolved, &run.Failed, &run.Skipped); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, ErrRunNotFound
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	var err error
	if run.StartedAt, err = parseTime(started); err != nil {
		return Run{}, err
	}
	if finished.Valid {
		if run.FinishedAt, err = parseTime(finished.String); err != nil {
			return Run{}, err
		}
	}
	return run, nil
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", value, err)
	}
	return t, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func encodeFields(fields []string) (any, error) {
	if len(fields) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}
	return string(data), nil
}

func decodeFields(value sql.NullString) ([]string, error) {
	if !value.Valid || value.String == "" {
		return nil, nil
	}
	var fields []string
	if err := json.Unmarshal([]byte(value.String), &fields); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	return fields, nil
}
