package ledger_test

import (
	"context"
	"database/sql"
	"errors"
	"slices"
	"testing"

	_ "modernc.org/sqlite"

	"curadiff/internal/ledger"
	"curadiff/internal/testsupport"
)

func TestOpenCreatesSchemaAndReopens(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	if store.Path() != cfg.Ledger.Path {
		t.Fatalf("unexpected path %q", store.Path())
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := ledger.Open(context.Background(), cfg.Ledger.Path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	reopened.Close()
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	store.Close()

	db, err := sql.Open("sqlite", cfg.Ledger.Path)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	db.Close()

	if _, err := ledger.Open(context.Background(), cfg.Ledger.Path); !errors.Is(err, ledger.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)

	runID := testsupport.BeginRun(t, store, cfg)

	outcomes := []ledger.Outcome{
		{
			RunID:           runID,
			Dataset:         "GSE1",
			Curator:         "alice",
			DataFile:        "GSE1.GPL1.processed.gz",
			Status:          ledger.StatusResolved,
			SchemeIndex:     2,
			ConditionFields: []string{"Condition", "Sub Condition"},
			DecoratorFields: []string{"Dose"},
			Columns:         3,
		},
		{
			RunID:    runID,
			Dataset:  "GSE2",
			Curator:  "bob",
			DataFile: "GSE2.GPL1.processed.gz",
			Status:   ledger.StatusFailed,
			Kind:     "scheme_exhausted",
			Message:  "every scheme failed",
		},
	}
	for _, o := range outcomes {
		if err := store.RecordOutcome(ctx, o); err != nil {
			t.Fatalf("RecordOutcome: %v", err)
		}
	}
	if err := store.FinishRun(ctx, runID, ledger.Totals{Resolved: 1, Failed: 1}); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	run, err := store.GetRun(ctx, runID[:8])
	if err != nil {
		t.Fatalf("GetRun by prefix: %v", err)
	}
	if run.ID != runID || !run.Finished() || run.Resolved != 1 || run.Failed != 1 {
		t.Fatalf("unexpected run %+v", run)
	}
	if run.RawDir != cfg.Paths.RawDir {
		t.Fatalf("unexpected raw dir %q", run.RawDir)
	}

	got, err := store.Outcomes(ctx, runID)
	if err != nil {
		t.Fatalf("Outcomes: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(got))
	}
	if got[0].Dataset != "GSE1" || got[0].SchemeIndex != 2 || got[0].Columns != 3 {
		t.Fatalf("unexpected first outcome %+v", got[0])
	}
	if !slices.Equal(got[0].ConditionFields, []string{"Condition", "Sub Condition"}) {
		t.Fatalf("unexpected condition fields %v", got[0].ConditionFields)
	}
	if got[1].Kind != "scheme_exhausted" || got[1].Status != ledger.StatusFailed || got[1].ConditionFields != nil {
		t.Fatalf("unexpected second outcome %+v", got[1])
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	ctx := context.Background()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)

	first := testsupport.BeginRun(t, store, cfg)
	second := testsupport.BeginRun(t, store, cfg)

	runs, err := store.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != second || runs[1].ID != first {
		t.Fatalf("unexpected order %+v", runs)
	}
	if runs[0].Finished() {
		t.Fatal("expected unfinished run")
	}

	limited, err := store.ListRuns(ctx, 1)
	if err != nil {
		t.Fatalf("ListRuns(1): %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("expected 1 run, got %d", len(limited))
	}
}

func TestGetRunUnknown(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)

	if _, err := store.GetRun(context.Background(), "missing"); !errors.Is(err, ledger.ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
	if err := store.FinishRun(context.Background(), "missing", ledger.Totals{}); !errors.Is(err, ledger.ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound from FinishRun, got %v", err)
	}
}
