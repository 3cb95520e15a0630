package testsupport

import (
	"context"
	"testing"

	"curadiff/internal/config"
	"curadiff/internal/ledger"
)

// MustOpenLedger opens a ledger.Store for tests and registers cleanup.
func MustOpenLedger(t testing.TB, cfg *config.Config) *ledger.Store {
	t.Helper()

	store, err := ledger.Open(context.Background(), cfg.Ledger.Path)
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// BeginRun starts a ledger run for tests.
func BeginRun(t testing.TB, store *ledger.Store, cfg *config.Config) string {
	t.Helper()

	id, err := store.BeginRun(context.Background(), cfg.Paths.RawDir, cfg.Paths.DiffDir)
	if err != nil {
		t.Fatalf("store.BeginRun: %v", err)
	}
	return id
}
