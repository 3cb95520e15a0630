// Package ledger persists a history of batch runs and the outcome of every
// dataset file each run touched.
//
// The store is a single SQLite database (modernc.org/sqlite, no cgo) opened in
// WAL mode. Runs are keyed by a random UUID; outcomes record which grouping
// scheme resolved a dataset or which failure kind ended it, so "curadiff runs
// show" can explain a batch after the fact.
package ledger
