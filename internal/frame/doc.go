// Package frame holds the two in-memory tables the differential pipeline works
// on: a per-sample Metadata table of string annotations and a numeric Matrix of
// genes by columns.
//
// Both types are plain row-major slices. Alignment between tables is never
// implicit: callers select columns by index and join on identifiers through
// JoinColumns, so every operation that mixes two tables states which side wins.
package frame
