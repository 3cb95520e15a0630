// Package differential computes treatment-vs-control fold-change matrices for
// one grouping scheme.
//
// Samples are grouped by condition key. Within a group that holds a Control
// label and at least one other treatment label, each label's per-gene median
// is reduced by the Control median. Output columns are labelled
// "<treatment>@<condition> rep <n>", where n is the number of replicate pairs
// the difference rests on.
package differential
