// Package replicates consolidates differential columns that describe the same
// comparison into one column per comparison.
//
// Three strategies exist, chosen by the caller:
//   - MergeSubConditions drops the sub-condition from each column's condition
//     and takes the per-gene median over columns that collapse together,
//     summing their replicate counts.
//   - FilterCounts keeps the columns already backed by more than one replicate.
//   - SimpleGroup reduces every column to its bare treatment descriptor and
//     takes the median over descriptors seen more than once.
//
// Every strategy returns the merged matrix together with a CountMap that has
// one entry per retained column.
package replicates
