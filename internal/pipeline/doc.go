// Package pipeline turns curated metadata and expression matrices into
// differential profiles.
//
// Resolve walks a dataset's grouping schemes in priority order and returns on
// the first scheme whose differential computation and replicate merge both
// succeed. Runner drives Resolve over every dataset in a raw directory, writes
// the .diff, .cntmap and .sep.gz artifacts, and records one ledger outcome per
// expression file. Failures stay local to the dataset that raised them.
package pipeline
