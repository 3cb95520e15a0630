// Package metadata cleans curator-supplied sample annotations into a table that
// is safe to build composite grouping keys from.
//
// Sanitize keeps only samples annotated with both a Treatment and a Condition,
// discards fields nobody filled in, and rewrites the reserved key separators
// ("&" and "@") so that every label built downstream can be split back into its
// parts without ambiguity.
package metadata
