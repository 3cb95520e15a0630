// Package tsv reads and writes the tab-separated tables exchanged with the
// curation repository: per-sample metadata files, gzip-compressed expression
// matrices, differential matrices, and replicate count maps.
//
// Readers follow the conventions of the files curators produce: the first
// column is the row index, the header's first cell names that index (and may be
// omitted), and common "not available" spellings are treated as missing.
// Writers emit the header without an index label and format floats in their
// shortest round-trip form so reruns are byte-identical.
package tsv
