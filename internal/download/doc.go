// Package download fetches curated files listed one URL per line into a raw
// directory.
//
// Credentials travel in an explicit Session value handed to NewClient; nothing
// is stored at package level. Each URL is saved under its final path segment,
// and metadata files (names containing ".meta") additionally get the curator
// segment that precedes them appended, so "…/alice/GSE1.meta/" is stored as
// "GSE1.meta.alice". Transient HTTP failures are retried with exponential
// backoff; files are written atomically.
package download
