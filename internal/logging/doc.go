// Package logging assembles structured slog loggers and formatting helpers used
// across curadiff.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code can tag log
// lines with the run identifier and the dataset being resolved. A no-op logger
// is provided for tests and wiring code that cannot fail.
package logging
