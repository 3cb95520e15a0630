// Package main hosts the curadiff CLI entrypoint and command graph.
//
// The Cobra command tree downloads curated datasets from a URL list, turns
// them into differential expression profiles, and reports past batches from
// the run ledger. Configuration resolution and logger setup live in the
// command context so subcommands only wire flags to the internal packages.
package main
