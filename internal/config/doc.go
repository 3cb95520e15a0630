// Package config loads, normalizes, and validates curadiff configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and lets environment variables override the
// download session credentials. The Config type gathers every knob the CLI
// needs so the raw and diff directories, ledger location, and session details
// are discovered in one pass.
package config
