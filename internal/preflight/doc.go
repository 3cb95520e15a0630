// Package preflight provides readiness checks for the filesystem paths and
// credentials curadiff depends on.
//
// The batch runner calls RunAll before touching any dataset; a failed check
// aborts the batch before partial output is written. The CLI "config validate"
// command prints the same results.
package preflight
