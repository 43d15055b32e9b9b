// Package preflight provides readiness checks for the filesystem paths and
// the directory API that cheatdb depends on.
//
// The daemon runs RunAll at startup and logs failures; the CLI "status"
// command renders the same results as a table.
package preflight
