// Package logging assembles structured slog loggers used across cheatdb.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context helpers so request handlers and draft sessions
// automatically tag log lines with the operator id and a correlation id. A
// no-op logger is provided for tests and wiring code that cannot fail.
package logging
