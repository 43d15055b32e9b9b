// Package daemon coordinates the long-running cheatdb process.
//
// It wires the shared services into a single lifecycle with flock-based
// locking to prevent multiple instances, and serves the HTTP API that chat
// adapters use to run lookups, drive operator drafts, and import or export
// the database.
//
// Keep orchestration logic here: resolution and draft semantics live in
// their own packages while the daemon focuses on startup, shutdown, request
// authorization, and transport.
package daemon
