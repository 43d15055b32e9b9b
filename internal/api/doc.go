// Package api defines wire-format types and converters for the HTTP API. It
// translates store, report, resolve, and importer models into
// transport-friendly DTOs that chat adapters and other consumers can render
// without coupling to internal types.
//
// # Key Types
//
// Identity: a stored record with phones, cards, and proof links.
//
// Draft / ApplyResponse: the operator's draft and the per-line outcome of an
// input message, including the field changes to echo back.
//
// CheckResponse: the verdict of a public lookup.
//
// ImportResponse: imported records and skipped lines of a bulk import.
//
// StatusResponse: daemon runtime state and store counts.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Outcome kinds and verdicts are exposed as
// their lowercase string values. Timestamps use RFC3339 with milliseconds.
package api
