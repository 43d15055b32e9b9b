// Package resolve reconciles classified identifiers against the directory
// and the identity store.
//
// Identity inputs (profile ids and screen names) are looked up in the
// directory to learn the canonical numeric id and current handle, then
// matched against stored records. Handles drift: the store can hold a
// handle that the directory now assigns to a different account. When a
// screen name is claimed by exactly one stored record with a different id,
// the engine emits a stale_handle outcome carrying a directive that refreshes
// the old record's handle, then resolves again by the canonical id. Two or
// more stale claims are an ambiguous match that is never auto-resolved.
//
// Attachment inputs (phones, cards, proof links, the fifty token) resolve
// locally against the caller's accumulated values, plus a store ownership
// check for phones and cards.
//
// The engine never writes. Directives are applied by the caller, after the
// whole input has resolved, with ApplyDirectives.
package resolve
