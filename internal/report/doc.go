// Package report implements the per-operator draft that accumulates an
// identity report across several messages.
//
// A draft moves from empty to accumulating on the first accepted field and
// leaves accumulating only through Commit or Cancel. Every Apply works on a
// copy of the draft and swaps it in only when the whole message resolved and
// its directives were written, so a failed lookup or store error never
// leaves a half-applied draft behind.
package report
