// Package identifier turns raw operator text into typed identifiers.
//
// Classification is a pure function with no I/O. Input is first normalized
// (full-width runes folded, lower-cased, whitespace removed, a single leading
// '+' stripped) and then matched against categories in a fixed priority
// order: profile id, screen name, wall link, phone, card, the partial-trust
// token, proof link. The first category that matches wins, so a 16-digit
// card is never mistaken for a phone and a purely numeric token is never a
// screen name. Anything else is Unrecognized, which is a normal outcome
// rather than an error.
package identifier
