// Package importer ingests whole documents of reports and writes the store
// back out in the same format.
//
// A document is one token per line. An identity line (profile link, id, or
// screen name) opens a record; the phone, card, proof, and fifty lines that
// follow attach to it until the next identity line. A section marker line
// marks every record opened after it as fifty. Records are committed as
// their block ends. Lines that cannot be placed are skipped and reported
// with their line numbers; one bad line never aborts the document.
package importer
