package store

import (
	"slices"
	"strings"
	"time"
)

// Identity is one reported account keyed by its numeric platform id.
type Identity struct {
	ID        int64
	Handle    string
	Fifty     bool
	Proof     string
	Phones    []string
	Cards     []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Proofs returns the individual proof references stored in Proof.
func (i Identity) Proofs() []string {
	return SplitProof(i.Proof)
}

// HasPhone reports whether value is one of the identity's phones.
func (i Identity) HasPhone(value string) bool {
	return slices.Contains(i.Phones, value)
}

// HasCard reports whether value is one of the identity's cards.
func (i Identity) HasCard(value string) bool {
	return slices.Contains(i.Cards, value)
}

// SplitProof splits a stored proof column into its non-empty lines.
func SplitProof(proof string) []string {
	var out []string
	for _, line := range strings.Split(proof, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// JoinProof unions proof lists in order, dropping blanks and repeats, and
// returns the newline-joined column value.
func JoinProof(lists ...[]string) string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, p := range list {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n")
}

// Stats summarises store contents.
type Stats struct {
	Identities int
	Fifty      int
	Phones     int
	Cards      int
	Operators  int
}
