package resolve

import (
	"fmt"

	"cheatdb/internal/directory"
	"cheatdb/internal/identifier"
	"cheatdb/internal/store"
)

// Kind classifies a resolution outcome.
type Kind string

const (
	NotFound         Kind = "not_found"
	NewIdentity      Kind = "new_identity"
	ExistingIdentity Kind = "existing_identity"
	AmbiguousMatch   Kind = "ambiguous_match"
	StaleHandle      Kind = "stale_handle"
	Accepted         Kind = "accepted"
	DuplicateValue   Kind = "duplicate_value"
	OwnedElsewhere   Kind = "owned_elsewhere"
	Informational    Kind = "informational"
	Unrecognized     Kind = "unrecognized"
)

// Resolved reports whether the outcome carries a canonical identity that a
// draft can adopt.
func (k Kind) Resolved() bool {
	return k == NewIdentity || k == ExistingIdentity
}

// Directive asks the caller to set the handle of a stored identity.
type Directive struct {
	IdentityID int64  `json:"identity_id"`
	Handle     string `json:"handle"`
}

func (d Directive) String() string {
	if d.Handle == "" {
		return fmt.Sprintf("clear handle of id%d", d.IdentityID)
	}
	return fmt.Sprintf("set handle of id%d to %s", d.IdentityID, d.Handle)
}

// Outcome is the result of one resolution pass.
type Outcome struct {
	Kind  Kind
	Input identifier.Identifier
	// Entry is the directory result for identity inputs.
	Entry directory.Entry
	// Record is the stored identity the outcome refers to: the id match for
	// existing_identity, the stale claimant for stale_handle, the current
	// owner for owned_elsewhere.
	Record *store.Identity
	// Candidates lists every stored record involved in an ambiguous match.
	Candidates     []store.Identity
	Banned         bool
	HandleDrift    bool
	PreviousHandle string
	Directives     []Directive
}

// Identity returns the canonical id and handle for resolved outcomes.
func (o Outcome) Identity() (int64, string, bool) {
	if !o.Kind.Resolved() {
		return 0, "", false
	}
	return o.Entry.ID, o.Entry.Handle, true
}

// Resolution holds the outcomes produced for one input. A handle drift
// yields two: the stale_handle pass and the pass by canonical id.
type Resolution struct {
	Input    identifier.Identifier
	Outcomes []Outcome
}

// Final returns the last outcome, which decides what the caller does with
// the input.
func (r Resolution) Final() Outcome {
	if len(r.Outcomes) == 0 {
		return Outcome{Kind: Unrecognized, Input: r.Input}
	}
	return r.Outcomes[len(r.Outcomes)-1]
}

// Directives collects the directives of every outcome in order.
func (r Resolution) Directives() []Directive {
	var out []Directive
	for _, o := range r.Outcomes {
		out = append(out, o.Directives...)
	}
	return out
}

func single(in identifier.Identifier, o Outcome) Resolution {
	o.Input = in
	return Resolution{Input: in, Outcomes: []Outcome{o}}
}
