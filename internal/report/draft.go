package report

import (
	"slices"
	"strconv"
	"time"

	"cheatdb/internal/identifier"
	"cheatdb/internal/store"
)

// Draft is a partially built identity report.
type Draft struct {
	Operator int64
	ID       int64
	Handle   string
	Name     string
	Banned   bool
	// Existing is the stored record the identity resolved to, if any.
	Existing  *store.Identity
	Phones    []string
	Cards     []string
	Proofs    []string
	Fifty     bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewDraft returns an empty draft for operator.
func NewDraft(operator int64) *Draft {
	ts := time.Now().UTC()
	return &Draft{Operator: operator, CreatedAt: ts, UpdatedAt: ts}
}

// IdentityID returns the resolved numeric id, or zero.
func (d *Draft) IdentityID() int64 {
	if d == nil {
		return 0
	}
	return d.ID
}

// Contains reports whether value has already been gathered for category.
func (d *Draft) Contains(category identifier.Category, value string) bool {
	if d == nil {
		return false
	}
	switch category {
	case identifier.Phone:
		return slices.Contains(d.Phones, value)
	case identifier.Card:
		return slices.Contains(d.Cards, value)
	case identifier.ProofLink:
		return slices.Contains(d.Proofs, value)
	case identifier.Fifty:
		return d.Fifty
	case identifier.ProfileID:
		return d.ID > 0 && strconv.FormatInt(d.ID, 10) == value
	case identifier.ScreenName:
		return d.Handle != "" && d.Handle == value
	default:
		return false
	}
}

// Empty reports whether nothing has been gathered yet.
func (d *Draft) Empty() bool {
	return d == nil || (d.ID == 0 && len(d.Phones) == 0 && len(d.Cards) == 0 && len(d.Proofs) == 0 && !d.Fifty)
}

// Clone returns a deep copy.
func (d *Draft) Clone() *Draft {
	if d == nil {
		return nil
	}
	c := *d
	c.Phones = slices.Clone(d.Phones)
	c.Cards = slices.Clone(d.Cards)
	c.Proofs = slices.Clone(d.Proofs)
	if d.Existing != nil {
		existing := *d.Existing
		existing.Phones = slices.Clone(d.Existing.Phones)
		existing.Cards = slices.Clone(d.Existing.Cards)
		c.Existing = &existing
	}
	return &c
}

// Record returns the identity the draft commits.
func (d *Draft) Record() store.Identity {
	return store.Identity{
		ID:     d.ID,
		Handle: d.Handle,
		Fifty:  d.Fifty,
		Proof:  store.JoinProof(d.Proofs),
		Phones: slices.Clone(d.Phones),
		Cards:  slices.Clone(d.Cards),
	}
}

// IdentityLabel renders the draft identity as "id<N> (handle)".
func (d *Draft) IdentityLabel() string {
	if d == nil || d.ID == 0 {
		return ""
	}
	return identityLabel(d.ID, d.Handle)
}

func identityLabel(id int64, handle string) string {
	label := "id" + strconv.FormatInt(id, 10)
	if handle != "" {
		label += " (" + handle + ")"
	}
	return label
}
