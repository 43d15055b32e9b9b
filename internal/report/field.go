package report

import (
	"errors"
	"fmt"
	"strconv"

	"cheatdb/internal/directory"
	"cheatdb/internal/identifier"
	"cheatdb/internal/store"
)

// Field names a draft field that an input can update.
type Field string

const (
	FieldIdentity Field = "identity"
	FieldPhones   Field = "phones"
	FieldCards    Field = "cards"
	FieldFifty    Field = "fifty"
	FieldProof    Field = "proof"
)

var knownFields = map[Field]struct{}{
	FieldIdentity: {},
	FieldPhones:   {},
	FieldCards:    {},
	FieldFifty:    {},
	FieldProof:    {},
}

// ErrUnknownField is returned when a field update names no draft field.
var ErrUnknownField = errors.New("unknown draft field")

// Change records one draft mutation for echoing back to the operator.
type Change struct {
	Field    Field  `json:"field"`
	Value    string `json:"value"`
	Previous string `json:"previous,omitempty"`
}

func (c Change) String() string {
	if c.Previous != "" {
		return fmt.Sprintf("%s: %s (was %s)", c.Field, c.Value, c.Previous)
	}
	return fmt.Sprintf("%s: %s", c.Field, c.Value)
}

// FieldUpdate is a validated instruction to set or extend one draft field.
type FieldUpdate struct {
	field    Field
	value    string
	entry    directory.Entry
	existing *store.Identity
}

// NewFieldUpdate validates the field name. Identity updates carry a
// directory entry and are built with IdentityUpdate instead.
func NewFieldUpdate(field string, value string) (FieldUpdate, error) {
	f := Field(field)
	if _, ok := knownFields[f]; !ok {
		return FieldUpdate{}, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	if f == FieldIdentity {
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil || id <= 0 {
			return FieldUpdate{}, fmt.Errorf("identity field needs a positive id, got %q", value)
		}
		return IdentityUpdate(directory.Entry{ID: id}, nil), nil
	}
	return FieldUpdate{field: f, value: value}, nil
}

// IdentityUpdate sets the draft identity from a resolved directory entry.
func IdentityUpdate(entry directory.Entry, existing *store.Identity) FieldUpdate {
	return FieldUpdate{
		field:    FieldIdentity,
		value:    strconv.FormatInt(entry.ID, 10),
		entry:    entry,
		existing: existing,
	}
}

// fieldFor maps an attachment category to its draft field.
func fieldFor(category identifier.Category) (Field, bool) {
	switch category {
	case identifier.Phone:
		return FieldPhones, true
	case identifier.Card:
		return FieldCards, true
	case identifier.ProofLink:
		return FieldProof, true
	case identifier.Fifty:
		return FieldFifty, true
	default:
		return "", false
	}
}

// Apply mutates d and reports the change, or false when d already held the
// value.
func (u FieldUpdate) Apply(d *Draft) (Change, bool) {
	switch u.field {
	case FieldIdentity:
		return u.applyIdentity(d)
	case FieldPhones:
		return appendUnique(&d.Phones, u.field, u.value)
	case FieldCards:
		return appendUnique(&d.Cards, u.field, u.value)
	case FieldProof:
		return appendUnique(&d.Proofs, u.field, u.value)
	case FieldFifty:
		if d.Fifty {
			return Change{}, false
		}
		d.Fifty = true
		return Change{Field: FieldFifty, Value: "true", Previous: "false"}, true
	}
	return Change{}, false
}

func (u FieldUpdate) applyIdentity(d *Draft) (Change, bool) {
	previous := d.IdentityLabel()
	next := identityLabel(u.entry.ID, u.entry.Handle)
	if d.ID == u.entry.ID && d.Handle == u.entry.Handle && d.Banned == u.entry.Banned {
		return Change{}, false
	}
	d.ID = u.entry.ID
	d.Handle = u.entry.Handle
	d.Name = u.entry.Name
	d.Banned = u.entry.Banned
	d.Existing = u.existing
	if previous == next {
		previous = ""
	}
	return Change{Field: FieldIdentity, Value: next, Previous: previous}, true
}

func appendUnique(list *[]string, field Field, value string) (Change, bool) {
	for _, v := range *list {
		if v == value {
			return Change{}, false
		}
	}
	*list = append(*list, value)
	return Change{Field: field, Value: value}, true
}
