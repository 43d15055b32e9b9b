package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

// ErrInvalidIdentity is returned when a merge has no usable identity id.
var ErrInvalidIdentity = errors.New("identity id must be positive")

func identityFromRow(row Row) Identity {
	return Identity{
		ID:        asInt64(row["id"]),
		Handle:    asString(row["handle"]),
		Fifty:     asInt64(row["fifty"]) != 0,
		Proof:     asString(row["proof"]),
		CreatedAt: parseTime(asString(row["created_at"])),
		UpdatedAt: parseTime(asString(row["updated_at"])),
	}
}

func (o ops) attachValues(ctx context.Context, ident *Identity) error {
	phones, err := o.SelectWhere(ctx, Phones, []string{"value"}, Where("identity_id", ident.ID), And)
	if err != nil {
		return err
	}
	cards, err := o.SelectWhere(ctx, Cards, []string{"value"}, Where("identity_id", ident.ID), And)
	if err != nil {
		return err
	}
	ident.Phones = columnStrings(phones, "value")
	ident.Cards = columnStrings(cards, "value")
	return nil
}

func columnStrings(rows []Row, col string) []string {
	if len(rows) == 0 {
		return nil
	}
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, asString(row[col]))
	}
	return out
}

func (o ops) identitiesWhere(ctx context.Context, pred Predicate, comb Combinator) ([]Identity, error) {
	rows, err := o.SelectWhere(ctx, Identities, nil, pred, comb)
	if err != nil {
		return nil, err
	}
	out := make([]Identity, 0, len(rows))
	for _, row := range rows {
		ident := identityFromRow(row)
		if err := o.attachValues(ctx, &ident); err != nil {
			return nil, err
		}
		out = append(out, ident)
	}
	return out, nil
}

// GetIdentity returns the identity with the given id, or nil when absent.
func (o ops) GetIdentity(ctx context.Context, id int64) (*Identity, error) {
	found, err := o.identitiesWhere(ctx, Where("id", id), And)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, nil
	}
	return &found[0], nil
}

// FindIdentities returns every identity whose id equals id or whose handle
// equals handle. A zero id or empty handle is left out of the search.
func (o ops) FindIdentities(ctx context.Context, id int64, handle string) ([]Identity, error) {
	var pred Predicate
	if id > 0 {
		pred = append(pred, Eq{Column: "id", Value: id})
	}
	if handle != "" {
		pred = append(pred, Eq{Column: "handle", Value: handle})
	}
	if len(pred) == 0 {
		return nil, nil
	}
	return o.identitiesWhere(ctx, pred, Or)
}

// FindByHandle returns identities currently recorded with handle.
func (o ops) FindByHandle(ctx context.Context, handle string) ([]Identity, error) {
	if handle == "" {
		return nil, nil
	}
	return o.identitiesWhere(ctx, Where("handle", handle), And)
}

// FindByPhone returns the identities owning phone value.
func (o ops) FindByPhone(ctx context.Context, value string) ([]Identity, error) {
	return o.findByValue(ctx, Phones, value)
}

// FindByCard returns the identities owning card value.
func (o ops) FindByCard(ctx context.Context, value string) ([]Identity, error) {
	return o.findByValue(ctx, Cards, value)
}

func (o ops) findByValue(ctx context.Context, rel Relation, value string) ([]Identity, error) {
	if value == "" {
		return nil, nil
	}
	rows, err := o.SelectWhere(ctx, rel, []string{"identity_id"}, Where("value", value), And)
	if err != nil {
		return nil, err
	}
	out := make([]Identity, 0, len(rows))
	for _, row := range rows {
		ident, err := o.GetIdentity(ctx, asInt64(row["identity_id"]))
		if err != nil {
			return nil, err
		}
		if ident != nil {
			out = append(out, *ident)
		}
	}
	return out, nil
}

// ListIdentities returns every identity ordered by insertion.
func (o ops) ListIdentities(ctx context.Context) ([]Identity, error) {
	rows, err := o.SelectWhere(ctx, Identities, nil, nil, And)
	if err != nil {
		return nil, err
	}
	phones, err := o.SelectWhere(ctx, Phones, nil, nil, And)
	if err != nil {
		return nil, err
	}
	cards, err := o.SelectWhere(ctx, Cards, nil, nil, And)
	if err != nil {
		return nil, err
	}
	phonesByID := groupValues(phones)
	cardsByID := groupValues(cards)

	out := make([]Identity, 0, len(rows))
	for _, row := range rows {
		ident := identityFromRow(row)
		ident.Phones = phonesByID[ident.ID]
		ident.Cards = cardsByID[ident.ID]
		out = append(out, ident)
	}
	return out, nil
}

func groupValues(rows []Row) map[int64][]string {
	out := make(map[int64][]string)
	for _, row := range rows {
		id := asInt64(row["identity_id"])
		out[id] = append(out[id], asString(row["value"]))
	}
	return out
}

// MergeIdentity writes rec into the store. An absent identity is inserted;
// an existing one gains rec's phones, cards, and proof lines, keeps Fifty if
// either side has it, and takes rec's handle when rec carries one. Phones
// and cards never shrink and Fifty never goes from true to false. The
// post-merge record is returned.
func (o ops) MergeIdentity(ctx context.Context, rec Identity) (Identity, error) {
	if rec.ID <= 0 {
		return Identity{}, ErrInvalidIdentity
	}
	existing, err := o.GetIdentity(ctx, rec.ID)
	if err != nil {
		return Identity{}, err
	}
	ts := formatTime(now())
	if existing == nil {
		err = o.Insert(ctx, Identities, Fields{
			"id":         rec.ID,
			"handle":     nullableString(rec.Handle),
			"fifty":      boolToInt(rec.Fifty),
			"proof":      JoinProof(rec.Proofs()),
			"created_at": ts,
			"updated_at": ts,
		})
		if err != nil {
			return Identity{}, err
		}
	} else {
		handle := existing.Handle
		if rec.Handle != "" {
			handle = rec.Handle
		}
		_, err = o.exec(ctx,
			`UPDATE identities SET handle = ?, fifty = ?, proof = ?, updated_at = ? WHERE id = ?`,
			nullableString(handle),
			boolToInt(existing.Fifty || rec.Fifty),
			JoinProof(existing.Proofs(), rec.Proofs()),
			ts,
			rec.ID,
		)
		if err != nil {
			return Identity{}, fmt.Errorf("merge identity %d: %w", rec.ID, err)
		}
	}

	for _, phone := range rec.Phones {
		if existing != nil && existing.HasPhone(phone) {
			continue
		}
		if _, err := o.insertIgnore(ctx, Phones, Fields{"value": phone, "identity_id": rec.ID}); err != nil {
			return Identity{}, err
		}
	}
	for _, card := range rec.Cards {
		if existing != nil && existing.HasCard(card) {
			continue
		}
		if _, err := o.insertIgnore(ctx, Cards, Fields{"value": card, "identity_id": rec.ID}); err != nil {
			return Identity{}, err
		}
	}

	merged, err := o.GetIdentity(ctx, rec.ID)
	if err != nil {
		return Identity{}, err
	}
	if merged == nil {
		return Identity{}, fmt.Errorf("merge identity %d: record vanished", rec.ID)
	}
	return *merged, nil
}

// MergeIdentity runs the merge in its own transaction.
func (s *Store) MergeIdentity(ctx context.Context, rec Identity) (Identity, error) {
	var merged Identity
	err := s.WithTx(ctx, func(tx *Tx) error {
		var err error
		merged, err = tx.MergeIdentity(ctx, rec)
		return err
	})
	return merged, err
}

// DeleteIdentity removes an identity with its phones and cards. It reports
// whether a record existed.
func (o ops) DeleteIdentity(ctx context.Context, id int64) (bool, error) {
	if _, err := o.deleteWhere(ctx, Phones, Where("identity_id", id)); err != nil {
		return false, err
	}
	if _, err := o.deleteWhere(ctx, Cards, Where("identity_id", id)); err != nil {
		return false, err
	}
	n, err := o.deleteWhere(ctx, Identities, Where("id", id))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteIdentity removes an identity in its own transaction.
func (s *Store) DeleteIdentity(ctx context.Context, id int64) (bool, error) {
	var removed bool
	err := s.WithTx(ctx, func(tx *Tx) error {
		var err error
		removed, err = tx.DeleteIdentity(ctx, id)
		return err
	})
	return removed, err
}

// Owners returns the distinct ids of identities in list.
func Owners(list []Identity) []int64 {
	ids := make([]int64, 0, len(list))
	for _, ident := range list {
		if !slices.Contains(ids, ident.ID) {
			ids = append(ids, ident.ID)
		}
	}
	return ids
}
