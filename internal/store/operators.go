package store

import (
	"context"
	"fmt"
)

// AddOperator registers an operator id. Registering an existing id is a no-op.
func (o ops) AddOperator(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("add operator: invalid id %d", id)
	}
	_, err := o.insertIgnore(ctx, Operators, Fields{"id": id, "added_at": formatTime(now())})
	return err
}

// RemoveOperator unregisters an operator and reports whether it existed.
func (o ops) RemoveOperator(ctx context.Context, id int64) (bool, error) {
	n, err := o.deleteWhere(ctx, Operators, Where("id", id))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// IsOperator reports whether id is a registered operator.
func (o ops) IsOperator(ctx context.Context, id int64) (bool, error) {
	if id <= 0 {
		return false, nil
	}
	return o.ExistsWhere(ctx, Operators, Where("id", id))
}

// ListOperators returns registered operator ids in registration order.
func (o ops) ListOperators(ctx context.Context) ([]int64, error) {
	rows, err := o.SelectWhere(ctx, Operators, []string{"id"}, nil, And)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, asInt64(row["id"]))
	}
	return ids, nil
}

// Stats counts identities, fifty-marked identities, phones, cards, and operators.
func (o ops) Stats(ctx context.Context) (Stats, error) {
	var (
		st  Stats
		err error
	)
	if st.Identities, err = o.count(ctx, Identities, nil); err != nil {
		return Stats{}, err
	}
	if st.Fifty, err = o.count(ctx, Identities, Where("fifty", 1)); err != nil {
		return Stats{}, err
	}
	if st.Phones, err = o.count(ctx, Phones, nil); err != nil {
		return Stats{}, err
	}
	if st.Cards, err = o.count(ctx, Cards, nil); err != nil {
		return Stats{}, err
	}
	if st.Operators, err = o.count(ctx, Operators, nil); err != nil {
		return Stats{}, err
	}
	return st, nil
}
