package resolve

import (
	"context"
	"fmt"

	"cheatdb/internal/store"
)

// TxRunner opens a store transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(*store.Tx) error) error
}

var _ TxRunner = (*store.Store)(nil)

// ApplyDirectives writes the handle updates in one transaction and returns
// how many records actually changed. Applying the same directives twice
// changes nothing the second time.
func ApplyDirectives(ctx context.Context, st TxRunner, directives []Directive) (int, error) {
	if len(directives) == 0 {
		return 0, nil
	}
	var changed int
	err := st.WithTx(ctx, func(tx *store.Tx) error {
		changed = 0
		for _, d := range directives {
			ok, err := tx.UpdateHandle(ctx, d.IdentityID, d.Handle)
			if err != nil {
				return fmt.Errorf("apply directive (%s): %w", d, err)
			}
			if ok {
				changed++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}
