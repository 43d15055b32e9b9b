package store_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"cheatdb/internal/store"
	"cheatdb/internal/testsupport"
)

func TestOpenBootstrapsOperatorsAndReopens(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithOperators(11, 12))
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	ids, err := st.ListOperators(ctx)
	if err != nil {
		t.Fatalf("ListOperators failed: %v", err)
	}
	if diff := cmp.Diff([]int64{11, 12}, ids); diff != "" {
		t.Fatalf("operators mismatch (-want +got):\n%s", diff)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened := testsupport.MustOpenStore(t, cfg)
	ids, err = reopened.ListOperators(ctx)
	if err != nil {
		t.Fatalf("ListOperators after reopen failed: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected bootstrap to be idempotent, got %v", ids)
	}
}

func TestMergeIdentityInsertsAbsentRecord(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	merged := testsupport.MustMerge(t, st, store.Identity{
		ID:     123,
		Handle: "kidala",
		Phones: []string{"9995552211"},
		Cards:  []string{"1234567812345678"},
		Proof:  "https://example.com/proof",
	})
	if merged.ID != 123 || merged.Handle != "kidala" || merged.CreatedAt.IsZero() {
		t.Fatalf("unexpected merged record: %#v", merged)
	}

	got, err := st.GetIdentity(ctx, 123)
	if err != nil {
		t.Fatalf("GetIdentity failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected identity to exist")
	}
	if diff := cmp.Diff([]string{"9995552211"}, got.Phones); diff != "" {
		t.Fatalf("phones mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"1234567812345678"}, got.Cards); diff != "" {
		t.Fatalf("cards mismatch (-want +got):\n%s", diff)
	}

	missing, err := st.GetIdentity(ctx, 999)
	if err != nil || missing != nil {
		t.Fatalf("expected nil for absent id, got %#v, %v", missing, err)
	}
}

func TestMergeIdentityNeverShrinks(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	testsupport.MustMerge(t, st, store.Identity{
		ID:     5,
		Handle: "old",
		Fifty:  true,
		Phones: []string{"9990000001", "9990000002"},
		Proof:  "https://a.example/1",
	})
	merged := testsupport.MustMerge(t, st, store.Identity{
		ID:     5,
		Handle: "new",
		Fifty:  false,
		Phones: []string{"9990000002", "9990000003"},
		Cards:  []string{"4000000000000002"},
		Proof:  "https://a.example/1\nhttps://a.example/2",
	})

	if !merged.Fifty {
		t.Fatal("fifty flipped from true to false")
	}
	if merged.Handle != "new" {
		t.Fatalf("expected handle refresh, got %q", merged.Handle)
	}
	if diff := cmp.Diff([]string{"9990000001", "9990000002", "9990000003"}, merged.Phones); diff != "" {
		t.Fatalf("phones mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"https://a.example/1", "https://a.example/2"}, merged.Proofs()); diff != "" {
		t.Fatalf("proofs mismatch (-want +got):\n%s", diff)
	}

	kept := testsupport.MustMerge(t, st, store.Identity{ID: 5})
	if kept.Handle != "new" || len(kept.Phones) != 3 || len(kept.Cards) != 1 {
		t.Fatalf("empty merge changed the record: %#v", kept)
	}
}

func TestMergeIdentityRejectsZeroID(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	if _, err := st.MergeIdentity(context.Background(), store.Identity{Handle: "x"}); !errors.Is(err, store.ErrInvalidIdentity) {
		t.Fatalf("expected ErrInvalidIdentity, got %v", err)
	}
}

func TestConcurrentMergesProduceOneRecord(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	const writers = 6
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := st.MergeIdentity(ctx, store.Identity{
				ID:     77,
				Handle: "shared",
				Phones: []string{fmt.Sprintf("999000000%d", i)},
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent merge failed: %v", err)
		}
	}

	all, err := st.ListIdentities(ctx)
	if err != nil {
		t.Fatalf("ListIdentities failed: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected one record, got %d", len(all))
	}
	if len(all[0].Phones) != writers {
		t.Fatalf("expected %d phones, got %v", writers, all[0].Phones)
	}
}

func TestUpdateHandleIsIdempotent(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	testsupport.MustMerge(t, st, store.Identity{ID: 9, Handle: "before"})

	changed, err := st.UpdateHandle(ctx, 9, "after")
	if err != nil || !changed {
		t.Fatalf("first UpdateHandle = %v, %v; want true, nil", changed, err)
	}
	changed, err = st.UpdateHandle(ctx, 9, "after")
	if err != nil || changed {
		t.Fatalf("second UpdateHandle = %v, %v; want false, nil", changed, err)
	}
	changed, err = st.UpdateHandle(ctx, 9, "")
	if err != nil || !changed {
		t.Fatalf("clearing handle = %v, %v; want true, nil", changed, err)
	}
	got, _ := st.GetIdentity(ctx, 9)
	if got.Handle != "" {
		t.Fatalf("expected cleared handle, got %q", got.Handle)
	}
}

func TestFindIdentitiesMatchesIDOrHandle(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	testsupport.MustMerge(t, st, store.Identity{ID: 1, Handle: "alpha"})
	testsupport.MustMerge(t, st, store.Identity{ID: 2, Handle: "beta"})
	testsupport.MustMerge(t, st, store.Identity{ID: 3, Handle: "gamma"})

	found, err := st.FindIdentities(ctx, 1, "beta")
	if err != nil {
		t.Fatalf("FindIdentities failed: %v", err)
	}
	if diff := cmp.Diff([]int64{1, 2}, store.Owners(found)); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}

	byHandle, err := st.FindByHandle(ctx, "gamma")
	if err != nil || len(byHandle) != 1 || byHandle[0].ID != 3 {
		t.Fatalf("FindByHandle = %#v, %v", byHandle, err)
	}
	none, err := st.FindIdentities(ctx, 0, "")
	if err != nil || len(none) != 0 {
		t.Fatalf("empty search = %#v, %v", none, err)
	}
}

func TestFindByPhoneAndCardReturnAllOwners(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	testsupport.MustMerge(t, st, store.Identity{ID: 1, Phones: []string{"9991112233"}})
	testsupport.MustMerge(t, st, store.Identity{ID: 2, Phones: []string{"9991112233"}, Cards: []string{"1111222233334444"}})

	owners, err := st.FindByPhone(ctx, "9991112233")
	if err != nil {
		t.Fatalf("FindByPhone failed: %v", err)
	}
	if diff := cmp.Diff([]int64{1, 2}, store.Owners(owners)); diff != "" {
		t.Fatalf("owners mismatch (-want +got):\n%s", diff)
	}
	cardOwners, err := st.FindByCard(ctx, "1111222233334444")
	if err != nil || len(cardOwners) != 1 || cardOwners[0].ID != 2 {
		t.Fatalf("FindByCard = %#v, %v", cardOwners, err)
	}
}

func TestQueryLayerRejectsUnknownNames(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	cases := []struct {
		name string
		run  func() error
	}{
		{"relation", func() error {
			_, err := st.SelectWhere(ctx, store.Relation("sqlite_master"), nil, nil, store.And)
			return err
		}},
		{"column", func() error {
			_, err := st.SelectWhere(ctx, store.Identities, []string{"id; DROP TABLE identities"}, nil, store.And)
			return err
		}},
		{"predicate column", func() error {
			_, err := st.ExistsWhere(ctx, store.Identities, store.Where("1=1 OR id", 1))
			return err
		}},
		{"combinator", func() error {
			_, err := st.SelectWhere(ctx, store.Identities, nil, store.Where("id", 1, "handle", "x"), store.Combinator("UNION"))
			return err
		}},
		{"insert column", func() error {
			return st.Insert(ctx, store.Operators, store.Fields{"id": 1, "role": "admin"})
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.run(); !errors.Is(err, store.ErrInvalidQuery) {
				t.Fatalf("expected ErrInvalidQuery, got %v", err)
			}
		})
	}
}

func TestSelectWhereBindsValues(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	testsupport.MustMerge(t, st, store.Identity{ID: 1, Handle: "alpha"})

	rows, err := st.SelectWhere(ctx, store.Identities, []string{"id"}, store.Where("handle", "x' OR '1'='1"), store.And)
	if err != nil {
		t.Fatalf("SelectWhere failed: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no rows for injected value, got %v", rows)
	}

	exists, err := st.ExistsWhere(ctx, store.Identities, store.Where("handle", "alpha"))
	if err != nil || !exists {
		t.Fatalf("ExistsWhere = %v, %v; want true", exists, err)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	boom := errors.New("boom")

	err := st.WithTx(ctx, func(tx *store.Tx) error {
		if _, err := tx.MergeIdentity(ctx, store.Identity{ID: 50, Phones: []string{"9990001111"}}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	got, err := st.GetIdentity(ctx, 50)
	if err != nil || got != nil {
		t.Fatalf("expected rollback, got %#v, %v", got, err)
	}
	owners, _ := st.FindByPhone(ctx, "9990001111")
	if len(owners) != 0 {
		t.Fatalf("expected phone rollback, got %#v", owners)
	}
}

func TestOperatorsAndStats(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if err := st.AddOperator(ctx, 100); err != nil {
		t.Fatalf("AddOperator failed: %v", err)
	}
	if err := st.AddOperator(ctx, 100); err != nil {
		t.Fatalf("repeat AddOperator failed: %v", err)
	}
	if ok, _ := st.IsOperator(ctx, 100); !ok {
		t.Fatal("expected 100 to be an operator")
	}
	if ok, _ := st.IsOperator(ctx, 101); ok {
		t.Fatal("101 must not be an operator")
	}
	if err := st.AddOperator(ctx, 0); err == nil {
		t.Fatal("expected error for zero operator id")
	}

	testsupport.MustMerge(t, st, store.Identity{ID: 1, Fifty: true, Phones: []string{"9990000001"}})
	testsupport.MustMerge(t, st, store.Identity{ID: 2, Cards: []string{"4000000000000002", "4000000000000010"}})

	stats, err := st.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	want := store.Stats{Identities: 2, Fifty: 1, Phones: 1, Cards: 2, Operators: 1}
	if diff := cmp.Diff(want, stats); diff != "" {
		t.Fatalf("stats mismatch (-want +got):\n%s", diff)
	}

	removed, err := st.RemoveOperator(ctx, 100)
	if err != nil || !removed {
		t.Fatalf("RemoveOperator = %v, %v", removed, err)
	}
	removed, _ = st.RemoveOperator(ctx, 100)
	if removed {
		t.Fatal("second RemoveOperator should report false")
	}
}

func TestDeleteIdentityRemovesValues(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	testsupport.MustMerge(t, st, store.Identity{ID: 4, Phones: []string{"9990000004"}, Cards: []string{"4000000000000044"}})

	removed, err := st.DeleteIdentity(ctx, 4)
	if err != nil || !removed {
		t.Fatalf("DeleteIdentity = %v, %v", removed, err)
	}
	stats, _ := st.Stats(ctx)
	if stats.Identities != 0 || stats.Phones != 0 || stats.Cards != 0 {
		t.Fatalf("expected empty store, got %#v", stats)
	}
	removed, _ = st.DeleteIdentity(ctx, 4)
	if removed {
		t.Fatal("second DeleteIdentity should report false")
	}
}

func TestOpenRejectsForeignSchemaVersion(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	if err := st.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	db, err := sql.Open("sqlite", cfg.DatabasePath())
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	db.Close()

	if _, err := store.Open(cfg); !errors.Is(err, store.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
