package testsupport

import (
	"context"
	"testing"

	"cheatdb/internal/config"
	"cheatdb/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// MustMerge writes an identity for tests using the provided store.
func MustMerge(t testing.TB, st *store.Store, rec store.Identity) store.Identity {
	t.Helper()

	merged, err := st.MergeIdentity(context.Background(), rec)
	if err != nil {
		t.Fatalf("store.MergeIdentity: %v", err)
	}
	return merged
}
