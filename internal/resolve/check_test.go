package resolve_test

import (
	"context"
	"errors"
	"testing"

	"cheatdb/internal/directory"
	"cheatdb/internal/resolve"
	"cheatdb/internal/store"
	"cheatdb/internal/testsupport"
)

func TestCheckVerdicts(t *testing.T) {
	f := newFixture(t,
		directory.Entry{ID: 1, Handle: "kidala"},
		directory.Entry{ID: 2, Handle: "halfway"},
		directory.Entry{ID: 3, Handle: "honest"},
	)
	testsupport.MustMerge(t, f.store, store.Identity{ID: 1, Handle: "kidala", Phones: []string{"9991112233"}})
	testsupport.MustMerge(t, f.store, store.Identity{ID: 2, Handle: "halfway", Fifty: true, Cards: []string{"1234567891234567"}})

	cases := []struct {
		raw  string
		want resolve.Verdict
	}{
		{"vk.com/kidala", resolve.VerdictCheater},
		{"vk.com/id1", resolve.VerdictCheater},
		{"89991112233", resolve.VerdictCheater},
		{"halfway", resolve.VerdictFifty},
		{"1234 5678 9123 4567", resolve.VerdictFifty},
		{"honest", resolve.VerdictClean},
		{"9990000000", resolve.VerdictClean},
	}
	for _, tc := range cases {
		res, err := f.engine.Check(context.Background(), f.classifier.Classify(tc.raw))
		if err != nil {
			t.Fatalf("Check(%q) failed: %v", tc.raw, err)
		}
		if res.Verdict != tc.want {
			t.Errorf("Check(%q) = %s, want %s", tc.raw, res.Verdict, tc.want)
		}
	}
}

func TestCheckFindsStoredHandleUnknownToDirectory(t *testing.T) {
	f := newFixture(t)
	testsupport.MustMerge(t, f.store, store.Identity{ID: 40, Handle: "vanished"})

	res, err := f.engine.Check(context.Background(), f.classifier.Classify("vanished"))
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if res.Verdict != resolve.VerdictCheater || len(res.Matches) != 1 {
		t.Fatalf("unexpected result %#v", res)
	}
}

func TestCheckRejectsAttachmentsWithoutOwner(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.Check(context.Background(), f.classifier.Classify("https://imgur.com/a/1"))
	if !errors.Is(err, resolve.ErrNotCheckable) {
		t.Fatalf("expected ErrNotCheckable, got %v", err)
	}
}
