package resolve_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"cheatdb/internal/directory"
	"cheatdb/internal/identifier"
	"cheatdb/internal/resolve"
	"cheatdb/internal/store"
	"cheatdb/internal/testsupport"
)

type gathered struct {
	id     int64
	values map[identifier.Category][]string
}

func (g *gathered) Contains(category identifier.Category, value string) bool {
	for _, v := range g.values[category] {
		if v == value {
			return true
		}
	}
	return false
}

func (g *gathered) IdentityID() int64 { return g.id }

type fixture struct {
	store      *store.Store
	dir        *testsupport.StubDirectory
	engine     *resolve.Engine
	classifier *identifier.Classifier
}

func newFixture(t *testing.T, entries ...directory.Entry) *fixture {
	t.Helper()
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	dir := testsupport.NewStubDirectory(entries...)
	return &fixture{
		store:      st,
		dir:        dir,
		engine:     resolve.New(dir, st, nil),
		classifier: identifier.New(nil),
	}
}

func (f *fixture) resolve(t *testing.T, raw string, acc resolve.Accumulated) resolve.Resolution {
	t.Helper()
	res, err := f.engine.Resolve(context.Background(), f.classifier.Classify(raw), acc)
	if err != nil {
		t.Fatalf("Resolve(%q) failed: %v", raw, err)
	}
	return res
}

func kinds(res resolve.Resolution) []resolve.Kind {
	out := make([]resolve.Kind, 0, len(res.Outcomes))
	for _, o := range res.Outcomes {
		out = append(out, o.Kind)
	}
	return out
}

func TestResolveProfileIDNewIdentity(t *testing.T) {
	f := newFixture(t, directory.Entry{ID: 123, Handle: "kidala"})

	res := f.resolve(t, "vk.com/id123", nil)
	final := res.Final()
	if final.Kind != resolve.NewIdentity {
		t.Fatalf("kind = %s, want new_identity", final.Kind)
	}
	id, handle, ok := final.Identity()
	if !ok || id != 123 || handle != "kidala" {
		t.Fatalf("Identity() = %d, %q, %v", id, handle, ok)
	}
	if len(res.Directives()) != 0 {
		t.Fatalf("unexpected directives %v", res.Directives())
	}
	if n := f.dir.Calls("123"); n != 1 {
		t.Fatalf("expected one lookup, got %d", n)
	}
}

func TestResolveNotFound(t *testing.T) {
	f := newFixture(t)
	res := f.resolve(t, "vk.com/ghost_account", nil)
	if res.Final().Kind != resolve.NotFound {
		t.Fatalf("kind = %s, want not_found", res.Final().Kind)
	}
}

func TestResolveBannedIsWarningOnly(t *testing.T) {
	f := newFixture(t, directory.Entry{ID: 8, Handle: "gone", Banned: true})
	final := f.resolve(t, "gone", nil).Final()
	if final.Kind != resolve.NewIdentity || !final.Banned {
		t.Fatalf("unexpected outcome %#v", final)
	}
}

func TestResolveExistingHandleDriftIsIdempotent(t *testing.T) {
	f := newFixture(t, directory.Entry{ID: 1, Handle: "newname"})
	testsupport.MustMerge(t, f.store, store.Identity{ID: 1, Handle: "oldname"})
	ctx := context.Background()

	res := f.resolve(t, "https://vk.com/id1", nil)
	final := res.Final()
	if final.Kind != resolve.ExistingIdentity || !final.HandleDrift || final.PreviousHandle != "oldname" {
		t.Fatalf("unexpected outcome %#v", final)
	}
	want := []resolve.Directive{{IdentityID: 1, Handle: "newname"}}
	if diff := cmp.Diff(want, res.Directives()); diff != "" {
		t.Fatalf("directives mismatch (-want +got):\n%s", diff)
	}

	changed, err := resolve.ApplyDirectives(ctx, f.store, res.Directives())
	if err != nil || changed != 1 {
		t.Fatalf("ApplyDirectives = %d, %v", changed, err)
	}
	changed, err = resolve.ApplyDirectives(ctx, f.store, res.Directives())
	if err != nil || changed != 0 {
		t.Fatalf("second ApplyDirectives = %d, %v", changed, err)
	}

	again := f.resolve(t, "https://vk.com/id1", nil)
	if again.Final().Kind != resolve.ExistingIdentity || again.Final().HandleDrift || len(again.Directives()) != 0 {
		t.Fatalf("second resolution not idempotent: %#v", again)
	}
}

func TestResolveStaleHandleReResolvesByCanonicalID(t *testing.T) {
	f := newFixture(t,
		directory.Entry{ID: 1, Handle: "durov"},
		directory.Entry{ID: 10, Handle: "renamed"},
	)
	testsupport.MustMerge(t, f.store, store.Identity{ID: 10, Handle: "durov"})
	ctx := context.Background()

	res := f.resolve(t, "vk.com/durov", nil)
	if diff := cmp.Diff([]resolve.Kind{resolve.StaleHandle, resolve.NewIdentity}, kinds(res)); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
	stale := res.Outcomes[0]
	if stale.Record == nil || stale.Record.ID != 10 || stale.PreviousHandle != "durov" {
		t.Fatalf("unexpected stale outcome %#v", stale)
	}
	want := []resolve.Directive{{IdentityID: 10, Handle: "renamed"}}
	if diff := cmp.Diff(want, res.Directives()); diff != "" {
		t.Fatalf("directives mismatch (-want +got):\n%s", diff)
	}
	if id, _, _ := res.Final().Identity(); id != 1 {
		t.Fatalf("final identity = %d, want 1", id)
	}

	if _, err := resolve.ApplyDirectives(ctx, f.store, res.Directives()); err != nil {
		t.Fatalf("ApplyDirectives failed: %v", err)
	}
	again := f.resolve(t, "vk.com/durov", nil)
	if diff := cmp.Diff([]resolve.Kind{resolve.NewIdentity}, kinds(again)); diff != "" {
		t.Fatalf("re-run kinds mismatch (-want +got):\n%s", diff)
	}
	if len(again.Directives()) != 0 {
		t.Fatalf("re-run produced directives %v", again.Directives())
	}
}

func TestResolveStaleHandleWithExistingCanonicalRecord(t *testing.T) {
	f := newFixture(t,
		directory.Entry{ID: 1, Handle: "durov"},
		directory.Entry{ID: 10, Handle: "renamed"},
	)
	testsupport.MustMerge(t, f.store, store.Identity{ID: 10, Handle: "durov"})
	testsupport.MustMerge(t, f.store, store.Identity{ID: 1, Handle: "pavel"})

	res := f.resolve(t, "durov", nil)
	if diff := cmp.Diff([]resolve.Kind{resolve.StaleHandle, resolve.ExistingIdentity}, kinds(res)); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
	want := []resolve.Directive{
		{IdentityID: 10, Handle: "renamed"},
		{IdentityID: 1, Handle: "durov"},
	}
	if diff := cmp.Diff(want, res.Directives()); diff != "" {
		t.Fatalf("directives mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveAmbiguousHandleClaims(t *testing.T) {
	f := newFixture(t, directory.Entry{ID: 1, Handle: "durov"})
	testsupport.MustMerge(t, f.store, store.Identity{ID: 10, Handle: "durov"})
	testsupport.MustMerge(t, f.store, store.Identity{ID: 11, Handle: "durov"})

	res := f.resolve(t, "durov", nil)
	final := res.Final()
	if final.Kind != resolve.AmbiguousMatch {
		t.Fatalf("kind = %s, want ambiguous_match", final.Kind)
	}
	if diff := cmp.Diff([]int64{10, 11}, store.Owners(final.Candidates)); diff != "" {
		t.Fatalf("candidates mismatch (-want +got):\n%s", diff)
	}
	if len(res.Directives()) != 0 {
		t.Fatal("ambiguous match must not emit directives")
	}
}

func TestSessionLooksUpEachValueOnce(t *testing.T) {
	f := newFixture(t, directory.Entry{ID: 5, Handle: "five"})
	session := f.engine.Session()
	in := f.classifier.Classify("five")
	for i := 0; i < 3; i++ {
		if _, err := session.Resolve(context.Background(), in, nil); err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
	}
	if n := f.dir.Calls("five"); n != 1 {
		t.Fatalf("expected a single lookup, got %d", n)
	}
}

func TestResolveLookupFailureIsError(t *testing.T) {
	f := newFixture(t)
	f.dir.Fail(errors.New("network down"))
	if _, err := f.engine.Resolve(context.Background(), f.classifier.Classify("vk.com/id1"), nil); err == nil {
		t.Fatal("expected lookup error")
	}
}

func TestResolvePhoneOwnership(t *testing.T) {
	f := newFixture(t)
	testsupport.MustMerge(t, f.store, store.Identity{ID: 1, Phones: []string{"9990000001"}})
	testsupport.MustMerge(t, f.store, store.Identity{ID: 2, Phones: []string{"9990000002"}})
	testsupport.MustMerge(t, f.store, store.Identity{ID: 3, Phones: []string{"9990000002"}})

	draft := &gathered{id: 1, values: map[identifier.Category][]string{
		identifier.Phone: {"9990000009"},
	}}

	cases := []struct {
		name  string
		raw   string
		want  resolve.Kind
		owner []int64
	}{
		{"already in draft", "+7 999 000 00 09", resolve.DuplicateValue, nil},
		{"owned by draft identity", "89990000001", resolve.DuplicateValue, nil},
		{"two owners", "9990000002", resolve.AmbiguousMatch, []int64{2, 3}},
		{"fresh", "9990000003", resolve.Accepted, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			final := f.resolve(t, tc.raw, draft).Final()
			if final.Kind != tc.want {
				t.Fatalf("kind = %s, want %s", final.Kind, tc.want)
			}
			if tc.owner != nil {
				if diff := cmp.Diff(tc.owner, store.Owners(final.Candidates)); diff != "" {
					t.Fatalf("candidates mismatch (-want +got):\n%s", diff)
				}
			}
		})
	}

	for _, acc := range []*gathered{{id: 2}, {}} {
		other := f.resolve(t, "9990000001", acc).Final()
		if other.Kind != resolve.OwnedElsewhere || other.Record == nil || other.Record.ID != 1 {
			t.Fatalf("draft id%d: expected owned_elsewhere by id1, got %#v", acc.id, other)
		}
	}
}

func TestResolveLocalInputs(t *testing.T) {
	f := newFixture(t)
	draft := &gathered{values: map[identifier.Category][]string{
		identifier.ProofLink: {"https://imgur.com/a/1"},
		identifier.Fifty:     {"50"},
		identifier.Card:      {"1234567891234567"},
	}}

	cases := []struct {
		raw  string
		want resolve.Kind
	}{
		{"https://imgur.com/a/1", resolve.DuplicateValue},
		{"https://imgur.com/a/2", resolve.Accepted},
		{"50", resolve.DuplicateValue},
		{"1234 5678 9123 4567", resolve.DuplicateValue},
		{"4000 0000 0000 0002", resolve.Accepted},
		{"vk.com/wall-1_2", resolve.Informational},
		{"???", resolve.Unrecognized},
	}
	for _, tc := range cases {
		if got := f.resolve(t, tc.raw, draft).Final().Kind; got != tc.want {
			t.Errorf("%q: kind = %s, want %s", tc.raw, got, tc.want)
		}
	}
	if f.dir.TotalCalls() != 0 {
		t.Fatalf("local inputs must not hit the directory, got %d calls", f.dir.TotalCalls())
	}
}
