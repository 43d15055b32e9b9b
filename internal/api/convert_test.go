package api_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"cheatdb/internal/api"
	"cheatdb/internal/directory"
	"cheatdb/internal/identifier"
	"cheatdb/internal/report"
	"cheatdb/internal/resolve"
	"cheatdb/internal/store"
)

func TestFromIdentityUsesEmptyListsAndFormatsTime(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	got := api.FromIdentity(store.Identity{ID: 1, Proof: "a\nb", CreatedAt: ts})
	want := api.Identity{
		ID:        1,
		Phones:    []string{},
		Cards:     []string{},
		Proofs:    []string{"a", "b"},
		CreatedAt: "2026-03-01T12:00:00.000Z",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("identity mismatch (-want +got):\n%s", diff)
	}

	raw, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"phones":[]`) {
		t.Fatalf("expected empty phones array, got %s", raw)
	}
}

func TestFromApplyResultCarriesOutcomesAndChanges(t *testing.T) {
	in := identifier.Identifier{Category: identifier.ScreenName, Value: "durov", Raw: "vk.com/durov"}
	stale := store.Identity{ID: 10, Handle: "durov"}
	res := report.ApplyResult{
		Lines: []report.LineResult{{
			Line:  1,
			Input: in,
			Resolution: resolve.Resolution{Input: in, Outcomes: []resolve.Outcome{
				{
					Kind:        resolve.StaleHandle,
					Entry:       directory.Entry{ID: 1, Handle: "durov"},
					Record:      &stale,
					HandleDrift: true,
					Directives:  []resolve.Directive{{IdentityID: 10, Handle: "renamed"}},
				},
				{Kind: resolve.NewIdentity, Entry: directory.Entry{ID: 1, Handle: "durov"}},
			}},
			Change: &report.Change{Field: report.FieldIdentity, Value: "id1 (durov)"},
		}},
		HandlesUpdated: 1,
	}

	got := api.FromApplyResult(res)
	if len(got.Lines) != 1 || len(got.Lines[0].Outcomes) != 2 {
		t.Fatalf("unexpected lines %#v", got.Lines)
	}
	if got.Lines[0].Outcomes[0].Kind != "stale_handle" || got.Lines[0].Outcomes[0].Directives[0].Handle != "renamed" {
		t.Fatalf("unexpected first outcome %#v", got.Lines[0].Outcomes[0])
	}
	if got.Lines[0].Change == nil || got.Lines[0].Change.Field != "identity" {
		t.Fatalf("unexpected change %#v", got.Lines[0].Change)
	}
	if got.Draft != nil {
		t.Fatal("nil draft must stay nil")
	}
}
