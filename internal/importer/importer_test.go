package importer_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"cheatdb/internal/directory"
	"cheatdb/internal/identifier"
	"cheatdb/internal/importer"
	"cheatdb/internal/resolve"
	"cheatdb/internal/store"
	"cheatdb/internal/testsupport"
)

var directoryEntries = []directory.Entry{
	{ID: 123, Handle: "cheater123"},
	{ID: 311, Handle: "kidala111"},
	{ID: 144},
	{ID: 355, Handle: "halfman"},
}

func newImporter(t *testing.T, dir *testsupport.StubDirectory) (*importer.Importer, *store.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	engine := resolve.New(dir, st, nil)
	return importer.New(identifier.New(nil), engine, st, cfg.Import.SectionMarker, nil), st
}

const document = `9990000000
vk.com/id123
9995552211

vk.com/kidala111
3215 3215 3215 3215
https://imgur.com/proof
garbage!!
vk.com/ghost
9990000001
fifty
vk.com/id144
vk.com/id355
50
`

func TestImportBlocksStraysAndFiftySection(t *testing.T) {
	dir := testsupport.NewStubDirectory(directoryEntries...)
	im, st := newImporter(t, dir)
	ctx := context.Background()

	summary, err := im.Import(ctx, strings.NewReader(document))
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if got := store.Owners(summary.Imported); !cmp.Equal(got, []int64{123, 311, 144, 355}) {
		t.Fatalf("imported ids = %v", got)
	}
	if summary.Skipped != 4 {
		t.Fatalf("Skipped = %d, want 4 (%+v)", summary.Skipped, summary.SkippedLines)
	}
	var lines []int
	for _, s := range summary.SkippedLines {
		lines = append(lines, s.Line)
	}
	if diff := cmp.Diff([]int{1, 8, 9, 10}, lines); diff != "" {
		t.Fatalf("skipped lines mismatch (-want +got):\n%s", diff)
	}

	rec, err := st.GetIdentity(ctx, 311)
	if err != nil || rec == nil {
		t.Fatalf("GetIdentity(311) = %#v, %v", rec, err)
	}
	if rec.Handle != "kidala111" || rec.Fifty || !rec.HasCard("3215321532153215") || rec.Proof != "https://imgur.com/proof" {
		t.Fatalf("unexpected record %#v", rec)
	}
	for _, id := range []int64{144, 355} {
		rec, _ := st.GetIdentity(ctx, id)
		if rec == nil || !rec.Fifty {
			t.Fatalf("id%d should be in the fifty section: %#v", id, rec)
		}
	}
	if rec, _ := st.GetIdentity(ctx, 123); rec == nil || rec.Fifty || !rec.HasPhone("9995552211") {
		t.Fatalf("unexpected id123 record %#v", rec)
	}
	if n := dir.Calls("ghost"); n != 1 {
		t.Fatalf("expected one lookup of ghost, got %d", n)
	}
}

func TestImportMergesIntoExistingRecords(t *testing.T) {
	dir := testsupport.NewStubDirectory(directoryEntries...)
	im, st := newImporter(t, dir)
	ctx := context.Background()
	testsupport.MustMerge(t, st, store.Identity{ID: 123, Handle: "cheater123", Fifty: true, Phones: []string{"9990000123"}})

	if _, err := im.Import(ctx, strings.NewReader("id123\n9995552211\n")); err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	rec, _ := st.GetIdentity(ctx, 123)
	if !rec.Fifty {
		t.Fatal("import must not clear the fifty flag")
	}
	if diff := cmp.Diff([]string{"9990000123", "9995552211"}, rec.Phones); diff != "" {
		t.Fatalf("phones mismatch (-want +got):\n%s", diff)
	}
}

func TestExportWritesImportFormat(t *testing.T) {
	var buf bytes.Buffer
	n, err := importer.WriteDocument(&buf, []store.Identity{
		{ID: 2, Fifty: true, Phones: []string{"9990000002"}},
		{ID: 1, Cards: []string{"4000000000000002"}, Proof: "https://a.example/1\nhttps://a.example/2"},
	}, "fifty")
	if err != nil || n != 2 {
		t.Fatalf("WriteDocument = %d, %v", n, err)
	}
	want := "id1\n4000000000000002\nhttps://a.example/1\nhttps://a.example/2\n\nfifty\n\nid2\n9990000002\n\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Fatalf("export mismatch (-want +got):\n%s", diff)
	}
}

func TestExportReimportRoundTrip(t *testing.T) {
	dir := testsupport.NewStubDirectory(directoryEntries...)
	source, sourceStore := newImporter(t, dir)
	ctx := context.Background()
	if _, err := source.Import(ctx, strings.NewReader(document)); err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	var buf bytes.Buffer
	if _, err := source.Export(ctx, &buf); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	target, targetStore := newImporter(t, dir)
	summary, err := target.Import(ctx, &buf)
	if err != nil {
		t.Fatalf("re-import failed: %v", err)
	}
	if summary.Skipped != 0 {
		t.Fatalf("re-import skipped lines: %+v", summary.SkippedLines)
	}

	want, _ := sourceStore.ListIdentities(ctx)
	got, _ := targetStore.ListIdentities(ctx)
	sortByID := cmpopts.SortSlices(func(a, b store.Identity) bool { return a.ID < b.ID })
	ignoreTimes := cmpopts.IgnoreFields(store.Identity{}, "CreatedAt", "UpdatedAt")
	if diff := cmp.Diff(want, got, sortByID, ignoreTimes, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestImportSkipsValueOwnedByAnotherIdentity(t *testing.T) {
	dir := testsupport.NewStubDirectory(directoryEntries...)
	im, st := newImporter(t, dir)
	ctx := context.Background()
	testsupport.MustMerge(t, st, store.Identity{ID: 311, Phones: []string{"9995552211"}})

	summary, err := im.Import(ctx, strings.NewReader("id123\n9995552211\n"))
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	want := []importer.SkippedLine{{Line: 2, Text: "9995552211", Reason: "owned_elsewhere"}}
	if diff := cmp.Diff(want, summary.SkippedLines); diff != "" {
		t.Fatalf("skipped lines mismatch (-want +got):\n%s", diff)
	}
	owners, err := st.FindByPhone(ctx, "9995552211")
	if err != nil {
		t.Fatalf("FindByPhone failed: %v", err)
	}
	if diff := cmp.Diff([]int64{311}, store.Owners(owners)); diff != "" {
		t.Fatalf("owners mismatch (-want +got):\n%s", diff)
	}
}
