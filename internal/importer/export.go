package importer

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"cheatdb/internal/store"
)

// Export writes every stored identity in the import format: regular records
// first, then the section marker, then fifty records. It returns the number
// of records written.
func (im *Importer) Export(ctx context.Context, w io.Writer) (int, error) {
	records, err := im.store.ListIdentities(ctx)
	if err != nil {
		return 0, fmt.Errorf("list identities: %w", err)
	}
	return WriteDocument(w, records, im.marker)
}

// WriteDocument renders records as an import document.
func WriteDocument(w io.Writer, records []store.Identity, marker string) (int, error) {
	bw := bufio.NewWriter(w)
	var regular, fifty []store.Identity
	for _, rec := range records {
		if rec.Fifty {
			fifty = append(fifty, rec)
		} else {
			regular = append(regular, rec)
		}
	}
	for _, rec := range regular {
		writeRecord(bw, rec)
	}
	if len(fifty) > 0 {
		fmt.Fprintln(bw, marker)
		fmt.Fprintln(bw)
		for _, rec := range fifty {
			writeRecord(bw, rec)
		}
	}
	if err := bw.Flush(); err != nil {
		return 0, fmt.Errorf("write export: %w", err)
	}
	return len(records), nil
}

func writeRecord(w io.Writer, rec store.Identity) {
	fmt.Fprintf(w, "id%d\n", rec.ID)
	for _, p := range rec.Phones {
		fmt.Fprintln(w, p)
	}
	for _, c := range rec.Cards {
		fmt.Fprintln(w, c)
	}
	for _, p := range rec.Proofs() {
		fmt.Fprintln(w, p)
	}
	fmt.Fprintln(w)
}
