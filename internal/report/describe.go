package report

import (
	"fmt"
	"strings"

	"cheatdb/internal/resolve"
	"cheatdb/internal/store"
)

// describe renders the operator-facing notes for an outcome.
func describe(o resolve.Outcome) []string {
	var notes []string
	if o.Banned {
		notes = append(notes, fmt.Sprintf("warning: %s is banned or deleted", o.Entry.ProfileRef()))
	}
	switch o.Kind {
	case resolve.NotFound:
		notes = append(notes, fmt.Sprintf("%s not found in the directory", o.Input.Value))
	case resolve.ExistingIdentity:
		notes = append(notes, "already in the database: "+FormatInline(*o.Record))
		if o.HandleDrift {
			notes = append(notes, fmt.Sprintf("handle changed from %q to %q", o.PreviousHandle, o.Entry.Handle))
		}
	case resolve.StaleHandle:
		notes = append(notes, fmt.Sprintf("handle %s now belongs to %s; stored %s had it before",
			o.Input.Value, o.Entry.ProfileRef(), FormatInline(*o.Record)))
	case resolve.AmbiguousMatch:
		notes = append(notes, fmt.Sprintf("ambiguous: %s matches %d records (%s); not merged",
			o.Input.Value, len(o.Candidates), joinInline(o.Candidates)))
	case resolve.OwnedElsewhere:
		notes = append(notes, fmt.Sprintf("%s belongs to %s; not added", o.Input.Value, FormatInline(*o.Record)))
	case resolve.DuplicateValue:
		if o.Record != nil {
			notes = append(notes, "already recorded for "+FormatInline(*o.Record))
		} else {
			notes = append(notes, "already entered")
		}
	case resolve.Informational:
		notes = append(notes, "wall link noted, not stored")
	case resolve.Unrecognized:
		notes = append(notes, fmt.Sprintf("could not recognize %q", o.Input.Raw))
	}
	return notes
}

// FormatInline renders an identity on one line.
func FormatInline(rec store.Identity) string {
	label := identityLabel(rec.ID, rec.Handle)
	if rec.Fifty {
		label += " [50]"
	}
	return label
}

func joinInline(list []store.Identity) string {
	parts := make([]string, 0, len(list))
	for _, rec := range list {
		parts = append(parts, FormatInline(rec))
	}
	return strings.Join(parts, ", ")
}

// FormatRecord renders an identity for display after a commit or lookup.
func FormatRecord(rec store.Identity) string {
	var b strings.Builder
	fmt.Fprintf(&b, "id: %d\n", rec.ID)
	if rec.Handle != "" {
		fmt.Fprintf(&b, "handle: %s\n", rec.Handle)
	}
	fmt.Fprintf(&b, "fifty: %t\n", rec.Fifty)
	if len(rec.Phones) > 0 {
		fmt.Fprintf(&b, "phones: %s\n", strings.Join(rec.Phones, ", "))
	}
	if len(rec.Cards) > 0 {
		fmt.Fprintf(&b, "cards: %s\n", strings.Join(rec.Cards, ", "))
	}
	for _, p := range rec.Proofs() {
		fmt.Fprintf(&b, "proof: %s\n", p)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatDraft renders a draft for display.
func FormatDraft(d *Draft) string {
	if d == nil {
		return "no draft"
	}
	var b strings.Builder
	if d.ID == 0 {
		b.WriteString("identity: (missing)\n")
	} else {
		fmt.Fprintf(&b, "identity: %s\n", d.IdentityLabel())
		if d.Name != "" {
			fmt.Fprintf(&b, "name: %s\n", d.Name)
		}
		if d.Banned {
			b.WriteString("banned: true\n")
		}
		if d.Existing != nil {
			fmt.Fprintf(&b, "existing: %s\n", FormatInline(*d.Existing))
		}
	}
	fmt.Fprintf(&b, "fifty: %t\n", d.Fifty)
	if len(d.Phones) > 0 {
		fmt.Fprintf(&b, "phones: %s\n", strings.Join(d.Phones, ", "))
	}
	if len(d.Cards) > 0 {
		fmt.Fprintf(&b, "cards: %s\n", strings.Join(d.Cards, ", "))
	}
	for _, p := range d.Proofs {
		fmt.Fprintf(&b, "proof: %s\n", p)
	}
	return strings.TrimRight(b.String(), "\n")
}
