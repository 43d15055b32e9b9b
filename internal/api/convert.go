package api

import (
	"time"

	"cheatdb/internal/importer"
	"cheatdb/internal/report"
	"cheatdb/internal/resolve"
	"cheatdb/internal/store"
)

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

// FromIdentity converts a stored identity.
func FromIdentity(rec store.Identity) Identity {
	return Identity{
		ID:        rec.ID,
		Handle:    rec.Handle,
		Fifty:     rec.Fifty,
		Phones:    nonNil(rec.Phones),
		Cards:     nonNil(rec.Cards),
		Proofs:    nonNil(rec.Proofs()),
		CreatedAt: formatTime(rec.CreatedAt),
		UpdatedAt: formatTime(rec.UpdatedAt),
	}
}

// FromIdentities converts a list of stored identities.
func FromIdentities(list []store.Identity) []Identity {
	out := make([]Identity, 0, len(list))
	for _, rec := range list {
		out = append(out, FromIdentity(rec))
	}
	return out
}

// FromDraft converts a draft; nil stays nil.
func FromDraft(d *report.Draft) *Draft {
	if d == nil {
		return nil
	}
	dto := &Draft{
		Operator:   d.Operator,
		IdentityID: d.ID,
		Handle:     d.Handle,
		Name:       d.Name,
		Banned:     d.Banned,
		Phones:     nonNil(d.Phones),
		Cards:      nonNil(d.Cards),
		Proofs:     nonNil(d.Proofs),
		Fifty:      d.Fifty,
		UpdatedAt:  formatTime(d.UpdatedAt),
	}
	if d.Existing != nil {
		existing := FromIdentity(*d.Existing)
		dto.Existing = &existing
	}
	return dto
}

// FromOutcome converts one resolution pass.
func FromOutcome(o resolve.Outcome) Outcome {
	dto := Outcome{
		Kind:        string(o.Kind),
		IdentityID:  o.Entry.ID,
		Handle:      o.Entry.Handle,
		Banned:      o.Banned,
		HandleDrift: o.HandleDrift,
	}
	if len(o.Candidates) > 0 {
		dto.Candidates = store.Owners(o.Candidates)
	}
	for _, d := range o.Directives {
		dto.Directives = append(dto.Directives, Directive{IdentityID: d.IdentityID, Handle: d.Handle})
	}
	return dto
}

// FromApplyResult converts the result of draft input.
func FromApplyResult(res report.ApplyResult) ApplyResponse {
	out := ApplyResponse{
		Lines:          make([]Line, 0, len(res.Lines)),
		Draft:          FromDraft(res.Draft),
		HandlesUpdated: res.HandlesUpdated,
	}
	for _, l := range res.Lines {
		line := Line{
			Line:     l.Line,
			Category: string(l.Input.Category),
			Value:    l.Input.Value,
			Notes:    l.Notes,
		}
		for _, o := range l.Resolution.Outcomes {
			line.Outcomes = append(line.Outcomes, FromOutcome(o))
		}
		if l.Change != nil {
			line.Change = &Change{Field: string(l.Change.Field), Value: l.Change.Value, Previous: l.Change.Previous}
		}
		out.Lines = append(out.Lines, line)
	}
	return out
}

// FromCheckResult converts a public lookup.
func FromCheckResult(query string, res resolve.CheckResult) CheckResponse {
	return CheckResponse{
		Query:    query,
		Category: string(res.Input.Category),
		Value:    res.Input.Value,
		Verdict:  string(res.Verdict),
		Resolved: res.Entry.ID,
		Banned:   res.Entry.Banned,
		Matches:  FromIdentities(res.Matches),
	}
}

// FromSummary converts an import summary.
func FromSummary(sum importer.Summary) ImportResponse {
	out := ImportResponse{
		Imported:     FromIdentities(sum.Imported),
		Skipped:      sum.Skipped,
		SkippedLines: make([]SkippedLine, 0, len(sum.SkippedLines)),
	}
	for _, s := range sum.SkippedLines {
		out.SkippedLines = append(out.SkippedLines, SkippedLine{Line: s.Line, Text: s.Text, Reason: s.Reason})
	}
	return out
}

// FromStats converts store counts.
func FromStats(st store.Stats) Stats {
	return Stats{
		Identities: st.Identities,
		Fifty:      st.Fifty,
		Phones:     st.Phones,
		Cards:      st.Cards,
		Operators:  st.Operators,
	}
}
