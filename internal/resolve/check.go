package resolve

import (
	"context"
	"errors"
	"fmt"

	"cheatdb/internal/directory"
	"cheatdb/internal/identifier"
	"cheatdb/internal/store"
)

// Verdict summarises a public lookup.
type Verdict string

const (
	// VerdictCheater means at least one full-trust record matched.
	VerdictCheater Verdict = "cheater"
	// VerdictFifty means only partial-trust records matched.
	VerdictFifty Verdict = "fifty"
	// VerdictClean means nothing matched.
	VerdictClean Verdict = "clean"
)

// ErrNotCheckable is returned for inputs that cannot identify an account.
var ErrNotCheckable = errors.New("input cannot be checked")

// CheckResult is the answer to a public lookup.
type CheckResult struct {
	Input   identifier.Identifier
	Entry   directory.Entry
	Matches []store.Identity
	Verdict Verdict
}

// Check looks an identifier up without touching any draft. Identity inputs
// search by canonical id and by the typed handle; when the directory no
// longer knows a screen name, stored records still claiming it are reported.
func (e *Engine) Check(ctx context.Context, in identifier.Identifier) (CheckResult, error) {
	res := CheckResult{Input: in}
	var err error
	switch in.Category {
	case identifier.ProfileID, identifier.ScreenName:
		res.Entry, err = e.Session().Lookup(ctx, in.Value)
		if err != nil {
			return CheckResult{}, err
		}
		handle := ""
		if in.Category == identifier.ScreenName {
			handle = in.Value
		}
		res.Matches, err = e.store.FindIdentities(ctx, res.Entry.ID, handle)
	case identifier.Phone:
		res.Matches, err = e.store.FindByPhone(ctx, in.Value)
	case identifier.Card:
		res.Matches, err = e.store.FindByCard(ctx, in.Value)
	default:
		return CheckResult{}, fmt.Errorf("%w: %s", ErrNotCheckable, in)
	}
	if err != nil {
		return CheckResult{}, fmt.Errorf("check %s: %w", in, err)
	}
	res.Verdict = verdictFor(res.Matches)
	return res, nil
}

func verdictFor(matches []store.Identity) Verdict {
	if len(matches) == 0 {
		return VerdictClean
	}
	for _, m := range matches {
		if !m.Fifty {
			return VerdictCheater
		}
	}
	return VerdictFifty
}
