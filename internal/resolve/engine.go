package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"cheatdb/internal/directory"
	"cheatdb/internal/identifier"
	"cheatdb/internal/logging"
	"cheatdb/internal/store"
)

// Reader is the read side of the identity store used during resolution.
type Reader interface {
	FindIdentities(ctx context.Context, id int64, handle string) ([]store.Identity, error)
	FindByPhone(ctx context.Context, value string) ([]store.Identity, error)
	FindByCard(ctx context.Context, value string) ([]store.Identity, error)
}

var (
	_ Reader = (*store.Store)(nil)
	_ Reader = (*store.Tx)(nil)
)

// Accumulated is the caller's view of values already gathered for the
// record being built. A nil Accumulated means nothing has been gathered.
type Accumulated interface {
	Contains(category identifier.Category, value string) bool
	IdentityID() int64
}

// Engine resolves identifiers.
type Engine struct {
	dir    directory.Lookup
	store  Reader
	logger *slog.Logger
}

// New builds an engine.
func New(dir directory.Lookup, st Reader, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{
		dir:    dir,
		store:  st,
		logger: logging.NewComponentLogger(logger, "resolve"),
	}
}

// Session memoizes directory lookups so each distinct value is looked up at
// most once for the session's lifetime. Callers open one per apply or
// import run. A Session is not safe for concurrent use.
type Session struct {
	engine *Engine
	memo   map[string]directory.Entry
}

// Session opens a lookup-memoizing resolution session.
func (e *Engine) Session() *Session {
	return &Session{engine: e, memo: make(map[string]directory.Entry)}
}

// Resolve resolves one identifier in a fresh session.
func (e *Engine) Resolve(ctx context.Context, in identifier.Identifier, acc Accumulated) (Resolution, error) {
	return e.Session().Resolve(ctx, in, acc)
}

// Lookup returns the directory entry for value, calling the directory only
// the first time value is seen in this session.
func (s *Session) Lookup(ctx context.Context, value string) (directory.Entry, error) {
	if entry, ok := s.memo[value]; ok {
		return entry, nil
	}
	if s.engine.dir == nil {
		return directory.Entry{}, fmt.Errorf("lookup %q: no directory configured", value)
	}
	entry, err := s.engine.dir.Lookup(ctx, value)
	if err != nil {
		return directory.Entry{}, fmt.Errorf("lookup %q: %w", value, err)
	}
	s.memo[value] = entry
	return entry, nil
}

// Resolve resolves one identifier against acc.
func (s *Session) Resolve(ctx context.Context, in identifier.Identifier, acc Accumulated) (Resolution, error) {
	switch in.Category {
	case identifier.ProfileID, identifier.ScreenName:
		return s.resolveIdentity(ctx, in)
	case identifier.Phone:
		return s.resolveOwned(ctx, in, acc, s.engine.store.FindByPhone)
	case identifier.Card:
		return s.resolveOwned(ctx, in, acc, s.engine.store.FindByCard)
	case identifier.ProofLink, identifier.Fifty:
		if contains(acc, in.Category, in.Value) {
			return single(in, Outcome{Kind: DuplicateValue}), nil
		}
		return single(in, Outcome{Kind: Accepted}), nil
	case identifier.WallLink:
		return single(in, Outcome{Kind: Informational}), nil
	default:
		return single(in, Outcome{Kind: Unrecognized}), nil
	}
}

func contains(acc Accumulated, category identifier.Category, value string) bool {
	return acc != nil && acc.Contains(category, value)
}

func accIdentity(acc Accumulated) int64 {
	if acc == nil {
		return 0
	}
	return acc.IdentityID()
}

func (s *Session) resolveOwned(
	ctx context.Context,
	in identifier.Identifier,
	acc Accumulated,
	find func(context.Context, string) ([]store.Identity, error),
) (Resolution, error) {
	if contains(acc, in.Category, in.Value) {
		return single(in, Outcome{Kind: DuplicateValue}), nil
	}
	owners, err := find(ctx, in.Value)
	if err != nil {
		return Resolution{}, fmt.Errorf("find %s owners: %w", in.Category, err)
	}
	switch {
	case len(owners) >= 2:
		s.warnAmbiguous(ctx, in, owners)
		return single(in, Outcome{Kind: AmbiguousMatch, Candidates: owners}), nil
	case len(owners) == 1 && owners[0].ID == accIdentity(acc):
		return single(in, Outcome{Kind: DuplicateValue, Record: &owners[0]}), nil
	case len(owners) == 1:
		// A value belongs to one identity at a time; adding it here would
		// leave two owners behind.
		return single(in, Outcome{Kind: OwnedElsewhere, Record: &owners[0]}), nil
	default:
		return single(in, Outcome{Kind: Accepted}), nil
	}
}

func (s *Session) resolveIdentity(ctx context.Context, in identifier.Identifier) (Resolution, error) {
	entry, err := s.Lookup(ctx, in.Value)
	if err != nil {
		return Resolution{}, err
	}
	if !entry.Found() {
		return single(in, Outcome{Kind: NotFound, Entry: entry}), nil
	}

	handle := ""
	if in.Category == identifier.ScreenName {
		handle = in.Value
	}
	matches, err := s.engine.store.FindIdentities(ctx, entry.ID, handle)
	if err != nil {
		return Resolution{}, fmt.Errorf("find identities: %w", err)
	}
	idMatch, stale := splitMatches(matches, entry.ID)

	res := Resolution{Input: in}
	switch {
	case len(stale) > 1:
		s.warnAmbiguous(ctx, in, matches)
		res.Outcomes = append(res.Outcomes, Outcome{
			Kind:       AmbiguousMatch,
			Input:      in,
			Entry:      entry,
			Candidates: matches,
			Banned:     entry.Banned,
		})
		return res, nil
	case len(stale) == 1:
		drift, err := s.staleOutcome(ctx, in, entry, stale[0])
		if err != nil {
			return Resolution{}, err
		}
		res.Outcomes = append(res.Outcomes, drift)

		// Second pass by canonical id only.
		byID, err := s.engine.store.FindIdentities(ctx, entry.ID, "")
		if err != nil {
			return Resolution{}, fmt.Errorf("find identities: %w", err)
		}
		idMatch, _ = splitMatches(byID, entry.ID)
	}

	final := s.identityOutcome(in, entry, idMatch)
	if final.Banned {
		s.engine.logger.WarnContext(ctx, "resolved account is banned",
			logging.Category(in.Category),
			logging.IdentityID(entry.ID),
		)
	}
	res.Outcomes = append(res.Outcomes, final)
	return res, nil
}

// staleOutcome describes a stored record that still claims the input handle
// although the directory assigns it to another account. The old record's
// current handle is fetched so the directive writes the truth rather than
// just clearing the claim.
func (s *Session) staleOutcome(ctx context.Context, in identifier.Identifier, entry directory.Entry, old store.Identity) (Outcome, error) {
	oldEntry, err := s.Lookup(ctx, strconv.FormatInt(old.ID, 10))
	if err != nil {
		return Outcome{}, err
	}
	out := Outcome{
		Kind:           StaleHandle,
		Input:          in,
		Entry:          entry,
		Record:         &old,
		Banned:         entry.Banned,
		HandleDrift:    true,
		PreviousHandle: old.Handle,
	}
	if oldEntry.Handle != old.Handle {
		out.Directives = []Directive{{IdentityID: old.ID, Handle: oldEntry.Handle}}
	}
	s.engine.logger.InfoContext(ctx, "stale handle claim",
		logging.String("handle", old.Handle),
		logging.Int64("stale_id", old.ID),
		logging.IdentityID(entry.ID),
	)
	return out, nil
}

func (s *Session) identityOutcome(in identifier.Identifier, entry directory.Entry, idMatch *store.Identity) Outcome {
	out := Outcome{Input: in, Entry: entry, Banned: entry.Banned}
	if idMatch == nil {
		out.Kind = NewIdentity
		return out
	}
	out.Kind = ExistingIdentity
	out.Record = idMatch
	if idMatch.Handle != entry.Handle {
		out.HandleDrift = true
		out.PreviousHandle = idMatch.Handle
		out.Directives = []Directive{{IdentityID: idMatch.ID, Handle: entry.Handle}}
	}
	return out
}

func splitMatches(matches []store.Identity, canonical int64) (*store.Identity, []store.Identity) {
	var (
		idMatch *store.Identity
		stale   []store.Identity
	)
	for i := range matches {
		if matches[i].ID == canonical {
			idMatch = &matches[i]
			continue
		}
		stale = append(stale, matches[i])
	}
	return idMatch, stale
}

func (s *Session) warnAmbiguous(ctx context.Context, in identifier.Identifier, records []store.Identity) {
	s.engine.logger.WarnContext(ctx, "ambiguous match",
		logging.Alert("ambiguous_match"),
		logging.Category(in.Category),
		logging.String("value", in.Value),
		logging.Any("identity_ids", store.Owners(records)),
	)
}
