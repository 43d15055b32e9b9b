package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"cheatdb/internal/identifier"
	"cheatdb/internal/logging"
	"cheatdb/internal/notifications"
	"cheatdb/internal/resolve"
	"cheatdb/internal/store"
)

var (
	// ErrMissingIdentity is returned by Commit when the draft has no resolved id.
	ErrMissingIdentity = errors.New("draft has no resolved identity")
	// ErrNoDraft is returned when the operator has no live draft.
	ErrNoDraft = errors.New("no draft in progress")
)

// LineResult describes what one input line did to the draft.
type LineResult struct {
	Line       int                   `json:"line"`
	Input      identifier.Identifier `json:"input"`
	Resolution resolve.Resolution    `json:"-"`
	Change     *Change               `json:"change,omitempty"`
	Notes      []string              `json:"notes,omitempty"`
}

// ApplyResult is the outcome of one Apply call.
type ApplyResult struct {
	Lines []LineResult `json:"lines"`
	// Draft is a snapshot after the apply; nil when no draft exists.
	Draft *Draft `json:"draft,omitempty"`
	// HandlesUpdated counts stored records whose handle was refreshed.
	HandlesUpdated int `json:"handles_updated"`
}

// Changes returns every change in line order.
func (r ApplyResult) Changes() []Change {
	var out []Change
	for _, l := range r.Lines {
		if l.Change != nil {
			out = append(out, *l.Change)
		}
	}
	return out
}

type session struct {
	mu    sync.Mutex
	draft *Draft
	// refs counts callers holding or waiting for mu; guarded by Manager.mu.
	refs int
}

// Manager owns the live drafts of all operators. Inputs from one operator
// are serialized; different operators proceed concurrently.
type Manager struct {
	classifier *identifier.Classifier
	engine     *resolve.Engine
	store      *store.Store
	logger     *slog.Logger
	notifier   notifications.Service

	mu       sync.Mutex
	sessions map[int64]*session
}

// ManagerOption adjusts a Manager.
type ManagerOption func(*Manager)

// WithNotifier announces committed reports through n.
func WithNotifier(n notifications.Service) ManagerOption {
	return func(m *Manager) {
		if n != nil {
			m.notifier = n
		}
	}
}

// NewManager builds a manager.
func NewManager(classifier *identifier.Classifier, engine *resolve.Engine, st *store.Store, logger *slog.Logger, opts ...ManagerOption) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &Manager{
		classifier: classifier,
		engine:     engine,
		store:      st,
		logger:     logging.NewComponentLogger(logger, "report"),
		notifier:   notifications.Noop(),
		sessions:   make(map[int64]*session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire returns the operator's session with its lock held.
func (m *Manager) acquire(operator int64) *session {
	m.mu.Lock()
	s, ok := m.sessions[operator]
	if !ok {
		s = &session{}
		m.sessions[operator] = s
	}
	s.refs++
	m.mu.Unlock()

	s.mu.Lock()
	return s
}

// release unlocks s and forgets it once no caller needs it and it holds no
// draft.
func (m *Manager) release(operator int64, s *session) {
	idle := s.draft == nil
	m.mu.Lock()
	s.refs--
	if s.refs == 0 && idle {
		delete(m.sessions, operator)
	}
	m.mu.Unlock()
	s.mu.Unlock()
}

// Apply classifies each non-blank line of text, resolves it, and folds the
// results into the operator's draft. On error the draft is unchanged.
func (m *Manager) Apply(ctx context.Context, operator int64, text string) (ApplyResult, error) {
	ctx = logging.WithOperator(ctx, operator)
	logger := logging.WithContext(ctx, m.logger)

	s := m.acquire(operator)
	defer m.release(operator, s)

	working := s.draft.Clone()
	if working == nil {
		working = NewDraft(operator)
	}

	var (
		result     ApplyResult
		directives []resolve.Directive
	)
	rs := m.engine.Session()
	for idx, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		in := m.classifier.Classify(line)
		res, err := rs.Resolve(ctx, in, working)
		if err != nil {
			logger.Warn("draft input failed", logging.Int("line", idx+1), logging.Error(err))
			return ApplyResult{}, fmt.Errorf("line %d: %w", idx+1, err)
		}
		directives = append(directives, res.Directives()...)
		result.Lines = append(result.Lines, foldOutcome(working, idx+1, in, res))
	}

	if len(directives) > 0 {
		changed, err := resolve.ApplyDirectives(ctx, m.store, directives)
		if err != nil {
			return ApplyResult{}, err
		}
		result.HandlesUpdated = changed
		if changed > 0 {
			logger.Info("stale handles refreshed", logging.Int("count", changed))
		}
	}

	if s.draft != nil || !working.Empty() {
		working.UpdatedAt = time.Now().UTC()
		s.draft = working
		result.Draft = working.Clone()
	}
	logger.Debug("draft input applied",
		logging.Int("lines", len(result.Lines)),
		logging.Int("changes", len(result.Changes())),
	)
	return result, nil
}

// foldOutcome applies a resolution to the draft and describes the line.
func foldOutcome(d *Draft, line int, in identifier.Identifier, res resolve.Resolution) LineResult {
	lr := LineResult{Line: line, Input: in, Resolution: res}
	for _, o := range res.Outcomes[:len(res.Outcomes)-1] {
		lr.Notes = append(lr.Notes, describe(o)...)
	}
	final := res.Final()

	var update *FieldUpdate
	switch {
	case final.Kind.Resolved():
		u := IdentityUpdate(final.Entry, final.Record)
		update = &u
	case final.Kind == resolve.Accepted:
		if field, ok := fieldFor(in.Category); ok {
			u, err := NewFieldUpdate(string(field), in.Value)
			if err == nil {
				update = &u
			}
		}
	}
	if update != nil {
		if change, ok := update.Apply(d); ok {
			lr.Change = &change
		} else {
			lr.Notes = append(lr.Notes, "already entered")
		}
	}
	lr.Notes = append(lr.Notes, describe(final)...)
	return lr
}

// Commit merges the operator's draft into the store and discards it. The
// draft is kept when the commit fails.
func (m *Manager) Commit(ctx context.Context, operator int64) (store.Identity, error) {
	ctx = logging.WithOperator(ctx, operator)
	s := m.acquire(operator)
	defer m.release(operator, s)

	if s.draft == nil {
		return store.Identity{}, ErrNoDraft
	}
	if s.draft.ID == 0 {
		return store.Identity{}, ErrMissingIdentity
	}
	merged, err := m.store.MergeIdentity(ctx, s.draft.Record())
	if err != nil {
		return store.Identity{}, fmt.Errorf("commit draft: %w", err)
	}
	s.draft = nil
	logger := logging.WithContext(ctx, m.logger)
	logger.Info("draft committed",
		logging.IdentityID(merged.ID),
		logging.Int("phones", len(merged.Phones)),
		logging.Int("cards", len(merged.Cards)),
		logging.Bool("fifty", merged.Fifty),
	)
	if err := m.notifier.NotifyReportCommitted(ctx, operator, merged); err != nil {
		logger.Warn("report notification failed", logging.Error(err))
	}
	return merged, nil
}

// Cancel discards the operator's draft without touching the store. It
// reports whether a draft existed.
func (m *Manager) Cancel(operator int64) bool {
	s := m.acquire(operator)
	defer m.release(operator, s)
	had := s.draft != nil
	s.draft = nil
	return had
}

// Draft returns a snapshot of the operator's draft.
func (m *Manager) Draft(operator int64) (*Draft, bool) {
	s := m.acquire(operator)
	defer m.release(operator, s)
	if s.draft == nil {
		return nil, false
	}
	return s.draft.Clone(), true
}
