package importer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"cheatdb/internal/identifier"
	"cheatdb/internal/logging"
	"cheatdb/internal/notifications"
	"cheatdb/internal/report"
	"cheatdb/internal/resolve"
	"cheatdb/internal/store"
)

const maxLineBytes = 1 << 20

// SkippedLine records a line the importer could not use.
type SkippedLine struct {
	Line   int    `json:"line"`
	Text   string `json:"text"`
	Reason string `json:"reason"`
}

// Summary reports the result of an import.
type Summary struct {
	Imported     []store.Identity `json:"imported"`
	Skipped      int              `json:"skipped"`
	SkippedLines []SkippedLine    `json:"skipped_lines,omitempty"`
}

// Importer parses import documents.
type Importer struct {
	classifier *identifier.Classifier
	engine     *resolve.Engine
	store      *store.Store
	marker     string
	logger     *slog.Logger
	notifier   notifications.Service
}

// Option adjusts an Importer.
type Option func(*Importer)

// WithNotifier announces finished imports through n.
func WithNotifier(n notifications.Service) Option {
	return func(im *Importer) {
		if n != nil {
			im.notifier = n
		}
	}
}

// New builds an importer. marker is the fifty-section marker line.
func New(classifier *identifier.Classifier, engine *resolve.Engine, st *store.Store, marker string, logger *slog.Logger, opts ...Option) *Importer {
	if logger == nil {
		logger = logging.NewNop()
	}
	im := &Importer{
		classifier: classifier,
		engine:     engine,
		store:      st,
		marker:     identifier.Normalize(marker),
		logger:     logging.NewComponentLogger(logger, "importer"),
		notifier:   notifications.Noop(),
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

type run struct {
	im      *Importer
	ctx     context.Context
	session *resolve.Session
	cursor  *report.Draft
	fifty   bool
	summary Summary
}

// Import reads r to the end. Per-line problems are skipped and counted; an
// error is returned only for read, store, or context failures, together
// with the records imported so far.
func (im *Importer) Import(ctx context.Context, r io.Reader) (Summary, error) {
	if _, ok := logging.CorrelationIDFromContext(ctx); !ok {
		ctx = logging.WithCorrelationID(ctx, "")
	}
	logger := logging.WithContext(ctx, im.logger)
	state := &run{im: im, ctx: ctx, session: im.engine.Session()}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return state.summary, err
		}
		if err := state.line(lineNo, scanner.Text()); err != nil {
			return state.summary, err
		}
	}
	if err := scanner.Err(); err != nil {
		return state.summary, fmt.Errorf("read import document: %w", err)
	}
	if err := state.flush(); err != nil {
		return state.summary, err
	}

	logger.Info("import finished",
		logging.Int("lines", lineNo),
		logging.Int("imported", len(state.summary.Imported)),
		logging.Int("skipped", state.summary.Skipped),
	)
	if err := im.notifier.NotifyImportCompleted(ctx, len(state.summary.Imported), state.summary.Skipped); err != nil {
		logger.Warn("import notification failed", logging.Error(err))
	}
	return state.summary, nil
}

func (s *run) skip(line int, text, reason string) {
	s.summary.Skipped++
	s.summary.SkippedLines = append(s.summary.SkippedLines, SkippedLine{
		Line:   line,
		Text:   strings.TrimSpace(text),
		Reason: reason,
	})
}

func (s *run) line(n int, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if s.im.marker != "" && identifier.Normalize(text) == s.im.marker {
		s.fifty = true
		return nil
	}

	in := s.im.classifier.Classify(text)
	switch {
	case in.Category.IsIdentity():
		if err := s.flush(); err != nil {
			return err
		}
		return s.open(n, text, in)
	case in.Category.IsAttachment():
		if s.cursor == nil {
			s.skip(n, text, "no current identity")
			return nil
		}
		return s.attach(n, text, in)
	case in.Category == identifier.WallLink:
		if s.cursor == nil {
			s.skip(n, text, "no current identity")
		}
		return nil
	default:
		s.skip(n, text, "unrecognized")
		return nil
	}
}

func (s *run) open(n int, text string, in identifier.Identifier) error {
	res, err := s.session.Resolve(s.ctx, in, nil)
	if err != nil {
		if s.ctx.Err() != nil {
			return s.ctx.Err()
		}
		s.skip(n, text, err.Error())
		return nil
	}
	final := res.Final()
	if !final.Kind.Resolved() {
		s.skip(n, text, string(final.Kind))
		return nil
	}
	if _, err := resolve.ApplyDirectives(s.ctx, s.im.store, res.Directives()); err != nil {
		return fmt.Errorf("line %d: %w", n, err)
	}
	cursor := report.NewDraft(0)
	report.IdentityUpdate(final.Entry, final.Record).Apply(cursor)
	cursor.Fifty = s.fifty
	s.cursor = cursor
	return nil
}

func (s *run) attach(n int, text string, in identifier.Identifier) error {
	res, err := s.session.Resolve(s.ctx, in, s.cursor)
	if err != nil {
		return fmt.Errorf("line %d: %w", n, err)
	}
	switch final := res.Final(); final.Kind {
	case resolve.Accepted:
		field := attachmentField(in.Category)
		update, err := report.NewFieldUpdate(string(field), in.Value)
		if err != nil {
			return err
		}
		update.Apply(s.cursor)
	case resolve.DuplicateValue:
	default:
		s.skip(n, text, string(final.Kind))
	}
	return nil
}

func attachmentField(category identifier.Category) report.Field {
	switch category {
	case identifier.Phone:
		return report.FieldPhones
	case identifier.Card:
		return report.FieldCards
	case identifier.Fifty:
		return report.FieldFifty
	default:
		return report.FieldProof
	}
}

func (s *run) flush() error {
	if s.cursor == nil {
		return nil
	}
	cursor := s.cursor
	s.cursor = nil
	merged, err := s.im.store.MergeIdentity(s.ctx, cursor.Record())
	if err != nil {
		return fmt.Errorf("commit id%d: %w", cursor.ID, err)
	}
	s.summary.Imported = append(s.summary.Imported, merged)
	return nil
}
