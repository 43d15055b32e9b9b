package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"cheatdb/internal/config"
	"cheatdb/internal/logging"
)

// Store manages identity persistence backed by SQLite.
type Store struct {
	ops
	db     *sql.DB
	path   string
	logger *slog.Logger
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code()&0xff == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

// dsn enables foreign keys, WAL, and a busy timeout on every pooled
// connection, and makes BEGIN take the write lock up front.
func dsn(path string) string {
	return path +
		"?_pragma=foreign_keys(1)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=journal_mode(WAL)" +
		"&_txlock=immediate"
}

// Open initializes or connects to the identity database and registers the
// bootstrap operators from configuration.
func Open(cfg *config.Config) (*Store, error) {
	return OpenWithLogger(cfg, nil)
}

// OpenWithLogger is Open with a logger for store diagnostics.
func OpenWithLogger(cfg *config.Config, logger *slog.Logger) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("store: config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	dbPath := cfg.DatabasePath()
	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	store := &Store{
		ops:    ops{q: db, retry: true},
		db:     db,
		path:   dbPath,
		logger: logger.With(logging.String(logging.FieldComponent, "store")),
	}
	ctx := context.Background()
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	for _, id := range cfg.Operators.Bootstrap {
		if err := store.AddOperator(ctx, id); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("bootstrap operator %d: %w", id, err)
		}
	}
	if n := len(cfg.Operators.Bootstrap); n > 0 {
		store.logger.Debug("bootstrap operators registered", logging.Int("count", n))
	}
	return store, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Tx is a transactional scope. It offers the same query layer and typed
// helpers as Store; nothing is visible to other connections until WithTx
// returns nil.
type Tx struct {
	ops
}

// WithTx runs fn inside one transaction. The transaction commits when fn
// returns nil and rolls back otherwise. A busy database retries the whole
// transaction, so fn may run more than once and must not have side effects
// outside the Tx.
func (s *Store) WithTx(ctx context.Context, fn func(*Tx) error) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		sqlTx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		if err := fn(&Tx{ops: ops{q: sqlTx}}); err != nil {
			_ = sqlTx.Rollback()
			return err
		}
		if err := sqlTx.Commit(); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
}
