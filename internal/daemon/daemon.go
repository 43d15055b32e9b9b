package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync/atomic"

	"github.com/gofrs/flock"

	"cheatdb/internal/config"
	"cheatdb/internal/logging"
	"cheatdb/internal/preflight"
	"cheatdb/internal/services"
	"cheatdb/internal/store"
)

// Daemon serves the API and enforces single-instance execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	svc    *services.Services
	api    *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running             bool
	PID                 int
	DatabasePath        string
	LockFilePath        string
	DirectoryConfigured bool
	Stats               store.Stats
}

// New constructs a daemon around initialized services.
func New(cfg *config.Config, svc *services.Services, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || svc == nil {
		return nil, errors.New("daemon requires config and services")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := cfg.LockPath()
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		svc:      svc,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock and starts the API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another cheatdb daemon instance is already running")
	}

	for _, result := range preflight.Failed(preflight.RunAll(ctx, d.cfg, d.svc.Directory)) {
		d.logger.Warn("preflight check failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
		)
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.api.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start api: %w", err)
	}
	d.cancel = cancel
	d.running.Store(true)
	d.logger.Info("cheatdb daemon started",
		logging.String("lock", d.lockPath),
		logging.String("database", d.svc.Store.Path()),
	)
	return nil
}

// Stop shuts the API server down and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("cheatdb daemon stopped")
}

// Close stops the daemon and releases the services.
func (d *Daemon) Close() error {
	d.Stop()
	return d.svc.Close()
}

// Addr returns the API listen address once started.
func (d *Daemon) Addr() string {
	return d.api.addr()
}

// Handler exposes the API handler, for embedding and tests.
func (d *Daemon) Handler() http.Handler {
	return d.api.handler
}

// Status reports runtime state and store counts.
func (d *Daemon) Status(ctx context.Context) (Status, error) {
	stats, err := d.svc.Store.Stats(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("store stats: %w", err)
	}
	return Status{
		Running:             d.running.Load(),
		PID:                 os.Getpid(),
		DatabasePath:        d.svc.Store.Path(),
		LockFilePath:        d.lockPath,
		DirectoryConfigured: d.svc.DirectoryConfigured(),
		Stats:               stats,
	}, nil
}
