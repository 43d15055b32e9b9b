// Package services wires configuration into the components shared by the
// daemon and the CLI.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"cheatdb/internal/config"
	"cheatdb/internal/directory"
	"cheatdb/internal/identifier"
	"cheatdb/internal/importer"
	"cheatdb/internal/logging"
	"cheatdb/internal/notifications"
	"cheatdb/internal/report"
	"cheatdb/internal/resolve"
	"cheatdb/internal/store"
)

// Services bundles the long-lived components built from one config.
type Services struct {
	Config     *config.Config
	Logger     *slog.Logger
	Store      *store.Store
	Directory  directory.Lookup
	Classifier *identifier.Classifier
	Engine     *resolve.Engine
	Reports    *report.Manager
	Importer   *importer.Importer
	Notifier   notifications.Service
}

// Option adjusts how Services are built.
type Option func(*options)

type options struct {
	lookup   directory.Lookup
	notifier notifications.Service
}

// WithDirectory substitutes the directory client.
func WithDirectory(lookup directory.Lookup) Option {
	return func(o *options) {
		o.lookup = lookup
	}
}

// WithNotifier substitutes the notification service.
func WithNotifier(n notifications.Service) Option {
	return func(o *options) {
		o.notifier = n
	}
}

// Open builds every component. Without a directory token the services
// still open; identity inputs then fail until a token is configured.
func Open(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Services, error) {
	if cfg == nil {
		return nil, errors.New("services: config is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	st, err := store.OpenWithLogger(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	lookup := o.lookup
	if lookup == nil && strings.TrimSpace(cfg.Directory.APIToken) != "" {
		client, err := directory.NewFromConfig(cfg, logger)
		if err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("directory client: %w", err)
		}
		lookup = client
	}
	if lookup == nil {
		logger.Warn("directory api token not configured; identity lookups will fail",
			logging.String(logging.FieldComponent, "services"))
	}

	notifier := o.notifier
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}

	classifier := identifier.New(cfg.Classifier.ProfileHosts, identifier.WithFiftyToken(cfg.Classifier.FiftyToken))
	engine := resolve.New(lookup, st, logger)
	return &Services{
		Config:     cfg,
		Logger:     logger,
		Store:      st,
		Directory:  lookup,
		Classifier: classifier,
		Engine:     engine,
		Reports:    report.NewManager(classifier, engine, st, logger, report.WithNotifier(notifier)),
		Importer:   importer.New(classifier, engine, st, cfg.Import.SectionMarker, logger, importer.WithNotifier(notifier)),
		Notifier:   notifier,
	}, nil
}

// DirectoryConfigured reports whether identity lookups can run.
func (s *Services) DirectoryConfigured() bool {
	return s != nil && s.Directory != nil
}

// DeleteIdentity removes a stored identity and announces the removal.
func (s *Services) DeleteIdentity(ctx context.Context, id int64) (bool, error) {
	removed, err := s.Store.DeleteIdentity(ctx, id)
	if err != nil || !removed {
		return removed, err
	}
	if err := s.Notifier.NotifyIdentityDeleted(ctx, id); err != nil {
		logging.WithContext(ctx, s.Logger).Warn("delete notification failed",
			logging.IdentityID(id), logging.Error(err))
	}
	return true, nil
}

// Close releases the store.
func (s *Services) Close() error {
	if s == nil {
		return nil
	}
	return s.Store.Close()
}
