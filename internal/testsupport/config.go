package testsupport

import (
	"path/filepath"
	"testing"

	"cheatdb/internal/config"
)

// ConfigOption adjusts a generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig returns a default config rooted in a fresh temp directory, with a
// loopback API bind and a placeholder directory token.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Directory.APIToken = "test"
	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithDirectoryURL points the directory client at a test server.
func WithDirectoryURL(url string) ConfigOption {
	return func(cfg *config.Config) { cfg.Directory.BaseURL = url }
}

// WithOperators seeds bootstrap operator ids.
func WithOperators(ids ...int64) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Operators.Bootstrap = append(cfg.Operators.Bootstrap, ids...)
	}
}

// WithAPIToken sets the bearer token required by the HTTP API.
func WithAPIToken(token string) ConfigOption {
	return func(cfg *config.Config) { cfg.Paths.APIToken = token }
}

// BaseDir returns the temp root behind a config from NewConfig.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
