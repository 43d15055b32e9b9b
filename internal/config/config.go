package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`
}

// Directory contains configuration for the VK API used to resolve handles and
// numeric ids to their current canonical form.
type Directory struct {
	APIToken       string `toml:"api_token"`
	BaseURL        string `toml:"base_url"`
	APIVersion     string `toml:"api_version"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Classifier contains the knobs that shape identifier classification.
type Classifier struct {
	// ProfileHosts lists hosts whose URLs point at profiles (e.g. "vk.com").
	ProfileHosts []string `toml:"profile_hosts"`
	// FiftyToken is the literal input that marks a partial-trust record.
	FiftyToken string `toml:"fifty_token"`
}

// Import contains configuration for bulk import documents.
type Import struct {
	SectionMarker string `toml:"section_marker"`
}

// Operators contains operator bootstrap configuration.
type Operators struct {
	// Bootstrap ids are registered as operators whenever the store opens.
	Bootstrap []int64 `toml:"bootstrap"`
}

// Notifications contains configuration for ntfy report announcements.
type Notifications struct {
	// NtfyTopic is the full topic URL; empty disables notifications.
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for cheatdb.
//
// Configuration sections by subsystem:
//   - Paths: database/log directories and API bind address
//   - Directory: VK API access for handle and id resolution
//   - Classifier: profile URL hosts and the partial-trust token
//   - Import: bulk import document markers
//   - Operators: operator ids seeded into the store
//   - Notifications: ntfy announcements of committed reports
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Directory     Directory     `toml:"directory"`
	Classifier    Classifier    `toml:"classifier"`
	Import        Import        `toml:"import"`
	Operators     Operators     `toml:"operators"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/cheatdb/config.toml")
}

// Load reads the config at path (or the first of the default locations that
// exists), applies environment overrides, and validates the result. It
// returns the resolved path and whether a file was actually read; a missing
// file yields defaults.
func Load(path string) (*Config, string, bool, error) {
	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}
	cfg := Default()
	if exists {
		if err := decodeFile(resolved, &cfg); err != nil {
			return nil, "", false, err
		}
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func isRegularFile(path string) (bool, error) {
	info, err := os.Stat(path)
	switch {
	case err == nil:
		return !info.IsDir(), nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("stat config: %w", err)
	}
}

// resolveConfigPath honors an explicit path even when the file is absent.
// Otherwise ~/.config/cheatdb/config.toml wins over ./cheatdb.toml.
func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		ok, err := isRegularFile(expanded)
		return expanded, ok, err
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("cheatdb.toml")
	if err != nil {
		return "", false, err
	}
	for _, candidate := range []string{defaultPath, projectPath} {
		if ok, _ := isRegularFile(candidate); ok {
			return candidate, true, nil
		}
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the location of the identity database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "cheatdb.db")
}

// LockPath returns the daemon single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "cheatdbd.lock")
}

// LogPath returns the log file written alongside console output.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.LogDir, "cheatdb.log")
}

// DirectoryTimeout returns the per-request VK API timeout.
func (c *Config) DirectoryTimeout() time.Duration {
	return time.Duration(c.Directory.TimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes the commented sample configuration to path.
func CreateSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(path, []byte(sampleConfig), 0o644)
}

// NotifyTimeout returns the per-request ntfy timeout.
func (c *Config) NotifyTimeout() time.Duration {
	return time.Duration(c.Notifications.RequestTimeout) * time.Second
}
