package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"cheatdb/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	t.Setenv("VK_TOKEN", "")
	t.Setenv("CHEATDB_API_TOKEN", "")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "cheatdb")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.DatabasePath() != filepath.Join(wantData, "cheatdb.db") {
		t.Fatalf("unexpected database path: %q", cfg.DatabasePath())
	}
	if cfg.Paths.APIBind != "127.0.0.1:7488" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.Directory.BaseURL != config.Default().Directory.BaseURL {
		t.Fatalf("unexpected directory base url: %q", cfg.Directory.BaseURL)
	}
	if len(cfg.Classifier.ProfileHosts) != 2 || cfg.Classifier.ProfileHosts[0] != "vk.com" {
		t.Fatalf("unexpected profile hosts: %v", cfg.Classifier.ProfileHosts)
	}
	if cfg.Classifier.FiftyToken != "50" {
		t.Fatalf("unexpected fifty token: %q", cfg.Classifier.FiftyToken)
	}
	if cfg.Import.SectionMarker != "fifty" {
		t.Fatalf("unexpected section marker: %q", cfg.Import.SectionMarker)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	t.Setenv("VK_TOKEN", "")
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "cheatdb.toml")

	type payload struct {
		Directory struct {
			APIToken string `toml:"api_token"`
			BaseURL  string `toml:"base_url"`
		} `toml:"directory"`
		Classifier struct {
			ProfileHosts []string `toml:"profile_hosts"`
		} `toml:"classifier"`
		Operators struct {
			Bootstrap []int64 `toml:"bootstrap"`
		} `toml:"operators"`
	}
	custom := payload{}
	custom.Directory.APIToken = "abc123"
	custom.Directory.BaseURL = "https://example.com/method/"
	custom.Classifier.ProfileHosts = []string{" VK.com ", "https://m.vk.com/", "vk.com"}
	custom.Operators.Bootstrap = []int64{7, 7, 9}
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Directory.APIToken != "abc123" {
		t.Fatalf("expected token from file, got %q", cfg.Directory.APIToken)
	}
	if cfg.Directory.BaseURL != "https://example.com/method" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Directory.BaseURL)
	}
	if got := strings.Join(cfg.Classifier.ProfileHosts, ","); got != "vk.com,m.vk.com" {
		t.Fatalf("unexpected normalized hosts: %q", got)
	}
	if len(cfg.Operators.Bootstrap) != 2 {
		t.Fatalf("expected deduplicated bootstrap ids, got %v", cfg.Operators.Bootstrap)
	}
}

func TestEnvVarOverridesConfigFileForTokens(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "cheatdb.toml")
	content := "[paths]\napi_token = \"file-api\"\n\n[directory]\napi_token = \"file-vk\"\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("VK_TOKEN", "env-vk")
	t.Setenv("CHEATDB_API_TOKEN", "env-api")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Directory.APIToken != "env-vk" {
		t.Fatalf("expected VK token from env, got %q", cfg.Directory.APIToken)
	}
	if cfg.Paths.APIToken != "env-api" {
		t.Fatalf("expected API token from env, got %q", cfg.Paths.APIToken)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"log level", func(c *config.Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"marker equals token", func(c *config.Config) { c.Import.SectionMarker = c.Classifier.FiftyToken }, "section_marker"},
		{"host with path", func(c *config.Config) { c.Classifier.ProfileHosts = []string{"vk.com/id"} }, "profile_hosts"},
		{"operator id", func(c *config.Config) { c.Operators.Bootstrap = []int64{0} }, "operators.bootstrap"},
		{"base url", func(c *config.Config) { c.Directory.BaseURL = "api.vk.com" }, "directory.base_url"},
		{"ntfy topic", func(c *config.Config) { c.Notifications.NtfyTopic = "cheaters" }, "notifications.ntfy_topic"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	t.Setenv("VK_TOKEN", "")
	t.Setenv("CHEATDB_NTFY_TOPIC", "")
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil || !exists {
		t.Fatalf("expected sample to load, exists=%v err=%v", exists, err)
	}
	if cfg.Notifications.NtfyTopic != "" || cfg.NotifyTimeout() != 10*time.Second {
		t.Fatalf("unexpected notification defaults: %+v", cfg.Notifications)
	}
}
