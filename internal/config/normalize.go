package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDirectory()
	c.normalizeClassifier()
	c.normalizeImport()
	c.normalizeOperators()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	if value, ok := os.LookupEnv("CHEATDB_API_TOKEN"); ok && strings.TrimSpace(value) != "" {
		c.Paths.APIToken = value
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) normalizeDirectory() {
	if value, ok := os.LookupEnv("VK_TOKEN"); ok && strings.TrimSpace(value) != "" {
		c.Directory.APIToken = value
	}
	c.Directory.APIToken = strings.TrimSpace(c.Directory.APIToken)
	c.Directory.BaseURL = strings.TrimRight(strings.TrimSpace(c.Directory.BaseURL), "/")
	if c.Directory.BaseURL == "" {
		c.Directory.BaseURL = defaultDirectoryBaseURL
	}
	c.Directory.APIVersion = strings.TrimSpace(c.Directory.APIVersion)
	if c.Directory.APIVersion == "" {
		c.Directory.APIVersion = defaultDirectoryAPIVersion
	}
	if c.Directory.TimeoutSeconds <= 0 {
		c.Directory.TimeoutSeconds = defaultDirectoryTimeout
	}
}

func (c *Config) normalizeClassifier() {
	hosts := make([]string, 0, len(c.Classifier.ProfileHosts))
	seen := make(map[string]struct{}, len(c.Classifier.ProfileHosts))
	for _, host := range c.Classifier.ProfileHosts {
		normalized := strings.ToLower(strings.TrimSpace(host))
		normalized = strings.TrimPrefix(normalized, "https://")
		normalized = strings.TrimPrefix(normalized, "http://")
		normalized = strings.TrimSuffix(normalized, "/")
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		hosts = append(hosts, normalized)
	}
	if len(hosts) == 0 {
		hosts = append(hosts, defaultProfileHosts...)
	}
	c.Classifier.ProfileHosts = hosts

	c.Classifier.FiftyToken = strings.ToLower(strings.TrimSpace(c.Classifier.FiftyToken))
	if c.Classifier.FiftyToken == "" {
		c.Classifier.FiftyToken = defaultFiftyToken
	}
}

func (c *Config) normalizeImport() {
	c.Import.SectionMarker = strings.ToLower(strings.TrimSpace(c.Import.SectionMarker))
	if c.Import.SectionMarker == "" {
		c.Import.SectionMarker = defaultSectionMarker
	}
}

func (c *Config) normalizeOperators() {
	if len(c.Operators.Bootstrap) == 0 {
		return
	}
	ids := make([]int64, 0, len(c.Operators.Bootstrap))
	seen := make(map[int64]struct{}, len(c.Operators.Bootstrap))
	for _, id := range c.Operators.Bootstrap {
		if _, exists := seen[id]; exists {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	c.Operators.Bootstrap = ids
}

func (c *Config) normalizeNotifications() {
	if value, ok := os.LookupEnv("CHEATDB_NTFY_TOPIC"); ok && strings.TrimSpace(value) != "" {
		c.Notifications.NtfyTopic = value
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
