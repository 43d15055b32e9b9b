package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDirectory(); err != nil {
		return err
	}
	if err := c.validateClassifier(); err != nil {
		return err
	}
	if err := c.validateOperators(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateDirectory() error {
	parsed, err := url.Parse(c.Directory.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("directory.base_url must be an absolute URL, got %q", c.Directory.BaseURL)
	}
	if c.Directory.TimeoutSeconds <= 0 {
		return errors.New("directory.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateClassifier() error {
	for _, host := range c.Classifier.ProfileHosts {
		if strings.ContainsAny(host, "/ ") {
			return fmt.Errorf("classifier.profile_hosts: %q must be a bare host name", host)
		}
	}
	if strings.ContainsAny(c.Classifier.FiftyToken, " \t") {
		return errors.New("classifier.fifty_token must not contain whitespace")
	}
	if c.Import.SectionMarker == c.Classifier.FiftyToken {
		return errors.New("import.section_marker must differ from classifier.fifty_token")
	}
	return nil
}

func (c *Config) validateOperators() error {
	for _, id := range c.Operators.Bootstrap {
		if id <= 0 {
			return fmt.Errorf("operators.bootstrap: id %d must be positive", id)
		}
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.NtfyTopic == "" {
		return nil
	}
	parsed, err := url.Parse(c.Notifications.NtfyTopic)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("notifications.ntfy_topic must be an absolute URL, got %q", c.Notifications.NtfyTopic)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
