package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"cheatdb/internal/config"
	"cheatdb/internal/logging"
	"cheatdb/internal/services"
)

type commandContext struct {
	configFlag *string
	jsonFlag   *bool
	svcOpts    []services.Option

	configOnce sync.Once
	config     *config.Config
	configErr  error

	svcOnce sync.Once
	svc     *services.Services
	svcErr  error
}

func newCommandContext(configFlag *string, jsonFlag *bool, opts ...services.Option) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
		svcOpts:    opts,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) jsonMode() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// services opens the store and its collaborators once per invocation. CLI
// logs go to the log file only so command output stays clean.
func (c *commandContext) services() (*services.Services, error) {
	c.svcOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.svcErr = err
			return
		}
		logger, err := cliLogger(cfg)
		if err != nil {
			c.svcErr = err
			return
		}
		c.svc, c.svcErr = services.Open(cfg, logger, c.svcOpts...)
	})
	return c.svc, c.svcErr
}

func (c *commandContext) close() error {
	if c.svc == nil {
		return nil
	}
	err := c.svc.Close()
	c.svc = nil
	return err
}

func cliLogger(cfg *config.Config) (*slog.Logger, error) {
	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      "json",
		OutputPaths: []string{cfg.LogPath()},
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logging.NewComponentLogger(logger, "cli"), nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
