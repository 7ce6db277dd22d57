package main

import (
	"strings"

	"archivemon/internal/config"
)

type commandContext struct {
	configFlag *string
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

// loadConfig loads the file with flag overrides for the monitor itself.
func (c *commandContext) loadConfig(overrides config.Overrides) (*config.Config, error) {
	cfg, _, _, err := config.LoadWithOverrides(c.configPath(), overrides)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// inspectConfig loads the file for read-only subcommands.
func (c *commandContext) inspectConfig() (*config.Config, string, bool, error) {
	return config.LoadWithOverrides(c.configPath(), config.Overrides{Inspect: true})
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
