package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTools()
	c.normalizeMonitor()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.InputDir, err = expandPath(strings.TrimSpace(c.Paths.InputDir)); err != nil {
		return fmt.Errorf("paths.input_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(strings.TrimSpace(c.Paths.OutputDir)); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(strings.TrimSpace(c.Paths.WorkDir)); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(strings.TrimSpace(c.Paths.StateDir)); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTools() {
	c.Tools.PamBinary = strings.TrimSpace(c.Tools.PamBinary)
	if c.Tools.PamBinary == "" {
		c.Tools.PamBinary = defaultPamBinary
	}
	c.Tools.PsraddBinary = strings.TrimSpace(c.Tools.PsraddBinary)
	if c.Tools.PsraddBinary == "" {
		c.Tools.PsraddBinary = defaultPsraddBinary
	}
	c.Tools.ArchiveSuffix = normalizeSuffix(c.Tools.ArchiveSuffix, defaultArchiveSuffix)
	c.Tools.FrequencySuffix = normalizeSuffix(c.Tools.FrequencySuffix, defaultFrequencySuffix)
	c.Tools.TimeSumName = strings.TrimSpace(c.Tools.TimeSumName)
	if c.Tools.TimeSumName == "" {
		c.Tools.TimeSumName = defaultTimeSumName
	}
	c.Tools.FrequencySumName = strings.TrimSpace(c.Tools.FrequencySumName)
	if c.Tools.FrequencySumName == "" {
		c.Tools.FrequencySumName = defaultFrequencySumName
	}
}

// normalizeSuffix trims whitespace and guarantees a single leading dot.
func normalizeSuffix(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	return "." + strings.TrimLeft(value, ".")
}

func (c *Config) normalizeMonitor() {
	c.Monitor.Mode = strings.TrimSpace(c.Monitor.Mode)
	if c.Monitor.Mode == "" {
		c.Monitor.Mode = defaultMode
	}
	if c.Monitor.PollIntervalMS <= 0 {
		c.Monitor.PollIntervalMS = defaultPollIntervalMS
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
