package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable. The processing mode is not
// checked here; the accumulator owns the set of supported modes.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	return c.validateSettings()
}

func (c *Config) validateSettings() error {
	if err := c.validateTools(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.InputDir == "" {
		return errors.New("paths.input_dir is required (set --input_dir or edit the config file)")
	}
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir is required (set --output_dir or edit the config file)")
	}
	if c.Paths.OutputDir == c.Paths.WorkDir {
		return errors.New("paths.output_dir must differ from paths.work_dir")
	}
	return nil
}

func (c *Config) validateTools() error {
	if c.Tools.ArchiveSuffix == c.Tools.FrequencySuffix {
		return fmt.Errorf("tools.frequency_suffix must differ from tools.archive_suffix (%q)", c.Tools.ArchiveSuffix)
	}
	for key, name := range map[string]string{
		"tools.time_sum_name":      c.Tools.TimeSumName,
		"tools.frequency_sum_name": c.Tools.FrequencySumName,
	} {
		if filepath.Base(name) != name || name == "." || name == ".." {
			return fmt.Errorf("%s must be a plain file name, got %q", key, name)
		}
	}
	if c.Tools.TimeSumName == c.Tools.FrequencySumName {
		return errors.New("tools.time_sum_name must differ from tools.frequency_sum_name")
	}
	if strings.HasSuffix(c.Tools.TimeSumName, c.Tools.ArchiveSuffix) ||
		strings.HasSuffix(c.Tools.FrequencySumName, c.Tools.ArchiveSuffix) {
		return fmt.Errorf("sum file names must not end with the archive suffix %q", c.Tools.ArchiveSuffix)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}
