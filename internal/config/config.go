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

// Paths contains the directories the monitor reads from and writes to.
type Paths struct {
	InputDir  string `toml:"input_dir"`
	OutputDir string `toml:"output_dir"`
	WorkDir   string `toml:"work_dir"`
	StateDir  string `toml:"state_dir"`
}

// Tools names the external PSRCHIVE binaries and the file naming they imply.
type Tools struct {
	PamBinary        string `toml:"pam_binary"`
	PsraddBinary     string `toml:"psradd_binary"`
	ArchiveSuffix    string `toml:"archive_suffix"`
	FrequencySuffix  string `toml:"frequency_suffix"`
	TimeSumName      string `toml:"time_sum_name"`
	FrequencySumName string `toml:"frequency_sum_name"`
}

// Monitor contains processing mode and lifecycle timing.
type Monitor struct {
	Mode           string `toml:"mode"`
	PollIntervalMS int    `toml:"poll_interval_ms"`
	// FailOnToolError aborts the current archive when pam or psradd exits
	// non-zero. When false the failure is logged and processing continues.
	FailOnToolError bool `toml:"fail_on_tool_error"`
	JournalEnabled  bool `toml:"journal_enabled"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for archivemon.
type Config struct {
	Paths   Paths   `toml:"paths"`
	Tools   Tools   `toml:"tools"`
	Monitor Monitor `toml:"monitor"`
	Logging Logging `toml:"logging"`
}

// Overrides carries command-line values that take precedence over the file.
type Overrides struct {
	InputDir  string
	OutputDir string
	Mode      string
	LogLevel  string
	// Inspect skips the input/output directory requirement for commands
	// that only read the journal or check tools.
	Inspect bool
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	return LoadWithOverrides(path, Overrides{})
}

// LoadWithOverrides behaves like Load but applies command-line overrides before
// normalization and validation.
func LoadWithOverrides(path string, overrides Overrides) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.apply(overrides)

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	validate := cfg.Validate
	if overrides.Inspect {
		validate = cfg.validateSettings
	}
	if err := validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func (c *Config) apply(o Overrides) {
	if v := strings.TrimSpace(o.InputDir); v != "" {
		c.Paths.InputDir = v
	}
	if v := strings.TrimSpace(o.OutputDir); v != "" {
		c.Paths.OutputDir = v
	}
	if v := strings.TrimSpace(o.Mode); v != "" {
		c.Monitor.Mode = v
	}
	if v := strings.TrimSpace(o.LogLevel); v != "" {
		c.Logging.Level = v
	}
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(defaultProjectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the monitor writes to. The input
// directory is never created: watching a directory that does not exist is a
// configuration mistake and is reported when the watch starts.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.WorkDir, c.Paths.StateDir, c.LogDir()} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LogDir returns the directory receiving per-run log files.
func (c *Config) LogDir() string {
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		return ""
	}
	return filepath.Join(c.Paths.StateDir, "logs")
}

// LockPath returns the single-instance lock file path.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "archivemon.lock")
}

// JournalPath returns the processing journal database path.
func (c *Config) JournalPath() string {
	return filepath.Join(c.Paths.StateDir, "journal.db")
}

// TimeSumPath returns the running time-domain sum inside the work directory.
func (c *Config) TimeSumPath() string {
	return filepath.Join(c.Paths.WorkDir, c.Tools.TimeSumName)
}

// FrequencySumPath returns the running frequency-domain sum inside the work directory.
func (c *Config) FrequencySumPath() string {
	return filepath.Join(c.Paths.WorkDir, c.Tools.FrequencySumName)
}

// PollInterval returns the stop-notice latency bound of the lifecycle controller.
func (c *Config) PollInterval() time.Duration {
	if c.Monitor.PollIntervalMS <= 0 {
		return time.Duration(defaultPollIntervalMS) * time.Millisecond
	}
	return time.Duration(c.Monitor.PollIntervalMS) * time.Millisecond
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

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
