package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"archivemon/internal/config"
)

func TestLoadDefaultsWithOverrides(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(tempHome)

	cfg, resolved, exists, err := config.LoadWithOverrides("", config.Overrides{
		InputDir:  "in",
		OutputDir: "~/out",
	})
	if err != nil {
		t.Fatalf("LoadWithOverrides returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if cfg.Paths.InputDir != filepath.Join(tempHome, "in") {
		t.Fatalf("unexpected input dir: %q", cfg.Paths.InputDir)
	}
	if cfg.Paths.OutputDir != filepath.Join(tempHome, "out") {
		t.Fatalf("unexpected output dir: %q", cfg.Paths.OutputDir)
	}
	if cfg.Paths.WorkDir != tempHome {
		t.Fatalf("expected work dir to default to cwd, got %q", cfg.Paths.WorkDir)
	}
	wantState := filepath.Join(tempHome, ".local", "share", "archivemon")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.Monitor.Mode != "ArchiveAdder" {
		t.Fatalf("unexpected default mode: %q", cfg.Monitor.Mode)
	}
	if cfg.TimeSumPath() != filepath.Join(tempHome, "sum.tscrunch") {
		t.Fatalf("unexpected time sum path: %q", cfg.TimeSumPath())
	}
	if cfg.FrequencySumPath() != filepath.Join(tempHome, "sum.fscrunch") {
		t.Fatalf("unexpected frequency sum path: %q", cfg.FrequencySumPath())
	}
	if cfg.PollInterval().Seconds() != 1 {
		t.Fatalf("expected 1s poll interval, got %s", cfg.PollInterval())
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.OutputDir, cfg.Paths.StateDir, cfg.LogDir()} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
	if _, err := os.Stat(cfg.Paths.InputDir); !os.IsNotExist(err) {
		t.Fatalf("expected input dir to be left alone, stat err=%v", err)
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "archivemon.toml")

	type payload struct {
		Paths struct {
			InputDir  string `toml:"input_dir"`
			OutputDir string `toml:"output_dir"`
			WorkDir   string `toml:"work_dir"`
			StateDir  string `toml:"state_dir"`
		} `toml:"paths"`
		Tools struct {
			ArchiveSuffix   string `toml:"archive_suffix"`
			FrequencySuffix string `toml:"frequency_suffix"`
		} `toml:"tools"`
		Logging struct {
			Format string `toml:"format"`
			Level  string `toml:"level"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.Paths.InputDir = filepath.Join(tempDir, "in")
	custom.Paths.OutputDir = filepath.Join(tempDir, "out")
	custom.Paths.WorkDir = filepath.Join(tempDir, "work")
	custom.Paths.StateDir = filepath.Join(tempDir, "state")
	custom.Tools.ArchiveSuffix = "rf"
	custom.Tools.FrequencySuffix = " ..F "
	custom.Logging.Format = "JSON"
	custom.Logging.Level = "DEBUG"

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected config at %q, got %q (exists=%v)", configPath, resolved, exists)
	}
	if cfg.Tools.ArchiveSuffix != ".rf" {
		t.Fatalf("unexpected archive suffix: %q", cfg.Tools.ArchiveSuffix)
	}
	if cfg.Tools.FrequencySuffix != ".F" {
		t.Fatalf("unexpected frequency suffix: %q", cfg.Tools.FrequencySuffix)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
	if cfg.Paths.WorkDir != filepath.Join(tempDir, "work") {
		t.Fatalf("unexpected work dir: %q", cfg.Paths.WorkDir)
	}
}

func TestOverridesBeatFile(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "archivemon.toml")
	content := "[paths]\ninput_dir = \"/from/file\"\noutput_dir = \"/from/file/out\"\n[monitor]\nmode = \"FileMode\"\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.LoadWithOverrides(configPath, config.Overrides{
		InputDir: filepath.Join(tempDir, "flag-in"),
		Mode:     "FlagMode",
		LogLevel: "warn",
	})
	if err != nil {
		t.Fatalf("LoadWithOverrides returned error: %v", err)
	}
	if cfg.Paths.InputDir != filepath.Join(tempDir, "flag-in") {
		t.Fatalf("expected flag input dir, got %q", cfg.Paths.InputDir)
	}
	if cfg.Paths.OutputDir != "/from/file/out" {
		t.Fatalf("expected file output dir, got %q", cfg.Paths.OutputDir)
	}
	if cfg.Monitor.Mode != "FlagMode" {
		t.Fatalf("expected flag mode, got %q", cfg.Monitor.Mode)
	}
	if cfg.Logging.Level != "warn" {
		t.Fatalf("expected warn level, got %q", cfg.Logging.Level)
	}
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{
			name:   "missing input",
			mutate: func(c *config.Config) { c.Paths.InputDir = "" },
			want:   "input_dir",
		},
		{
			name:   "missing output",
			mutate: func(c *config.Config) { c.Paths.OutputDir = "" },
			want:   "output_dir",
		},
		{
			name:   "output equals work dir",
			mutate: func(c *config.Config) { c.Paths.OutputDir = c.Paths.WorkDir },
			want:   "must differ",
		},
		{
			name:   "same suffixes",
			mutate: func(c *config.Config) { c.Tools.FrequencySuffix = c.Tools.ArchiveSuffix },
			want:   "frequency_suffix",
		},
		{
			name:   "sum name with directory",
			mutate: func(c *config.Config) { c.Tools.TimeSumName = "nested/sum.tscrunch" },
			want:   "plain file name",
		},
		{
			name:   "sum name with archive suffix",
			mutate: func(c *config.Config) { c.Tools.FrequencySumName = "sum.ar" },
			want:   "archive suffix",
		},
		{
			name:   "bad format",
			mutate: func(c *config.Config) { c.Logging.Format = "xml" },
			want:   "logging.format",
		},
		{
			name:   "bad level",
			mutate: func(c *config.Config) { c.Logging.Level = "verbose" },
			want:   "logging.level",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Paths.InputDir = "/data/in"
			cfg.Paths.OutputDir = "/data/out"
			cfg.Paths.WorkDir = "/data/work"
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadRejectsUnknownLogFormat(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "archivemon.toml")
	content := "[paths]\ninput_dir = \"/data/in\"\noutput_dir = \"/data/out\"\n[logging]\nformat = \"Logfmt\"\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, _, _, err := config.Load(configPath)
	if err == nil {
		t.Fatal("expected unknown log format to fail")
	}
	if !strings.Contains(err.Error(), `logging.format: unsupported value "logfmt"`) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.LoadWithOverrides(path, config.Overrides{
		InputDir:  filepath.Join(tempDir, "in"),
		OutputDir: filepath.Join(tempDir, "out"),
	})
	if err != nil {
		t.Fatalf("load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if !cfg.Monitor.JournalEnabled {
		t.Fatal("expected journal enabled in sample")
	}
	if cfg.Tools.PamBinary != "pam" || cfg.Tools.PsraddBinary != "psradd" {
		t.Fatalf("unexpected tool binaries: %+v", cfg.Tools)
	}
}

func TestInspectLoadSkipsDirectoryRequirement(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected missing input_dir to fail a full load")
	}
	cfg, _, _, err := config.LoadWithOverrides(path, config.Overrides{Inspect: true})
	if err != nil {
		t.Fatalf("inspect load: %v", err)
	}
	if cfg.Paths.InputDir != "" {
		t.Fatalf("expected empty input dir, got %q", cfg.Paths.InputDir)
	}
}
