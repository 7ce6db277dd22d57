package config

const (
	defaultWorkDir           = "."
	defaultStateDir          = "~/.local/share/archivemon"
	defaultPamBinary         = "pam"
	defaultPsraddBinary      = "psradd"
	defaultArchiveSuffix     = ".ar"
	defaultFrequencySuffix   = ".fscrunch"
	defaultTimeSumName       = "sum.tscrunch"
	defaultFrequencySumName  = "sum.fscrunch"
	defaultMode              = "ArchiveAdder"
	defaultPollIntervalMS    = 1000
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultLogRetentionDays  = 30
	defaultConfigPath        = "~/.config/archivemon/config.toml"
	defaultProjectConfigName = "archivemon.toml"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:  defaultWorkDir,
			StateDir: defaultStateDir,
		},
		Tools: Tools{
			PamBinary:        defaultPamBinary,
			PsraddBinary:     defaultPsraddBinary,
			ArchiveSuffix:    defaultArchiveSuffix,
			FrequencySuffix:  defaultFrequencySuffix,
			TimeSumName:      defaultTimeSumName,
			FrequencySumName: defaultFrequencySumName,
		},
		Monitor: Monitor{
			Mode:           defaultMode,
			PollIntervalMS: defaultPollIntervalMS,
			JournalEnabled: true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
