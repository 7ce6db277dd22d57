package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"archivemon/internal/accumulator"
	"archivemon/internal/config"
	"archivemon/internal/monitorrun"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var inputDir string
	var outputDir string
	var mode string
	var logLevel string
	var quiet bool

	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:           "archivemon",
		Short:         "Accumulate new PSRCHIVE archives into running sums",
		Long:          "Watch --input_dir for new archive files and fold each one into sum.tscrunch and sum.fscrunch, copying both sums to --output_dir after every archive.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.loadConfig(config.Overrides{
				InputDir:  inputDir,
				OutputDir: outputDir,
				Mode:      mode,
				LogLevel:  logLevel,
			})
			if err != nil {
				return err
			}
			if _, err := accumulator.ParseMode(cfg.Monitor.Mode); err != nil {
				return err
			}
			return monitorrun.Run(cmd.Context(), cfg, monitorrun.Options{
				LogLevel: cfg.Logging.Level,
				Quiet:    quiet,
			})
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	flags := rootCmd.Flags()
	flags.StringVarP(&inputDir, "input_dir", "i", "", "The directory to monitor for new files")
	flags.StringVarP(&outputDir, "output_dir", "o", "", "The directory to output results to")
	flags.StringVarP(&mode, "mode", "m", "", "Processing mode to operate in (one of: "+strings.Join(accumulator.SupportedModes(), ", ")+"; default \""+accumulator.ModeArchiveAdder+"\")")
	flags.StringVar(&logLevel, "log_level", "", "Log level override (debug, info, warn, error)")
	flags.BoolVarP(&quiet, "quiet", "q", false, "Write logs only to the per-run log file")
	// --input-dir and --input_dir name the same flag.
	flags.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "-", "_"))
	})

	rootCmd.AddCommand(newDepsCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newConfigCommand())

	return rootCmd
}
