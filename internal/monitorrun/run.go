package monitorrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"

	"archivemon/internal/accumulator"
	"archivemon/internal/config"
	"archivemon/internal/deps"
	"archivemon/internal/journal"
	"archivemon/internal/logging"
	"archivemon/internal/monitor"
	"archivemon/internal/preflight"
	"archivemon/internal/procexec"
)

// Options configures monitor process runtime behavior.
type Options struct {
	LogLevel string
	// Quiet drops the stdout log sink; the per-run log file is still written.
	Quiet bool
}

// Run starts the directory monitor and blocks until SIGINT, SIGTERM or
// cancellation of cmdCtx. A requested stop returns nil.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, unix.SIGINT, unix.SIGTERM)
	defer cancel()

	sessionID := logging.NewSessionID()
	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logDir := cfg.LogDir()
	logPath := filepath.Join(logDir, fmt.Sprintf("archivemon-%s.log", runID))

	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	outputs := []string{"stdout", logPath}
	if opts.Quiet {
		outputs = []string{logPath}
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      outputs,
		ErrorOutputPaths: []string{logPath},
		SessionID:        sessionID,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if err := ensureCurrentLogPointer(logDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update archivemon.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: logDir, Pattern: "archivemon-*.log", Exclude: []string{logPath}},
	)

	logger.Debug("input directory", logging.String("path", cfg.Paths.InputDir))
	logger.Debug("output directory", logging.String("path", cfg.Paths.OutputDir))
	logDependencySnapshot(logger, cfg)

	var recorder accumulator.Recorder
	if cfg.Monitor.JournalEnabled {
		store, err := journal.Open(cfg.JournalPath())
		if err != nil {
			logging.WarnWithContext(logger, "processing journal unavailable", "journal_open_failed",
				logging.String("path", cfg.JournalPath()),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "remove the journal file if its schema is outdated"),
				logging.String(logging.FieldImpact, "archives from this run are not recorded in history"),
			)
		} else {
			defer store.Close()
			recorder = store
		}
	}

	acc, err := accumulator.New(cfg, accumulator.Options{
		Runner:    procexec.NewRunner(logger),
		Recorder:  recorder,
		SessionID: sessionID,
		Logger:    logger,
	})
	if err != nil {
		logging.ErrorWithContext(logger, "processing mode not supported", "unsupported_mode",
			logging.String("mode", cfg.Monitor.Mode),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "use --mode "+accumulator.ModeArchiveAdder),
		)
		return err
	}
	logger.Debug("processing mode selected", logging.String("mode", acc.Mode()))

	checks := preflight.RunAll(cfg)
	for _, r := range checks {
		if r.Passed {
			logger.Debug("preflight check passed", logging.String("check", r.Name), logging.String("path", r.Path))
			continue
		}
		logging.ErrorWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", r.Name),
			logging.String("detail", r.Detail),
			logging.String(logging.FieldErrorHint, "create the directory or fix its permissions"),
		)
	}
	if err := preflight.Err(checks); err != nil {
		return err
	}

	mon, err := monitor.New(cfg, acc, logger)
	if err != nil {
		return fmt.Errorf("create monitor: %w", err)
	}

	runErr := mon.Run(signalCtx)
	stats := acc.Stats()
	logger.Info("archivemon shutting down",
		logging.String(logging.FieldEventType, "shutdown"),
		logging.Int("processed", stats.Processed),
		logging.Int("failed", stats.Failed),
		logging.Int("tool_failures", stats.ToolFailures),
		logging.Bool("sums_seeded", !acc.FirstPending()),
	)
	if runErr != nil {
		logging.ErrorWithContext(logger, "directory monitor failed", "monitor_failed",
			logging.Error(runErr),
			logging.String(logging.FieldErrorHint, "check that the input directory exists and no other archivemon is running"),
		)
		return runErr
	}
	return nil
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "archivemon.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	statuses := deps.CheckBinaries(deps.Requirements(cfg))
	attrs := []logging.Attr{logging.String(logging.FieldEventType, "dependency_snapshot")}
	for _, s := range statuses {
		attrs = append(attrs,
			logging.Bool(s.Name+"_available", s.Available),
			logging.String(s.Name+"_binary", s.Command),
		)
	}
	logger.Info("dependency snapshot", logging.Args(attrs...)...)
	for _, s := range deps.Missing(statuses) {
		logging.WarnWithContext(logger, "required tool not found", "dependency_missing",
			logging.String(logging.FieldTool, s.Name),
			logging.String("detail", s.Detail),
			logging.String(logging.FieldErrorHint, "install PSRCHIVE or set tools."+s.Name+"_binary"),
			logging.String(logging.FieldImpact, "archives will fail to process"),
		)
	}
}
