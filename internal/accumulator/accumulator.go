package accumulator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"archivemon/internal/config"
	"archivemon/internal/fileutil"
	"archivemon/internal/journal"
	"archivemon/internal/logging"
	"archivemon/internal/procexec"
)

// ErrArtifactCollision is returned for an archive whose frequency artifact
// would land on one of the running sums.
var ErrArtifactCollision = errors.New("frequency artifact collides with running sum")

// Recorder receives one journal entry per processed archive.
type Recorder interface {
	Record(ctx context.Context, entry journal.Entry) (int64, error)
}

// Options carries the collaborators of an Accumulator.
type Options struct {
	Runner    procexec.Runner
	Recorder  Recorder
	SessionID string
	Logger    *slog.Logger
}

// Stats counts archive outcomes since construction.
type Stats struct {
	Processed    int
	Failed       int
	ToolFailures int
}

// Accumulator owns the running sums and the first-file flag.
type Accumulator struct {
	mode            string
	pamBinary       string
	psraddBinary    string
	archiveSuffix   string
	frequencySuffix string
	timeSum         string
	frequencySum    string
	outputDir       string
	failOnToolError bool

	runner    procexec.Runner
	recorder  Recorder
	sessionID string
	logger    *slog.Logger

	mu    sync.Mutex
	first bool
	seq   int64
	stats Stats
}

// New builds an Accumulator for cfg. It fails with ErrUnsupportedMode when
// cfg.Monitor.Mode is not a supported processing mode.
func New(cfg *config.Config, opts Options) (*Accumulator, error) {
	if cfg == nil {
		return nil, errors.New("accumulator requires config")
	}
	mode, err := ParseMode(cfg.Monitor.Mode)
	if err != nil {
		return nil, err
	}
	logger := logging.NewComponentLogger(opts.Logger, "accumulator")
	runner := opts.Runner
	if runner == nil {
		runner = procexec.NewRunner(opts.Logger)
	}
	return &Accumulator{
		mode:            mode,
		pamBinary:       cfg.Tools.PamBinary,
		psraddBinary:    cfg.Tools.PsraddBinary,
		archiveSuffix:   cfg.Tools.ArchiveSuffix,
		frequencySuffix: cfg.Tools.FrequencySuffix,
		timeSum:         cfg.TimeSumPath(),
		frequencySum:    cfg.FrequencySumPath(),
		outputDir:       cfg.Paths.OutputDir,
		failOnToolError: cfg.Monitor.FailOnToolError,
		runner:          runner,
		recorder:        opts.Recorder,
		sessionID:       opts.SessionID,
		logger:          logger,
		first:           true,
	}, nil
}

// Mode returns the processing mode in effect.
func (a *Accumulator) Mode() string {
	return a.mode
}

// Matches reports whether path names an archive this accumulator processes.
func (a *Accumulator) Matches(path string) bool {
	return strings.HasSuffix(path, a.archiveSuffix)
}

// ArtifactPath returns the frequency artifact pam writes for archive.
func (a *Accumulator) ArtifactPath(archive string) string {
	return strings.TrimSuffix(archive, a.archiveSuffix) + a.frequencySuffix
}

// FirstPending reports whether the next successful archive will seed the sums.
func (a *Accumulator) FirstPending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.first
}

// Stats returns a snapshot of outcome counters.
func (a *Accumulator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

// Process folds archive into the running sums and publishes both sums to
// the output directory. Tool failures are logged; unless fail_on_tool_error is
// set they do not stop the step. There is no rollback: a failed merge can leave
// the two sums covering different sets of archives.
func (a *Accumulator) Process(ctx context.Context, archive string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.seq++
	step := &step{
		archive:  archive,
		artifact: a.ArtifactPath(archive),
		seq:      a.seq,
		started:  time.Now(),
		logger: a.logger.With(
			logging.String(logging.FieldArchive, archive),
			logging.Int64(logging.FieldSequence, a.seq),
		),
	}

	err := a.run(ctx, step)

	a.stats.ToolFailures += step.toolFailures
	if err != nil {
		a.stats.Failed++
		logging.ErrorWithContext(step.logger, "archive not folded into sums", "archive_failed",
			logging.Error(err),
			logging.Bool("seeding", a.first),
			logging.String(logging.FieldErrorHint, "inspect the archive and tool output; the archive is not retried"),
		)
	} else {
		a.stats.Processed++
		step.logger.Info("archive folded into sums",
			logging.String(logging.FieldEventType, "archive_processed"),
			logging.Bool("seeded", step.seeded),
			logging.Int("tool_failures", step.toolFailures),
			logging.Duration("duration", time.Since(step.started)),
		)
	}
	a.record(ctx, step, err)
	return err
}

type step struct {
	archive      string
	artifact     string
	seq          int64
	started      time.Time
	seeded       bool
	toolFailures int
	logger       *slog.Logger
}

func (a *Accumulator) run(ctx context.Context, s *step) error {
	if !a.Matches(s.archive) {
		return fmt.Errorf("%s does not end with archive suffix %q", s.archive, a.archiveSuffix)
	}
	// pam would overwrite a running sum and removeArtifact would delete it.
	if artifact := filepath.Clean(s.artifact); artifact == filepath.Clean(a.frequencySum) || artifact == filepath.Clean(a.timeSum) {
		return fmt.Errorf("%w: %s would write over %s", ErrArtifactCollision, filepath.Base(s.archive), artifact)
	}
	if _, err := os.Stat(s.archive); err != nil {
		return fmt.Errorf("stat archive: %w", err)
	}
	defer a.removeArtifact(s)

	if err := a.tool(ctx, s, a.pamBinary, "-F", "-e", strings.TrimPrefix(a.frequencySuffix, "."), s.archive); err != nil {
		return fmt.Errorf("frequency transform: %w", err)
	}

	if a.first {
		s.logger.Debug("first archive in set; seeding sums")
		if err := fileutil.CopyFilePreserve(s.artifact, a.frequencySum); err != nil {
			return fmt.Errorf("seed frequency sum: %w", err)
		}
		if err := fileutil.CopyFilePreserve(s.archive, a.timeSum); err != nil {
			return fmt.Errorf("seed time sum: %w", err)
		}
		a.first = false
		s.seeded = true
	} else {
		before := s.toolFailures
		if err := a.tool(ctx, s, a.psraddBinary, "-T", "-inplace", a.timeSum, s.archive); err != nil {
			return fmt.Errorf("merge time sum: %w", err)
		}
		timeFailed := s.toolFailures > before
		before = s.toolFailures
		err := a.tool(ctx, s, a.psraddBinary, "-inplace", a.frequencySum, s.artifact)
		if freqFailed := s.toolFailures > before; timeFailed != freqFailed {
			logging.WarnWithContext(s.logger, "running sums diverged", "sums_diverged",
				logging.Alert("sums_inconsistent"),
				logging.Bool("time_merged", !timeFailed),
				logging.Bool("frequency_merged", !freqFailed),
				logging.String(logging.FieldErrorHint, "restart archivemon with a clean work directory to rebuild both sums"),
				logging.String(logging.FieldImpact, "time and frequency sums cover different archives"),
			)
		}
		if err != nil {
			return fmt.Errorf("merge frequency sum: %w", err)
		}
	}

	a.removeArtifact(s)

	for _, sum := range []string{a.frequencySum, a.timeSum} {
		dst, err := fileutil.PublishFile(sum, a.outputDir)
		if err != nil {
			return fmt.Errorf("publish %s: %w", filepath.Base(sum), err)
		}
		s.logger.Debug("sum published", logging.String("path", dst))
	}
	return nil
}

// tool runs one external command. A failure is counted and only returned
// when failOnToolError is set.
func (a *Accumulator) tool(ctx context.Context, s *step, name string, args ...string) error {
	result := a.runner.Run(ctx, name, args...)
	if result.OK() {
		return nil
	}
	s.toolFailures++
	if a.failOnToolError {
		return result.Err()
	}
	logging.WarnWithContext(s.logger, "tool failure ignored; continuing with archive", "tool_failure_ignored",
		logging.String(logging.FieldTool, filepath.Base(name)),
		logging.Error(result.Err()),
		logging.String(logging.FieldErrorHint, "set monitor.fail_on_tool_error to stop on tool failures"),
		logging.String(logging.FieldImpact, "running sums may not include this archive"),
	)
	return nil
}

func (a *Accumulator) removeArtifact(s *step) {
	err := os.Remove(s.artifact)
	switch {
	case err == nil:
		s.logger.Debug("frequency artifact removed", logging.String("path", s.artifact))
	case errors.Is(err, os.ErrNotExist):
	default:
		logging.WarnWithContext(s.logger, "frequency artifact cleanup failed", "artifact_cleanup_failed",
			logging.String("path", s.artifact),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check permissions on the input directory"),
			logging.String(logging.FieldImpact, "intermediate file remains on disk"),
		)
	}
}

func (a *Accumulator) record(ctx context.Context, s *step, procErr error) {
	if a.recorder == nil {
		return
	}
	entry := journal.Entry{
		SessionID:    a.sessionID,
		Seq:          s.seq,
		ArchivePath:  s.archive,
		Seeded:       s.seeded,
		Outcome:      journal.OutcomeProcessed,
		ToolFailures: s.toolFailures,
		StartedAt:    s.started,
		FinishedAt:   time.Now(),
	}
	if procErr != nil {
		entry.Outcome = journal.OutcomeFailed
		entry.ErrorMessage = procErr.Error()
	}
	if _, err := a.recorder.Record(context.WithoutCancel(ctx), entry); err != nil {
		logging.WarnWithContext(s.logger, "journal write failed", "journal_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "archive missing from history"),
		)
	}
}
