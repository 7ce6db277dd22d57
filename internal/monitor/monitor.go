package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"archivemon/internal/config"
	"archivemon/internal/logging"
	"archivemon/internal/watcher"
)

var (
	// ErrAlreadyRunning is returned when Run is called on a Monitor that has already started.
	ErrAlreadyRunning = errors.New("monitor already running")
	// ErrLocked is returned when another process holds the state directory lock.
	ErrLocked = errors.New("another archivemon instance holds the state directory lock")
)

// Processor folds one archive into the running sums.
type Processor interface {
	Process(ctx context.Context, path string) error
	Matches(path string) bool
}

// Monitor watches the input directory and feeds new archives to a Processor.
type Monitor struct {
	inputDir     string
	lockPath     string
	lock         *flock.Flock
	pollInterval time.Duration
	processor    Processor
	base         *slog.Logger
	logger       *slog.Logger

	started atomic.Bool
	state   atomic.Int32
	watcher atomic.Pointer[watcher.Watcher]
}

// New constructs a Monitor in the Idle state.
func New(cfg *config.Config, processor Processor, logger *slog.Logger) (*Monitor, error) {
	if cfg == nil || processor == nil {
		return nil, errors.New("monitor requires config and processor")
	}
	lockPath := cfg.LockPath()
	return &Monitor{
		inputDir:     cfg.Paths.InputDir,
		lockPath:     lockPath,
		lock:         flock.New(lockPath),
		pollInterval: cfg.PollInterval(),
		processor:    processor,
		base:         logger,
		logger:       logging.NewComponentLogger(logger, "monitor"),
	}, nil
}

// State returns the current lifecycle phase.
func (m *Monitor) State() State {
	return State(m.state.Load())
}

// Metrics reports the watcher counters; zero before Run starts watching.
func (m *Monitor) Metrics() watcher.Metrics {
	if w := m.watcher.Load(); w != nil {
		return w.Metrics()
	}
	return watcher.Metrics{}
}

// Run watches until ctx is cancelled or the watcher fails. A cancelled
// context is a normal stop and yields a nil error.
func (m *Monitor) Run(ctx context.Context) error {
	if !m.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	ok, err := m.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w (%s)", ErrLocked, m.lockPath)
	}
	defer func() {
		if err := m.lock.Unlock(); err != nil {
			logging.WarnWithContext(m.logger, "failed to release monitor lock", "lock_release_failed",
				logging.String("lock", m.lockPath),
				logging.Error(err),
				logging.String(logging.FieldImpact, "stale lock file may remain"),
			)
		}
	}()

	w, err := watcher.New(watcher.Options{
		Dir:     m.inputDir,
		Handler: m.processor.Process,
		Match:   m.processor.Matches,
		Logger:  m.base,
	})
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	m.watcher.Store(w)

	m.state.Store(int32(StateWatching))
	m.logger.Info("directory monitor started",
		logging.String(logging.FieldEventType, "monitor_started"),
		logging.String("input_dir", w.Dir()),
		logging.String("lock", m.lockPath),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.Run(gctx)
	})
	g.Go(func() error {
		m.wait(ctx, gctx)
		return nil
	})
	err = g.Wait()

	m.state.Store(int32(StateStopped))
	metrics := w.Metrics()
	m.logger.Info("directory monitor stopped",
		logging.String(logging.FieldEventType, "monitor_stopped"),
		logging.Int64("dispatched", int64(metrics.Dispatched)),
		logging.Int64("failed", int64(metrics.Failed)),
		logging.Int64("dropped", int64(metrics.Dropped)),
	)
	if err != nil {
		return fmt.Errorf("watch %s: %w", m.inputDir, err)
	}
	return nil
}

// wait blocks the controller until a stop is requested, logging a heartbeat
// every poll interval at debug level.
func (m *Monitor) wait(parent, gctx context.Context) {
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-gctx.Done():
			if parent.Err() != nil {
				m.state.Store(int32(StateStopRequested))
				m.logger.Info("stop requested; waiting for watcher to finish",
					logging.String(logging.FieldEventType, "stop_requested"),
				)
			}
			return
		case <-ticker.C:
			metrics := m.Metrics()
			m.logger.Debug("monitor heartbeat",
				logging.String("state", m.State().String()),
				logging.Int64("dispatched", int64(metrics.Dispatched)),
			)
		}
	}
}
