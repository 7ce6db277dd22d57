package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"archivemon/internal/logging"
)

// Handler processes one newly created file.
type Handler func(ctx context.Context, path string) error

// Options configures a Watcher.
type Options struct {
	Dir     string
	Handler Handler
	// Match filters created paths; nil accepts every path.
	Match  func(path string) bool
	Logger *slog.Logger
}

// Metrics reports watcher counters.
type Metrics struct {
	Dispatched uint64
	Failed     uint64
	Ignored    uint64
	Dropped    uint64
}

// Watcher dispatches create events from one directory.
type Watcher struct {
	dir     string
	handler Handler
	match   func(path string) bool
	logger  *slog.Logger
	fs      *fsnotify.Watcher
	queue   *pathQueue

	running    atomic.Bool
	dispatched atomic.Uint64
	failed     atomic.Uint64
	ignored    atomic.Uint64
	dropped    atomic.Uint64
}

// New registers a non-recursive watch on opts.Dir. The directory must exist.
func New(opts Options) (*Watcher, error) {
	if opts.Handler == nil {
		return nil, errors.New("watcher requires a handler")
	}
	dir := filepath.Clean(opts.Dir)
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("watch directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch directory %q is not a directory", dir)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch %q: %w", dir, err)
	}

	return &Watcher{
		dir:     dir,
		handler: opts.Handler,
		match:   opts.Match,
		logger:  logging.NewComponentLogger(opts.Logger, "watcher"),
		fs:      fsw,
		queue:   newPathQueue(),
	}, nil
}

// Dir returns the watched directory.
func (w *Watcher) Dir() string {
	return w.dir
}

// Metrics returns a snapshot of the watcher counters.
func (w *Watcher) Metrics() Metrics {
	return Metrics{
		Dispatched: w.dispatched.Load(),
		Failed:     w.failed.Load(),
		Ignored:    w.ignored.Load(),
		Dropped:    w.dropped.Load(),
	}
}

// Run delivers queued paths to the handler until ctx is cancelled or the
// underlying fsnotify watcher fails. It returns nil on cancellation, after the
// in-flight handler call has returned. Run closes the watcher before returning
// and may be called only once.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.running.CompareAndSwap(false, true) {
		return errors.New("watcher already running")
	}
	collectCtx, stopCollect := context.WithCancel(ctx)
	collectErr := make(chan error, 1)
	go func() {
		collectErr <- w.collect(collectCtx)
	}()
	defer func() {
		stopCollect()
		_ = w.fs.Close()
	}()

	w.logger.Debug("watching directory", logging.String("path", w.dir))
	for {
		for {
			if ctx.Err() != nil {
				break
			}
			path, ok := w.queue.pop()
			if !ok {
				break
			}
			w.dispatch(ctx, path)
		}

		select {
		case <-ctx.Done():
			w.drop()
			return nil
		case <-w.queue.ready:
		case err := <-collectErr:
			if ctx.Err() != nil {
				w.drop()
				return nil
			}
			return err
		}
	}
}

// collect forwards matching create events into the queue.
func (w *Watcher) collect(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fs.Events:
			if !ok {
				return errors.New("fsnotify event stream closed")
			}
			w.accept(event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return errors.New("fsnotify error stream closed")
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				logging.ErrorWithContext(w.logger, "filesystem event queue overflowed", "watch_overflow",
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "raise fs.inotify.max_queued_events; archives created during the overflow were missed"),
				)
				continue
			}
			logging.WarnWithContext(w.logger, "filesystem watch error", "watch_error",
				logging.Error(err),
				logging.String(logging.FieldImpact, "events may have been missed"),
			)
		}
	}
}

func (w *Watcher) accept(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) {
		return
	}
	w.logger.Debug("new file created", logging.String("path", event.Name))
	if w.match != nil && !w.match(event.Name) {
		w.ignored.Add(1)
		return
	}
	if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
		w.ignored.Add(1)
		return
	}
	w.queue.push(event.Name)
}

// dispatch is the per-event boundary: nothing below it stops the loop.
func (w *Watcher) dispatch(ctx context.Context, path string) {
	w.dispatched.Add(1)
	w.logger.Debug("passing file to handler", logging.String("path", path))
	if err := w.invoke(ctx, path); err != nil {
		w.failed.Add(1)
		logging.ErrorWithContext(w.logger, "event handler failed", "event_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "the file is not retried; recreate it to process again"),
		)
	}
}

func (w *Watcher) invoke(ctx context.Context, path string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v\n%s", r, debug.Stack())
		}
	}()
	return w.handler(ctx, path)
}

func (w *Watcher) drop() {
	n := 0
	for {
		if _, ok := w.queue.pop(); !ok {
			break
		}
		n++
	}
	if n == 0 {
		return
	}
	w.dropped.Add(uint64(n))
	logging.WarnWithContext(w.logger, "stop requested; queued files not processed", "queue_dropped",
		logging.Int("count", n),
		logging.String(logging.FieldImpact, "queued archives are not in the sums"),
		logging.String(logging.FieldErrorHint, "recreate the files after restart to process them"),
	)
}
