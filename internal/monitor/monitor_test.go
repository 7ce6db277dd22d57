package monitor_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"archivemon/internal/accumulator"
	"archivemon/internal/config"
	"archivemon/internal/monitor"
	"archivemon/internal/testsupport"
)

func newMonitor(t *testing.T, cfg *config.Config) (*monitor.Monitor, *accumulator.Accumulator) {
	t.Helper()
	acc, err := accumulator.New(cfg, accumulator.Options{})
	if err != nil {
		t.Fatalf("accumulator.New: %v", err)
	}
	mon, err := monitor.New(cfg, acc, nil)
	if err != nil {
		t.Fatalf("monitor.New: %v", err)
	}
	return mon, acc
}

func start(t *testing.T, mon *monitor.Monitor) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- mon.Run(ctx) }()
	waitUntil(t, func() bool { return mon.State() == monitor.StateWatching })
	return cancel, done
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func fileEquals(path, want string) func() bool {
	return func() bool {
		data, err := os.ReadFile(path)
		return err == nil && string(data) == want
	}
}

func TestMonitorAccumulatesArrivals(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	mon, acc := newMonitor(t, cfg)
	cancel, done := start(t, mon)

	outTime := filepath.Join(cfg.Paths.OutputDir, "sum.tscrunch")
	outFreq := filepath.Join(cfg.Paths.OutputDir, "sum.fscrunch")

	testsupport.WriteArchive(t, cfg.Paths.InputDir, "a.ar", "A")
	waitUntil(t, fileEquals(outTime, "A"))
	waitUntil(t, fileEquals(outFreq, "F(A)"))

	testsupport.WriteArchive(t, cfg.Paths.InputDir, "ignored.txt", "X")
	testsupport.WriteArchive(t, cfg.Paths.InputDir, "b.ar", "B")
	waitUntil(t, fileEquals(outTime, "A+B"))
	waitUntil(t, fileEquals(outFreq, "F(A)+F(B)"))

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
	if mon.State() != monitor.StateStopped {
		t.Fatalf("state = %s, want stopped", mon.State())
	}
	if stats := acc.Stats(); stats.Processed != 2 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if mon.Metrics().Dispatched != 2 {
		t.Fatalf("unexpected metrics %+v", mon.Metrics())
	}
}

func TestMonitorContinuesAfterToolFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithToolFailingOn("pam", "/a.ar"))
	mon, acc := newMonitor(t, cfg)
	cancel, done := start(t, mon)

	testsupport.WriteArchive(t, cfg.Paths.InputDir, "a.ar", "A")
	waitUntil(t, func() bool { return acc.Stats().Failed == 1 })
	if !acc.FirstPending() {
		t.Fatal("failed archive must not seed the sums")
	}

	testsupport.WriteArchive(t, cfg.Paths.InputDir, "b.ar", "B")
	waitUntil(t, fileEquals(filepath.Join(cfg.Paths.OutputDir, "sum.tscrunch"), "B"))
	waitUntil(t, fileEquals(filepath.Join(cfg.Paths.OutputDir, "sum.fscrunch"), "F(B)"))

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats := acc.Stats(); stats.Processed != 1 || stats.Failed != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestMonitorStopWaitsForInFlightArchive(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithToolDelay(300*time.Millisecond))
	mon, _ := newMonitor(t, cfg)
	cancel, done := start(t, mon)

	testsupport.WriteArchive(t, cfg.Paths.InputDir, "a.ar", "A")
	waitUntil(t, func() bool {
		for _, call := range testsupport.Calls(t, testsupport.CallsLog(cfg)) {
			if strings.HasPrefix(call, "pam ") {
				return true
			}
		}
		return false
	})

	cancel()
	waitUntil(t, func() bool {
		s := mon.State()
		return s == monitor.StateStopRequested || s == monitor.StateStopped
	})
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
	// The in-flight archive was published before Run returned.
	if got := testsupport.ReadString(t, filepath.Join(cfg.Paths.OutputDir, "sum.tscrunch")); got != "A" {
		t.Fatalf("output time sum = %q, want A", got)
	}
}

func TestMonitorStopsPromptlyWhenIdle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	mon, _ := newMonitor(t, cfg)
	cancel, done := start(t, mon)

	started := time.Now()
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
	if elapsed := time.Since(started); elapsed > cfg.PollInterval() {
		t.Fatalf("stop took %s, longer than poll interval %s", elapsed, cfg.PollInterval())
	}
}

func TestMonitorRejectsSecondInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	held := flock.New(cfg.LockPath())
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("TryLock: ok=%v err=%v", ok, err)
	}
	t.Cleanup(func() { _ = held.Unlock() })

	mon, _ := newMonitor(t, cfg)
	if err := mon.Run(context.Background()); !errors.Is(err, monitor.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	if mon.State() != monitor.StateIdle {
		t.Fatalf("state = %s, want idle", mon.State())
	}
}

func TestMonitorRunTwice(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	mon, _ := newMonitor(t, cfg)
	cancel, done := start(t, mon)
	if err := mon.Run(context.Background()); !errors.Is(err, monitor.ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
	cancel()
	<-done
}

func TestMonitorMissingInputDir(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.InputDir = filepath.Join(testsupport.BaseDir(cfg), "missing")
	mon, _ := newMonitor(t, cfg)
	if err := mon.Run(context.Background()); err == nil {
		t.Fatal("expected error for missing input directory")
	}
	if mon.State() != monitor.StateIdle {
		t.Fatalf("state = %s, want idle", mon.State())
	}
}
