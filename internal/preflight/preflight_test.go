package preflight_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"archivemon/internal/preflight"
	"archivemon/internal/testsupport"
)

func TestRunAllPassesForPreparedConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	results := preflight.RunAll(cfg)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	if err := preflight.Err(results); err != nil {
		t.Fatalf("unexpected preflight failure: %v", err)
	}
}

func TestRunAllReportsMissingInput(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.InputDir = filepath.Join(testsupport.BaseDir(cfg), "missing")
	err := preflight.Err(preflight.RunAll(cfg))
	if err == nil {
		t.Fatal("expected preflight failure")
	}
	if !strings.Contains(err.Error(), "Input directory") || !strings.Contains(err.Error(), "does not exist") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "plain")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	if r := preflight.CheckDirectoryAccess("dir", dir, preflight.ReadWrite); !r.Passed {
		t.Fatalf("expected pass, got %+v", r)
	}
	if r := preflight.CheckDirectoryAccess("file", file, preflight.ReadOnly); r.Passed || !strings.Contains(r.Detail, "not a directory") {
		t.Fatalf("expected not-a-directory failure, got %+v", r)
	}
	if r := preflight.CheckDirectoryAccess("blank", " ", preflight.ReadOnly); r.Passed || r.Detail != "not configured" {
		t.Fatalf("expected not-configured failure, got %+v", r)
	}

	if os.Geteuid() != 0 {
		locked := filepath.Join(dir, "locked")
		if err := os.Mkdir(locked, 0o555); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if r := preflight.CheckDirectoryAccess("locked", locked, preflight.ReadWrite); r.Passed {
			t.Fatalf("expected permission failure, got %+v", r)
		}
		if r := preflight.CheckDirectoryAccess("locked", locked, preflight.ReadOnly); !r.Passed {
			t.Fatalf("expected read-only pass, got %+v", r)
		}
	}
}
