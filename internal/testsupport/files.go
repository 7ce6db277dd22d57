package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WriteArchive places an archive with the given contents into dir. The file
// is written beside dir and renamed in, so a watcher on dir sees a single
// create event for a complete file.
func WriteArchive(t testing.TB, dir, name, contents string) string {
	t.Helper()

	staging := filepath.Join(filepath.Dir(dir), "staging")
	if err := os.MkdirAll(staging, 0o755); err != nil {
		t.Fatalf("mkdir staging: %v", err)
	}
	tmp := filepath.Join(staging, name)
	if err := os.WriteFile(tmp, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", tmp, err)
	}
	target := filepath.Join(dir, name)
	if err := os.Rename(tmp, target); err != nil {
		t.Fatalf("rename %s: %v", target, err)
	}
	return target
}

// ReadString returns the contents of path, failing the test when unreadable.
func ReadString(t testing.TB, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

// Calls returns the recorded stub invocations, one per line.
func Calls(t testing.TB, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatalf("read calls log: %v", err)
	}
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "\n")
}
