package preflight

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"archivemon/internal/config"
)

// Access is the permission a directory check requires.
type Access uint32

const (
	ReadOnly  Access = unix.R_OK | unix.X_OK
	ReadWrite Access = unix.R_OK | unix.W_OK | unix.X_OK
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Path   string
	Passed bool
	Detail string
}

// RunAll checks every configured directory.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	return []Result{
		CheckDirectoryAccess("Input directory", cfg.Paths.InputDir, ReadOnly),
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir, ReadWrite),
		CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir, ReadWrite),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir, ReadWrite),
	}
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

// Err folds failed results into a single error, or returns nil.
func Err(results []Result) error {
	failed := Failed(results)
	if len(failed) == 0 {
		return nil
	}
	parts := make([]string, 0, len(failed))
	for _, r := range failed {
		parts = append(parts, r.Name+": "+r.Detail)
	}
	return fmt.Errorf("preflight failed: %s", strings.Join(parts, "; "))
}

// CheckDirectoryAccess verifies that path is an existing directory with the
// requested access.
func CheckDirectoryAccess(name, path string, access Access) Result {
	result := Result{Name: name, Path: path}
	if strings.TrimSpace(path) == "" {
		result.Detail = "not configured"
		return result
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			result.Detail = fmt.Sprintf("%s does not exist", path)
			return result
		}
		result.Detail = fmt.Sprintf("stat %s: %v", path, err)
		return result
	}
	if !info.IsDir() {
		result.Detail = fmt.Sprintf("%s is not a directory", path)
		return result
	}
	if err := unix.Access(path, uint32(access)); err != nil {
		result.Detail = fmt.Sprintf("%s: insufficient permissions: %v", path, err)
		return result
	}
	result.Passed = true
	if access == ReadOnly {
		result.Detail = "read ok"
	} else {
		result.Detail = "read/write ok"
	}
	return result
}
