package procexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"archivemon/internal/logging"
)

// ErrToolFailed is wrapped by every ToolError.
var ErrToolFailed = errors.New("external tool failed")

// Runner executes one external command line and waits for it.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) Result
}

// Result describes a finished (or unstartable) command.
type Result struct {
	Name     string
	Args     []string
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
	// StartErr is set when the command could not be started or waited on,
	// e.g. the binary is missing from PATH.
	StartErr error
}

// OK reports whether the command started and exited with status zero.
func (r Result) OK() bool {
	return r.StartErr == nil && r.ExitCode == 0
}

// Err returns nil for a successful command and a *ToolError otherwise.
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	return &ToolError{
		Tool:     r.Name,
		ExitCode: r.ExitCode,
		Stderr:   r.Stderr,
		Cause:    r.StartErr,
	}
}

// CommandLine renders the invocation for logs.
func (r Result) CommandLine() string {
	return FormatCommand(r.Name, r.Args...)
}

// ToolError carries the diagnostics of a failed command.
type ToolError struct {
	Tool     string
	ExitCode int
	Stderr   string
	Cause    error
}

func (e *ToolError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Tool, e.Cause)
	}
	msg := fmt.Sprintf("%s exited with status %d", e.Tool, e.ExitCode)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

func (e *ToolError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrToolFailed, e.Cause}
	}
	return []error{ErrToolFailed}
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	logger *slog.Logger
}

// NewRunner builds an ExecRunner that logs through logger.
func NewRunner(logger *slog.Logger) *ExecRunner {
	return &ExecRunner{logger: logging.NewComponentLogger(logger, "procexec")}
}

// Run starts name with args, waits for it, and logs failures with the
// captured stderr.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) Result {
	if ctx == nil {
		ctx = context.Background()
	}
	result := Result{Name: name, Args: append([]string(nil), args...)}
	r.logger.Debug("calling tool",
		logging.String(logging.FieldTool, name),
		logging.String("command", result.CommandLine()),
	)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(context.WithoutCancel(ctx), name, args...) //nolint:gosec
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	detach(cmd)

	start := time.Now()
	err := cmd.Run()
	result.Duration = time.Since(start)
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	default:
		result.ExitCode = -1
		result.StartErr = err
	}

	if !result.OK() {
		logging.ErrorWithContext(r.logger, "tool failed", "tool_failed",
			logging.String(logging.FieldTool, name),
			logging.String("command", result.CommandLine()),
			logging.Int("exit_code", result.ExitCode),
			logging.String("stderr", strings.TrimSpace(result.Stderr)),
			logging.Error(result.Err()),
			logging.String(logging.FieldErrorHint, "run the command by hand to inspect its output"),
		)
		return result
	}

	r.logger.Debug("call success",
		logging.String(logging.FieldTool, name),
		logging.Duration("duration", result.Duration),
	)
	return result
}

// FormatCommand joins a command line, quoting arguments that contain
// whitespace or quotes.
func FormatCommand(name string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	for _, part := range append([]string{name}, args...) {
		if part == "" || strings.ContainsAny(part, " \t\n\"'") {
			part = strconv.Quote(part)
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, " ")
}
