package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"archivemon/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t         testing.TB
	baseDir   string
	cfg       *config.Config
	failing   map[string]string
	toolDelay time.Duration
}

// NewConfig produces a config seeded with unique temp directories per test and
// deterministic stub pam/psradd executables:
//
//	pam -F -e EXT X.ar          writes X.EXT containing "F(<X.ar>)"
//	psradd [-T] -inplace D S    appends "+<S>" to D
//
// Every stub invocation is appended to CallsLog(cfg).
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.InputDir = filepath.Join(base, "input")
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.WorkDir = filepath.Join(base, "work")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Logging.Level = "debug"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
		failing: map[string]string{},
	}

	for _, opt := range opts {
		opt(builder)
	}

	for _, dir := range []string{cfgVal.Paths.InputDir, cfgVal.Paths.OutputDir, cfgVal.Paths.WorkDir, cfgVal.Paths.StateDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	builder.writeStubs()

	return builder.cfg
}

// WithFailingTool makes the named stub ("pam" or "psradd") exit 1 with a
// diagnostic on stderr.
func WithFailingTool(name string) ConfigOption {
	return func(b *configBuilder) {
		b.failing[name] = ""
	}
}

// WithToolFailingOn makes the named stub fail like WithFailingTool, but only
// for invocations whose arguments contain match.
func WithToolFailingOn(name, match string) ConfigOption {
	return func(b *configBuilder) {
		b.failing[name] = match
	}
}

// WithToolDelay makes every stub sleep before doing its work.
func WithToolDelay(delay time.Duration) ConfigOption {
	return func(b *configBuilder) {
		b.toolDelay = delay
	}
}

// WithFailOnToolError enables strict tool failure handling.
func WithFailOnToolError() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Monitor.FailOnToolError = true
	}
}

// WithJournalDisabled turns the processing journal off.
func WithJournalDisabled() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Monitor.JournalEnabled = false
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}

// CallsLog returns the file every stub invocation is recorded in.
func CallsLog(cfg *config.Config) string {
	return filepath.Join(BaseDir(cfg), "calls.log")
}

const pamStub = `
ext=""
file=""
while [ $# -gt 0 ]; do
  case "$1" in
    -e) ext="$2"; shift 2 ;;
    -*) shift ;;
    *) file="$1"; shift ;;
  esac
done
if [ ! -f "$file" ]; then
  echo "pam: cannot load $file" >&2
  exit 1
fi
printf 'F(%s)' "$(cat "$file")" > "${file%.*}.$ext"
`

const psraddStub = `
dst=""
src=""
while [ $# -gt 0 ]; do
  case "$1" in
    -inplace) dst="$2"; shift 2 ;;
    -*) shift ;;
    *) src="$1"; shift ;;
  esac
done
if [ ! -f "$dst" ] || [ ! -f "$src" ]; then
  echo "psradd: cannot load $dst or $src" >&2
  exit 1
fi
printf '+%s' "$(cat "$src")" >> "$dst"
`

func (b *configBuilder) writeStubs() {
	binDir := filepath.Join(b.baseDir, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		b.t.Fatalf("mkdir bin dir: %v", err)
	}
	calls := filepath.Join(b.baseDir, "calls.log")

	for name, body := range map[string]string{"pam": pamStub, "psradd": psraddStub} {
		script := "#!/bin/sh\n"
		script += fmt.Sprintf("echo \"%s $*\" >> %q\n", name, calls)
		if b.toolDelay > 0 {
			script += fmt.Sprintf("sleep %.3f\n", b.toolDelay.Seconds())
		}
		fail := fmt.Sprintf("echo \"%s: simulated failure\" >&2; exit 1", name)
		match, failing := b.failing[name]
		switch {
		case failing && match == "":
			script += fail + "\n"
		case failing:
			script += fmt.Sprintf("case \"$*\" in *%s*) %s ;; esac\n", match, fail)
			script += body
		default:
			script += body
		}
		target := filepath.Join(binDir, name)
		if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
			b.t.Fatalf("write stub %s: %v", name, err)
		}
	}

	b.cfg.Tools.PamBinary = filepath.Join(binDir, "pam")
	b.cfg.Tools.PsraddBinary = filepath.Join(binDir, "psradd")
}
