package accumulator

import (
	"errors"
	"fmt"
	"strings"
)

// ModeArchiveAdder sums every new archive into sum.tscrunch/sum.fscrunch.
const ModeArchiveAdder = "ArchiveAdder"

// ErrUnsupportedMode is returned for processing modes other than the supported ones.
var ErrUnsupportedMode = errors.New("unsupported processing mode")

var supportedModes = []string{ModeArchiveAdder}

// ParseMode validates a processing mode name. Names are case-sensitive, matching
// the values accepted by --mode.
func ParseMode(mode string) (string, error) {
	trimmed := strings.TrimSpace(mode)
	if trimmed == "" {
		return ModeArchiveAdder, nil
	}
	for _, m := range supportedModes {
		if trimmed == m {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedMode, trimmed, strings.Join(supportedModes, ", "))
}

// SupportedModes lists the accepted processing modes.
func SupportedModes() []string {
	return append([]string(nil), supportedModes...)
}
