//go:build !windows

package procexec

import (
	"os/exec"
	"syscall"
)

// detach starts cmd in its own process group so a terminal interrupt aimed
// at archivemon's foreground group does not reach the tool.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
