//go:build windows

package procexec

import "os/exec"

func detach(cmd *exec.Cmd) {}
