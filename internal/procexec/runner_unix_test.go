//go:build !windows

package procexec_test

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"testing"

	"archivemon/internal/procexec"
)

const groupHelperEnv = "ARCHIVEMON_PROCEXEC_GROUP_HELPER"

func TestRunStartsToolInOwnProcessGroup(t *testing.T) {
	if os.Getenv(groupHelperEnv) == "1" {
		fmt.Print(syscall.Getpgrp())
		os.Exit(0)
	}
	t.Setenv(groupHelperEnv, "1")

	result := procexec.NewRunner(nil).Run(context.Background(), os.Args[0], "-test.run=^TestRunStartsToolInOwnProcessGroup$")
	if !result.OK() {
		t.Fatalf("helper failed: %+v", result)
	}
	child, err := strconv.Atoi(strings.TrimSpace(result.Stdout))
	if err != nil {
		t.Fatalf("unexpected helper output %q", result.Stdout)
	}
	if child == syscall.Getpgrp() {
		t.Fatalf("tool shares process group %d with the caller", child)
	}
}
