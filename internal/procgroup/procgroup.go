// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package procgroup runs encoder child processes in their own process group so
// the whole tree can be stopped together.
package procgroup

import (
	"errors"
	"os"
	"os/exec"
	"time"

	"github.com/ManuGH/callvault/internal/metrics"
)

// Terminate asks the process group to stop, then force-kills it if it has
// not exited within grace. It always drains waitCh and returns its error.
// Safe on nil or unstarted commands.
func Terminate(cmd *exec.Cmd, waitCh <-chan error, grace time.Duration) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}

	metrics.IncProcTerminate("SIGTERM", signalResult(interrupt(cmd)))

	select {
	case err := <-waitCh:
		if err == nil {
			metrics.IncProcWait("exit0")
		} else {
			metrics.IncProcWait("exit_nonzero")
		}
		return err
	case <-time.After(grace):
		metrics.IncProcTerminate("SIGKILL", signalResult(kill(cmd)))

		err := <-waitCh
		if err == nil {
			metrics.IncProcWait("forced_exit0")
		} else {
			metrics.IncProcWait("forced_error")
		}
		return err
	}
}

func signalResult(err error) string {
	switch {
	case err == nil:
		return "sent"
	case errors.Is(err, os.ErrProcessDone):
		return "esrch"
	default:
		return "error"
	}
}
