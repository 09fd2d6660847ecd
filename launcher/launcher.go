// Package launcher implements the Child Launcher (spec.md §4.3): forking a
// tracked child for respawn/once tags, and running wait-mode commands
// synchronously to completion.
//
// Grounded on worker_helper.go's process-launch shape (exec.Command,
// SysProcAttr{Setpgid: true}, /dev/null stdin wiring, cmd.Run exit-code
// handling) generalized from "run one chroot-isolated build phase" to "run
// one supervised tag's shell command".
package launcher

import (
	"os"
	"os/exec"
	"syscall"

	"isd/errs"
)

// Launch forks and execs cmd via the platform shell and returns the
// child's pid without waiting for it. The child gets its own process
// group (Setpgid) so the Terminator can signal it in isolation from the
// daemon's own group, and /dev/null for stdin since nothing supervised by
// isd is meant to read from the daemon's controlling terminal.
//
// On failure to start, Launch returns a *errs.LaunchError wrapping
// errs.ErrLaunchFailed; the caller (the Reconciler) is expected to log it
// and continue with the remaining tags rather than abort.
func Launch(tag, cmd string) (pid int, err error) {
	c := buildCmd(cmd)

	devNull, err := os.Open(os.DevNull)
	if err != nil {
		return 0, &errs.LaunchError{Tag: tag, Cmd: cmd, Err: err}
	}
	defer devNull.Close()
	c.Stdin = devNull
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr

	if err := c.Start(); err != nil {
		return 0, &errs.LaunchError{Tag: tag, Cmd: cmd, Err: err}
	}

	// The child is now running under its own pid. The Reaper harvests its
	// exit independently via wait4, so this *os.Process handle is released
	// without ever calling Wait on it. Release resets Process.Pid, so the
	// pid is read first.
	pid = c.Process.Pid
	c.Process.Release()

	return pid, nil
}

// RunSync runs cmd via the platform shell and blocks until it completes,
// implementing wait-mode tags (spec.md §4.3): the Reconciler calls this
// after placing WAIT_PLACEHOLDER in the Process Table, which guarantees
// tags later in the tag table see the wait as already satisfied once this
// returns.
func RunSync(tag, cmd string) error {
	c := buildCmd(cmd)

	devNull, err := os.Open(os.DevNull)
	if err != nil {
		return &errs.LaunchError{Tag: tag, Cmd: cmd, Err: err}
	}
	defer devNull.Close()
	c.Stdin = devNull
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr

	if err := c.Run(); err != nil {
		return &errs.LaunchError{Tag: tag, Cmd: cmd, Err: err}
	}
	return nil
}

func buildCmd(cmd string) *exec.Cmd {
	c := exec.Command("/bin/sh", "-c", cmd)
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	return c
}
