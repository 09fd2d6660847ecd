// Package bootstrap implements the Singleton Bootstrap (spec.md §4.8): on
// startup, either connect to an existing daemon as a client or become the
// daemon.
//
// Grounded on worker_helper.go's "relaunch self in a different mode via a
// flag" pattern: the teacher's binary re-execs itself with a
// --worker-helper flag instead of calling fork() directly. isd reuses the
// same idea to become a background daemon, since Go cannot safely fork a
// multi-threaded runtime: exec.Command(os.Args[0], "--daemon", ...) with
// Setsid so the background process detaches from the invoking terminal.
package bootstrap

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"isd/control"
)

// DaemonFlag is the argv[1] the relaunched background process recognizes
// as "become the daemon"; the argument after it, if any, is the
// wire-encoded initial directive (see IsDaemonInvocation).
const DaemonFlag = "--daemon"

// daemonStartupDelay is how long the foreground branch waits for the
// background daemon to bind the control socket before exiting, per
// spec.md §4.8 ("a brief delay (~1s)").
const daemonStartupDelay = 1 * time.Second

// Outcome reports which branch Run took.
type Outcome int

const (
	// RanAsClient means a directive (if any) was sent to an existing daemon.
	RanAsClient Outcome = iota
	// BecameDaemon means no daemon was listening and this process
	// relaunched itself in the background to become one.
	BecameDaemon
)

// Run attempts a client-style connection to socketPath. If it succeeds,
// it sends directive (if non-empty) and returns RanAsClient. If it fails,
// it relaunches the current executable with DaemonFlag and, per the Open
// Question decision recorded in DESIGN.md, passes directive through as
// the background daemon's initial target rather than dropping it.
func Run(socketPath string, directive control.Directive) (Outcome, error) {
	if directive.Verb == "" {
		// Bare invocation, no directive to send: just probe for a listener.
		if conn, err := control.Dial(socketPath); err == nil {
			conn.Close()
			return RanAsClient, nil
		}
	} else if err := control.Send(socketPath, directive); err == nil {
		return RanAsClient, nil
	}

	if err := becomeDaemon(directive); err != nil {
		return RanAsClient, err
	}

	time.Sleep(daemonStartupDelay)
	return BecameDaemon, nil
}

// becomeDaemon relaunches the current executable in the background with
// DaemonFlag and, if directive is non-zero, the directive's wire-encoded
// form as the next argument so the freshly-started daemon can apply it as
// its initial current_target before entering the accept loop.
func becomeDaemon(directive control.Directive) error {
	args := []string{DaemonFlag}
	if directive.Verb != "" {
		args = append(args, directive.Encode())
	}

	cmd := exec.Command(os.Args[0], args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("relaunch as daemon: %w", err)
	}
	cmd.Process.Release()
	return nil
}

// IsDaemonInvocation reports whether args (conventionally os.Args[1:])
// mark this process invocation as the relaunched background daemon, and
// returns the initial directive to apply, if any.
func IsDaemonInvocation(args []string) (isDaemon bool, initial control.Directive) {
	if len(args) == 0 || args[0] != DaemonFlag {
		return false, control.Directive{}
	}
	if len(args) < 2 {
		return true, control.Directive{}
	}
	d, ok := control.ParseDirective(args[1])
	if !ok {
		return true, control.Directive{}
	}
	return true, d
}
