// Package terminator implements the Terminator (spec.md §4.4):
// graceful-then-forceful termination of a supervised pid.
//
// Grounded on mount/mount.go's DoWorkerUnmounts retry-loop shape (bounded
// retries, sleep between attempts, give up and escalate after exhausting
// the budget) generalized from unmount-retry to the fixed
// 1/2/4/8/16s graceful backoff spec.md §4.4 requires, and further informed
// by the pack's zombie-reaping-supervisor.go runner.stop (SIGTERM,
// poll-liveness loop, SIGKILL escalation) — a supplementary, non-teacher
// pack file modeling the same graceful-then-forceful shape.
package terminator

import (
	"syscall"
	"time"
)

// DefaultBackoff is the fixed graceful-termination poll sequence: 1s, 2s,
// 4s, 8s, 16s, summing to the 31s cumulative bound spec.md §4.4 names.
var DefaultBackoff = []time.Duration{
	1 * time.Second,
	2 * time.Second,
	4 * time.Second,
	8 * time.Second,
	16 * time.Second,
}

// defaultTotal is the sum of DefaultBackoff, used as the reference point
// for Scale.
const defaultTotal = 31 * time.Second

// Scale returns a backoff sequence with the same step ratios as
// DefaultBackoff, rescaled so its steps sum to total. This is how
// SPEC_FULL.md §4.9's configurable grace_period (default 31s, overridable
// for tests) reaches the Terminator without hardcoding the 1/2/4/8/16s
// shape everywhere it is used. A non-positive total falls back to
// DefaultBackoff.
func Scale(total time.Duration) []time.Duration {
	if total <= 0 || total == defaultTotal {
		return DefaultBackoff
	}
	ratio := float64(total) / float64(defaultTotal)
	scaled := make([]time.Duration, len(DefaultBackoff))
	for i, d := range DefaultBackoff {
		scaled[i] = time.Duration(float64(d) * ratio)
	}
	return scaled
}

// StillTracked reports whether the Process Table still holds the tag
// being terminated; Terminate takes this as a callback so it can abort
// early if the Reaper concurrently removes the tag (e.g. the child died
// on its own mid-termination).
type StillTracked func() bool

// Result describes how a termination concluded.
type Result struct {
	// Escalated is true if SIGKILL was required (spec.md's informational
	// TerminationEscalated condition — not an error, but worth logging).
	Escalated bool
}

// Terminate sends SIGTERM to pid, then polls with backoff (DefaultBackoff
// if nil or empty), checking both process liveness and stillTracked after
// each sleep; it exits the loop as soon as either check fails. If the
// process is still alive after the full backoff, it sends SIGKILL.
//
// Terminate never blocks past the sum of backoff before escalating.
func Terminate(pid int, backoff []time.Duration, stillTracked StillTracked) Result {
	if len(backoff) == 0 {
		backoff = DefaultBackoff
	}

	_ = syscall.Kill(pid, syscall.SIGTERM)

	for _, d := range backoff {
		time.Sleep(d)

		if !stillTracked() {
			return Result{}
		}
		if !signallable(pid) {
			return Result{}
		}
	}

	if signallable(pid) {
		_ = syscall.Kill(pid, syscall.SIGKILL)
		return Result{Escalated: true}
	}
	return Result{}
}

// signallable reports whether pid can still be signaled, using signal 0
// (kill(pid, 0)) which performs existence/permission checks without
// actually delivering a signal.
func signallable(pid int) bool {
	err := syscall.Kill(pid, 0)
	return err == nil
}
