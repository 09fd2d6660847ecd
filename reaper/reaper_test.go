package reaper

import (
	"os/exec"
	"testing"
	"time"
)

func TestDrain_HarvestsExitedChild(t *testing.T) {
	cmd := exec.Command("/bin/sh", "-c", "exit 3")
	if err := cmd.Start(); err != nil {
		t.Fatalf("failed to start child: %v", err)
	}
	pid := cmd.Process.Pid
	cmd.Process.Release()

	r := New()

	var exits []Exit
	for i := 0; i < 50; i++ {
		exits = r.Drain()
		if len(exits) > 0 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	found := false
	for _, e := range exits {
		if e.Pid == pid {
			found = true
			if e.Status.ExitStatus() != 3 {
				t.Errorf("expected exit status 3, got %d", e.Status.ExitStatus())
			}
		}
	}
	if !found {
		t.Fatalf("expected pid %d among reaped exits, got %+v", pid, exits)
	}
}

func TestDrain_ReentrantCallReturnsEmpty(t *testing.T) {
	r := New()
	r.draining = true

	exits := r.Drain()
	if exits != nil {
		t.Errorf("expected nil exits from re-entrant call, got %+v", exits)
	}

	r.draining = false
}

func TestDrain_NoChildrenReturnsEmpty(t *testing.T) {
	r := New()
	exits := r.Drain()
	if len(exits) != 0 {
		t.Errorf("expected no exits with no children, got %+v", exits)
	}
}
