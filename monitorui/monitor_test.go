package monitorui

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"isd/control"
	isdlog "isd/log"
)

func TestRunPlain_ReportsNoDaemon(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nobody.sock")
	var buf bytes.Buffer
	stop := make(chan struct{})

	go func() {
		time.Sleep(30 * time.Millisecond)
		close(stop)
	}()

	if err := RunPlain(path, &buf, stop); err != nil {
		t.Fatalf("RunPlain: %v", err)
	}
	if !strings.Contains(buf.String(), "no daemon") {
		t.Errorf("expected a no-daemon message, got: %s", buf.String())
	}
}

func TestRunPlain_PrintsStatusSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "isd.sock")
	h := &fakeHandler{statuses: []control.StatusLine{
		{Tag: "w1", Group: "web", Mode: "respawn", Pid: 100, UptimeSeconds: 5},
	}}
	s := &control.Server{Path: path, Logger: isdlog.NoOpLogger{}, Handler: h}
	if err := s.Listen(); err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer s.Close()
	go s.Serve()
	time.Sleep(20 * time.Millisecond)

	var buf bytes.Buffer
	stop := make(chan struct{})
	go func() {
		time.Sleep(30 * time.Millisecond)
		close(stop)
	}()

	if err := RunPlain(path, &buf, stop); err != nil {
		t.Fatalf("RunPlain: %v", err)
	}
	if !strings.Contains(buf.String(), "w1") || !strings.Contains(buf.String(), "respawn") {
		t.Errorf("expected status snapshot in output, got: %s", buf.String())
	}
}

type fakeHandler struct {
	statuses []control.StatusLine
}

func (f *fakeHandler) Tell(group, runlevel string) error { return nil }
func (f *fakeHandler) StopAll()                          {}
func (f *fakeHandler) Status() []control.StatusLine      { return f.statuses }
