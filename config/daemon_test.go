package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"isd/errs"
)

func TestLoadDaemonConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadDaemonConfig(filepath.Join(t.TempDir(), "does-not-exist.ini"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := defaultDaemon()
	if cfg != want {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadDaemonConfig_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := LoadDaemonConfig("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != defaultDaemon() {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadDaemonConfig_Overrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "isd.ini")
	contents := `
socket_path = /tmp/custom.s
table_path = /tmp/custom.tab
grace_period = 10s
drain_tick = 1s
log_path = /tmp/isd.log
audit_path = /tmp/audit.db
`
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadDaemonConfig(path)
	if err != nil {
		t.Fatalf("LoadDaemonConfig: %v", err)
	}
	if cfg.SocketPath != "/tmp/custom.s" {
		t.Errorf("socket_path not applied: %+v", cfg)
	}
	if cfg.GracePeriod != 10*time.Second {
		t.Errorf("grace_period not applied: %+v", cfg)
	}
	if cfg.DrainTick != time.Second {
		t.Errorf("drain_tick not applied: %+v", cfg)
	}
}

func TestLoadDaemonConfig_MalformedDurationIsFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "isd.ini")
	contents := "grace_period = not-a-duration\n"
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := LoadDaemonConfig(path)
	if err == nil {
		t.Fatal("expected error for malformed grace_period")
	}
	if !errors.Is(err, errs.ErrDaemonConfigInvalid) {
		t.Errorf("expected ErrDaemonConfigInvalid, got %v", err)
	}
}
