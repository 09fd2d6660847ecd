package config

import (
	"time"

	"gopkg.in/ini.v1"

	"isd/errs"
)

// Daemon holds the daemon-level settings loaded once at startup, separate
// from the tag table: operators edit the tag table live and signal the
// daemon to reconcile, but changing the socket path or grace period
// requires a restart.
type Daemon struct {
	SocketPath  string
	TablePath   string
	GracePeriod time.Duration
	DrainTick   time.Duration
	LogPath     string
	DebugPath   string
	AuditPath   string
}

// defaultDaemon mirrors spec.md's hardcoded constants: the fixed
// 1/2/4/8/16s backoff sums to 31s, so GracePeriod defaults to that total.
func defaultDaemon() Daemon {
	return Daemon{
		SocketPath:  "/var/run/is/init.s",
		TablePath:   "/etc/isinittab",
		GracePeriod: 31 * time.Second,
		DrainTick:   5 * time.Second,
		LogPath:     "/var/log/isd/isd.log",
		AuditPath:   "/var/lib/isd/audit.db",
	}
}

// LoadDaemonConfig loads the ini-format daemon config at path. A missing
// file is not an error: defaults apply, matching SPEC_FULL.md §4.9. A present
// but malformed file is fatal and reported as a *DaemonConfigError wrapping
// errs.ErrDaemonConfigInvalid, since this is a one-time startup load rather
// than the tag table's per-reconciliation tolerance of a missing file.
func LoadDaemonConfig(path string) (Daemon, error) {
	cfg := defaultDaemon()

	if path == "" {
		return cfg, nil
	}

	f, err := ini.LoadSources(ini.LoadOptions{Loose: true, Insensitive: false}, path)
	if err != nil {
		// ini.LoadSources with Loose tolerates a missing file by returning
		// an empty *ini.File; a real parse error (malformed syntax) comes
		// back as a non-nil err here.
		return cfg, &errs.DaemonConfigError{Path: path, Err: err}
	}

	sec := f.Section("")

	if k, err := sec.GetKey("socket_path"); err == nil && k.String() != "" {
		cfg.SocketPath = k.String()
	}
	if k, err := sec.GetKey("table_path"); err == nil && k.String() != "" {
		cfg.TablePath = k.String()
	}
	if k, err := sec.GetKey("grace_period"); err == nil && k.String() != "" {
		d, perr := time.ParseDuration(k.String())
		if perr != nil {
			return cfg, &errs.DaemonConfigError{Path: path, Err: perr}
		}
		cfg.GracePeriod = d
	}
	if k, err := sec.GetKey("drain_tick"); err == nil && k.String() != "" {
		d, perr := time.ParseDuration(k.String())
		if perr != nil {
			return cfg, &errs.DaemonConfigError{Path: path, Err: perr}
		}
		cfg.DrainTick = d
	}
	if k, err := sec.GetKey("log_path"); err == nil && k.String() != "" {
		cfg.LogPath = k.String()
	}
	if k, err := sec.GetKey("debug_path"); err == nil && k.String() != "" {
		cfg.DebugPath = k.String()
	}
	if k, err := sec.GetKey("audit_path"); err == nil && k.String() != "" {
		cfg.AuditPath = k.String()
	}

	return cfg, nil
}
