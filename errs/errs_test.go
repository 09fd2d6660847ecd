package errs

import (
	"errors"
	"testing"
)

func TestSentinelErrors_AreDistinctAndNonNil(t *testing.T) {
	sentinels := []error{
		ErrConfigUnavailable,
		ErrSocketBindFailed,
		ErrLaunchFailed,
		ErrDaemonConfigInvalid,
		ErrAuditUnavailable,
	}

	for i, err := range sentinels {
		if err == nil {
			t.Errorf("sentinel error %d is nil", i)
		}
	}

	for i := 0; i < len(sentinels); i++ {
		for j := i + 1; j < len(sentinels); j++ {
			if sentinels[i] == sentinels[j] {
				t.Errorf("sentinel errors %d and %d are the same: %v", i, j, sentinels[i])
			}
		}
	}
}

func TestConfigMalformedError_FormatsLineNumber(t *testing.T) {
	err := &ConfigMalformedError{Path: "/etc/isinittab", Line: 7, Err: errors.New("too few fields")}
	want := "config /etc/isinittab:7 malformed: too few fields"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
	if err.Unwrap().Error() != "too few fields" {
		t.Errorf("unexpected unwrap: %v", err.Unwrap())
	}
}

func TestLaunchError_UnwrapsToSentinel(t *testing.T) {
	err := &LaunchError{Tag: "w1", Cmd: "sleep 5", Err: errors.New("exec: not found")}
	if !errors.Is(err, ErrLaunchFailed) {
		t.Error("expected LaunchError to unwrap to ErrLaunchFailed")
	}
	if !IsLaunchFailed(err) {
		t.Error("expected IsLaunchFailed to report true")
	}
}

func TestSocketError_UnwrapsToSentinel(t *testing.T) {
	err := &SocketError{Op: "bind", Path: "/var/run/is/init.s", Err: errors.New("address in use")}
	if !errors.Is(err, ErrSocketBindFailed) {
		t.Error("expected SocketError to unwrap to ErrSocketBindFailed")
	}
	if !IsSocketBindFailed(err) {
		t.Error("expected IsSocketBindFailed to report true")
	}
}

func TestDaemonConfigError_UnwrapsToSentinel(t *testing.T) {
	err := &DaemonConfigError{Path: "/etc/isd/isd.ini", Err: errors.New("invalid duration")}
	if !errors.Is(err, ErrDaemonConfigInvalid) {
		t.Error("expected DaemonConfigError to unwrap to ErrDaemonConfigInvalid")
	}
}

func TestAuditError_UnwrapsToSentinel(t *testing.T) {
	err := &AuditError{Op: "open", Err: errors.New("permission denied")}
	if !errors.Is(err, ErrAuditUnavailable) {
		t.Error("expected AuditError to unwrap to ErrAuditUnavailable")
	}
	if !IsAuditUnavailable(err) {
		t.Error("expected IsAuditUnavailable to report true")
	}
}

func TestIsConfigMalformed_OnlyMatchesThatType(t *testing.T) {
	malformed := &ConfigMalformedError{Path: "x", Line: 1, Err: errors.New("bad")}
	if !IsConfigMalformed(malformed) {
		t.Error("expected IsConfigMalformed to match ConfigMalformedError")
	}
	if IsConfigMalformed(ErrConfigUnavailable) {
		t.Error("expected IsConfigMalformed not to match the unrelated sentinel")
	}
}

func TestIsConfigUnavailable_MatchesSentinelDirectly(t *testing.T) {
	if !IsConfigUnavailable(ErrConfigUnavailable) {
		t.Error("expected IsConfigUnavailable to match the sentinel directly")
	}
	if IsConfigUnavailable(errors.New("unrelated")) {
		t.Error("expected IsConfigUnavailable not to match an unrelated error")
	}
}
