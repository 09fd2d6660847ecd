package log

import (
	"runtime"
	"strings"

	"golang.org/x/sys/unix"
)

// HostInfo summarizes the host isd is running on, for the daemon's startup
// log line. Grounded on the teacher's config.GetSystemInfo: unix.Uname
// plus runtime.NumCPU, trimmed of the trailing NUL bytes Utsname fields
// carry.
func HostInfo() (osname, release, arch string, ncpus int) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err == nil {
		osname = trimNulls(uts.Sysname[:])
		release = trimNulls(uts.Release[:])
		arch = trimNulls(uts.Machine[:])
	}
	ncpus = runtime.NumCPU()
	return
}

func trimNulls(b []byte) string {
	return strings.TrimRight(string(b), "\x00")
}
