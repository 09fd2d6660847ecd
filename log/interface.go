package log

// LibraryLogger is the seam every isd component programs against instead
// of a concrete sink: the reconciler and control endpoint take a
// LibraryLogger (the reconciler logs the outcomes of launcher, terminator
// and reaper calls, which take no logger themselves), so a daemon run wires
// logger.go's file-backed Logger while a test wires NoOpLogger or
// MemoryLogger (testing.go) without any of that code changing.
type LibraryLogger interface {
	// Info logs a routine event, e.g. "launched tag=web1 pid=4821".
	Info(format string, args ...any)

	// Debug logs extra diagnostic detail. Concrete sinks may treat this
	// as a no-op when no debug destination is configured.
	Debug(format string, args ...any)

	// Warn logs a non-fatal condition, e.g. a throttled respawn.
	Warn(format string, args ...any)

	// Error logs a failure the daemon recovered from.
	Error(format string, args ...any)
}

// NoOpLogger discards every message. Used wherever a LibraryLogger is
// required but nothing should be recorded, e.g. a bare control-socket
// probe that has no daemon context of its own.
type NoOpLogger struct{}

func (NoOpLogger) Info(format string, args ...any)  {}
func (NoOpLogger) Debug(format string, args ...any) {}
func (NoOpLogger) Warn(format string, args ...any)  {}
func (NoOpLogger) Error(format string, args ...any) {}

var _ LibraryLogger = NoOpLogger{}
