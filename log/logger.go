// Package log provides the diagnostics logging used throughout isd: a
// small LibraryLogger interface (see interface.go) that lets the
// reconciler and control endpoint report progress and failures without
// depending on a concrete sink, plus
// concrete sinks for production (file-backed Logger) and tests (NoOpLogger,
// MemoryLogger).
package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Logger is the file-backed diagnostics log for the supervisor daemon.
//
// Unlike the teacher's per-build-phase log split into eight files, isd's
// event set is small (launches, terminations, throttling, reaping,
// control directives) so one structured log file plus an optional debug
// file is enough. Every write goes through the same mutex, so log lines
// from concurrent components are never interleaved mid-line.
type Logger struct {
	mu        sync.Mutex
	main      *os.File
	debugFile *os.File
	debug     bool
}

// NewLogger creates a diagnostics logger writing to logPath. If debugPath
// is non-empty, Debug messages are additionally written there; otherwise
// Debug calls are no-ops, as the LibraryLogger contract allows when no
// debug destination is configured.
func NewLogger(logPath, debugPath string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	main, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	l := &Logger{main: main}

	if debugPath != "" {
		if err := os.MkdirAll(filepath.Dir(debugPath), 0755); err != nil {
			main.Close()
			return nil, fmt.Errorf("create debug log directory: %w", err)
		}
		debugFile, err := os.OpenFile(debugPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			main.Close()
			return nil, fmt.Errorf("open debug log file: %w", err)
		}
		l.debugFile = debugFile
		l.debug = true
	}

	return l, nil
}

// Close closes the underlying log files.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var err error
	if l.main != nil {
		err = l.main.Close()
	}
	if l.debugFile != nil {
		if dErr := l.debugFile.Close(); err == nil {
			err = dErr
		}
	}
	return err
}

func (l *Logger) writeLine(level, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ts := time.Now().Format(time.RFC3339Nano)
	fmt.Fprintf(l.main, "%s [%s] %s\n", ts, level, fmt.Sprintf(format, args...))
	l.main.Sync()
}

// Info logs an informational message (e.g. "reconciled group=web runlevel=run").
func (l *Logger) Info(format string, args ...any) { l.writeLine("INFO", format, args...) }

// Warn logs a non-fatal diagnostic (e.g. a RespawnThrottled deferral).
func (l *Logger) Warn(format string, args ...any) { l.writeLine("WARN", format, args...) }

// Error logs a failure the daemon recovered from (e.g. LaunchFailed).
func (l *Logger) Error(format string, args ...any) { l.writeLine("ERROR", format, args...) }

// Debug logs diagnostic detail. A no-op unless a debug path was configured.
func (l *Logger) Debug(format string, args ...any) {
	if !l.debug {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	ts := time.Now().Format("15:04:05.000")
	fmt.Fprintf(l.debugFile, "%s %s\n", ts, fmt.Sprintf(format, args...))
	l.debugFile.Sync()
}

var _ LibraryLogger = (*Logger)(nil)
