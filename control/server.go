package control

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"sync"

	"isd/errs"
	"isd/log"
)

// StatusLine is one row of the status verb's reply, per SPEC_FULL.md §6.
type StatusLine struct {
	Tag           string
	Group         string
	Mode          string
	Pid           int // WaitPlaceholder sentinel rendered as "WAIT"
	UptimeSeconds int64
}

// Handler is implemented by the daemon side: the Reconciler satisfies it
// directly (see supervisor.Reconciler's Tell/StopAll/Status methods,
// wired in cmd/).
type Handler interface {
	Tell(group, runlevel string) error
	StopAll()
	Status() []StatusLine
}

// Server is the Control Endpoint's server side: a Unix-domain stream
// socket accepting directives sequentially, one connection at a time, per
// spec.md §4.7 and §5's single-threaded cooperative model.
//
// Grounded on the teacher's cmd/build.go and cmd/monitor.go for the
// overall client/server shape (signal-driven cleanup, a polling/accept
// loop); the transport itself is stdlib net since no third-party library
// in the pack models a bare newline-framed local socket more simply.
type Server struct {
	Path    string
	Logger  log.LibraryLogger
	Handler Handler

	mu       sync.Mutex
	stopped  bool
	listener net.Listener
}

// Listen binds the control socket at s.Path, unlinking any stale file
// first per spec.md §4.7.
func (s *Server) Listen() error {
	if _, err := os.Stat(s.Path); err == nil {
		if rmErr := os.Remove(s.Path); rmErr != nil {
			return &errs.SocketError{Op: "unlink stale socket", Path: s.Path, Err: rmErr}
		}
	}

	l, err := net.Listen("unix", s.Path)
	if err != nil {
		return &errs.SocketError{Op: "bind", Path: s.Path, Err: err}
	}
	s.listener = l
	return nil
}

// Close removes the listening socket without marking the server as
// intentionally stopped. Used for plain cleanup (e.g. a deferred Close
// after Serve has already returned); a concurrent Serve loop would treat
// the resulting Accept error as a rebind signal, not a shutdown signal —
// use Stop for that.
func (s *Server) Close() error {
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}

// Stop marks the server as intentionally shutting down and closes its
// listener, so a concurrent Serve loop returns ErrStopped from its next
// Accept error instead of rebinding a fresh socket. Used by the signal
// handler for a clean shutdown-then-exit (SPEC_FULL.md §4.7).
func (s *Server) Stop() error {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	return s.Close()
}

// ErrStopped is returned by Serve after a stopall directive, or Stop, has
// shut the daemon down cleanly.
var ErrStopped = fmt.Errorf("control server stopped")

// Serve accepts connections in a loop, handling one directive per
// connection before accepting the next, matching the single-threaded
// cooperative model of spec.md §5. It returns ErrStopped after a stopall
// directive is handled or Stop is called, or a socket error if the
// listener itself fails and cannot be rebuilt.
func (s *Server) Serve() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.mu.Lock()
			stopped := s.stopped
			s.mu.Unlock()
			if stopped {
				return ErrStopped
			}
			if rebindErr := s.rebind(); rebindErr != nil {
				return rebindErr
			}
			continue
		}

		stop := s.handleConn(conn)
		if stop {
			return ErrStopped
		}
	}
}

func (s *Server) rebind() error {
	s.Logger.Warn("control socket unusable, rebinding at %s", s.Path)
	_ = s.Close()
	return s.Listen()
}

// handleConn reads one line, dispatches it, and reports whether the
// server should stop accepting further connections (a stopall directive).
func (s *Server) handleConn(conn net.Conn) (stop bool) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	if !scanner.Scan() {
		s.Logger.Warn("control connection closed with no directive")
		return false
	}
	line := scanner.Text()

	dir, ok := ParseDirective(line)
	if !ok {
		s.Logger.Warn("ignoring malformed control directive: %q", line)
		return false
	}

	switch dir.Verb {
	case "stopall":
		s.Handler.StopAll()
		return true
	case "status":
		writeStatus(conn, s.Handler.Status())
		return false
	case "tell":
		if err := s.Handler.Tell(dir.Group, dir.Runlevel); err != nil {
			s.Logger.Error("reconcile failed for %s %s: %v", dir.Group, dir.Runlevel, err)
		}
		return false
	default:
		return false
	}
}

func writeStatus(conn net.Conn, lines []StatusLine) {
	w := bufio.NewWriter(conn)
	defer w.Flush()

	for _, l := range lines {
		pidField := "WAIT"
		if l.Pid >= 0 {
			pidField = fmt.Sprintf("%d", l.Pid)
		}
		fmt.Fprintf(w, "%s %s %s %s %d\n", l.Tag, l.Group, l.Mode, pidField, l.UptimeSeconds)
	}
	fmt.Fprintln(w)
}
