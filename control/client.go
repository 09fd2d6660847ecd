package control

import (
	"bufio"
	"fmt"
	"net"

	"isd/errs"
)

// Dial connects to the control socket at path. Failure to connect signals
// "no daemon running" to the Singleton Bootstrap, per spec.md §4.7/§4.8.
func Dial(path string) (net.Conn, error) {
	conn, err := net.Dial("unix", path)
	if err != nil {
		return nil, &errs.SocketError{Op: "dial", Path: path, Err: err}
	}
	return conn, nil
}

// Send connects to path, writes d as a single line, and closes the
// connection. Used by the stopall/tell CLI verbs.
func Send(path string, d Directive) error {
	conn, err := Dial(path)
	if err != nil {
		return err
	}
	defer conn.Close()

	_, err = fmt.Fprintln(conn, d.Encode())
	return err
}

// QueryStatus connects to path, sends the status verb, and returns the
// raw reply lines (see Server.writeStatus for the format), for the
// monitor TUI and `isd status`.
func QueryStatus(path string) ([]string, error) {
	conn, err := Dial(path)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if _, err := fmt.Fprintln(conn, "status"); err != nil {
		return nil, err
	}

	var lines []string
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			break
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}
