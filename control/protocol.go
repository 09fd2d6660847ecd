// Package control implements the Control Endpoint (spec.md §4.7): a local
// Unix-domain stream socket server accepting one-line directives, plus
// the client-side connector used by the CLI and the Singleton Bootstrap.
//
// The transport is stdlib net: nothing in the example corpus implements a
// one-line, newline-framed local control protocol more simply, and the
// pack's one third-party transport library (gorilla/websocket, from
// Ankit-Kulkarni-go-experiments) is an HTTP-upgrade protocol — the wrong
// shape for a bare stream socket with no framing beyond newline/EOF.
package control

import "strings"

// Directive is one parsed line read from the control socket.
type Directive struct {
	// Verb is "stopall", "status", or "tell" for a <group> <runlevel> line.
	Verb     string
	Group    string
	Runlevel string
}

// ParseDirective parses one line of whitespace-delimited tokens per
// spec.md §4.7. Malformed input (empty, unknown verb, wrong arity) returns
// ok=false; the caller logs a diagnostic and continues rather than erroring.
func ParseDirective(line string) (Directive, bool) {
	fields := strings.Fields(line)
	switch len(fields) {
	case 1:
		switch fields[0] {
		case "stopall":
			return Directive{Verb: "stopall"}, true
		case "status":
			return Directive{Verb: "status"}, true
		}
		return Directive{}, false
	case 2:
		return Directive{Verb: "tell", Group: fields[0], Runlevel: fields[1]}, true
	default:
		return Directive{}, false
	}
}

// Encode renders d back to the wire line format, used by the client side.
func (d Directive) Encode() string {
	switch d.Verb {
	case "stopall", "status":
		return d.Verb
	default:
		return d.Group + " " + d.Runlevel
	}
}
