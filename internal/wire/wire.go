// Package wire frames replies from the bird control socket.
//
// Every reply line starts with a four digit code followed by a separator.
// A hyphen means more lines follow, a space marks the last line of the reply.
// Lines starting with a space continue the previous code.
package wire

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrBadGreeting = errors.New("wire: unexpected greeting")
	ErrIncomplete  = errors.New("wire: stream ended before reply completed")
)

var (
	greeting = regexp.MustCompile(`BIRD ([0-9]+(?:\.[0-9]+)+) ready\.`)
	spaces   = regexp.MustCompile(` {2,}`)
)

// State of the reply currently being framed.
type State int

const (
	Awaiting State = iota
	Accumulating
	Complete
	Errored
)

func (s State) String() string {
	switch s {
	case Awaiting:
		return "awaiting"
	case Accumulating:
		return "accumulating"
	case Complete:
		return "complete"
	case Errored:
		return "errored"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Framer accumulates chunks for one reply at a time. It is not safe for
// concurrent use; the sequencer owns it.
type Framer struct {
	buf []byte
	// scanned is the offset of the first line not yet checked for a terminal code.
	scanned int
	state   State
	reply   string
	err     error
}

// State returns the current framing state.
func (f *Framer) State() State {
	return f.state
}

// Feed appends a chunk and reports whether the reply is now complete.
// Chunks may split lines, and codes, anywhere.
func (f *Framer) Feed(chunk []byte) bool {
	switch f.state {
	case Complete:
		f.buf = append(f.buf, chunk...)
		return true
	case Errored:
		return false
	}
	if len(chunk) == 0 {
		return false
	}
	f.buf = append(f.buf, chunk...)
	f.state = Accumulating
	return f.scan()
}

// scan walks the complete lines that arrived since the last call.
func (f *Framer) scan() bool {
	for {
		nl := bytes.IndexByte(f.buf[f.scanned:], '\n')
		if nl < 0 {
			return false
		}
		line := f.buf[f.scanned : f.scanned+nl]
		f.scanned += nl + 1
		if IsTerminal(line) {
			f.reply = Clean(string(f.buf[:f.scanned]))
			f.state = Complete
			return true
		}
	}
}

// Fail aborts the reply in progress.
func (f *Framer) Fail(err error) {
	if err == nil {
		err = ErrIncomplete
	}
	f.state = Errored
	f.err = err
}

// Reply returns the cleaned reply once complete.
func (f *Framer) Reply() (string, error) {
	switch f.state {
	case Complete:
		return f.reply, nil
	case Errored:
		return "", f.err
	}
	return "", ErrIncomplete
}

// Reset prepares the framer for the next reply. Bytes received after the
// terminal line of the previous reply are kept.
func (f *Framer) Reset() {
	var rest []byte
	if f.state == Complete {
		rest = f.buf[f.scanned:]
	}
	f.buf = append([]byte(nil), rest...)
	f.scanned = 0
	f.reply = ""
	f.err = nil
	f.state = Awaiting
	if len(f.buf) > 0 {
		f.state = Accumulating
		f.scan()
	}
}

// IsTerminal reports whether line is the final line of a reply.
func IsTerminal(line []byte) bool {
	if len(line) < 5 || line[4] != ' ' {
		return false
	}
	for _, b := range line[:4] {
		if b < '0' || b > '9' {
			return false
		}
	}
	return true
}

// Clean strips reply codes from every line and collapses runs of spaces.
// Continuation lines keep a single leading space so body lines can be told
// apart from protocol summary lines.
func Clean(raw string) string {
	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		lines[i] = spaces.ReplaceAllString(stripCode(line), " ")
	}
	return strings.Join(lines, "\n")
}

func stripCode(line string) string {
	if len(line) < 4 {
		return line
	}
	for i := 0; i < 4; i++ {
		if line[i] < '0' || line[i] > '9' {
			return line
		}
	}
	if len(line) > 4 && (line[4] == '-' || line[4] == ' ') {
		return line[5:]
	}
	return line[4:]
}

// ParseGreeting validates the banner bird sends on connect and returns the
// daemon version.
func ParseGreeting(text string) (string, error) {
	m := greeting.FindStringSubmatch(text)
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrBadGreeting, strings.TrimSpace(text))
	}
	return m[1], nil
}

// Command renders a command as bird expects it on the wire.
func Command(cmd string) []byte {
	if strings.HasSuffix(cmd, "\n") {
		return []byte(cmd)
	}
	return []byte(cmd + "\n")
}
