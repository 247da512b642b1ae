// Package fakebird runs a stand-in bird daemon on a unix socket. It speaks the
// control socket framing and answers commands from a table of canned replies.
package fakebird

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// DefaultGreeting is what bird 2 prints when a client connects.
const DefaultGreeting = "0001 BIRD 2.15.1 ready.\n"

// Unknown is bird's answer to a command it does not understand.
const Unknown = "9001 syntax error, unexpected CLI_MARKER\n"

// Config describes how the fake daemon behaves.
type Config struct {
	// Greeting replaces DefaultGreeting. The banner is sent as is.
	Greeting string
	// Replies maps a command, without its newline, to the framed reply.
	Replies map[string]string
	// Delays holds the reply to a command back by a fixed time.
	Delays map[string]time.Duration
	// Hangup closes the connection instead of answering these commands,
	// after any delay.
	Hangup map[string]bool
	// ChunkSize splits every write into pieces of at most this many bytes.
	ChunkSize int
}

// Server is a running fake daemon.
type Server struct {
	Path string

	l   net.Listener
	cfg Config
	wg  sync.WaitGroup
	log *log.Entry

	mu       sync.Mutex
	commands []string
	overlaps int
	conns    map[net.Conn]bool
	closed   bool
}

// Listen starts a fake bird on the unix socket at path.
func Listen(path string, cfg Config) (*Server, error) {
	l, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("unable to listen on %s: %w", path, err)
	}
	if cfg.Greeting == "" {
		cfg.Greeting = DefaultGreeting
	}
	s := &Server{
		Path:  path,
		l:     l,
		cfg:   cfg,
		log:   log.WithField("component", "fakebird"),
		conns: make(map[net.Conn]bool),
	}
	s.wg.Add(1)
	go s.serve()
	return s, nil
}

func (s *Server) serve() {
	defer s.wg.Done()
	for {
		conn, err := s.l.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			conn.Close()
			return
		}
		s.conns[conn] = true
		s.wg.Add(1)
		s.mu.Unlock()
		go s.handle(conn)
	}
}

func (s *Server) handle(conn net.Conn) {
	defer s.wg.Done()
	defer s.drop(conn)

	if err := s.write(conn, s.cfg.Greeting); err != nil {
		return
	}
	r := bufio.NewReader(conn)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.TrimSuffix(line, "\n")
		s.record(cmd)

		if d := s.cfg.Delays[cmd]; d > 0 {
			time.Sleep(d)
		}
		if s.cfg.Hangup[cmd] {
			s.log.WithField("command", cmd).Debug("hanging up")
			return
		}
		reply, ok := s.cfg.Replies[cmd]
		if !ok {
			reply = Unknown
		}
		// A well behaved client waits for the whole reply before writing
		// again, so nothing may arrive before the last chunk has gone out.
		overlap := false
		err = s.writeEach(conn, reply, func() {
			overlap = overlap || pending(conn, r)
		})
		if overlap {
			s.mu.Lock()
			s.overlaps++
			s.mu.Unlock()
		}
		if err != nil {
			return
		}
	}
}

// pendingWait is how long pending waits for bytes already in flight.
const pendingWait = time.Millisecond

// pending reports whether the client has sent anything not yet read.
func pending(conn net.Conn, r *bufio.Reader) bool {
	if r.Buffered() > 0 {
		return true
	}
	conn.SetReadDeadline(time.Now().Add(pendingWait))
	_, err := r.Peek(1)
	conn.SetReadDeadline(time.Time{})
	return err == nil
}

func (s *Server) write(conn net.Conn, text string) error {
	return s.writeEach(conn, text, nil)
}

// writeEach writes text in chunks, calling before ahead of each one.
func (s *Server) writeEach(conn net.Conn, text string, before func()) error {
	b := []byte(text)
	size := s.cfg.ChunkSize
	if size <= 0 {
		size = len(b)
	}
	for len(b) > 0 {
		n := size
		if n > len(b) {
			n = len(b)
		}
		if before != nil {
			before()
		}
		if _, err := conn.Write(b[:n]); err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}

func (s *Server) record(cmd string) {
	s.mu.Lock()
	s.commands = append(s.commands, cmd)
	s.mu.Unlock()
}

func (s *Server) drop(conn net.Conn) {
	conn.Close()
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}

// Commands returns every command received so far, in arrival order.
func (s *Server) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

// Overlaps counts commands that arrived before the previous reply was fully
// sent.
func (s *Server) Overlaps() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overlaps
}

// Kick drops every open client connection while still accepting new ones.
func (s *Server) Kick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		conn.Close()
	}
}

// Close stops accepting, drops every client and waits for handlers to exit.
func (s *Server) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	err := s.l.Close()
	s.Kick()
	s.wg.Wait()
	return err
}

// Frame renders text as a multi-line reply under code, closed by the 0000
// terminal line bird uses for tables.
func Frame(code int, text string) string {
	var b strings.Builder
	for _, line := range strings.Split(strings.TrimSuffix(text, "\n"), "\n") {
		fmt.Fprintf(&b, "%04d-%s\n", code, line)
	}
	b.WriteString("0000 \n")
	return b.String()
}

// Final renders a reply that ends in a single terminal line, preceded by
// informational continuation lines.
func Final(code int, text string, info ...string) string {
	var b strings.Builder
	for _, line := range info {
		fmt.Fprintf(&b, "0002-%s\n", line)
	}
	fmt.Fprintf(&b, "%04d %s\n", code, text)
	return b.String()
}
