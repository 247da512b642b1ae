// Package client talks to bird over its control socket. One connection is
// shared by every caller; commands are written one at a time in the order
// they were submitted and each caller receives the reply to its own command.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mellowdrifter/birdctl/common"
	"github.com/mellowdrifter/birdctl/internal/transport"
	"github.com/mellowdrifter/birdctl/internal/wire"
	log "github.com/sirupsen/logrus"
)

// Client is safe for concurrent use.
type Client struct {
	opts    Options
	log     *log.Entry
	metrics *metrics

	mu      sync.Mutex
	sess    *session
	version string
	closed  bool
}

// session is one connection and the goroutine that owns it.
type session struct {
	conn     *transport.Conn
	framer   wire.Framer
	requests chan *request
	stop     chan struct{}
	dead     chan struct{}
	// err is set before dead is closed.
	err error
}

type request struct {
	ctx  context.Context
	cmd  string
	resp chan result
}

type result struct {
	reply string
	err   error
}

// New returns a client that is not yet connected.
func New(opts Options) *Client {
	opts = opts.withDefaults()
	return &Client{
		opts:    opts,
		log:     opts.Logger.WithField("socket", opts.SocketPath),
		metrics: newMetrics(opts.Registerer),
	}
}

// Connect dials the socket and waits for bird's greeting. Connecting an
// already connected client does nothing.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return &ConnectError{Endpoint: c.opts.SocketPath, Err: ErrClosed}
	}
	if c.sess != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.DialTimeout)
	defer cancel()

	conn, err := transport.Dial(ctx, "unix", c.opts.SocketPath)
	if err != nil {
		c.log.WithError(err).Error("unable to dial bird")
		return &ConnectError{Endpoint: c.opts.SocketPath, Err: err}
	}
	s := &session{
		conn:     conn,
		requests: make(chan *request),
		stop:     make(chan struct{}),
		dead:     make(chan struct{}),
	}
	version, err := s.greet(ctx)
	if err != nil {
		conn.Close()
		c.log.WithError(err).Error("bird did not greet")
		return &ConnectError{Endpoint: c.opts.SocketPath, Err: err}
	}

	c.sess = s
	c.version = version
	c.log.WithField("version", version).Info("connected to bird")
	go c.dispatch(s)
	return nil
}

// greet reads the first line and checks it is bird's banner. Anything after
// the banner is kept for the first reply.
func (s *session) greet(ctx context.Context) (string, error) {
	var buf []byte
	for {
		select {
		case chunk, ok := <-s.conn.Chunks():
			if !ok {
				return "", fmt.Errorf("waiting for greeting: %w", s.conn.Err())
			}
			buf = append(buf, chunk...)
			nl := bytes.IndexByte(buf, '\n')
			if nl < 0 {
				continue
			}
			version, err := wire.ParseGreeting(wire.Clean(string(buf[:nl])))
			if err != nil {
				return "", err
			}
			s.framer.Feed(buf[nl+1:])
			return version, nil
		case <-ctx.Done():
			return "", fmt.Errorf("waiting for greeting: %w", ctx.Err())
		}
	}
}

// Version is the daemon version from the greeting, empty until connected.
func (c *Client) Version() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// Connected reports whether commands can be sent.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess != nil
}

// Close drops the connection. Commands still waiting fail with ErrClosed.
// Calling Close more than once is harmless.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	s := c.sess
	c.sess = nil
	c.mu.Unlock()

	if s == nil {
		return nil
	}
	close(s.stop)
	err := s.conn.Close()
	<-s.dead
	c.log.Info("connection closed")
	return err
}

// dispatch owns the socket. It takes one request at a time, so a command is
// only written once the reply to the previous one has been framed. When the
// session ends it is detached and its socket released before any waiter is
// told, so a caller that sees the failure can Connect again straight away.
func (c *Client) dispatch(s *session) {
	var (
		err    error
		failed *request
	)
	defer func() {
		c.mu.Lock()
		if c.sess == s {
			c.sess = nil
		}
		c.mu.Unlock()
		s.conn.Close()

		s.err = err
		close(s.dead)
		if failed != nil {
			failed.resp <- result{err: err}
		}
	}()

	for {
		select {
		case req := <-s.requests:
			if err = c.run(s, req); err != nil {
				failed = req
				c.log.WithError(err).Warn("connection failed, failing queued commands")
				return
			}
		case chunk, ok := <-s.conn.Chunks():
			if !ok {
				err = &IOError{Op: "read", Err: s.cause(s.conn.Err())}
				c.log.WithError(err).Warn("connection lost while idle")
				return
			}
			c.log.WithField("bytes", len(chunk)).Warn("discarding unsolicited data")
		case <-s.stop:
			err = &IOError{Op: "close", Err: ErrClosed}
			return
		}
	}
}

// cause reports ErrClosed for any failure that Close brought about.
func (s *session) cause(err error) error {
	select {
	case <-s.stop:
		return ErrClosed
	default:
	}
	if errors.Is(err, transport.ErrClosed) {
		return ErrClosed
	}
	return err
}

// run writes one command and frames its reply. The reply is read to the end
// even when the caller has gone away, so it is never handed to the next one.
// A returned error ends the session and is delivered to req by dispatch.
func (c *Client) run(s *session, req *request) error {
	if err := req.ctx.Err(); err != nil {
		req.resp <- result{err: fmt.Errorf("command %q: %w", req.cmd, err)}
		return nil
	}

	entry := c.log.WithField("command", req.cmd)
	entry.Debug("sending command")
	defer common.TimeFunction(time.Now(), "command", entry)

	if err := s.conn.Write(wire.Command(req.cmd)); err != nil {
		return &IOError{Op: "write", Err: s.cause(err)}
	}

	for s.framer.State() != wire.Complete {
		select {
		case chunk, ok := <-s.conn.Chunks():
			if !ok {
				cause := s.cause(s.conn.Err())
				s.framer.Fail(cause)
				return &IOError{Op: "read", Err: cause}
			}
			s.framer.Feed(chunk)
		case <-s.stop:
			return &IOError{Op: "read", Err: ErrClosed}
		}
	}

	reply, err := s.framer.Reply()
	s.framer.Reset()
	req.resp <- result{reply: reply, err: err}
	return nil
}

// SendCommand writes cmd once every command submitted before it has been
// answered, and returns bird's reply with reply codes removed.
func (c *Client) SendCommand(ctx context.Context, cmd string) (string, error) {
	c.mu.Lock()
	s := c.sess
	c.mu.Unlock()
	if s == nil {
		return "", ErrNotConnected
	}

	if c.opts.CommandTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.CommandTimeout)
		defer cancel()
	}
	start := time.Now()
	reply, err := c.submit(ctx, s, cmd)
	c.metrics.duration.Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		c.metrics.commands.WithLabelValues(resultOK).Inc()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.metrics.commands.WithLabelValues(resultCancelled).Inc()
	default:
		c.metrics.commands.WithLabelValues(resultError).Inc()
	}
	return reply, err
}

func (c *Client) submit(ctx context.Context, s *session, cmd string) (string, error) {
	req := &request{ctx: ctx, cmd: cmd, resp: make(chan result, 1)}

	// Senders blocked on an unbuffered channel are served in the order they
	// arrived, which is the queue.
	c.metrics.queue.Inc()
	select {
	case s.requests <- req:
		c.metrics.queue.Dec()
	case <-ctx.Done():
		c.metrics.queue.Dec()
		return "", fmt.Errorf("command %q: waiting for turn: %w", cmd, ctx.Err())
	case <-s.dead:
		c.metrics.queue.Dec()
		return "", s.err
	}

	select {
	case res := <-req.resp:
		return res.reply, res.err
	case <-ctx.Done():
		c.log.WithField("command", cmd).Warn("gave up waiting for reply, it will be discarded")
		return "", fmt.Errorf("command %q: %w", cmd, ctx.Err())
	}
}
