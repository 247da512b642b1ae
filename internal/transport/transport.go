// Package transport wraps the single stream connection to the bird control
// socket. Incoming bytes are delivered as chunks in arrival order with no
// alignment to reply lines.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
)

// readSize is the largest chunk handed to the reader.
const readSize = 4096

// ErrClosed is returned by Write after Close, and by Err when the connection
// was closed locally.
var ErrClosed = errors.New("transport: connection closed")

// Conn is a bidirectional byte stream to the daemon.
type Conn struct {
	conn   net.Conn
	chunks chan []byte
	done   chan struct{}
	once   sync.Once
	wmu    sync.Mutex

	mu  sync.Mutex
	err error
}

// Dial connects to address and starts reading from it.
func Dial(ctx context.Context, network, address string) (*Conn, error) {
	var d net.Dialer
	nc, err := d.DialContext(ctx, network, address)
	if err != nil {
		return nil, fmt.Errorf("unable to dial %s %s: %w", network, address, err)
	}
	return New(nc), nil
}

// New takes ownership of an established connection.
func New(nc net.Conn) *Conn {
	c := &Conn{
		conn:   nc,
		chunks: make(chan []byte, 16),
		done:   make(chan struct{}),
	}
	go c.readLoop()
	return c
}

func (c *Conn) readLoop() {
	defer close(c.chunks)
	buf := make([]byte, readSize)
	for {
		n, err := c.conn.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case c.chunks <- chunk:
			case <-c.done:
				c.setErr(ErrClosed)
				return
			}
		}
		if err != nil {
			select {
			case <-c.done:
				c.setErr(ErrClosed)
			default:
				if errors.Is(err, io.EOF) {
					err = io.ErrUnexpectedEOF
				}
				c.setErr(fmt.Errorf("read failed: %w", err))
			}
			return
		}
	}
}

func (c *Conn) setErr(err error) {
	c.mu.Lock()
	if c.err == nil {
		c.err = err
	}
	c.mu.Unlock()
}

// Chunks is closed once reading stops, after which Err reports why.
func (c *Conn) Chunks() <-chan []byte {
	return c.chunks
}

// Err returns the reason reading stopped, or nil while the stream is open.
func (c *Conn) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Write sends p in full.
func (c *Conn) Write(p []byte) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if _, err := c.conn.Write(p); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	return nil
}

// Close releases the socket. Calling it more than once is harmless.
func (c *Conn) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}
