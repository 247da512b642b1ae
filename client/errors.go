package client

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected is returned for commands sent before Connect succeeded,
	// after Close, or after the connection failed.
	ErrNotConnected = errors.New("client: not connected")
	// ErrClosed is the cause reported to callers still waiting when Close ran.
	ErrClosed = errors.New("client: closed")
)

// ConnectError is returned by Connect when the socket can't be dialled or
// the daemon did not greet as bird.
type ConnectError struct {
	Endpoint string
	Err      error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("client: unable to connect to %s: %v", e.Endpoint, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// IOError is delivered to the command in flight, and to every queued
// command, once the connection fails.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("client: %s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
