package clidecode

import (
	"errors"
	"fmt"
)

var (
	ErrMissingField = errors.New("missing field")
	ErrUnknownProto = errors.New("unknown protocol type")
	ErrBadNumber    = errors.New("malformed number")
	ErrNotFound     = errors.New("protocol not found")
)

// ParseError names the protocol and field that did not decode.
type ParseError struct {
	Protocol string
	Field    string
	Err      error
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("clidecode: protocol %q: %v", e.Protocol, e.Err)
	}
	return fmt.Sprintf("clidecode: protocol %q: %s: %v", e.Protocol, e.Field, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func missing(protocol, field string) *ParseError {
	return &ParseError{Protocol: protocol, Field: field, Err: ErrMissingField}
}
