package clidecode

import (
	"context"
	"strings"
)

// FakeConn answers from canned show protocols all text instead of a socket.
type FakeConn struct {
	// All is the cleaned reply to show protocols all.
	All string
	// Config is the reply to configure check.
	Config string
}

// ShowProtocols returns the summary of every protocol in All.
func (f FakeConn) ShowProtocols(ctx context.Context) ([]Protocol, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ParseProtocols(f.All)
}

// ShowProtocolsAll decodes All.
func (f FakeConn) ShowProtocolsAll(ctx context.Context) ([]ProtocolAll, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ParseProtocolsAll(f.All)
}

// ShowProtocolAll decodes one protocol from All.
func (f FakeConn) ShowProtocolAll(ctx context.Context, name string) (ProtocolAll, error) {
	if err := ctx.Err(); err != nil {
		return ProtocolAll{}, err
	}
	return ParseProtocolAll(f.All, name)
}

// ShowProtocolRaw returns the segment for name, or All when name is empty.
// The summary and detailed forms share text here.
func (f FakeConn) ShowProtocolRaw(ctx context.Context, name string, _ bool) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if name == "" {
		return f.All, nil
	}
	return RawProtocol(f.All, name)
}

// ConfigureCheck looks for bird's confirmation in Config.
func (f FakeConn) ConfigureCheck(ctx context.Context) (bool, string, error) {
	if err := ctx.Err(); err != nil {
		return false, "", err
	}
	return strings.Contains(f.Config, "Configuration OK"), f.Config, nil
}
