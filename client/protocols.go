package client

import (
	"context"

	"github.com/mellowdrifter/birdctl/clidecode"
)

// Commands sent for show protocols. The summary form keeps its trailing
// space; bird accepts it and the name filter is applied here, not by bird.
const (
	cmdProtocols    = "show protocols "
	cmdProtocolsAll = "show protocols all"
)

func protocolsCommand(all bool) string {
	if all {
		return cmdProtocolsAll
	}
	return cmdProtocols
}

// ShowProtocols returns the summary line of every protocol.
func (c *Client) ShowProtocols(ctx context.Context) ([]clidecode.Protocol, error) {
	text, err := c.SendCommand(ctx, cmdProtocols)
	if err != nil {
		return nil, err
	}
	return clidecode.ParseProtocols(text)
}

// ShowProtocol returns the summary of the protocol called name, or an error
// wrapping clidecode.ErrNotFound.
func (c *Client) ShowProtocol(ctx context.Context, name string) (clidecode.Protocol, error) {
	text, err := c.SendCommand(ctx, cmdProtocols)
	if err != nil {
		return clidecode.Protocol{}, err
	}
	return clidecode.ParseProtocol(text, name)
}

// ShowProtocolsAll returns every protocol in detail. One protocol that does
// not decode fails the whole call.
func (c *Client) ShowProtocolsAll(ctx context.Context) ([]clidecode.ProtocolAll, error) {
	text, err := c.SendCommand(ctx, cmdProtocolsAll)
	if err != nil {
		return nil, err
	}
	return clidecode.ParseProtocolsAll(text)
}

// ShowProtocolAll decodes only the protocol called name.
func (c *Client) ShowProtocolAll(ctx context.Context, name string) (clidecode.ProtocolAll, error) {
	text, err := c.SendCommand(ctx, cmdProtocolsAll)
	if err != nil {
		return clidecode.ProtocolAll{}, err
	}
	return clidecode.ParseProtocolAll(text, name)
}

// ShowProtocolRaw returns bird's text undecoded: the whole reply when name is
// empty, otherwise just that protocol's lines.
func (c *Client) ShowProtocolRaw(ctx context.Context, name string, all bool) (string, error) {
	text, err := c.SendCommand(ctx, protocolsCommand(all))
	if err != nil {
		return "", err
	}
	if name == "" {
		return text, nil
	}
	return clidecode.RawProtocol(text, name)
}

var _ clidecode.Decoder = (*Client)(nil)
