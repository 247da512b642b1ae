// Package clidecode turns the text bird prints for show protocols into typed
// records.
package clidecode

import "context"

// Decoder is an interface that represents a router to interrogate.
type Decoder interface {
	// ShowProtocols returns the summary line of every protocol.
	ShowProtocols(ctx context.Context) ([]Protocol, error)

	// ShowProtocolsAll returns every protocol in detail.
	ShowProtocolsAll(ctx context.Context) ([]ProtocolAll, error)

	// ShowProtocolAll returns one protocol in detail, or ErrNotFound.
	ShowProtocolAll(ctx context.Context, name string) (ProtocolAll, error)

	// ShowProtocolRaw returns the text bird printed for one protocol. An empty
	// name returns the whole reply.
	ShowProtocolRaw(ctx context.Context, name string, all bool) (string, error)

	// ConfigureCheck reports whether the running configuration files parse,
	// along with bird's reply.
	ConfigureCheck(ctx context.Context) (bool, string, error)
}
