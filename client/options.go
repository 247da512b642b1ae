package client

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

// DefaultSocketPath is where bird creates its control socket on most
// distributions.
const DefaultSocketPath = "/run/bird/bird.ctl"

// DefaultDialTimeout bounds dialling and waiting for the greeting when the
// caller's context has no deadline.
const DefaultDialTimeout = 5 * time.Second

// Options configure a Client. The zero value is usable.
type Options struct {
	SocketPath string
	// DialTimeout also covers waiting for the greeting.
	DialTimeout time.Duration
	// CommandTimeout bounds every command from the moment it is submitted.
	// Zero leaves commands bounded only by the caller's context.
	CommandTimeout time.Duration
	Logger         *log.Entry
	// Registerer receives the client metrics when set.
	Registerer prometheus.Registerer
}

func (o Options) withDefaults() Options {
	if o.SocketPath == "" {
		o.SocketPath = DefaultSocketPath
	}
	if o.DialTimeout <= 0 {
		o.DialTimeout = DefaultDialTimeout
	}
	if o.Logger == nil {
		o.Logger = log.NewEntry(log.StandardLogger()).WithField("component", "birdclient")
	}
	return o
}
