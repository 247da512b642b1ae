package clidecode

import "fmt"

// Proto is the protocol type column of show protocols.
type Proto string

const (
	Kernel Proto = "Kernel"
	Static Proto = "Static"
	BGP    Proto = "BGP"
	Direct Proto = "Direct"
	Device Proto = "Device"
)

// ParseProto only accepts the protocol types this package knows how to decode.
func ParseProto(s string) (Proto, error) {
	switch p := Proto(s); p {
	case Kernel, Static, BGP, Direct, Device:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownProto, s)
}

// Protocol is one summary line of show protocols.
type Protocol struct {
	Name  string `json:"name"`
	Proto Proto  `json:"proto"`
	Table string `json:"table"`
	State string `json:"state"`
	Since string `json:"since"`
	Info  string `json:"info"`
}

// ProtocolAll is one protocol from show protocols all.
// Device and Direct carry only the summary. Kernel and Static add Channels.
// BGP adds Channels and exactly one of BGP or PassiveBGP, the latter when
// the summary info is Passive.
type ProtocolAll struct {
	Protocol
	Channels   []Channel          `json:"channels,omitempty"`
	BGP        *BGPSession        `json:"bgp,omitempty"`
	PassiveBGP *PassiveBGPSession `json:"passive_bgp,omitempty"`
}

// IsPassive reports whether this is a listening BGP range without a peer.
func (p ProtocolAll) IsPassive() bool {
	return p.PassiveBGP != nil
}

// Channel is one Channel block of a protocol. Pointer and slice fields are nil
// when bird did not print them.
type Channel struct {
	Name         string  `json:"name"`
	State        *string `json:"state,omitempty"`
	Table        *string `json:"table,omitempty"`
	Preference   *string `json:"preference,omitempty"`
	InputFilter  *string `json:"input_filter,omitempty"`
	OutputFilter *string `json:"output_filter,omitempty"`
	ImportLimit  *string `json:"import_limit,omitempty"`
	Action       *string `json:"action,omitempty"`

	Routes RouteCounts `json:"routes"`

	ImportUpdates   RouteChangeStats `json:"import_updates"`
	ImportWithdraws RouteChangeStats `json:"import_withdraws"`
	ExportUpdates   RouteChangeStats `json:"export_updates"`
	ExportWithdraws RouteChangeStats `json:"export_withdraws"`

	BGPNextHop []string `json:"bgp_next_hop,omitempty"`
}

// RouteCounts from the Routes line. Filtered is only printed when the channel
// keeps filtered routes.
type RouteCounts struct {
	Imported  uint64  `json:"imported"`
	Exported  uint64  `json:"exported"`
	Preferred uint64  `json:"preferred"`
	Filtered  *uint64 `json:"filtered,omitempty"`
}

// RouteChangeStats is one row of the route change table. A nil value is
// bird's --- (not applicable), which is not the same as zero.
type RouteChangeStats struct {
	Received *uint64 `json:"received,omitempty"`
	Rejected *uint64 `json:"rejected,omitempty"`
	Filtered *uint64 `json:"filtered,omitempty"`
	Ignored  *uint64 `json:"ignored,omitempty"`
	Accepted *uint64 `json:"accepted,omitempty"`
}

// BGPSession is the detail of an active BGP protocol.
type BGPSession struct {
	State           string `json:"state"`
	NeighborAddress string `json:"neighbor_address"`
	NeighborAS      uint32 `json:"neighbor_as"`
	LocalAS         uint32 `json:"local_as"`

	NeighborID           *string          `json:"neighbor_id,omitempty"`
	LocalCapabilities    *BGPCapabilities `json:"local_capabilities,omitempty"`
	NeighborCapabilities *BGPCapabilities `json:"neighbor_capabilities,omitempty"`
	Session              []string         `json:"session,omitempty"`
	SourceAddress        *string          `json:"source_address,omitempty"`
	HoldTimer            *BGPTimer        `json:"hold_timer,omitempty"`
	KeepaliveTimer       *BGPTimer        `json:"keepalive_timer,omitempty"`
	SendHoldTimer        *BGPTimer        `json:"send_hold_timer,omitempty"`
}

// BGPCapabilities lists what one side announced in its OPEN.
type BGPCapabilities struct {
	// AFAnnounced comes from Multiprotocol.
	AFAnnounced  []string `json:"af_announced"`
	RouteRefresh bool     `json:"route_refresh"`
	// IPv6NextHop comes from Extended next hop.
	IPv6NextHop              []string `json:"ipv6_next_hop"`
	ExtendedMessage          bool     `json:"extended_message"`
	GracefulRestart          bool     `json:"graceful_restart"`
	FourOctetASNumbers       bool     `json:"four_octet_as_numbers"`
	EnhancedRefresh          bool     `json:"enhanced_refresh"`
	LongLivedGracefulRestart bool     `json:"long_lived_graceful_restart"`
}

// BGPTimer is printed by bird as current/max seconds.
type BGPTimer struct {
	Current float64 `json:"current"`
	Max     float64 `json:"max"`
}

// PassiveBGPSession is a BGP protocol listening on a neighbor range.
type PassiveBGPSession struct {
	State         string `json:"state"`
	NeighborRange string `json:"neighbor_range"`
	NeighborAS    uint32 `json:"neighbor_as"`
	LocalAS       uint32 `json:"local_as"`
}
