package clidecode

import (
	"fmt"
	"strings"

	"github.com/mellowdrifter/birdctl/common"
)

// sessionLabels end a capability block.
var sessionLabels = map[string]bool{
	"Session":         true,
	"Source address":  true,
	"Hold timer":      true,
	"Keepalive timer": true,
	"Send hold timer": true,
	"Last error":      true,
}

type capSection int

const (
	noCaps capSection = iota
	localCaps
	neighborCaps
)

// bgpBody holds the first value of every label outside the capability
// blocks, plus the raw lines of each block.
type bgpBody struct {
	first    string
	labels   map[string]string
	local    []string
	neighbor []string
	hasLocal bool
	hasPeer  bool
}

func scanBGP(head []string) bgpBody {
	b := bgpBody{labels: make(map[string]string)}
	if len(head) > 0 {
		b.first = head[0]
	}
	section := noCaps
	for _, line := range head {
		switch line {
		case "Local capabilities":
			section, b.hasLocal = localCaps, true
			continue
		case "Neighbor capabilities":
			section, b.hasPeer = neighborCaps, true
			continue
		}
		label, value, ok := cutLabel(line)
		if section != noCaps && ok && sessionLabels[label] {
			section = noCaps
		}
		switch section {
		case localCaps:
			b.local = append(b.local, line)
			continue
		case neighborCaps:
			b.neighbor = append(b.neighbor, line)
			continue
		}
		if !ok {
			continue
		}
		if _, dup := b.labels[label]; !dup {
			b.labels[label] = value
		}
	}
	return b
}

// state prefers the BGP state label and falls back to the first body line.
func (b bgpBody) state() string {
	if s, ok := b.labels["BGP state"]; ok {
		return s
	}
	return b.first
}

func (b bgpBody) required(protocol, label string) (string, error) {
	v, ok := b.labels[label]
	if !ok || v == "" {
		return "", missing(protocol, strings.ToLower(label))
	}
	return v, nil
}

func (b bgpBody) asn(protocol, label string) (uint32, error) {
	v, err := b.required(protocol, label)
	if err != nil {
		return 0, err
	}
	n, err := common.StringToUint32(strings.Fields(v)[0])
	if err != nil {
		return 0, &ParseError{
			Protocol: protocol,
			Field:    strings.ToLower(label),
			Err:      fmt.Errorf("%w: %v", ErrBadNumber, err),
		}
	}
	return n, nil
}

func (b bgpBody) optional(label string) *string {
	if v, ok := b.labels[label]; ok {
		return &v
	}
	return nil
}

func (b bgpBody) timer(protocol, label string) (*BGPTimer, error) {
	v, ok := b.labels[label]
	if !ok {
		return nil, nil
	}
	t, err := ParseTimer(v)
	if err != nil {
		return nil, &ParseError{Protocol: protocol, Field: strings.ToLower(label), Err: err}
	}
	return &t, nil
}

// ParseTimer reads bird's current/max pair, such as 4/20 or 163.918/240.
func ParseTimer(s string) (BGPTimer, error) {
	cur, limit, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return BGPTimer{}, fmt.Errorf("%w: timer %q", ErrBadNumber, s)
	}
	c, err := common.StringToFloat64(cur)
	if err != nil {
		return BGPTimer{}, fmt.Errorf("%w: %v", ErrBadNumber, err)
	}
	m, err := common.StringToFloat64(limit)
	if err != nil {
		return BGPTimer{}, fmt.Errorf("%w: %v", ErrBadNumber, err)
	}
	return BGPTimer{Current: c, Max: m}, nil
}

// parseCapabilities detects capabilities by their name anywhere in the block.
func parseCapabilities(lines []string) *BGPCapabilities {
	c := &BGPCapabilities{
		AFAnnounced: []string{},
		IPv6NextHop: []string{},
	}
	text := strings.Join(lines, "\n")
	for _, line := range lines {
		label, value, ok := cutLabel(line)
		if !ok {
			continue
		}
		switch label {
		case "AF announced":
			if len(c.AFAnnounced) == 0 {
				c.AFAnnounced = strings.Fields(value)
			}
		case "IPv6 nexthop":
			if len(c.IPv6NextHop) == 0 {
				c.IPv6NextHop = strings.Fields(value)
			}
		}
	}
	c.RouteRefresh = strings.Contains(text, "Route refresh")
	c.ExtendedMessage = strings.Contains(text, "Extended message")
	c.GracefulRestart = strings.Contains(text, "Graceful restart")
	c.FourOctetASNumbers = strings.Contains(text, "4-octet AS numbers")
	c.EnhancedRefresh = strings.Contains(text, "Enhanced refresh")
	c.LongLivedGracefulRestart = strings.Contains(text, "Long-lived graceful restart")
	return c
}

func parseBGP(name string, head []string) (*BGPSession, error) {
	b := scanBGP(head)

	addr, err := b.required(name, "Neighbor address")
	if err != nil {
		return nil, err
	}
	s := &BGPSession{
		State:           b.state(),
		NeighborAddress: addr,
		NeighborID:      b.optional("Neighbor ID"),
		SourceAddress:   b.optional("Source address"),
	}
	if s.NeighborAS, err = b.asn(name, "Neighbor AS"); err != nil {
		return nil, err
	}
	if s.LocalAS, err = b.asn(name, "Local AS"); err != nil {
		return nil, err
	}
	if v, ok := b.labels["Session"]; ok {
		s.Session = strings.Fields(v)
	}
	if b.hasLocal {
		s.LocalCapabilities = parseCapabilities(b.local)
	}
	if b.hasPeer {
		s.NeighborCapabilities = parseCapabilities(b.neighbor)
	}
	if s.HoldTimer, err = b.timer(name, "Hold timer"); err != nil {
		return nil, err
	}
	if s.KeepaliveTimer, err = b.timer(name, "Keepalive timer"); err != nil {
		return nil, err
	}
	if s.SendHoldTimer, err = b.timer(name, "Send hold timer"); err != nil {
		return nil, err
	}
	return s, nil
}

func parsePassiveBGP(name string, head []string) (*PassiveBGPSession, error) {
	b := scanBGP(head)

	rng, err := b.required(name, "Neighbor range")
	if err != nil {
		return nil, err
	}
	s := &PassiveBGPSession{
		State:         b.state(),
		NeighborRange: rng,
	}
	if s.NeighborAS, err = b.asn(name, "Neighbor AS"); err != nil {
		return nil, err
	}
	if s.LocalAS, err = b.asn(name, "Local AS"); err != nil {
		return nil, err
	}
	return s, nil
}
