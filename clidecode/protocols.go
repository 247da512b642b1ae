package clidecode

import (
	"regexp"
	"strings"
)

// clock matches the time half of a since column printed as date and time.
var clock = regexp.MustCompile(`^[0-9]{1,2}:[0-9]{2}(:[0-9]{2}(\.[0-9]+)?)?$`)

// Segment is one protocol as printed by bird: the summary line followed by
// the indented body lines describing it.
type Segment struct {
	Name    string
	Summary string
	// Body holds the trimmed, non-empty lines below the summary.
	Body []string
	// Raw is the segment exactly as it appeared in the reply.
	Raw string
}

// walk calls fn for every protocol segment in text until fn returns false.
// The header line is skipped. A protocol starts at every line that is not
// indented, so protocol types this package does not decode still get their
// own segment instead of being folded into the previous body.
func walk(text string, fn func(Segment) bool) {
	var (
		cur    *Segment
		raw    []string
		header = true
	)
	emit := func() bool {
		if cur == nil {
			return true
		}
		for len(raw) > 1 && strings.TrimSpace(raw[len(raw)-1]) == "" {
			raw = raw[:len(raw)-1]
		}
		cur.Raw = strings.Join(raw, "\n")
		seg := *cur
		cur, raw = nil, nil
		return fn(seg)
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if isFooter(trimmed) {
			continue
		}
		if trimmed == "" {
			if cur != nil {
				raw = append(raw, line)
			}
			continue
		}
		if header {
			header = false
			if isHeader(trimmed) {
				continue
			}
		}
		if !indented(line) {
			if !emit() {
				return
			}
			cur = &Segment{Name: strings.Fields(trimmed)[0], Summary: trimmed}
			raw = []string{line}
			continue
		}
		if cur != nil {
			cur.Body = append(cur.Body, trimmed)
			raw = append(raw, line)
		}
	}
	emit()
}

// Split returns every protocol segment in a show protocols reply.
func Split(text string) []Segment {
	var segs []Segment
	walk(text, func(s Segment) bool {
		segs = append(segs, s)
		return true
	})
	return segs
}

// FindSegment stops at the first protocol called name.
func FindSegment(text, name string) (Segment, bool) {
	var found Segment
	var ok bool
	walk(text, func(s Segment) bool {
		if s.Name == name {
			found, ok = s, true
			return false
		}
		return true
	})
	return found, ok
}

func isHeader(line string) bool {
	f := strings.Fields(line)
	return len(f) >= 2 && strings.EqualFold(f[0], "name") && strings.EqualFold(f[1], "proto")
}

// isFooter matches a bare terminal reply code left in unframed text.
func isFooter(line string) bool {
	if len(line) != 4 {
		return false
	}
	for i := 0; i < 4; i++ {
		if line[i] < '0' || line[i] > '9' {
			return false
		}
	}
	return true
}

func indented(line string) bool {
	return line != "" && (line[0] == ' ' || line[0] == '\t')
}

// parseSummary splits name proto table state since info. Info keeps every
// remaining word, and a since printed as date and time keeps both halves.
func parseSummary(line string) (Protocol, error) {
	f := strings.Fields(line)
	if len(f) == 0 {
		return Protocol{}, missing("", "name")
	}
	if len(f) < 5 {
		return Protocol{}, missing(f[0], "summary")
	}
	proto, err := ParseProto(f[1])
	if err != nil {
		return Protocol{}, &ParseError{Protocol: f[0], Field: "proto", Err: err}
	}

	p := Protocol{
		Name:  f[0],
		Proto: proto,
		Table: f[2],
		State: f[3],
		Since: f[4],
	}
	rest := f[5:]
	if len(rest) > 0 && clock.MatchString(rest[0]) {
		p.Since += " " + rest[0]
		rest = rest[1:]
	}
	p.Info = strings.Join(rest, " ")
	return p, nil
}

// ParseProtocols decodes the summary of every protocol.
func ParseProtocols(text string) ([]Protocol, error) {
	var (
		protocols []Protocol
		err       error
	)
	walk(text, func(s Segment) bool {
		var p Protocol
		p, err = parseSummary(s.Summary)
		if err != nil {
			return false
		}
		protocols = append(protocols, p)
		return true
	})
	if err != nil {
		return nil, err
	}
	return protocols, nil
}

// ParseProtocol decodes the summary of the protocol called name.
func ParseProtocol(text, name string) (Protocol, error) {
	seg, ok := FindSegment(text, name)
	if !ok {
		return Protocol{}, &ParseError{Protocol: name, Err: ErrNotFound}
	}
	return parseSummary(seg.Summary)
}

// ParseProtocolsAll decodes every protocol in detail. The first protocol
// that fails to decode fails the whole reply.
func ParseProtocolsAll(text string) ([]ProtocolAll, error) {
	var (
		protocols []ProtocolAll
		err       error
	)
	walk(text, func(s Segment) bool {
		var p ProtocolAll
		p, err = ParseSegment(s)
		if err != nil {
			return false
		}
		protocols = append(protocols, p)
		return true
	})
	if err != nil {
		return nil, err
	}
	return protocols, nil
}

// ParseProtocolAll decodes only the protocol called name.
func ParseProtocolAll(text, name string) (ProtocolAll, error) {
	seg, ok := FindSegment(text, name)
	if !ok {
		return ProtocolAll{}, &ParseError{Protocol: name, Err: ErrNotFound}
	}
	return ParseSegment(seg)
}

// RawProtocol returns the text bird printed for the protocol called name.
func RawProtocol(text, name string) (string, error) {
	seg, ok := FindSegment(text, name)
	if !ok {
		return "", &ParseError{Protocol: name, Err: ErrNotFound}
	}
	return seg.Raw, nil
}

// ParseSegment decodes one protocol and its body.
func ParseSegment(s Segment) (ProtocolAll, error) {
	base, err := parseSummary(s.Summary)
	if err != nil {
		return ProtocolAll{}, err
	}
	p := ProtocolAll{Protocol: base}

	switch base.Proto {
	case Device, Direct:
		return p, nil
	}

	head, blocks := splitChannels(s.Body)
	for _, block := range blocks {
		ch, err := parseChannel(base.Name, block)
		if err != nil {
			return ProtocolAll{}, err
		}
		p.Channels = append(p.Channels, ch)
	}

	if base.Proto != BGP {
		return p, nil
	}
	if base.Info == "Passive" {
		p.PassiveBGP, err = parsePassiveBGP(base.Name, head)
	} else {
		p.BGP, err = parseBGP(base.Name, head)
	}
	if err != nil {
		return ProtocolAll{}, err
	}
	return p, nil
}

// splitChannels separates the lines before the first Channel block from the
// Channel blocks themselves.
func splitChannels(body []string) ([]string, [][]string) {
	var head []string
	var blocks [][]string
	for _, line := range body {
		if strings.HasPrefix(line, "Channel ") {
			blocks = append(blocks, []string{line})
			continue
		}
		if len(blocks) == 0 {
			head = append(head, line)
			continue
		}
		blocks[len(blocks)-1] = append(blocks[len(blocks)-1], line)
	}
	return head, blocks
}

// cutLabel splits "Label: value". Lines without a colon are not labelled.
func cutLabel(line string) (string, string, bool) {
	i := strings.IndexByte(line, ':')
	if i <= 0 {
		return "", "", false
	}
	return strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+1:]), true
}
