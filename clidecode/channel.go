package clidecode

import (
	"fmt"
	"strings"

	"github.com/mellowdrifter/birdctl/common"
)

const none = "---"

// parseChannel decodes one Channel block. Each label is optional and only its
// first occurrence is used.
func parseChannel(protocol string, lines []string) (Channel, error) {
	ch := Channel{Name: strings.TrimSpace(strings.TrimPrefix(lines[0], "Channel"))}
	seen := make(map[string]bool)

	for _, line := range lines[1:] {
		label, value, ok := cutLabel(line)
		if !ok || seen[label] {
			continue
		}
		seen[label] = true

		var err error
		switch label {
		case "State":
			ch.State = stringPtr(value)
		case "Table":
			ch.Table = stringPtr(value)
		case "Preference":
			ch.Preference = stringPtr(value)
		case "Input filter":
			ch.InputFilter = stringPtr(value)
		case "Output filter":
			ch.OutputFilter = stringPtr(value)
		case "Import limit":
			ch.ImportLimit = stringPtr(value)
		case "Action":
			ch.Action = stringPtr(value)
		case "Routes":
			ch.Routes = parseRouteCounts(value)
		case "Import updates":
			ch.ImportUpdates, err = parseRouteChangeStats(value)
		case "Import withdraws":
			ch.ImportWithdraws, err = parseRouteChangeStats(value)
		case "Export updates":
			ch.ExportUpdates, err = parseRouteChangeStats(value)
		case "Export withdraws":
			ch.ExportWithdraws, err = parseRouteChangeStats(value)
		case "BGP Next hop":
			ch.BGPNextHop = strings.Fields(value)
		}
		if err != nil {
			return Channel{}, &ParseError{
				Protocol: protocol,
				Field:    fmt.Sprintf("channel %s %s", ch.Name, strings.ToLower(label)),
				Err:      err,
			}
		}
	}
	return ch, nil
}

// parseRouteCounts reads "10 imported, 2 filtered, 5 exported, 8 preferred".
// Every integer token is a count. A count followed by a known word goes to
// that field, the rest are taken in the order imported, exported, preferred.
// Anything that is not an integer is ignored.
func parseRouteCounts(value string) RouteCounts {
	var (
		rc       RouteCounts
		position []uint64
	)
	tokens := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	for i, tok := range tokens {
		n, err := common.StringToUint64(tok)
		if err != nil {
			continue
		}
		word := ""
		if i+1 < len(tokens) {
			word = tokens[i+1]
		}
		switch word {
		case "imported":
			rc.Imported = n
		case "exported":
			rc.Exported = n
		case "preferred":
			rc.Preferred = n
		case "filtered":
			rc.Filtered = &n
		default:
			position = append(position, n)
		}
	}
	for i, n := range position {
		switch i {
		case 0:
			rc.Imported = n
		case 1:
			rc.Exported = n
		case 2:
			rc.Preferred = n
		}
	}
	return rc
}

// parseRouteChangeStats reads a row of the route change table, in the order
// received, rejected, filtered, ignored, accepted. Columns bird left out stay
// nil, as does ---.
func parseRouteChangeStats(value string) (RouteChangeStats, error) {
	var rs RouteChangeStats
	cols := []**uint64{&rs.Received, &rs.Rejected, &rs.Filtered, &rs.Ignored, &rs.Accepted}
	for i, tok := range strings.Fields(value) {
		if i >= len(cols) {
			break
		}
		if tok == none {
			continue
		}
		n, err := common.StringToUint64(tok)
		if err != nil {
			return RouteChangeStats{}, fmt.Errorf("%w: %v", ErrBadNumber, err)
		}
		*cols[i] = &n
	}
	return rs, nil
}

func stringPtr(s string) *string {
	return &s
}
