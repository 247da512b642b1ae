package clidecode

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func readFixture(tb testing.TB) string {
	tb.Helper()
	b, err := os.ReadFile("testdata/show_protocols_all.txt")
	if err != nil {
		tb.Fatalf("fixture: %v", err)
	}
	return string(b)
}

func TestParseProtocolsSummary(t *testing.T) {
	text := "name     proto    table     state  since       info\nbgp1     BGP      master4   up     2024-01-01  Established\n\n0000 \n"
	got, err := ParseProtocols(text)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	want := []Protocol{{
		Name:  "bgp1",
		Proto: BGP,
		Table: "master4",
		State: "up",
		Since: "2024-01-01",
		Info:  "Established",
	}}
	if !cmp.Equal(got, want) {
		t.Errorf("%s", cmp.Diff(want, got))
	}
}

func TestParseSummaryInfo(t *testing.T) {
	tests := []struct {
		desc  string
		line  string
		since string
		info  string
	}{
		{desc: "date only", line: "bgp1 BGP --- up 2024-01-01 Established", since: "2024-01-01", info: "Established"},
		{desc: "date and time", line: "bgp1 BGP --- up 2024-01-01 10:00:05 Established", since: "2024-01-01 10:00:05", info: "Established"},
		{desc: "time only", line: "bgp1 BGP --- start 10:00:05.123 Connect", since: "10:00:05.123", info: "Connect"},
		{desc: "multi word info", line: "bgp1 BGP --- start 2024-01-01 Active Socket: Connection refused", since: "2024-01-01", info: "Active Socket: Connection refused"},
		{desc: "no info", line: "device1 Device --- up 2024-01-01", since: "2024-01-01", info: ""},
	}

	for _, test := range tests {
		got, err := parseSummary(test.line)
		if err != nil {
			t.Fatalf("Test (%s): unexpected error %v", test.desc, err)
		}
		if got.Since != test.since || got.Info != test.info {
			t.Errorf("Test (%s): got since %q info %q, want %q %q", test.desc, got.Since, got.Info, test.since, test.info)
		}
	}
}

func TestParseSummaryErrors(t *testing.T) {
	tests := []struct {
		desc string
		line string
		want error
	}{
		{desc: "short line", line: "bgp1 BGP up", want: ErrMissingField},
		{desc: "unknown proto", line: "ospf1 OSPF master4 up 2024-01-01 Running", want: ErrUnknownProto},
	}

	for _, test := range tests {
		_, err := parseSummary(test.line)
		if !errors.Is(err, test.want) {
			t.Errorf("Test (%s): got %v, want %v", test.desc, err, test.want)
		}
	}
}

func TestParseProtocolsAll(t *testing.T) {
	got, err := ParseProtocolsAll(readFixture(t))
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}

	var names []string
	for _, p := range got {
		names = append(names, p.Name)
	}
	wantNames := []string{"device1", "direct1", "kernel4", "static1", "bgp1", "bgp_dyn"}
	if !cmp.Equal(names, wantNames) {
		t.Fatalf("%s", cmp.Diff(wantNames, names))
	}

	if got[0].Channels != nil || got[0].BGP != nil {
		t.Errorf("device1 carries detail: %+v", got[0])
	}
	if got[1].Channels != nil {
		t.Errorf("direct1 channels decoded: %+v", got[1].Channels)
	}
	if got[2].BGP != nil || len(got[2].Channels) != 1 {
		t.Errorf("kernel4 got %+v", got[2])
	}
	if got[5].BGP != nil || !got[5].IsPassive() {
		t.Errorf("bgp_dyn should be passive: %+v", got[5])
	}
}

func TestParseProtocolAllBGP(t *testing.T) {
	got, err := ParseProtocolAll(readFixture(t), "bgp1")
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}

	want := ProtocolAll{
		Protocol: Protocol{
			Name:  "bgp1",
			Proto: BGP,
			Table: "---",
			State: "up",
			Since: "2024-01-01 10:00:05",
			Info:  "Established",
		},
		Channels: []Channel{{
			Name:         "ipv4",
			State:        stringPtr("UP"),
			Table:        stringPtr("master4"),
			Preference:   stringPtr("100"),
			InputFilter:  stringPtr("import_filter"),
			OutputFilter: stringPtr("export_filter"),
			ImportLimit:  stringPtr("1000"),
			Action:       stringPtr("warn"),
			Routes:       RouteCounts{Imported: 10, Exported: 5, Preferred: 8, Filtered: u64(1)},
			ImportUpdates: RouteChangeStats{
				Received: u64(10), Rejected: u64(2), Ignored: u64(0), Accepted: u64(8),
			},
			ImportWithdraws: RouteChangeStats{
				Received: u64(0), Rejected: u64(0), Ignored: u64(0), Accepted: u64(0),
			},
			ExportUpdates: RouteChangeStats{
				Received: u64(15), Rejected: u64(10), Filtered: u64(0), Accepted: u64(5),
			},
			ExportWithdraws: RouteChangeStats{
				Received: u64(0), Accepted: u64(0),
			},
			BGPNextHop: []string{"192.0.2.2", "fe80::1"},
		}},
		BGP: &BGPSession{
			State:           "Established",
			NeighborAddress: "192.0.2.1",
			NeighborAS:      65001,
			LocalAS:         65000,
			NeighborID:      stringPtr("192.0.2.1"),
			LocalCapabilities: &BGPCapabilities{
				AFAnnounced:              []string{"ipv4", "ipv6"},
				RouteRefresh:             true,
				IPv6NextHop:              []string{"ipv4"},
				GracefulRestart:          true,
				FourOctetASNumbers:       true,
				EnhancedRefresh:          true,
				LongLivedGracefulRestart: true,
			},
			NeighborCapabilities: &BGPCapabilities{
				AFAnnounced:        []string{"ipv4"},
				RouteRefresh:       true,
				IPv6NextHop:        []string{},
				GracefulRestart:    true,
				FourOctetASNumbers: true,
			},
			Session:        []string{"external", "AS4"},
			SourceAddress:  stringPtr("192.0.2.2"),
			HoldTimer:      &BGPTimer{Current: 163.918, Max: 240},
			KeepaliveTimer: &BGPTimer{Current: 25.908, Max: 80},
			SendHoldTimer:  &BGPTimer{Current: 412.5, Max: 480},
		},
	}
	if !cmp.Equal(got, want) {
		t.Errorf("%s", cmp.Diff(want, got))
	}
}

func TestParseProtocolAllNotFound(t *testing.T) {
	_, err := ParseProtocolAll(readFixture(t), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestUnknownProtoNamesProtocol(t *testing.T) {
	text := readFixture(t) + "\nospf1 OSPF master4 up 2024-01-01 Running\n Channel ipv4\n State: UP\n"

	_, err := ParseProtocolsAll(text)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("got %v, want *ParseError", err)
	}
	if pe.Protocol != "ospf1" || !errors.Is(err, ErrUnknownProto) {
		t.Errorf("got %v", err)
	}

	// Lookups by name never reach the unknown sibling.
	if _, err := ParseProtocolAll(text, "kernel4"); err != nil {
		t.Errorf("kernel4 lookup: %v", err)
	}
}

func TestRawProtocol(t *testing.T) {
	got, err := RawProtocol(readFixture(t), "bgp_dyn")
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	want := strings.Join([]string{
		"bgp_dyn BGP --- start 2024-01-01 10:00:00 Passive",
		" BGP state: Passive",
		" Neighbor range: 10.0.0.0/8",
		" Neighbor AS: 65100",
		" Local AS: 65000",
	}, "\n")
	if got != want {
		t.Errorf("%s", cmp.Diff(want, got))
	}
}

func TestSplitKeepsBlankSeparatedRaw(t *testing.T) {
	segs := Split(readFixture(t))
	if len(segs) != 6 {
		t.Fatalf("got %d segments, want 6", len(segs))
	}
	if strings.HasSuffix(segs[0].Raw, "\n") {
		t.Errorf("raw keeps trailing blank line: %q", segs[0].Raw)
	}
	if segs[0].Body != nil {
		t.Errorf("device1 body = %q", segs[0].Body)
	}
}

func TestFakeConn(t *testing.T) {
	f := FakeConn{All: readFixture(t), Config: "Reading configuration from /etc/bird.conf\nConfiguration OK"}
	ctx := context.Background()

	var d Decoder = f
	all, err := d.ShowProtocolsAll(ctx)
	if err != nil || len(all) != 6 {
		t.Fatalf("ShowProtocolsAll = %d, %v", len(all), err)
	}
	summary, err := d.ShowProtocols(ctx)
	if err != nil || len(summary) != 6 {
		t.Fatalf("ShowProtocols = %d, %v", len(summary), err)
	}
	ok, _, err := d.ConfigureCheck(ctx)
	if err != nil || !ok {
		t.Errorf("ConfigureCheck = %v, %v", ok, err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := d.ShowProtocolAll(cancelled, "bgp1"); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func BenchmarkParseProtocolsAll(b *testing.B) {
	text := readFixture(b)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ParseProtocolsAll(text); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkParseProtocolAllByName(b *testing.B) {
	text := readFixture(b)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ParseProtocolAll(text, "bgp1"); err != nil {
			b.Fatal(err)
		}
	}
}
