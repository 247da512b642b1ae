package clidecode

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func u64(n uint64) *uint64 { return &n }

func TestParseRouteChangeStats(t *testing.T) {
	tests := []struct {
		desc  string
		input string
		want  RouteChangeStats
	}{
		{
			desc:  "dashes are not applicable",
			input: "10 2 --- 0 8",
			want:  RouteChangeStats{Received: u64(10), Rejected: u64(2), Ignored: u64(0), Accepted: u64(8)},
		},
		{
			desc:  "all printed",
			input: "1 2 3 4 5",
			want:  RouteChangeStats{Received: u64(1), Rejected: u64(2), Filtered: u64(3), Ignored: u64(4), Accepted: u64(5)},
		},
		{
			desc:  "short row leaves the tail absent",
			input: "7 0",
			want:  RouteChangeStats{Received: u64(7), Rejected: u64(0)},
		},
		{
			desc:  "empty",
			input: "",
			want:  RouteChangeStats{},
		},
	}

	for _, test := range tests {
		got, err := parseRouteChangeStats(test.input)
		if err != nil {
			t.Fatalf("Test (%s): unexpected error %v", test.desc, err)
		}
		if !cmp.Equal(got, test.want) {
			t.Errorf("Test (%s): %s", test.desc, cmp.Diff(test.want, got))
		}
	}
}

func TestParseRouteChangeStatsBadNumber(t *testing.T) {
	_, err := parseRouteChangeStats("10 x 0 0 0")
	if !errors.Is(err, ErrBadNumber) {
		t.Errorf("got %v, want ErrBadNumber", err)
	}
}

func TestParseRouteCounts(t *testing.T) {
	tests := []struct {
		desc  string
		input string
		want  RouteCounts
	}{
		{
			desc:  "bird2 wording",
			input: "10 imported, 5 exported, 8 preferred",
			want:  RouteCounts{Imported: 10, Exported: 5, Preferred: 8},
		},
		{
			desc:  "with filtered",
			input: "10 imported, 1 filtered, 5 exported, 8 preferred",
			want:  RouteCounts{Imported: 10, Exported: 5, Preferred: 8, Filtered: u64(1)},
		},
		{
			desc:  "unlabelled counts are positional",
			input: "3, 4, 5",
			want:  RouteCounts{Imported: 3, Exported: 4, Preferred: 5},
		},
		{
			desc:  "words around counts are ignored",
			input: "about 10 imported, roughly 5 exported, none pending, 8 preferred",
			want:  RouteCounts{Imported: 10, Exported: 5, Preferred: 8},
		},
		{
			desc:  "unfamiliar wording falls back to position",
			input: "10 in, 5 out, 8 best",
			want:  RouteCounts{Imported: 10, Exported: 5, Preferred: 8},
		},
		{
			desc:  "no counts at all",
			input: "unavailable",
			want:  RouteCounts{},
		},
	}

	for _, test := range tests {
		got := parseRouteCounts(test.input)
		if !cmp.Equal(got, test.want) {
			t.Errorf("Test (%s): %s", test.desc, cmp.Diff(test.want, got))
		}
	}
}

func TestParseChannelOptionalLabels(t *testing.T) {
	got, err := parseChannel("kernel1", []string{
		"Channel ipv6",
		"State: UP",
		"Routes: 1 imported, 2 exported, 1 preferred",
		"State: DOWN",
	})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	want := Channel{
		Name:   "ipv6",
		State:  stringPtr("UP"),
		Routes: RouteCounts{Imported: 1, Exported: 2, Preferred: 1},
	}
	if !cmp.Equal(got, want) {
		t.Errorf("%s", cmp.Diff(want, got))
	}
}

func TestParseChannelErrorNamesProtocol(t *testing.T) {
	_, err := parseChannel("kernel1", []string{"Channel ipv4", "Import updates: 1 two 3 4 5"})
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("got %v, want *ParseError", err)
	}
	if pe.Protocol != "kernel1" || pe.Field != "channel ipv4 import updates" {
		t.Errorf("got protocol %q field %q", pe.Protocol, pe.Field)
	}
	if !errors.Is(err, ErrBadNumber) {
		t.Errorf("got %v, want ErrBadNumber", err)
	}
}
