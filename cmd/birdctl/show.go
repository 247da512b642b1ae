package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/mellowdrifter/birdctl/clidecode"
	"github.com/spf13/cobra"
)

type showFlags struct {
	all    bool
	raw    bool
	asJSON bool
}

func (a *app) newShowCmd() *cobra.Command {
	show := &cobra.Command{
		Use:   "show",
		Short: "Show bird state",
	}

	var f showFlags
	protocols := &cobra.Command{
		Use:   "protocols [name]",
		Short: "Show protocols, or only the one called name",
		Long: `Show protocols as bird reports them.

  birdctl show protocols              # summary table
  birdctl show protocols bgp1 --all   # channels and session detail
  birdctl show protocols --all --raw  # bird's own text
  birdctl show protocols --json       # machine-readable output`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var name string
			if len(args) == 1 {
				name = args[0]
			}
			ctx := cmd.Context()
			c, err := a.connect(ctx, nil)
			if err != nil {
				return err
			}
			defer c.Close()
			return showProtocols(ctx, cmd.OutOrStdout(), c, name, f)
		},
	}
	protocols.Flags().BoolVarP(&f.all, "all", "a", false, "show protocols all")
	protocols.Flags().BoolVar(&f.raw, "raw", false, "print bird's text undecoded")
	protocols.Flags().BoolVar(&f.asJSON, "json", false, "JSON output")
	protocols.MarkFlagsMutuallyExclusive("raw", "json")

	show.AddCommand(protocols)
	return show
}

func showProtocols(ctx context.Context, w io.Writer, d clidecode.Decoder, name string, f showFlags) error {
	if f.raw {
		text, err := d.ShowProtocolRaw(ctx, name, f.all)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, strings.TrimRight(text, "\n"))
		return err
	}

	if !f.all {
		protocols, err := d.ShowProtocols(ctx)
		if err != nil {
			return err
		}
		if name != "" {
			protocols, err = only(protocols, name)
			if err != nil {
				return err
			}
		}
		if f.asJSON {
			return writeJSON(w, protocols)
		}
		return writeSummary(w, protocols)
	}

	var records []clidecode.ProtocolAll
	if name == "" {
		all, err := d.ShowProtocolsAll(ctx)
		if err != nil {
			return err
		}
		records = all
	} else {
		p, err := d.ShowProtocolAll(ctx, name)
		if err != nil {
			return err
		}
		records = []clidecode.ProtocolAll{p}
	}
	if f.asJSON {
		return writeJSON(w, records)
	}
	return writeDetail(w, records)
}

func only(protocols []clidecode.Protocol, name string) ([]clidecode.Protocol, error) {
	for _, p := range protocols {
		if p.Name == name {
			return []clidecode.Protocol{p}, nil
		}
	}
	return nil, fmt.Errorf("protocol %q: %w", name, clidecode.ErrNotFound)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeSummary(w io.Writer, protocols []clidecode.Protocol) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tPROTO\tTABLE\tSTATE\tSINCE\tINFO")
	for _, p := range protocols {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", p.Name, p.Proto, p.Table, p.State, p.Since, p.Info)
	}
	return tw.Flush()
}

func writeDetail(w io.Writer, records []clidecode.ProtocolAll) error {
	for i, p := range records {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s (%s) %s since %s %s\n", p.Name, p.Proto, p.State, p.Since, p.Info)
		if s := p.BGP; s != nil {
			fmt.Fprintf(w, "  neighbor %s AS%d, local AS%d, %s\n", s.NeighborAddress, s.NeighborAS, s.LocalAS, s.State)
			if s.HoldTimer != nil {
				fmt.Fprintf(w, "  hold %.3f/%.0f\n", s.HoldTimer.Current, s.HoldTimer.Max)
			}
		}
		if s := p.PassiveBGP; s != nil {
			fmt.Fprintf(w, "  listening on %s AS%d, local AS%d\n", s.NeighborRange, s.NeighborAS, s.LocalAS)
		}
		for _, ch := range p.Channels {
			r := ch.Routes
			fmt.Fprintf(w, "  channel %s: %d imported, %d exported, %d preferred", ch.Name, r.Imported, r.Exported, r.Preferred)
			if r.Filtered != nil {
				fmt.Fprintf(w, ", %d filtered", *r.Filtered)
			}
			fmt.Fprintln(w)
		}
	}
	return nil
}
