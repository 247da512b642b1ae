package main

import (
	"fmt"

	"github.com/mellowdrifter/birdctl/glass"
	"github.com/spf13/cobra"
)

func (a *app) newGlassCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "glass",
		Short: "Query a remote birdctl looking glass",
	}
	cmd.PersistentFlags().StringVar(&addr, "addr", "localhost:7181", "looking glass address")

	var raw bool
	protocols := &cobra.Command{
		Use:   "protocols [name]",
		Short: "Show protocols in detail on the remote router",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var name string
			if len(args) == 1 {
				name = args[0]
			}
			cc, err := glass.Dial(addr)
			if err != nil {
				return err
			}
			defer cc.Close()
			remote := glass.NewClient(cc)

			if raw {
				text, err := remote.ProtocolRaw(cmd.Context(), name)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
				return err
			}
			records, err := remote.Protocols(cmd.Context(), name)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), records)
		},
	}
	protocols.Flags().BoolVar(&raw, "raw", false, "print bird's text undecoded, needs a name")

	check := &cobra.Command{
		Use:   "check",
		Short: "Check the remote router's configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, err := glass.Dial(addr)
			if err != nil {
				return err
			}
			defer cc.Close()
			ok, err := glass.NewClient(cc).ConfigureCheck(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ok)
			return nil
		},
	}

	cmd.AddCommand(protocols, check)
	return cmd
}
