package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func (a *app) newConfigureCmd() *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Check bird's configuration and reload it when it parses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			c, err := a.connect(ctx, nil)
			if err != nil {
				return err
			}
			defer c.Close()

			run := c.Configure
			if check {
				run = c.ConfigureCheck
			}
			ok, reply, err := run(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(reply))
			if !ok {
				return fmt.Errorf("bird rejected the configuration")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "only check, do not reload")
	return cmd
}
