// birdctl talks to a running bird daemon over its control socket.
//
// Usage:
//
//	birdctl show protocols [name] [--all] [--raw] [--json]
//	birdctl configure [--check]
//	birdctl serve
//	birdctl glass protocols [name] --addr host:7181
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mellowdrifter/birdctl/client"
	"github.com/mellowdrifter/birdctl/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// defaultConfig is config.ini next to the executable.
func defaultConfig() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	return filepath.Join(filepath.Dir(exe), "config.ini")
}

// app holds what every subcommand shares once flags are parsed.
type app struct {
	configPath string
	socket     string
	timeout    time.Duration

	cfg    config.Config
	log    *log.Entry
	closer io.Closer
}

func main() {
	a := &app{}
	err := newRootCmd(a).Execute()
	a.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:               "birdctl",
		Short:             "Query and reconfigure bird through its control socket",
		SilenceUsage:      true,
		SilenceErrors:     true,
		CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", defaultConfig(), "ini file, missing is fine")
	root.PersistentFlags().StringVarP(&a.socket, "socket", "s", "", "bird control socket, overrides the config file")
	root.PersistentFlags().DurationVar(&a.timeout, "timeout", 0, "per command timeout, overrides the config file")

	root.AddCommand(
		a.newShowCmd(),
		a.newConfigureCmd(),
		a.newServeCmd(),
		a.newGlassCmd(),
	)
	return root
}

func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.socket != "" {
		cfg.Bird.Socket = a.socket
	}
	if a.timeout > 0 {
		cfg.Bird.CommandTimeout = a.timeout
	}
	logger := log.StandardLogger()
	closer, err := cfg.Log.Apply(logger)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.closer = closer
	a.log = log.NewEntry(logger)
	return nil
}

// close releases the log file. Cobra skips post-run hooks when a command
// fails, so this runs after Execute whatever the outcome.
func (a *app) close() error {
	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer = nil
	return err
}

// connect returns a connected client. reg may be nil.
func (a *app) connect(ctx context.Context, reg prometheus.Registerer) (*client.Client, error) {
	opts := a.cfg.Bird.Options(a.log.WithField("component", "birdclient"))
	opts.Registerer = reg
	c := client.New(opts)
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}
	return c, nil
}
