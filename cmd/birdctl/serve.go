package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mellowdrifter/birdctl/client"
	"github.com/mellowdrifter/birdctl/collector"
	"github.com/mellowdrifter/birdctl/glass"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// reconnectEvery is how often serve retries a lost bird connection.
const reconnectEvery = 10 * time.Second

func (a *app) newServeCmd() *cobra.Command {
	var prefix string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Export bird metrics and serve the looking glass",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx, prefix)
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", collector.DefaultPrefix, "metric name prefix")
	return cmd
}

func (a *app) serve(ctx context.Context, prefix string) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	opts := a.cfg.Bird.Options(a.log.WithField("component", "birdclient"))
	opts.Registerer = reg
	c := client.New(opts)
	defer c.Close()
	if err := c.Connect(ctx); err != nil {
		a.log.WithError(err).Warn("bird not reachable yet, will retry")
	}
	reg.MustRegister(collector.New(c, prefix, a.log))

	lis, err := net.Listen("tcp", a.cfg.Serve.GRPCListen)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              a.cfg.Serve.MetricsListen,
		Handler:           metricsMux(reg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		keepConnected(ctx, c, a.log)
		return nil
	})
	g.Go(func() error {
		return glass.New(c, a.log).Serve(ctx, lis)
	})
	g.Go(func() error {
		a.log.WithField("listen", srv.Addr).Info("serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdown)
	})
	return g.Wait()
}

func metricsMux(reg *prometheus.Registry) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok\n"))
	})
	return mux
}

// keepConnected redials bird whenever the connection has dropped.
func keepConnected(ctx context.Context, c *client.Client, logger *log.Entry) {
	t := time.NewTicker(reconnectEvery)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			if c.Connected() {
				continue
			}
			if err := c.Connect(ctx); err != nil {
				logger.WithError(err).Warn("reconnect failed")
			}
		case <-ctx.Done():
			return
		}
	}
}
