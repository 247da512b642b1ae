package client

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultOK        = "ok"
	resultError     = "error"
	resultCancelled = "cancelled"
)

type metrics struct {
	commands *prometheus.CounterVec
	duration prometheus.Histogram
	queue    prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "birdclient_commands_total",
			Help: "Commands sent to bird, by result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "birdclient_command_duration_seconds",
			Help:    "Time from submitting a command to receiving its reply.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		queue: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "birdclient_queue_depth",
			Help: "Commands waiting for their turn on the socket.",
		}),
	}
	for _, r := range []string{resultOK, resultError, resultCancelled} {
		m.commands.WithLabelValues(r)
	}
	if reg != nil {
		reg.MustRegister(m.commands, m.duration, m.queue)
	}
	return m
}
