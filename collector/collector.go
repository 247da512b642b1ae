// Package collector exports bird protocol state to Prometheus. Every scrape
// asks bird afresh; nothing is cached between scrapes.
package collector

import (
	"context"
	"strconv"
	"time"

	"github.com/mellowdrifter/birdctl/clidecode"
	"github.com/mellowdrifter/birdctl/common"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

// DefaultPrefix is prepended to every metric name.
const DefaultPrefix = "bird"

// scrapeTimeout bounds a single show protocols all.
const scrapeTimeout = 10 * time.Second

// Collector implements prometheus.Collector over a router.
type Collector struct {
	router clidecode.Decoder
	log    *log.Entry

	up           *prometheus.Desc
	routes       *prometheus.Desc
	routeChanges *prometheus.Desc
	bgpTimer     *prometheus.Desc
	bgpNeighbor  *prometheus.Desc
	success      *prometheus.Desc
}

// New builds a collector. An empty prefix uses DefaultPrefix.
func New(router clidecode.Decoder, prefix string, logger *log.Entry) *Collector {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	return &Collector{
		router: router,
		log:    logger.WithField("component", "collector"),
		up: prometheus.NewDesc(prefix+"_protocol_up",
			"Whether the protocol is up.",
			[]string{"name", "proto", "table"}, nil),
		routes: prometheus.NewDesc(prefix+"_protocol_routes",
			"Routes in a protocol channel by type.",
			[]string{"name", "proto", "channel", "type"}, nil),
		routeChanges: prometheus.NewDesc(prefix+"_protocol_route_changes_total",
			"Route change counters of a protocol channel.",
			[]string{"name", "channel", "direction", "kind", "outcome"}, nil),
		bgpTimer: prometheus.NewDesc(prefix+"_bgp_timer_seconds",
			"BGP session timers.",
			[]string{"name", "timer", "bound"}, nil),
		bgpNeighbor: prometheus.NewDesc(prefix+"_bgp_neighbor_info",
			"BGP neighbor of an active session.",
			[]string{"name", "neighbor", "neighbor_as", "local_as"}, nil),
		success: prometheus.NewDesc(prefix+"_scrape_success",
			"Whether bird answered and its reply decoded.",
			nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.up
	ch <- c.routes
	ch <- c.routeChanges
	ch <- c.bgpTimer
	ch <- c.bgpNeighbor
	ch <- c.success
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	defer common.TimeFunction(time.Now(), "collect", c.log)

	ctx, cancel := context.WithTimeout(context.Background(), scrapeTimeout)
	defer cancel()

	protocols, err := c.router.ShowProtocolsAll(ctx)
	if err != nil {
		c.log.WithError(err).Error("failed to get protocols")
		ch <- prometheus.MustNewConstMetric(c.success, prometheus.GaugeValue, 0)
		return
	}
	for _, p := range protocols {
		c.exportProtocol(ch, p)
	}
	ch <- prometheus.MustNewConstMetric(c.success, prometheus.GaugeValue, 1)
}

func (c *Collector) exportProtocol(ch chan<- prometheus.Metric, p clidecode.ProtocolAll) {
	proto := string(p.Proto)
	ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, boolToFloat(p.State == "up"), p.Name, proto, p.Table)

	for _, channel := range p.Channels {
		r := channel.Routes
		ch <- prometheus.MustNewConstMetric(c.routes, prometheus.GaugeValue, float64(r.Imported), p.Name, proto, channel.Name, "imported")
		ch <- prometheus.MustNewConstMetric(c.routes, prometheus.GaugeValue, float64(r.Exported), p.Name, proto, channel.Name, "exported")
		ch <- prometheus.MustNewConstMetric(c.routes, prometheus.GaugeValue, float64(r.Preferred), p.Name, proto, channel.Name, "preferred")
		if r.Filtered != nil {
			ch <- prometheus.MustNewConstMetric(c.routes, prometheus.GaugeValue, float64(*r.Filtered), p.Name, proto, channel.Name, "filtered")
		}

		c.exportChanges(ch, p.Name, channel.Name, "import", "updates", channel.ImportUpdates)
		c.exportChanges(ch, p.Name, channel.Name, "import", "withdraws", channel.ImportWithdraws)
		c.exportChanges(ch, p.Name, channel.Name, "export", "updates", channel.ExportUpdates)
		c.exportChanges(ch, p.Name, channel.Name, "export", "withdraws", channel.ExportWithdraws)
	}

	if s := p.BGP; s != nil {
		ch <- prometheus.MustNewConstMetric(c.bgpNeighbor, prometheus.GaugeValue, 1,
			p.Name, s.NeighborAddress, strconv.FormatUint(uint64(s.NeighborAS), 10), strconv.FormatUint(uint64(s.LocalAS), 10))
		c.exportTimer(ch, p.Name, "hold", s.HoldTimer)
		c.exportTimer(ch, p.Name, "keepalive", s.KeepaliveTimer)
		c.exportTimer(ch, p.Name, "send_hold", s.SendHoldTimer)
	}
}

// exportChanges skips columns bird printed as not applicable.
func (c *Collector) exportChanges(ch chan<- prometheus.Metric, name, channel, direction, kind string, s clidecode.RouteChangeStats) {
	for _, col := range []struct {
		outcome string
		value   *uint64
	}{
		{"received", s.Received},
		{"rejected", s.Rejected},
		{"filtered", s.Filtered},
		{"ignored", s.Ignored},
		{"accepted", s.Accepted},
	} {
		if col.value == nil {
			continue
		}
		ch <- prometheus.MustNewConstMetric(c.routeChanges, prometheus.CounterValue, float64(*col.value),
			name, channel, direction, kind, col.outcome)
	}
}

func (c *Collector) exportTimer(ch chan<- prometheus.Metric, name, timer string, t *clidecode.BGPTimer) {
	if t == nil {
		return
	}
	ch <- prometheus.MustNewConstMetric(c.bgpTimer, prometheus.GaugeValue, t.Current, name, timer, "current")
	ch <- prometheus.MustNewConstMetric(c.bgpTimer, prometheus.GaugeValue, t.Max, name, timer, "max")
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
