package obs

import (
	"github.com/prometheus/client_golang/prometheus"

	"hftgate/internal/schema"
)

const namespace = "hftgate"

var _ prometheus.Collector = (*Collector)(nil)

// Collector exposes a Metrics snapshot to Prometheus.
type Collector struct {
	m *Metrics

	events           *prometheus.Desc
	framesDecoded    *prometheus.Desc
	resyncBytes      *prometheus.Desc
	feedbackFailures *prometheus.Desc
	journalDrops     *prometheus.Desc
	volatility       *prometheus.Desc
	locked           *prometheus.Desc
	latencyAvg       *prometheus.Desc
	latencyMax       *prometheus.Desc
}

// NewCollector wraps m.
func NewCollector(m *Metrics) *Collector {
	return &Collector{
		m: m,
		events: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "engine", "events_total"),
			"Engine events by type", []string{"type"}, nil),
		framesDecoded: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "ingest", "frames_total"),
			"Tick frames decoded", nil, nil),
		resyncBytes: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "ingest", "resync_bytes_total"),
			"Bytes discarded while realigning on the sync byte", nil, nil),
		feedbackFailures: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "strategy", "feedback_failures_total"),
			"Feedback writes that failed", nil, nil),
		journalDrops: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "journal", "drops_total"),
			"Events dropped because the journal queue was full or closed", nil, nil),
		volatility: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "strategy", "volatility"),
			"Volatility at the last processed tick, in price x100 units", nil, nil),
		locked: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "breaker", "locked"),
			"1 while the circuit breaker is tripped", nil, nil),
		latencyAvg: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "strategy", "tick_latency_avg_seconds"),
			"Average publish-to-process latency", nil, nil),
		latencyMax: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "strategy", "tick_latency_max_seconds"),
			"Maximum publish-to-process latency", nil, nil),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.events
	ch <- c.framesDecoded
	ch <- c.resyncBytes
	ch <- c.feedbackFailures
	ch <- c.journalDrops
	ch <- c.volatility
	ch <- c.locked
	ch <- c.latencyAvg
	ch <- c.latencyMax
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.m.Snapshot()
	for t := schema.EventTick; t <= schema.EventExecutionFilled; t++ {
		ch <- prometheus.MustNewConstMetric(c.events, prometheus.CounterValue, float64(s.EventCounts[t]), t.String())
	}
	ch <- prometheus.MustNewConstMetric(c.framesDecoded, prometheus.CounterValue, float64(s.FramesDecoded))
	ch <- prometheus.MustNewConstMetric(c.resyncBytes, prometheus.CounterValue, float64(s.ResyncBytes))
	ch <- prometheus.MustNewConstMetric(c.feedbackFailures, prometheus.CounterValue, float64(s.FeedbackFailures))
	ch <- prometheus.MustNewConstMetric(c.journalDrops, prometheus.CounterValue, float64(s.JournalDrops))
	ch <- prometheus.MustNewConstMetric(c.volatility, prometheus.GaugeValue, s.Volatility)
	locked := 0.0
	if s.Locked {
		locked = 1
	}
	ch <- prometheus.MustNewConstMetric(c.locked, prometheus.GaugeValue, locked)
	ch <- prometheus.MustNewConstMetric(c.latencyAvg, prometheus.GaugeValue, s.TickLatency.Avg.Seconds())
	ch <- prometheus.MustNewConstMetric(c.latencyMax, prometheus.GaugeValue, s.TickLatency.Max.Seconds())
}
