package obs

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hftgate/internal/schema"
)

func TestMetricsReport(t *testing.T) {
	m := NewMetrics()
	m.Report(schema.Event{Type: schema.EventTick, Volatility: 12.5, Status: schema.StatusStable})
	m.Report(schema.Event{Type: schema.EventBreakerTrip})
	m.Report(schema.Event{Type: schema.EventTick, Volatility: 40, Status: schema.StatusLocked})
	m.IncFrame()
	m.AddResync(3)
	m.AddResync(0)
	m.IncFeedbackFailure()
	m.IncJournalDrop()

	s := m.Snapshot()
	assert.Equal(t, uint64(2), s.EventCounts[schema.EventTick])
	assert.Equal(t, uint64(1), s.EventCounts[schema.EventBreakerTrip])
	assert.Equal(t, 40.0, s.Volatility)
	assert.True(t, s.Locked)
	assert.Equal(t, uint64(1), s.FramesDecoded)
	assert.Equal(t, uint64(3), s.ResyncBytes)
	assert.Equal(t, uint64(1), s.FeedbackFailures)
	assert.Equal(t, uint64(1), s.JournalDrops)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.Report(schema.Event{Type: schema.EventTick})
	m.IncFrame()
	m.ObserveTickLatency(time.Millisecond)
	assert.Equal(t, Snapshot{}, m.Snapshot())
}

func TestLatencyStats(t *testing.T) {
	var l LatencyStats
	assert.Equal(t, LatencySnapshot{}, l.Snapshot())

	l.Observe(2 * time.Millisecond)
	l.Observe(4 * time.Millisecond)
	l.Observe(-time.Millisecond)

	s := l.Snapshot()
	assert.Equal(t, uint64(2), s.Count)
	assert.Equal(t, 2*time.Millisecond, s.Min)
	assert.Equal(t, 4*time.Millisecond, s.Max)
	assert.Equal(t, 3*time.Millisecond, s.Avg)
}

func TestCollectorExportsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.IncFrame()
	m.IncFrame()
	m.Report(schema.Event{Type: schema.EventTick, Volatility: 7, Status: schema.StatusLocked})

	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(NewCollector(m)))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	values := make(map[string]float64)
	for _, mf := range mfs {
		for _, metric := range mf.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				if len(metric.GetLabel()) == 0 {
					values[mf.GetName()] = metric.GetCounter().GetValue()
				}
			case metric.GetGauge() != nil:
				values[mf.GetName()] = metric.GetGauge().GetValue()
			}
		}
	}
	assert.Equal(t, 2.0, values["hftgate_ingest_frames_total"])
	assert.Equal(t, 7.0, values["hftgate_strategy_volatility"])
	assert.Equal(t, 1.0, values["hftgate_breaker_locked"])
}
