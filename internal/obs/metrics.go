package obs

import (
	"math"
	"sync/atomic"
	"time"

	"hftgate/internal/schema"
)

const maxEventType = int(schema.EventExecutionFilled)

// Metrics collects lightweight counters and latency stats.
type Metrics struct {
	eventCounts [maxEventType + 1]uint64

	framesDecoded    uint64
	resyncBytes      uint64
	feedbackFailures uint64
	journalDrops     uint64

	volatilityBits uint64
	locked         uint32

	tickLatency LatencyStats
}

// LatencyStats aggregates duration samples in nanoseconds.
type LatencyStats struct {
	count uint64
	sum   uint64
	min   uint64
	max   uint64
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

// Snapshot captures the current metrics values.
type Snapshot struct {
	EventCounts      map[schema.EventType]uint64
	FramesDecoded    uint64
	ResyncBytes      uint64
	FeedbackFailures uint64
	JournalDrops     uint64
	Volatility       float64
	Locked           bool
	TickLatency      LatencySnapshot
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// Report counts an engine event. It satisfies report.Reporter.
func (m *Metrics) Report(ev schema.Event) {
	if m == nil {
		return
	}
	idx := int(ev.Type)
	if idx >= 0 && idx < len(m.eventCounts) {
		atomic.AddUint64(&m.eventCounts[idx], 1)
	}
	if ev.Type != schema.EventTick {
		return
	}
	atomic.StoreUint64(&m.volatilityBits, math.Float64bits(ev.Volatility))
	var locked uint32
	if ev.Status == schema.StatusLocked {
		locked = 1
	}
	atomic.StoreUint32(&m.locked, locked)
}

// IncFrame records a decoded frame.
func (m *Metrics) IncFrame() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.framesDecoded, 1)
}

// AddResync records bytes discarded while realigning on the sync byte.
func (m *Metrics) AddResync(n uint64) {
	if m == nil || n == 0 {
		return
	}
	atomic.AddUint64(&m.resyncBytes, n)
}

// IncFeedbackFailure records a swallowed feedback write error.
func (m *Metrics) IncFeedbackFailure() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.feedbackFailures, 1)
}

// IncJournalDrop records an event the journal queue could not accept.
func (m *Metrics) IncJournalDrop() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.journalDrops, 1)
}

// ObserveTickLatency measures publish-to-process latency.
func (m *Metrics) ObserveTickLatency(d time.Duration) {
	if m == nil {
		return
	}
	m.tickLatency.Observe(d)
}

// Snapshot returns a copy of the current metrics values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	eventCounts := make(map[schema.EventType]uint64)
	for i := range m.eventCounts {
		if v := atomic.LoadUint64(&m.eventCounts[i]); v > 0 {
			eventCounts[schema.EventType(i)] = v
		}
	}
	return Snapshot{
		EventCounts:      eventCounts,
		FramesDecoded:    atomic.LoadUint64(&m.framesDecoded),
		ResyncBytes:      atomic.LoadUint64(&m.resyncBytes),
		FeedbackFailures: atomic.LoadUint64(&m.feedbackFailures),
		JournalDrops:     atomic.LoadUint64(&m.journalDrops),
		Volatility:       math.Float64frombits(atomic.LoadUint64(&m.volatilityBits)),
		Locked:           atomic.LoadUint32(&m.locked) == 1,
		TickLatency:      m.tickLatency.Snapshot(),
	}
}

// Observe records a duration sample.
func (l *LatencyStats) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	nanos := uint64(d)
	atomic.AddUint64(&l.count, 1)
	atomic.AddUint64(&l.sum, nanos)

	for {
		min := atomic.LoadUint64(&l.min)
		if min != 0 && nanos >= min {
			break
		}
		if atomic.CompareAndSwapUint64(&l.min, min, nanos) {
			break
		}
	}

	for {
		max := atomic.LoadUint64(&l.max)
		if nanos <= max {
			break
		}
		if atomic.CompareAndSwapUint64(&l.max, max, nanos) {
			break
		}
	}
}

// Snapshot returns the aggregated latency stats.
func (l *LatencyStats) Snapshot() LatencySnapshot {
	count := atomic.LoadUint64(&l.count)
	if count == 0 {
		return LatencySnapshot{}
	}
	sum := atomic.LoadUint64(&l.sum)
	return LatencySnapshot{
		Count: count,
		Min:   time.Duration(atomic.LoadUint64(&l.min)),
		Max:   time.Duration(atomic.LoadUint64(&l.max)),
		Avg:   time.Duration(sum / count),
	}
}
