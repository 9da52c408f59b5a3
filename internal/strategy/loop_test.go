package strategy

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hftgate/internal/codec"
	"hftgate/internal/market"
	"hftgate/internal/obs"
	"hftgate/internal/report"
	"hftgate/internal/risk"
	"hftgate/internal/schema"
	"hftgate/internal/transport"
	"hftgate/pkg/exception"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type recorder struct {
	events []schema.Event
}

func (r *recorder) Report(ev schema.Event) {
	r.events = append(r.events, ev)
}

func (r *recorder) ofType(t schema.EventType) []schema.Event {
	var out []schema.Event
	for _, ev := range r.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

func (r *recorder) lastTick() schema.Event {
	ticks := r.ofType(schema.EventTick)
	if len(ticks) == 0 {
		return schema.Event{}
	}
	return ticks[len(ticks)-1]
}

type harness struct {
	slot    *market.Slot
	link    *transport.Memory
	clock   *fakeClock
	rec     *recorder
	metrics *obs.Metrics
	loop    *Loop
	seq     uint16
}

func newHarness(t *testing.T, riskCfg risk.Config) *harness {
	t.Helper()
	h := &harness{
		slot:    market.NewSlot(),
		link:    transport.NewMemory(),
		clock:   &fakeClock{now: time.Unix(1_700_000_000, 0)},
		rec:     &recorder{},
		metrics: obs.NewMetrics(),
	}
	loop, err := NewLoop(Config{}, Deps{
		State:    h.slot,
		Breaker:  risk.NewBreaker(risk.DefaultBreakerConfig()),
		Feedback: h.link,
		Risk:     risk.NewEngine(riskCfg),
		Reporter: report.Multi{h.rec, h.metrics},
		Metrics:  h.metrics,
		Clock:    h.clock.Now,
	})
	require.NoError(t, err)
	h.loop = loop
	return h
}

// tick publishes a new sequence and runs one poll.
func (h *harness) tick(t *testing.T, price schema.Price, signal bool) {
	t.Helper()
	h.seq++
	h.slot.Publish(schema.Tick{Seq: h.seq, Price: price, Signal: signal})
	require.True(t, h.loop.Step())
}

func TestNewLoopRequiresDeps(t *testing.T) {
	_, err := NewLoop(Config{}, Deps{})
	assert.ErrorIs(t, err, exception.ErrNilInstance)
}

func TestStepSkipsUntilFirstTick(t *testing.T) {
	h := newHarness(t, risk.Config{})
	assert.False(t, h.loop.Step())
	assert.Empty(t, h.link.Written())
	_, ok := h.loop.LastSeq()
	assert.False(t, ok)
}

func TestStepIgnoresDuplicateSequence(t *testing.T) {
	h := newHarness(t, risk.Config{})
	h.tick(t, 10000, false)

	for i := 0; i < 5; i++ {
		assert.False(t, h.loop.Step())
	}
	h.slot.Publish(schema.Tick{Seq: h.seq, Price: 20000, Signal: true})
	assert.False(t, h.loop.Step())

	assert.Len(t, h.link.Written(), 1)
	assert.Len(t, h.rec.ofType(schema.EventTick), 1)
	assert.Empty(t, h.rec.ofType(schema.EventExecutionFilled))
	assert.Empty(t, h.rec.ofType(schema.EventExecutionRejected))
}

func TestSequenceZeroIsProcessedOnce(t *testing.T) {
	h := newHarness(t, risk.Config{})
	h.slot.Publish(schema.Tick{Seq: 0, Price: 100})
	assert.True(t, h.loop.Step())
	assert.False(t, h.loop.Step())
}

func TestFeedbackCarriesPrice(t *testing.T) {
	h := newHarness(t, risk.Config{})
	h.tick(t, 12345, false)

	written := h.link.Written()
	require.Len(t, written, 1)
	price, ok := codec.DecodeFeedback(written[0])
	require.True(t, ok)
	assert.Equal(t, schema.Price(12345), price)
}

func TestFeedbackFailureIsNotFatal(t *testing.T) {
	h := newHarness(t, risk.Config{})
	h.link.FailWrites(exception.ErrLinkWriteFailure)

	h.tick(t, 100, true)
	h.tick(t, 101, false)

	assert.Equal(t, uint64(2), h.metrics.Snapshot().FeedbackFailures)
	assert.Len(t, h.rec.ofType(schema.EventExecutionFilled), 1)
	assert.Len(t, h.rec.ofType(schema.EventTick), 2)
}

func TestSpikeTripsAndRejectsExecution(t *testing.T) {
	h := newHarness(t, risk.Config{})
	for i := 0; i < 20; i++ {
		h.tick(t, 100, false)
		h.clock.Advance(10 * time.Millisecond)
	}
	assert.Equal(t, 0.0, h.rec.lastTick().Volatility)
	assert.Equal(t, schema.StatusStable, h.rec.lastTick().Status)

	h.tick(t, 300, true)

	last := h.rec.lastTick()
	assert.InDelta(t, math.Sqrt(1900), last.Volatility, 1e-9)
	assert.Equal(t, schema.StatusLocked, last.Status)
	require.Len(t, h.rec.ofType(schema.EventBreakerTrip), 1)
	rejected := h.rec.ofType(schema.EventExecutionRejected)
	require.Len(t, rejected, 1)
	assert.Equal(t, "breaker_locked", rejected[0].Reason)
	assert.Empty(t, h.rec.ofType(schema.EventExecutionFilled))
	assert.True(t, h.metrics.Snapshot().Locked)
}

func TestResetAfterCalmWindowAndCooldown(t *testing.T) {
	h := newHarness(t, risk.Config{})
	for i := 0; i < 20; i++ {
		h.tick(t, 100, false)
	}
	h.tick(t, 300, false)
	require.True(t, h.loop.Breaker().Locked())
	trippedAt := h.loop.Breaker().LockedAt()

	// 19 more ticks at 300 fill the window; volatility reaches 0 only on the last.
	for i := 0; i < 18; i++ {
		h.clock.Advance(100 * time.Millisecond)
		h.tick(t, 300, false)
		assert.True(t, h.loop.Breaker().Locked())
	}
	h.clock.Advance(100 * time.Millisecond)
	h.tick(t, 300, false)
	assert.Equal(t, 0.0, h.rec.lastTick().Volatility)
	assert.True(t, h.loop.Breaker().Locked(), "cooldown not elapsed yet")

	for h.clock.now.Sub(trippedAt) <= 5*time.Second {
		require.True(t, h.loop.Breaker().Locked())
		h.clock.Advance(100 * time.Millisecond)
		h.tick(t, 300, false)
	}

	assert.False(t, h.loop.Breaker().Locked())
	resets := h.rec.ofType(schema.EventBreakerReset)
	require.Len(t, resets, 1)
	assert.Equal(t, h.seq, resets[0].Seq)
	assert.Equal(t, schema.StatusStable, h.rec.lastTick().Status)
}

func TestResetOnFirstTickMeetingBothConditions(t *testing.T) {
	h := newHarness(t, risk.Config{})
	for i := 0; i < 20; i++ {
		h.tick(t, 100, false)
	}
	h.tick(t, 300, false)
	require.True(t, h.loop.Breaker().Locked())

	for i := 0; i < 19; i++ {
		h.clock.Advance(time.Second)
		h.tick(t, 300, false)
		if i < 18 {
			assert.True(t, h.loop.Breaker().Locked(), "tick %d", i)
		}
	}
	assert.False(t, h.loop.Breaker().Locked())
	require.Len(t, h.rec.ofType(schema.EventBreakerReset), 1)
}

func TestSingleFillPerSignal(t *testing.T) {
	h := newHarness(t, risk.Config{})
	h.tick(t, 10000, true)

	assert.False(t, h.loop.Step())
	h.tick(t, 10001, false)

	fills := h.rec.ofType(schema.EventExecutionFilled)
	require.Len(t, fills, 1)
	assert.Equal(t, DefaultFillQty, fills[0].Qty)
	assert.Equal(t, DefaultFillQty, fills[0].Position)
	assert.Equal(t, DefaultFillQty, h.loop.Position())
	assert.Equal(t, 1, h.loop.Fills())
	last, ok := h.loop.LastFill()
	require.True(t, ok)
	assert.Equal(t, schema.Price(10000), last.Price)
}

func TestStatusVolatileBetweenLevels(t *testing.T) {
	h := newHarness(t, risk.Config{})
	// Alternating 100/130 hovers just above the volatile level.
	for i := 0; i < 19; i++ {
		if i%2 == 0 {
			h.tick(t, 100, false)
		} else {
			h.tick(t, 130, false)
		}
	}
	h.tick(t, 140, false)
	last := h.rec.lastTick()
	assert.Greater(t, last.Volatility, DefaultVolatileLevel)
	assert.Less(t, last.Volatility, risk.DefaultThreshold)
	assert.Equal(t, schema.StatusVolatile, last.Status)
}

func TestPositionLimitRejects(t *testing.T) {
	h := newHarness(t, risk.Config{MaxPosition: DefaultFillQty})
	h.tick(t, 100, true)
	h.tick(t, 100, true)

	assert.Len(t, h.rec.ofType(schema.EventExecutionFilled), 1)
	rejected := h.rec.ofType(schema.EventExecutionRejected)
	require.Len(t, rejected, 1)
	assert.Equal(t, "position_limit", rejected[0].Reason)
}

func TestRunStopsOnCancel(t *testing.T) {
	h := newHarness(t, risk.Config{})
	h.slot.Publish(schema.Tick{Seq: 1, Price: 100})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- h.loop.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		return len(h.link.Written()) == 1
	}, time.Second, time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("loop did not stop after cancel")
	}
}
