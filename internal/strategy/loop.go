package strategy

import (
	"context"
	"time"

	"github.com/yanun0323/logs"

	"hftgate/internal/codec"
	"hftgate/internal/market"
	"hftgate/internal/obs"
	"hftgate/internal/report"
	"hftgate/internal/risk"
	"hftgate/internal/schema"
	"hftgate/internal/state"
	"hftgate/internal/volatility"
	"hftgate/pkg/exception"
)

const (
	DefaultPollInterval  = time.Millisecond
	DefaultVolatileLevel = 15.0
	// DefaultFillQty is 0.1 units of the instrument.
	DefaultFillQty schema.Quantity = 1000
)

// Feedback is the outbound half of the transport link.
type Feedback interface {
	Write(p []byte) error
}

// Config tunes the consumer loop.
type Config struct {
	PollInterval time.Duration
	// VolatileLevel marks a tick VOLATILE when exceeded, in raw price units.
	VolatileLevel float64
	FillQty       schema.Quantity
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.VolatileLevel <= 0 {
		c.VolatileLevel = DefaultVolatileLevel
	}
	if c.FillQty <= 0 {
		c.FillQty = DefaultFillQty
	}
	return c
}

// Deps are the collaborators of a Loop. State, Breaker and Feedback are
// required; the rest fall back to fresh or no-op instances.
type Deps struct {
	State     market.State
	Breaker   *risk.Breaker
	Feedback  Feedback
	Risk      *risk.Engine
	Tracker   *volatility.Tracker
	Positions *state.PositionReducer
	Reporter  report.Reporter
	Metrics   *obs.Metrics
	Clock     func() time.Time
}

// Loop is the single consumer of the shared market state. It owns the price
// history, the breaker and the last-processed sequence. Not safe for
// concurrent use; Run and Step must not be called together.
type Loop struct {
	cfg Config

	state     market.State
	breaker   *risk.Breaker
	feedback  Feedback
	risk      *risk.Engine
	tracker   *volatility.Tracker
	positions *state.PositionReducer
	reporter  report.Reporter
	metrics   *obs.Metrics
	now       func() time.Time

	lastSeq   uint16
	processed bool
	fbBuf     []byte
}

// NewLoop validates deps and applies defaults.
func NewLoop(cfg Config, deps Deps) (*Loop, error) {
	if deps.State == nil || deps.Breaker == nil || deps.Feedback == nil {
		return nil, exception.ErrNilInstance
	}
	l := &Loop{
		cfg:       cfg.withDefaults(),
		state:     deps.State,
		breaker:   deps.Breaker,
		feedback:  deps.Feedback,
		risk:      deps.Risk,
		tracker:   deps.Tracker,
		positions: deps.Positions,
		reporter:  deps.Reporter,
		metrics:   deps.Metrics,
		now:       deps.Clock,
		fbBuf:     make([]byte, codec.FeedbackFrameSize),
	}
	if l.risk == nil {
		l.risk = risk.NewEngine(risk.Config{})
	}
	if l.tracker == nil {
		l.tracker = volatility.NewTracker()
	}
	if l.positions == nil {
		l.positions = state.NewPositionReducer()
	}
	if l.reporter == nil {
		l.reporter = report.Discard
	}
	if l.now == nil {
		l.now = time.Now
	}
	return l, nil
}

// Run polls the shared state every PollInterval until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	logs.Info("strategy loop started, monitoring market")
	ticker := time.NewTicker(l.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			l.Step()
		}
	}
}

// Step performs one poll. It reports whether a new tick was processed.
func (l *Loop) Step() bool {
	snap := l.state.TakeSnapshot()
	if !snap.Valid {
		return false
	}
	if l.processed && snap.Seq == l.lastSeq {
		return false
	}

	now := l.now()
	ts := now.UnixNano()

	l.tracker.Push(snap.Price)
	vol := l.tracker.Volatility()

	tr := l.breaker.Check(vol, now)
	if tr.Tripped {
		l.reporter.Report(schema.NewEvent(schema.EventBreakerTrip, snap.Seq, snap.Price, vol, ts))
	}
	if tr.Reset {
		l.reporter.Report(schema.NewEvent(schema.EventBreakerReset, snap.Seq, snap.Price, vol, ts))
	}

	l.fbBuf = codec.EncodeFeedback(l.fbBuf, snap.Price)
	if err := l.feedback.Write(l.fbBuf); err != nil {
		l.metrics.IncFeedbackFailure()
	}

	if snap.Execute {
		l.execute(snap, vol, tr.Locked, ts)
	}

	ev := schema.NewEvent(schema.EventTick, snap.Seq, snap.Price, vol, ts)
	ev.Status = l.status(tr.Locked, vol)
	ev.Position = l.positions.Position()
	l.reporter.Report(ev)

	if snap.At > 0 {
		l.metrics.ObserveTickLatency(time.Duration(time.Now().UnixNano() - snap.At))
	}

	l.lastSeq = snap.Seq
	l.processed = true
	return true
}

func (l *Loop) execute(snap market.Snapshot, vol float64, locked bool, ts int64) {
	decision := l.risk.Evaluate(l.cfg.FillQty, risk.StateView{
		Locked:   locked,
		Position: l.positions.Position(),
	})
	if !decision.Allowed() {
		ev := schema.NewEvent(schema.EventExecutionRejected, snap.Seq, snap.Price, vol, ts)
		ev.Reason = decision.Reason.String()
		ev.Position = l.positions.Position()
		l.reporter.Report(ev)
		return
	}

	position := l.positions.ApplyFill(state.Fill{
		Seq:   snap.Seq,
		Side:  state.SideLong,
		Price: snap.Price,
		Qty:   l.cfg.FillQty,
	})
	ev := schema.NewEvent(schema.EventExecutionFilled, snap.Seq, snap.Price, vol, ts)
	ev.Qty = l.cfg.FillQty
	ev.Position = position
	l.reporter.Report(ev)
}

func (l *Loop) status(locked bool, vol float64) schema.Status {
	switch {
	case locked:
		return schema.StatusLocked
	case vol > l.cfg.VolatileLevel:
		return schema.StatusVolatile
	default:
		return schema.StatusStable
	}
}

// LastSeq returns the last processed sequence and whether any tick was
// processed yet.
func (l *Loop) LastSeq() (uint16, bool) {
	return l.lastSeq, l.processed
}

// Breaker exposes the loop's breaker for inspection.
func (l *Loop) Breaker() *risk.Breaker {
	return l.breaker
}

// Position returns the paper position.
func (l *Loop) Position() schema.Quantity {
	return l.positions.Position()
}

// Fills returns how many executions were filled.
func (l *Loop) Fills() int {
	return l.positions.Count()
}

// LastFill returns the most recent fill, if any.
func (l *Loop) LastFill() (state.Fill, bool) {
	return l.positions.LastFill()
}
