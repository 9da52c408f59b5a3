package risk

import "time"

const (
	DefaultThreshold  = 35.0
	DefaultResetRatio = 0.5
	DefaultCooldown   = 5 * time.Second
)

// BreakerState is the circuit breaker position.
type BreakerState uint8

const (
	StateArmed BreakerState = iota
	StateTripped
)

func (s BreakerState) String() string {
	if s == StateTripped {
		return "tripped"
	}
	return "armed"
}

// BreakerConfig holds the hysteresis parameters.
type BreakerConfig struct {
	Threshold  float64       `json:"threshold"`
	ResetRatio float64       `json:"resetRatio"`
	Cooldown   time.Duration `json:"cooldown"`
}

// DefaultBreakerConfig returns threshold 35, reset below half of it after 5s.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Threshold:  DefaultThreshold,
		ResetRatio: DefaultResetRatio,
		Cooldown:   DefaultCooldown,
	}
}

// Transition is the outcome of one Check call.
type Transition struct {
	Locked  bool
	Tripped bool
	Reset   bool
}

// Breaker trips when volatility exceeds the threshold and re-arms only when
// volatility drops below threshold*ResetRatio and Cooldown has elapsed since
// the trip. Not safe for concurrent use.
type Breaker struct {
	cfg      BreakerConfig
	locked   bool
	lockedAt time.Time
}

// NewBreaker creates an armed breaker.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.ResetRatio <= 0 {
		cfg.ResetRatio = DefaultResetRatio
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultCooldown
	}
	return &Breaker{cfg: cfg}
}

// Check evaluates trip then reset for one processed tick.
// The trip timestamp is only set when moving from armed to tripped; readings
// above the threshold while already tripped do not restart the cooldown.
func (b *Breaker) Check(volatility float64, now time.Time) Transition {
	var t Transition
	if volatility > b.cfg.Threshold && !b.locked {
		b.locked = true
		b.lockedAt = now
		t.Tripped = true
	}
	if b.locked && volatility < b.cfg.Threshold*b.cfg.ResetRatio && now.Sub(b.lockedAt) > b.cfg.Cooldown {
		b.locked = false
		t.Reset = true
	}
	t.Locked = b.locked
	return t
}

// Locked reports whether execution is currently blocked.
func (b *Breaker) Locked() bool {
	return b.locked
}

// State returns the breaker position.
func (b *Breaker) State() BreakerState {
	if b.locked {
		return StateTripped
	}
	return StateArmed
}

// LockedAt returns the time of the last trip.
func (b *Breaker) LockedAt() time.Time {
	return b.lockedAt
}

// Config returns the effective configuration.
func (b *Breaker) Config() BreakerConfig {
	return b.cfg
}
