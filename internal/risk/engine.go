package risk

import "hftgate/internal/schema"

// Action is the verdict on an execution request.
type Action uint8

const (
	ActionAllow Action = iota
	ActionDeny
)

// Reason explains a denial.
type Reason uint8

const (
	ReasonNone Reason = iota
	ReasonBreakerLocked
	ReasonKillSwitch
	ReasonPositionLimit
)

func (r Reason) String() string {
	switch r {
	case ReasonBreakerLocked:
		return "breaker_locked"
	case ReasonKillSwitch:
		return "kill_switch"
	case ReasonPositionLimit:
		return "position_limit"
	default:
		return "none"
	}
}

// Config defines limits applied on top of the breaker.
type Config struct {
	KillSwitch  bool            `json:"killSwitch"`
	MaxPosition schema.Quantity `json:"maxPosition"`
}

// StateView is what the engine needs to know when an execute request arrives.
type StateView struct {
	Locked   bool
	Position schema.Quantity
}

// Decision is the result of Evaluate.
type Decision struct {
	Action Action
	Reason Reason
}

// Allowed reports whether the request may be filled.
func (d Decision) Allowed() bool {
	return d.Action == ActionAllow
}

// Engine gates execution requests.
type Engine struct {
	cfg Config
}

// NewEngine creates an engine with static limits.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Evaluate decides whether an execute request of qty may be filled.
func (e *Engine) Evaluate(qty schema.Quantity, state StateView) Decision {
	if state.Locked {
		return Decision{Action: ActionDeny, Reason: ReasonBreakerLocked}
	}
	if e.cfg.KillSwitch {
		return Decision{Action: ActionDeny, Reason: ReasonKillSwitch}
	}
	if e.cfg.MaxPosition > 0 && absQuantity(state.Position+qty) > e.cfg.MaxPosition {
		return Decision{Action: ActionDeny, Reason: ReasonPositionLimit}
	}
	return Decision{Action: ActionAllow, Reason: ReasonNone}
}

func absQuantity(q schema.Quantity) schema.Quantity {
	if q < 0 {
		return -q
	}
	return q
}
