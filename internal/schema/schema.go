package schema

// EventType defines the category of an engine event.
type EventType uint16

const (
	EventUnknown EventType = iota
	EventTick
	EventBreakerTrip
	EventBreakerReset
	EventExecutionRejected
	EventExecutionFilled
)

func (t EventType) String() string {
	switch t {
	case EventTick:
		return "tick"
	case EventBreakerTrip:
		return "breaker_trip"
	case EventBreakerReset:
		return "breaker_reset"
	case EventExecutionRejected:
		return "execution_rejected"
	case EventExecutionFilled:
		return "execution_filled"
	default:
		return "unknown"
	}
}

// Status is the dashboard tag attached to a processed tick.
type Status uint8

const (
	StatusUnknown Status = iota
	StatusStable
	StatusVolatile
	StatusLocked
)

func (s Status) String() string {
	switch s {
	case StatusStable:
		return "STABLE"
	case StatusVolatile:
		return "VOLATILE"
	case StatusLocked:
		return "LOCKED"
	default:
		return "UNKNOWN"
	}
}

// Event is emitted by the strategy loop for every observable outcome. Qty
// and Reason are only set on execution events; Position is the paper
// position after the event.
type Event struct {
	Type       EventType
	Seq        uint16
	Price      Price
	Volatility float64
	Status     Status
	Qty        Quantity
	Position   Quantity
	Reason     string
	Ts         int64
}

// NewEvent builds an event for the given tick values.
func NewEvent(eventType EventType, seq uint16, price Price, volatility float64, ts int64) Event {
	return Event{
		Type:       eventType,
		Seq:        seq,
		Price:      price,
		Volatility: volatility,
		Ts:         ts,
	}
}
