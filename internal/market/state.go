package market

import (
	"sync"
	"time"

	"hftgate/internal/schema"
)

// Snapshot is the consumer's view of the latest tick.
type Snapshot struct {
	Seq     uint16
	Price   schema.Price
	Execute bool
	// Valid is false until the first tick has been published.
	Valid bool
	// At is the publish time in unix nanoseconds.
	At int64
}

// State is the single hand-off point between ingestion and strategy.
// Publish is called by exactly one writer, TakeSnapshot by exactly one reader.
type State interface {
	Publish(tick schema.Tick)
	TakeSnapshot() Snapshot
}

var _ State = (*Slot)(nil)

// Slot keeps only the most recent tick and an edge-triggered execute flag.
type Slot struct {
	mu   sync.Mutex
	snap Snapshot
}

// NewSlot creates an empty slot.
func NewSlot() *Slot {
	return &Slot{}
}

// Publish overwrites sequence and price together. A set signal raises the
// execute flag; a cleared signal never lowers it.
func (s *Slot) Publish(tick schema.Tick) {
	at := time.Now().UnixNano()
	s.mu.Lock()
	s.snap.Seq = tick.Seq
	s.snap.Price = tick.Price
	s.snap.Valid = true
	s.snap.At = at
	if tick.Signal {
		s.snap.Execute = true
	}
	s.mu.Unlock()
}

// TakeSnapshot returns the latest values and clears the execute flag in the
// same critical section.
func (s *Slot) TakeSnapshot() Snapshot {
	s.mu.Lock()
	snap := s.snap
	s.snap.Execute = false
	s.mu.Unlock()
	return snap
}
