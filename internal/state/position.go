package state

import "hftgate/internal/schema"

// Side is the direction of a paper fill.
type Side uint8

const (
	SideUnknown Side = iota
	SideLong
	SideShort
)

func (s Side) String() string {
	switch s {
	case SideLong:
		return "LONG"
	case SideShort:
		return "SHORT"
	default:
		return "UNKNOWN"
	}
}

// Fill is one simulated execution.
type Fill struct {
	Seq   uint16
	Side  Side
	Price schema.Price
	Qty   schema.Quantity
}

// PositionReducer tracks the paper position of the single traded instrument.
type PositionReducer struct {
	position schema.Quantity
	fills    int
	last     Fill
}

// NewPositionReducer creates a flat position.
func NewPositionReducer() *PositionReducer {
	return &PositionReducer{}
}

// ApplyFill updates the position and returns the new quantity.
func (r *PositionReducer) ApplyFill(fill Fill) schema.Quantity {
	switch fill.Side {
	case SideLong:
		r.position += fill.Qty
	case SideShort:
		r.position -= fill.Qty
	default:
		return r.position
	}
	r.fills++
	r.last = fill
	return r.position
}

// Position returns the current position quantity.
func (r *PositionReducer) Position() schema.Quantity {
	return r.position
}

// Count returns the number of applied fills.
func (r *PositionReducer) Count() int {
	return r.fills
}

// LastFill returns the most recent applied fill.
func (r *PositionReducer) LastFill() (Fill, bool) {
	return r.last, r.fills > 0
}
