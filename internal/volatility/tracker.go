package volatility

import (
	"math"

	"hftgate/internal/schema"
)

const (
	// DefaultCapacity is the number of prices retained.
	DefaultCapacity = 100
	// DefaultWindow is the number of most recent prices used for volatility.
	DefaultWindow = 20
)

// Tracker keeps a bounded FIFO history of prices. It is not safe for
// concurrent use; the strategy loop owns it.
type Tracker struct {
	ring   []schema.Price
	head   int
	size   int
	window int
}

// NewTracker creates a tracker with the default capacity and window.
func NewTracker() *Tracker {
	return NewTrackerSize(DefaultCapacity, DefaultWindow)
}

// NewTrackerSize creates a tracker with a custom capacity and window.
// The window is clamped to the capacity.
func NewTrackerSize(capacity, window int) *Tracker {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if window > capacity {
		window = capacity
	}
	return &Tracker{
		ring:   make([]schema.Price, capacity),
		window: window,
	}
}

// Push appends a price, evicting the oldest one when full.
func (t *Tracker) Push(price schema.Price) {
	if t.size < len(t.ring) {
		t.ring[(t.head+t.size)%len(t.ring)] = price
		t.size++
		return
	}
	t.ring[t.head] = price
	t.head = (t.head + 1) % len(t.ring)
}

// Len returns the number of retained prices.
func (t *Tracker) Len() int {
	return t.size
}

// Prices returns a copy of the history, oldest first.
func (t *Tracker) Prices() []schema.Price {
	out := make([]schema.Price, t.size)
	for i := range out {
		out[i] = t.at(i)
	}
	return out
}

// Volatility returns the population standard deviation of the most recent
// window of prices, in the same fixed-point units as the prices. It returns 0
// until a full window is available.
func (t *Tracker) Volatility() float64 {
	if t.size < t.window {
		return 0
	}
	n := float64(t.window)
	from := t.size - t.window

	var sum float64
	for i := from; i < t.size; i++ {
		sum += float64(t.at(i))
	}
	mean := sum / n

	var sq float64
	for i := from; i < t.size; i++ {
		d := float64(t.at(i)) - mean
		sq += d * d
	}
	return math.Sqrt(sq / n)
}

func (t *Tracker) at(i int) schema.Price {
	return t.ring[(t.head+i)%len(t.ring)]
}
