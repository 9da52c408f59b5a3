package chaos

import (
	"fmt"
	"math/rand"
	"time"

	"hftgate/internal/codec"
	"hftgate/pkg/exception"
)

const defaultMaxGarbage = 3

// Config controls fault injection on the device-to-engine byte stream.
type Config struct {
	Seed          int64
	DropRate      float64
	DuplicateRate float64
	// GarbageRate is the chance of prefixing a frame with non-sync noise.
	GarbageRate float64
	MaxGarbage  int
	// ReorderWindow > 1 holds frames back and releases them in random order.
	ReorderWindow int
}

// Enabled reports whether any fault is configured.
func (c Config) Enabled() bool {
	return c.DropRate > 0 || c.DuplicateRate > 0 || c.GarbageRate > 0 || c.ReorderWindow > 1
}

// Validate ensures the config is within supported ranges.
func (c Config) Validate() error {
	if c.DropRate < 0 || c.DropRate > 1 {
		return fmt.Errorf("%w: dropRate must be between 0 and 1", exception.ErrInvalidArgument)
	}
	if c.DuplicateRate < 0 || c.DuplicateRate > 1 {
		return fmt.Errorf("%w: duplicateRate must be between 0 and 1", exception.ErrInvalidArgument)
	}
	if c.GarbageRate < 0 || c.GarbageRate > 1 {
		return fmt.Errorf("%w: garbageRate must be between 0 and 1", exception.ErrInvalidArgument)
	}
	if c.MaxGarbage < 0 {
		return fmt.Errorf("%w: maxGarbage must be >= 0", exception.ErrInvalidArgument)
	}
	if c.ReorderWindow <= 0 {
		return fmt.Errorf("%w: reorderWindow must be >= 1", exception.ErrInvalidArgument)
	}
	return nil
}

// Engine applies chaos rules to encoded tick frames. Not safe for
// concurrent use.
type Engine struct {
	cfg     Config
	rng     *rand.Rand
	pending [][]byte
}

// NewEngine creates a chaos engine with validation.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.ReorderWindow <= 0 {
		cfg.ReorderWindow = 1
	}
	if cfg.MaxGarbage == 0 {
		cfg.MaxGarbage = defaultMaxGarbage
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UTC().UnixNano()
	}
	return &Engine{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

// Process applies chaos to a single frame and returns the byte chunks to
// put on the wire. The input is copied.
func (e *Engine) Process(frame []byte) [][]byte {
	cp := append([]byte(nil), frame...)
	if e == nil {
		return [][]byte{cp}
	}
	if e.shouldDrop() {
		return nil
	}
	if e.cfg.ReorderWindow <= 1 {
		return e.emit(cp)
	}
	e.pending = append(e.pending, cp)
	if len(e.pending) < e.cfg.ReorderWindow {
		return nil
	}
	return e.emit(e.takePending())
}

// Flush returns any held frames after processing completes.
func (e *Engine) Flush() [][]byte {
	if e == nil || len(e.pending) == 0 {
		return nil
	}
	var out [][]byte
	for len(e.pending) > 0 {
		out = append(out, e.emit(e.takePending())...)
	}
	return out
}

func (e *Engine) takePending() []byte {
	idx := e.rng.Intn(len(e.pending))
	out := e.pending[idx]
	e.pending = append(e.pending[:idx], e.pending[idx+1:]...)
	return out
}

func (e *Engine) emit(frame []byte) [][]byte {
	var out [][]byte
	if g := e.garbage(); len(g) > 0 {
		out = append(out, g)
	}
	out = append(out, frame)
	if e.cfg.DuplicateRate > 0 && e.rng.Float64() < e.cfg.DuplicateRate {
		out = append(out, frame)
	}
	return out
}

func (e *Engine) shouldDrop() bool {
	return e.cfg.DropRate > 0 && e.rng.Float64() < e.cfg.DropRate
}

// garbage never contains the sync byte, so the decoder can always realign
// on the next real frame.
func (e *Engine) garbage() []byte {
	if e.cfg.GarbageRate <= 0 || e.rng.Float64() >= e.cfg.GarbageRate {
		return nil
	}
	n := 1 + e.rng.Intn(e.cfg.MaxGarbage)
	g := make([]byte, n)
	for i := range g {
		b := byte(e.rng.Intn(256))
		if b == codec.SyncByte {
			b ^= 0xFF
		}
		g[i] = b
	}
	return g
}
