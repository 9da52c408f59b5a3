package sim

import (
	"math"
	"math/rand"
	"time"

	"hftgate/internal/schema"
)

const (
	DefaultBasePrice   schema.Price = 10000
	DefaultMaxStep                  = 5
	DefaultSpikeSize                = 2000
	DefaultSignalEvery              = 50
)

// GeneratorConfig shapes the synthetic price path.
type GeneratorConfig struct {
	Seed      int64
	BasePrice schema.Price
	// MaxStep bounds the random walk per tick, in raw price units.
	MaxStep int
	// SpikeEvery injects a jump of SpikeSize every N ticks; 0 disables it.
	SpikeEvery int
	SpikeSize  int
	// SignalEvery raises the execute signal every N ticks; 0 disables it.
	SignalEvery int
}

// Generator creates synthetic ticks the way the hardware would: a bounded
// random walk with optional spikes and periodic execute requests.
type Generator struct {
	cfg   GeneratorConfig
	rng   *rand.Rand
	seq   uint16
	price int
	count int
}

// NewGenerator applies defaults to cfg.
func NewGenerator(cfg GeneratorConfig) *Generator {
	if cfg.BasePrice == 0 {
		cfg.BasePrice = DefaultBasePrice
	}
	if cfg.MaxStep <= 0 {
		cfg.MaxStep = DefaultMaxStep
	}
	if cfg.SpikeSize == 0 {
		cfg.SpikeSize = DefaultSpikeSize
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UTC().UnixNano()
	}
	return &Generator{
		cfg:   cfg,
		rng:   rand.New(rand.NewSource(cfg.Seed)),
		price: int(cfg.BasePrice),
	}
}

// Next creates the next tick in sequence. Sequence numbers wrap at 65535.
func (g *Generator) Next() schema.Tick {
	g.count++
	g.seq++

	g.price += g.rng.Intn(2*g.cfg.MaxStep+1) - g.cfg.MaxStep
	if g.cfg.SpikeEvery > 0 && g.count%g.cfg.SpikeEvery == 0 {
		if g.rng.Intn(2) == 0 {
			g.price += g.cfg.SpikeSize
		} else {
			g.price -= g.cfg.SpikeSize
		}
	}
	g.price = clampPrice(g.price)

	return schema.Tick{
		Seq:    g.seq,
		Price:  schema.Price(g.price),
		Signal: g.cfg.SignalEvery > 0 && g.count%g.cfg.SignalEvery == 0,
	}
}

func clampPrice(p int) int {
	if p < 1 {
		return 1
	}
	if p > math.MaxUint16 {
		return math.MaxUint16
	}
	return p
}
