package ingest

import (
	"context"
	"runtime"
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"hftgate/internal/codec"
	"hftgate/internal/market"
	"hftgate/internal/obs"
	"hftgate/internal/transport"
	"hftgate/pkg/exception"
)

const (
	DefaultReadSize   = 256
	defaultIdleSleeps = 64
	idleSleep         = 50 * time.Microsecond
)

// Decoder turns the inbound byte stream into ticks published to the shared
// market state.
type Decoder struct {
	link     transport.Link
	state    market.State
	metrics  *obs.Metrics
	scanner  *codec.Scanner
	readSize int
}

// Option customizes a Decoder.
type Option func(*Decoder)

// WithMetrics records frame and resync counts into m.
func WithMetrics(m *obs.Metrics) Option {
	return func(d *Decoder) {
		d.metrics = m
	}
}

// WithReadSize bounds the bytes requested per read.
func WithReadSize(n int) Option {
	return func(d *Decoder) {
		if n > 0 {
			d.readSize = n
		}
	}
}

// NewDecoder binds a link to a market state.
func NewDecoder(link transport.Link, state market.State, opts ...Option) (*Decoder, error) {
	if link == nil || state == nil {
		return nil, exception.ErrNilInstance
	}
	d := &Decoder{
		link:     link,
		state:    state,
		readSize: DefaultReadSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.scanner = codec.NewScanner(d.readSize * 2)
	return d, nil
}

// Run reads until ctx is done or the link fails. A link failure halts
// ingestion and is returned; cancellation returns nil.
func (d *Decoder) Run(ctx context.Context) error {
	idle := 0
	for {
		if ctx.Err() != nil {
			return nil
		}

		p, err := d.link.ReadAvailable(d.readSize)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logs.Errorf("ingest halted, buffered: %d, err: %+v", d.scanner.Buffered(), err)
			return errors.Wrap(err, "read transport")
		}
		if len(p) == 0 {
			idle++
			if idle < defaultIdleSleeps {
				runtime.Gosched()
			} else {
				time.Sleep(idleSleep)
			}
			continue
		}
		idle = 0

		d.consume(p)
	}
}

// consume feeds p to the scanner and publishes every complete frame.
func (d *Decoder) consume(p []byte) int {
	before := d.scanner.Resyncs()
	d.scanner.Feed(p)
	n := 0
	for {
		tick, ok := d.scanner.Next()
		if !ok {
			break
		}
		d.state.Publish(tick)
		d.metrics.IncFrame()
		n++
	}
	d.metrics.AddResync(d.scanner.Resyncs() - before)
	return n
}

// Resyncs returns how many bytes were discarded while realigning.
func (d *Decoder) Resyncs() uint64 {
	return d.scanner.Resyncs()
}

// Buffered returns the bytes of an incomplete frame still held by the scanner.
func (d *Decoder) Buffered() int {
	return d.scanner.Buffered()
}
