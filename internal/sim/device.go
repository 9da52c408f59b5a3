package sim

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
	"golang.org/x/sync/errgroup"

	"hftgate/internal/chaos"
	"hftgate/internal/codec"
	"hftgate/internal/schema"
	"hftgate/internal/transport"
	"hftgate/pkg/exception"
)

const DefaultTickInterval = 10 * time.Millisecond

// DeviceConfig controls the emulated hardware.
type DeviceConfig struct {
	TickInterval time.Duration
	// Limit stops the device after N ticks; 0 runs until cancelled.
	Limit int
}

// Device plays the hardware side of the link: it streams tick frames and
// consumes the engine's price feedback.
type Device struct {
	cfg   DeviceConfig
	link  transport.Link
	gen   *Generator
	chaos *chaos.Engine

	onFeedback func(schema.Price)

	sent      atomic.Uint64
	feedbacks atomic.Uint64
	lastEcho  atomic.Uint32
}

// NewDevice binds a generator to a link. chaosEngine may be nil.
func NewDevice(cfg DeviceConfig, link transport.Link, gen *Generator, chaosEngine *chaos.Engine) (*Device, error) {
	if link == nil || gen == nil {
		return nil, exception.ErrNilInstance
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	return &Device{cfg: cfg, link: link, gen: gen, chaos: chaosEngine}, nil
}

// OnFeedback registers a callback for every decoded feedback frame. Must be
// set before Run.
func (d *Device) OnFeedback(fn func(schema.Price)) {
	d.onFeedback = fn
}

// Run streams ticks and reads feedback until ctx is done, the tick limit is
// reached, or the link fails.
func (d *Device) Run(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)
	sendDone := make(chan struct{})
	eg.Go(func() error {
		defer close(sendDone)
		return d.send(ctx)
	})
	eg.Go(func() error {
		return d.receive(ctx, sendDone)
	})
	return eg.Wait()
}

func (d *Device) send(ctx context.Context) error {
	ticker := time.NewTicker(d.cfg.TickInterval)
	defer ticker.Stop()

	buf := make([]byte, codec.TickFrameSize)
	for n := 0; d.cfg.Limit == 0 || n < d.cfg.Limit; n++ {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		buf = codec.EncodeTick(buf, d.gen.Next())
		if err := d.write(d.chaos.Process(buf)); err != nil {
			return err
		}
		d.sent.Add(1)
	}
	return d.write(d.chaos.Flush())
}

func (d *Device) write(chunks [][]byte) error {
	for _, c := range chunks {
		if err := d.link.Write(c); err != nil {
			return errors.Wrap(err, "write tick frame")
		}
	}
	return nil
}

func (d *Device) receive(ctx context.Context, sendDone <-chan struct{}) error {
	var pending []byte
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sendDone:
			return nil
		default:
		}

		p, err := d.link.ReadAvailable(64)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logs.Errorf("device feedback read failed, err: %+v", err)
			return errors.Wrap(err, "read feedback")
		}
		if len(p) == 0 {
			time.Sleep(time.Millisecond)
			continue
		}
		pending = append(pending, p...)
		for len(pending) >= codec.FeedbackFrameSize {
			price, _ := codec.DecodeFeedback(pending)
			pending = pending[codec.FeedbackFrameSize:]
			d.feedbacks.Add(1)
			d.lastEcho.Store(uint32(price))
			if d.onFeedback != nil {
				d.onFeedback(price)
			}
		}
	}
}

// Sent returns the number of generated ticks.
func (d *Device) Sent() uint64 {
	return d.sent.Load()
}

// Feedbacks returns the number of feedback frames received.
func (d *Device) Feedbacks() uint64 {
	return d.feedbacks.Load()
}

// LastEcho returns the most recent price echoed by the engine.
func (d *Device) LastEcho() schema.Price {
	return schema.Price(d.lastEcho.Load())
}
