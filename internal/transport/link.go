package transport

import (
	"context"
	"strings"
	"time"

	"github.com/yanun0323/errors"

	"hftgate/pkg/exception"
	"hftgate/pkg/uds"
)

const (
	unixScheme = "unix:"

	DefaultBaudRate     = 2_000_000
	DefaultReadTimeout  = 100 * time.Millisecond
	DefaultWriteTimeout = 100 * time.Millisecond
	defaultReadBuffer   = 4096
)

// Link is a byte-oriented, half-duplex channel to the tick hardware.
type Link interface {
	// ReadAvailable returns up to max bytes, or an empty slice when nothing
	// arrived within the read timeout. The slice is only valid until the
	// next call.
	ReadAvailable(max int) ([]byte, error)
	// Write sends p in full.
	Write(p []byte) error
	Close() error
}

// Config identifies the physical channel.
type Config struct {
	Address      string
	BaudRate     int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.BaudRate == 0 {
		c.BaudRate = DefaultBaudRate
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	return c
}

// Open connects to the channel named by cfg.Address. Addresses prefixed with
// "unix:" dial a Unix domain socket bridge; anything else is a serial device.
func Open(ctx context.Context, cfg Config) (Link, error) {
	cfg = cfg.withDefaults()
	addr := strings.TrimSpace(cfg.Address)
	if addr == "" {
		return nil, exception.ErrEmptyAddress
	}
	if cfg.BaudRate < 0 {
		return nil, exception.ErrInvalidBaudRate
	}

	if path, ok := strings.CutPrefix(addr, unixScheme); ok {
		client, err := uds.NewClient(path)
		if err != nil {
			return nil, errors.Wrap(err, "new uds client").With("address", addr)
		}
		conn, err := client.Dial(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "dial uds").With("address", addr)
		}
		return NewConnLink(conn, cfg.ReadTimeout, cfg.WriteTimeout), nil
	}

	return openSerial(addr, cfg)
}
