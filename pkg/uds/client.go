package uds

import (
	"context"
	"net"
	"time"

	"hftgate/pkg/exception"
)

const (
	unixNetwork        = "unix"
	defaultDialTimeout = 3 * time.Second
)

// Client dials the device bridge socket.
type Client struct {
	addr    net.UnixAddr
	timeout time.Duration
}

// NewClient creates a client for the provided socket path.
func NewClient(path string) (*Client, error) {
	if path == "" {
		return nil, exception.ErrEmptyPathUDS
	}
	return &Client{
		addr:    net.UnixAddr{Name: path, Net: unixNetwork},
		timeout: defaultDialTimeout,
	}, nil
}

// Path returns the configured socket path.
func (c *Client) Path() string {
	if c == nil {
		return ""
	}
	return c.addr.Name
}

// Dial opens a connection, giving up after the dial timeout or when ctx ends.
func (c *Client) Dial(ctx context.Context) (*net.UnixConn, error) {
	if c == nil {
		return nil, exception.ErrNilClientUDS
	}
	if c.addr.Name == "" {
		return nil, exception.ErrEmptyPathUDS
	}
	d := net.Dialer{Timeout: c.timeout}
	conn, err := d.DialContext(ctx, unixNetwork, c.addr.Name)
	if err != nil {
		return nil, err
	}
	return conn.(*net.UnixConn), nil
}
