package transport

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"hftgate/pkg/exception"
)

// ConnLink adapts a stream connection, such as the simulator socket, to Link.
type ConnLink struct {
	conn         net.Conn
	readTimeout  time.Duration
	writeTimeout time.Duration
	buf          []byte

	closeOnce sync.Once
	closeErr  error
}

// NewConnLink wraps conn. Non-positive timeouts fall back to the defaults.
func NewConnLink(conn net.Conn, readTimeout, writeTimeout time.Duration) *ConnLink {
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}
	if writeTimeout <= 0 {
		writeTimeout = DefaultWriteTimeout
	}
	return &ConnLink{
		conn:         conn,
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
		buf:          make([]byte, defaultReadBuffer),
	}
}

func (l *ConnLink) ReadAvailable(max int) ([]byte, error) {
	if max <= 0 || max > len(l.buf) {
		max = len(l.buf)
	}
	if err := l.conn.SetReadDeadline(time.Now().Add(l.readTimeout)); err != nil {
		return nil, mapConnError(err, exception.ErrLinkReadFailure)
	}
	n, err := l.conn.Read(l.buf[:max])
	if err != nil {
		if isTimeout(err) {
			return l.buf[:n], nil
		}
		return nil, mapConnError(err, exception.ErrLinkReadFailure)
	}
	return l.buf[:n], nil
}

func (l *ConnLink) Write(p []byte) error {
	if err := l.conn.SetWriteDeadline(time.Now().Add(l.writeTimeout)); err != nil {
		return mapConnError(err, exception.ErrLinkWriteFailure)
	}
	if _, err := l.conn.Write(p); err != nil {
		return mapConnError(err, exception.ErrLinkWriteFailure)
	}
	return nil
}

func (l *ConnLink) Close() error {
	l.closeOnce.Do(func() {
		l.closeErr = l.conn.Close()
	})
	return l.closeErr
}

func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}

func mapConnError(err error, fallback error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) || errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("%w: %v", exception.ErrLinkClosed, err)
	}
	return fmt.Errorf("%w: %v", fallback, err)
}
