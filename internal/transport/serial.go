package transport

import (
	"fmt"
	"sync"

	"github.com/yanun0323/errors"
	"go.bug.st/serial"

	"hftgate/pkg/exception"
)

type serialLink struct {
	port serial.Port
	buf  []byte

	closeOnce sync.Once
	closeErr  error
}

func openSerial(addr string, cfg Config) (Link, error) {
	port, err := serial.Open(addr, &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, errors.Wrap(err, "open serial port").With("address", addr)
	}
	if err := port.SetReadTimeout(cfg.ReadTimeout); err != nil {
		_ = port.Close()
		return nil, errors.Wrap(err, "set read timeout").With("address", addr)
	}
	if err := port.ResetInputBuffer(); err != nil {
		_ = port.Close()
		return nil, errors.Wrap(err, "reset input buffer").With("address", addr)
	}
	return &serialLink{port: port, buf: make([]byte, defaultReadBuffer)}, nil
}

func (l *serialLink) ReadAvailable(max int) ([]byte, error) {
	if max <= 0 || max > len(l.buf) {
		max = len(l.buf)
	}
	n, err := l.port.Read(l.buf[:max])
	if err != nil {
		return nil, mapSerialError(err, exception.ErrLinkReadFailure)
	}
	return l.buf[:n], nil
}

func (l *serialLink) Write(p []byte) error {
	for len(p) > 0 {
		n, err := l.port.Write(p)
		if err != nil {
			return mapSerialError(err, exception.ErrLinkWriteFailure)
		}
		p = p[n:]
	}
	return nil
}

func (l *serialLink) Close() error {
	l.closeOnce.Do(func() {
		l.closeErr = l.port.Close()
	})
	return l.closeErr
}

func mapSerialError(err error, fallback error) error {
	if portErr, ok := err.(*serial.PortError); ok && portErr.Code() == serial.PortClosed {
		return fmt.Errorf("%w: %v", exception.ErrLinkClosed, portErr)
	}
	return fmt.Errorf("%w: %v", fallback, err)
}
