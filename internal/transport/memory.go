package transport

import (
	"sync"

	"hftgate/pkg/exception"
)

var _ Link = (*Memory)(nil)

// Memory is an in-process Link. Bytes injected with Inject are returned by
// ReadAvailable; bytes written are recorded frame by frame.
type Memory struct {
	mu       sync.Mutex
	in       []byte
	out      [][]byte
	readErr  error
	writeErr error
	closed   bool
	scratch  []byte
}

// NewMemory creates an open in-memory link.
func NewMemory() *Memory {
	return &Memory{}
}

// Inject queues device-to-engine bytes.
func (m *Memory) Inject(p []byte) {
	m.mu.Lock()
	m.in = append(m.in, p...)
	m.mu.Unlock()
}

// FailReads makes every following read return err once the injected bytes
// are drained.
func (m *Memory) FailReads(err error) {
	m.mu.Lock()
	m.readErr = err
	m.mu.Unlock()
}

// FailWrites makes every following write return err.
func (m *Memory) FailWrites(err error) {
	m.mu.Lock()
	m.writeErr = err
	m.mu.Unlock()
}

// Written returns a copy of every frame written so far.
func (m *Memory) Written() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.out))
	copy(out, m.out)
	return out
}

// Closed reports whether Close was called.
func (m *Memory) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *Memory) ReadAvailable(max int) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, exception.ErrLinkClosed
	}
	if len(m.in) == 0 {
		if m.readErr != nil {
			return nil, m.readErr
		}
		return nil, nil
	}
	if max <= 0 || max > len(m.in) {
		max = len(m.in)
	}
	m.scratch = append(m.scratch[:0], m.in[:max]...)
	m.in = m.in[max:]
	return m.scratch, nil
}

func (m *Memory) Write(p []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return exception.ErrLinkClosed
	}
	if m.writeErr != nil {
		return m.writeErr
	}
	cp := make([]byte, len(p))
	copy(cp, p)
	m.out = append(m.out, cp)
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}
