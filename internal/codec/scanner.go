package codec

import "hftgate/internal/schema"

const defaultScannerCapacity = 4096

// Scanner splits a byte stream into tick frames. When the buffered data does
// not start with SyncByte, exactly one byte is discarded and the scan resumes
// from the next offset.
type Scanner struct {
	buf     []byte
	start   int
	resyncs uint64
}

// NewScanner allocates a scanner with the given initial buffer capacity.
func NewScanner(capacity int) *Scanner {
	if capacity < TickFrameSize {
		capacity = defaultScannerCapacity
	}
	return &Scanner{buf: make([]byte, 0, capacity)}
}

// Feed appends raw bytes. The input is copied.
func (s *Scanner) Feed(p []byte) {
	if len(p) == 0 {
		return
	}
	if s.start > 0 && s.start >= len(s.buf)/2 {
		n := copy(s.buf, s.buf[s.start:])
		s.buf = s.buf[:n]
		s.start = 0
	}
	s.buf = append(s.buf, p...)
}

// Next returns the next complete frame. It reports false when fewer than
// TickFrameSize bytes remain buffered.
func (s *Scanner) Next() (schema.Tick, bool) {
	for len(s.buf)-s.start >= TickFrameSize {
		if s.buf[s.start] != SyncByte {
			s.start++
			s.resyncs++
			continue
		}
		tick, _ := DecodeTick(s.buf[s.start : s.start+TickFrameSize])
		s.start += TickFrameSize
		return tick, true
	}
	return schema.Tick{}, false
}

// Buffered returns the number of bytes not yet consumed.
func (s *Scanner) Buffered() int {
	return len(s.buf) - s.start
}

// Resyncs returns the total number of bytes discarded while realigning.
func (s *Scanner) Resyncs() uint64 {
	return s.resyncs
}
