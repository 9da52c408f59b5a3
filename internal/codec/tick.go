package codec

import (
	"encoding/binary"

	"hftgate/internal/schema"
)

const (
	// TickFrameSize is the size of one inbound frame: sync, seq, price, signal.
	TickFrameSize = 6
	// SyncByte marks the start of every inbound frame.
	SyncByte byte = 0xAA

	signalExecute byte = 1
)

// EncodeTick serializes a tick into a fixed-size frame.
func EncodeTick(dst []byte, tick schema.Tick) []byte {
	if cap(dst) < TickFrameSize {
		dst = make([]byte, TickFrameSize)
	} else {
		dst = dst[:TickFrameSize]
	}

	dst[0] = SyncByte
	binary.LittleEndian.PutUint16(dst[1:3], tick.Seq)
	binary.LittleEndian.PutUint16(dst[3:5], uint16(tick.Price))
	dst[5] = 0
	if tick.Signal {
		dst[5] = signalExecute
	}

	return dst
}

// DecodeTick parses a fixed-size frame. It reports false when the frame is
// short or does not start with SyncByte.
func DecodeTick(src []byte) (schema.Tick, bool) {
	if len(src) < TickFrameSize || src[0] != SyncByte {
		return schema.Tick{}, false
	}
	return schema.Tick{
		Seq:    binary.LittleEndian.Uint16(src[1:3]),
		Price:  schema.Price(binary.LittleEndian.Uint16(src[3:5])),
		Signal: src[5] == signalExecute,
	}, true
}
