package codec

import (
	"encoding/binary"

	"hftgate/internal/schema"
)

// FeedbackFrameSize is the size of the outbound price echo.
const FeedbackFrameSize = 2

// EncodeFeedback serializes the current price for the device.
func EncodeFeedback(dst []byte, price schema.Price) []byte {
	if cap(dst) < FeedbackFrameSize {
		dst = make([]byte, FeedbackFrameSize)
	} else {
		dst = dst[:FeedbackFrameSize]
	}
	binary.LittleEndian.PutUint16(dst, uint16(price))
	return dst
}

// DecodeFeedback parses a feedback frame.
func DecodeFeedback(src []byte) (schema.Price, bool) {
	if len(src) < FeedbackFrameSize {
		return 0, false
	}
	return schema.Price(binary.LittleEndian.Uint16(src[:FeedbackFrameSize])), true
}
