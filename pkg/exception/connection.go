package exception

import "errors"

// Transport errors
var (
	ErrLinkClosed       = errors.New("transport: link closed")
	ErrEmptyAddress     = errors.New("transport: empty address")
	ErrInvalidBaudRate  = errors.New("transport: invalid baud rate")
	ErrLinkReadFailure  = errors.New("transport: read failure")
	ErrLinkWriteFailure = errors.New("transport: write failure")
)
