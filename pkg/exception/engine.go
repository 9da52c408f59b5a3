package exception

import "errors"

// Engine errors
var (
	ErrInvalidConfig = errors.New("engine: invalid config")
	ErrIngestHalted  = errors.New("engine: ingestion halted")
	ErrEngineStarted = errors.New("engine: already started")
)
