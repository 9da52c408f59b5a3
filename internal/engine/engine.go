package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/yanun0323/logs"
	"golang.org/x/sync/errgroup"

	"hftgate/internal/transport"
	"hftgate/pkg/exception"
)

// Worker is a long-running unit supervised by the engine.
type Worker interface {
	Run(ctx context.Context) error
}

// WorkerState is the lifecycle position of a worker.
type WorkerState uint8

const (
	WorkerIdle WorkerState = iota
	WorkerRunning
	WorkerStopped
	WorkerFailed
)

func (s WorkerState) String() string {
	switch s {
	case WorkerRunning:
		return "running"
	case WorkerStopped:
		return "stopped"
	case WorkerFailed:
		return "failed"
	default:
		return "idle"
	}
}

// WorkerStatus is the last known state of a worker and its terminal error.
type WorkerStatus struct {
	State WorkerState
	Err   error
}

// Health reports every supervised worker.
type Health struct {
	Ingest   WorkerStatus
	Strategy WorkerStatus
	Journal  WorkerStatus
}

// Engine runs ingestion and strategy side by side and owns the link. A
// failure of any worker cancels the others.
type Engine struct {
	link     transport.Link
	ingest   Worker
	strategy Worker
	journal  Worker

	started atomic.Bool

	mu     sync.Mutex
	health Health
}

// New supervises ingest and strategy over link.
func New(link transport.Link, ingest, strategy Worker) (*Engine, error) {
	if link == nil || ingest == nil || strategy == nil {
		return nil, exception.ErrNilInstance
	}
	return &Engine{link: link, ingest: ingest, strategy: strategy}, nil
}

// WithJournal adds an optional persistence worker. Must be called before Run.
func (e *Engine) WithJournal(w Worker) *Engine {
	e.journal = w
	return e
}

// Run blocks until ctx is done or a worker fails. The link is closed on
// every exit path. Cancellation returns nil; an ingestion failure returns an
// error wrapping exception.ErrIngestHalted.
func (e *Engine) Run(ctx context.Context) error {
	if !e.started.CompareAndSwap(false, true) {
		return exception.ErrEngineStarted
	}
	defer func() {
		if err := e.link.Close(); err != nil {
			logs.Errorf("close link, err: %+v", err)
		}
	}()

	eg, gctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		if err := e.supervise(gctx, e.ingest, func(h *Health) *WorkerStatus { return &h.Ingest }); err != nil {
			return fmt.Errorf("%w: %v", exception.ErrIngestHalted, err)
		}
		return nil
	})
	eg.Go(func() error {
		return e.supervise(gctx, e.strategy, func(h *Health) *WorkerStatus { return &h.Strategy })
	})
	if e.journal != nil {
		eg.Go(func() error {
			return e.supervise(gctx, e.journal, func(h *Health) *WorkerStatus { return &h.Journal })
		})
	}
	return eg.Wait()
}

func (e *Engine) supervise(ctx context.Context, w Worker, slot func(*Health) *WorkerStatus) error {
	e.setStatus(slot, WorkerStatus{State: WorkerRunning})
	err := w.Run(ctx)
	if err != nil {
		e.setStatus(slot, WorkerStatus{State: WorkerFailed, Err: err})
		return err
	}
	e.setStatus(slot, WorkerStatus{State: WorkerStopped})
	return nil
}

func (e *Engine) setStatus(slot func(*Health) *WorkerStatus, st WorkerStatus) {
	e.mu.Lock()
	*slot(&e.health) = st
	e.mu.Unlock()
}

// Health returns a copy of the worker states.
func (e *Engine) Health() Health {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.health
}
