package journal

import (
	"context"
	"time"

	"github.com/yanun0323/logs"

	"hftgate/internal/bus"
	"hftgate/internal/obs"
	"hftgate/internal/schema"
	"hftgate/pkg/exception"
)

const (
	DefaultQueueSize = 1024
	defaultBatchSize = 64
	saveTimeout      = 3 * time.Second
)

// Journal persists breaker and execution events off the strategy path.
// Report never blocks; events that do not fit the queue are dropped and
// counted.
type Journal struct {
	store   Store
	queue   *bus.Queue
	metrics *obs.Metrics
	batch   []Record
}

// New creates a journal draining into store.
func New(store Store, queueSize int, metrics *obs.Metrics) (*Journal, error) {
	if store == nil {
		return nil, exception.ErrNilInstance
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Journal{
		store:   store,
		queue:   bus.NewQueue(queueSize),
		metrics: metrics,
		batch:   make([]Record, 0, defaultBatchSize),
	}, nil
}

// Report enqueues every event except ticks.
func (j *Journal) Report(ev schema.Event) {
	if ev.Type == schema.EventTick || ev.Type == schema.EventUnknown {
		return
	}
	if err := j.queue.TryPublish(ev); err != nil {
		j.metrics.IncJournalDrop()
	}
}

// Run persists queued events until ctx is done, then flushes what is left.
func (j *Journal) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		j.queue.Close()
	}()

	j.queue.Run(context.Background(), func(ev schema.Event) {
		rec, err := NewRecord(ev)
		if err != nil {
			logs.Errorf("encode journal record, seq: %d, err: %+v", ev.Seq, err)
			return
		}
		j.batch = append(j.batch, rec)
		if len(j.batch) >= defaultBatchSize || j.queue.Len() == 0 {
			j.flush()
		}
	})
	j.flush()
	return nil
}

func (j *Journal) flush() {
	if len(j.batch) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := j.store.Save(ctx, j.batch); err != nil {
		logs.Errorf("save journal batch, size: %d, err: %+v", len(j.batch), err)
	}
	j.batch = j.batch[:0]
}
