package report

import (
	"github.com/yanun0323/logs"

	"hftgate/internal/schema"
)

// Log writes discrete events through the structured logger. Ticks are
// skipped.
type Log struct{}

func (Log) Report(ev schema.Event) {
	switch ev.Type {
	case schema.EventBreakerTrip:
		logs.Infof("breaker tripped, seq: %d, volatility: %.2f", ev.Seq, ev.Volatility)
	case schema.EventBreakerReset:
		logs.Infof("breaker reset, seq: %d, volatility: %.2f", ev.Seq, ev.Volatility)
	case schema.EventExecutionRejected:
		logs.Infof("execution rejected, seq: %d, reason: %s", ev.Seq, ev.Reason)
	case schema.EventExecutionFilled:
		logs.Infof("execution filled, seq: %d, price: %s, qty: %s, position: %s", ev.Seq, ev.Price, ev.Qty, ev.Position)
	}
}
