package report

import (
	"fmt"
	"io"
	"sync"

	"hftgate/internal/schema"
)

const lockedTag = "!! LOCKED !!"

// Console renders the operator dashboard: a carriage-return refreshed tick
// line and one line per discrete event.
type Console struct {
	mu         sync.Mutex
	w          io.Writer
	instrument string
}

// NewConsole writes to w. instrument is shown on fill lines.
func NewConsole(w io.Writer, instrument string) *Console {
	return &Console{w: w, instrument: instrument}
}

func (c *Console) Report(ev schema.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch ev.Type {
	case schema.EventTick:
		tag := ev.Status.String()
		if ev.Status == schema.StatusLocked {
			tag = lockedTag
		}
		fmt.Fprintf(c.w, " TICK: %05d | PRICE: $%s | VOL: %.2f [%s] \r", ev.Seq, ev.Price, ev.Volatility, tag)
	case schema.EventBreakerTrip:
		fmt.Fprintf(c.w, "\n[!!!] CIRCUIT BREAKER TRIPPED: Volatility %.2f exceeds threshold!\n", ev.Volatility)
	case schema.EventBreakerReset:
		fmt.Fprint(c.w, "\n[OK] Volatility stabilized. Circuit breaker reset.\n")
	case schema.EventExecutionRejected:
		if ev.Reason == "" || ev.Reason == "breaker_locked" {
			fmt.Fprintf(c.w, "\n[REJECTED] Seq %d | Trade blocked by Circuit Breaker!\n", ev.Seq)
		} else {
			fmt.Fprintf(c.w, "\n[REJECTED] Seq %d | Trade blocked: %s\n", ev.Seq, ev.Reason)
		}
	case schema.EventExecutionFilled:
		fmt.Fprintf(c.w, "\n[EXECUTE] Seq %d | Price: $%s\n", ev.Seq, ev.Price)
		fmt.Fprintf(c.w, ">>> ORDER FILLED | Position: LONG %s %s\n", ev.Qty, c.instrument)
	}
}
