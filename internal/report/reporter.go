package report

import "hftgate/internal/schema"

// Reporter receives every observable outcome of the strategy loop.
// Implementations must not block the caller for long.
type Reporter interface {
	Report(ev schema.Event)
}

// Func adapts a function to Reporter.
type Func func(ev schema.Event)

func (f Func) Report(ev schema.Event) {
	f(ev)
}

// Multi fans an event out to several reporters in order.
type Multi []Reporter

func (m Multi) Report(ev schema.Event) {
	for _, r := range m {
		if r != nil {
			r.Report(ev)
		}
	}
}

// Discard drops every event.
var Discard Reporter = Func(func(schema.Event) {})
