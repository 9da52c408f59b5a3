package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"hftgate/internal/schema"
)

func TestEngineDeniesWhenLocked(t *testing.T) {
	e := NewEngine(Config{})
	d := e.Evaluate(1000, StateView{Locked: true})
	assert.False(t, d.Allowed())
	assert.Equal(t, ReasonBreakerLocked, d.Reason)
}

func TestEngineAllowsWhenArmed(t *testing.T) {
	e := NewEngine(Config{})
	d := e.Evaluate(1000, StateView{Position: 1 << 40})
	assert.True(t, d.Allowed())
	assert.Equal(t, ReasonNone, d.Reason)
}

func TestEngineKillSwitch(t *testing.T) {
	e := NewEngine(Config{KillSwitch: true})
	d := e.Evaluate(1000, StateView{})
	assert.Equal(t, ReasonKillSwitch, d.Reason)
}

func TestEnginePositionLimit(t *testing.T) {
	e := NewEngine(Config{MaxPosition: schema.Quantity(2500)})
	assert.True(t, e.Evaluate(1000, StateView{Position: 1000}).Allowed())

	d := e.Evaluate(1000, StateView{Position: 2000})
	assert.False(t, d.Allowed())
	assert.Equal(t, ReasonPositionLimit, d.Reason)
}
