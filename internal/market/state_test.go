package market

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hftgate/internal/schema"
)

func TestSlotEmptyUntilPublished(t *testing.T) {
	s := NewSlot()
	snap := s.TakeSnapshot()
	assert.False(t, snap.Valid)
	assert.False(t, snap.Execute)
}

func TestSlotExecuteIsReadAndClear(t *testing.T) {
	s := NewSlot()
	s.Publish(schema.Tick{Seq: 1, Price: 100, Signal: true})

	first := s.TakeSnapshot()
	require.True(t, first.Valid)
	assert.True(t, first.Execute)
	assert.Equal(t, uint16(1), first.Seq)

	second := s.TakeSnapshot()
	assert.False(t, second.Execute)
	assert.Equal(t, uint16(1), second.Seq)
	assert.Equal(t, schema.Price(100), second.Price)
}

func TestSlotZeroSignalDoesNotClearPendingExecute(t *testing.T) {
	s := NewSlot()
	s.Publish(schema.Tick{Seq: 1, Price: 100, Signal: true})
	s.Publish(schema.Tick{Seq: 2, Price: 101})

	snap := s.TakeSnapshot()
	assert.True(t, snap.Execute)
	assert.Equal(t, uint16(2), snap.Seq)
	assert.Equal(t, schema.Price(101), snap.Price)
}

func TestSlotLastValueWins(t *testing.T) {
	s := NewSlot()
	for i := 1; i <= 10; i++ {
		s.Publish(schema.Tick{Seq: uint16(i), Price: schema.Price(i * 10)})
	}
	snap := s.TakeSnapshot()
	assert.Equal(t, uint16(10), snap.Seq)
	assert.Equal(t, schema.Price(100), snap.Price)
}

func TestSlotNeverTearsSeqAndPrice(t *testing.T) {
	s := NewSlot()
	const n = 20000

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 1; i <= n; i++ {
			// price is always derived from seq so a torn read is detectable
			s.Publish(schema.Tick{Seq: uint16(i), Price: schema.Price(uint16(i) ^ 0x5555)})
		}
	}()

	for i := 0; i < n; i++ {
		snap := s.TakeSnapshot()
		if !snap.Valid {
			continue
		}
		require.Equal(t, schema.Price(snap.Seq^0x5555), snap.Price)
	}
	wg.Wait()
}
