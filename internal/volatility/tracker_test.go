package volatility

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hftgate/internal/schema"
)

func populationStdDev(prices []schema.Price) float64 {
	var sum float64
	for _, p := range prices {
		sum += float64(p)
	}
	mean := sum / float64(len(prices))
	var sq float64
	for _, p := range prices {
		sq += (float64(p) - mean) * (float64(p) - mean)
	}
	return math.Sqrt(sq / float64(len(prices)))
}

func TestVolatilityZeroBelowWindow(t *testing.T) {
	tr := NewTracker()
	for i := 0; i < DefaultWindow-1; i++ {
		tr.Push(schema.Price(i * 1000))
		assert.Zero(t, tr.Volatility())
	}
}

func TestVolatilityUsesOnlyLastWindow(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	tr := NewTracker()
	var all []schema.Price
	for i := 0; i < 250; i++ {
		p := schema.Price(rng.Intn(60000))
		tr.Push(p)
		all = append(all, p)
		if len(all) < DefaultWindow {
			continue
		}
		want := populationStdDev(all[len(all)-DefaultWindow:])
		require.InDelta(t, want, tr.Volatility(), 1e-9)
	}
}

func TestVolatilityPopulationNotSample(t *testing.T) {
	tr := NewTracker()
	// ten at 0 and ten at 2: population stddev is exactly 1
	for i := 0; i < 10; i++ {
		tr.Push(0)
	}
	for i := 0; i < 10; i++ {
		tr.Push(2)
	}
	assert.InDelta(t, 1.0, tr.Volatility(), 1e-12)
}

func TestHistoryBoundedWithFIFOEviction(t *testing.T) {
	tr := NewTracker()
	for i := 0; i < 130; i++ {
		tr.Push(schema.Price(i))
		require.LessOrEqual(t, tr.Len(), DefaultCapacity)
	}
	prices := tr.Prices()
	require.Len(t, prices, DefaultCapacity)
	assert.Equal(t, schema.Price(30), prices[0])
	assert.Equal(t, schema.Price(129), prices[len(prices)-1])
}

func TestSpikeEntersWindow(t *testing.T) {
	tr := NewTracker()
	for i := 0; i < 20; i++ {
		tr.Push(100)
	}
	assert.Zero(t, tr.Volatility())

	tr.Push(300)
	// 19 at 100 and one at 300: mean 110, variance (19*100+36100)/20 = 1900
	assert.InDelta(t, math.Sqrt(1900), tr.Volatility(), 1e-9)
	assert.Greater(t, tr.Volatility(), 35.0)
}

func TestNewTrackerSizeClampsWindow(t *testing.T) {
	tr := NewTrackerSize(5, 10)
	for i := 0; i < 5; i++ {
		tr.Push(schema.Price(i))
	}
	assert.InDelta(t, populationStdDev([]schema.Price{0, 1, 2, 3, 4}), tr.Volatility(), 1e-12)
}
