package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"bcn-hostel-prices/internal/hostels"
)

func TestArithmeticIdentities(t *testing.T) {
	for _, p := range []float64{0, 1, 55.5, 101, 250.75, 1e6} {
		assert.InDelta(t, 0.8*p, SharedFromPrivate(p), 1e-9, "shared from %v", p)
		assert.InDelta(t, 1.2*p, PrivateFromShared(p), 1e-9, "private from %v", p)
	}
}

func TestHybridUsesMinimum(t *testing.T) {
	shared, private := Hybrid(90, 70, 85)
	assert.Equal(t, 70.0, shared)
	assert.InDelta(t, 84.0, private, 1e-9)

	shared, private = Hybrid(42)
	assert.Equal(t, 42.0, shared)
	assert.InDelta(t, 50.4, private, 1e-9)

	shared, private = Hybrid()
	assert.Zero(t, shared)
	assert.Zero(t, private)
}

func TestNegativeInputsAreClamped(t *testing.T) {
	assert.Zero(t, SharedFromPrivate(-10))
	assert.Zero(t, PrivateFromShared(-10))

	shared, _ := Hybrid(-5, 30)
	assert.Zero(t, shared)
}

func TestQuote(t *testing.T) {
	r := DefaultRules()

	q := r.Quote(hostels.Private, 100)
	assert.Equal(t, 100.0, q.Private)
	assert.InDelta(t, 80.0, q.Shared, 1e-9)
	assert.True(t, q.SharedDerived)
	assert.False(t, q.PrivateDerived)

	q = r.Quote(hostels.Shared, 50)
	assert.Equal(t, 50.0, q.Shared)
	assert.InDelta(t, 60.0, q.Private, 1e-9)
	assert.True(t, q.PrivateDerived)

	q = r.Quote(hostels.Hybrid, 60, 45)
	assert.Equal(t, 45.0, q.Shared)
	assert.InDelta(t, 54.0, q.Private, 1e-9)
	assert.True(t, q.PrivateDerived)
	assert.False(t, q.SharedDerived)
}

func TestNetBreakdown(t *testing.T) {
	// 101€ за двоих: 101 - 11 = 90, комиссия 7.20, итог 82.80
	b := DefaultRules().Net(101, 2)
	assert.InDelta(t, 11.0, b.TouristTax, 1e-9)
	assert.InDelta(t, 7.2, b.Commission, 1e-9)
	assert.InDelta(t, 82.8, b.Net, 1e-9)

	b = DefaultRules().Net(80.8, 1)
	assert.InDelta(t, 5.5, b.TouristTax, 1e-9)
	assert.InDelta(t, 69.276, b.Net, 1e-9)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 82.8, Round2(82.80000001))
	assert.Equal(t, 1.01, Round2(1.005000001))
	assert.Equal(t, 0.0, Round2(0))
}

func TestAggregated(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC) }
	days := []DailyPrice{
		{Date: day(10), Price: 90},
		{Date: day(11), Price: 101},
		{Date: day(12), Price: 0},
		{Date: day(13), Price: 120},
		{Date: day(20), Price: 300},
	}

	agg, ok := Aggregated(days, day(11), day(11))
	assert.True(t, ok)
	assert.False(t, agg.Range)
	assert.Equal(t, 101.0, agg.Value)
	assert.Equal(t, 1, agg.DaysTotal)

	agg, ok = Aggregated(days, day(10), day(13))
	assert.True(t, ok)
	assert.True(t, agg.Range)
	assert.InDelta(t, (90.0+101+120)/3, agg.Value, 1e-9)
	assert.Equal(t, 3, agg.DaysAvailable)
	assert.Equal(t, 4, agg.DaysTotal)

	_, ok = Aggregated(days, day(12), day(12))
	assert.False(t, ok)
}
