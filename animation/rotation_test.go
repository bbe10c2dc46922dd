package animation

import (
	"math"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRotation_AdvanceRates(t *testing.T) {
	r := NewRotation(BaseRate)
	r.Advance(10 * time.Second)

	assert.InDelta(t, 0.5, r.Globe(), 1e-12)
	assert.InDelta(t, 0.7, r.Clouds(), 1e-12)
}

func TestRotation_CloudsFasterForAnyPositiveStep(t *testing.T) {
	for _, dt := range []time.Duration{time.Nanosecond, time.Millisecond, 16 * time.Millisecond, time.Hour} {
		r := NewRotation(BaseRate)
		r.Advance(dt)
		globe, clouds := r.Totals()
		assert.Greater(t, clouds, globe, "dt=%v", dt)
	}
}

func TestRotation_WrapsIntoRange(t *testing.T) {
	r := NewRotation(1)
	for i := 0; i < 1000; i++ {
		r.Advance(100 * time.Millisecond)
		require.GreaterOrEqual(t, r.Globe(), 0.0)
		require.Less(t, r.Globe(), 2*math.Pi)
		require.GreaterOrEqual(t, r.Clouds(), 0.0)
		require.Less(t, r.Clouds(), 2*math.Pi)
	}
	globe, _ := r.Totals()
	assert.InDelta(t, 100.0, globe, 1e-9)
	assert.InDelta(t, math.Mod(100, 2*math.Pi), r.Globe(), 1e-9)
}

func TestRotation_MonotonicWithElapsedTime(t *testing.T) {
	clock := clockwork.NewFakeClock()
	frames := NewFrameClock(clock)
	r := NewRotation(BaseRate)

	r.Advance(frames.Tick())
	prevGlobe, prevClouds := r.Totals()
	for i := 0; i < 600; i++ {
		clock.Advance(time.Duration(i%5) * 4 * time.Millisecond)
		r.Advance(frames.Tick())
		globe, clouds := r.Totals()
		require.GreaterOrEqual(t, globe, prevGlobe)
		require.GreaterOrEqual(t, clouds, prevClouds)
		prevGlobe, prevClouds = globe, clouds
	}
}

func TestRotation_IgnoresNonPositiveDelta(t *testing.T) {
	r := NewRotation(BaseRate)
	r.Advance(time.Second)
	before := r.Globe()
	r.Advance(-5 * time.Second)
	r.Advance(0)
	assert.Equal(t, before, r.Globe())
}

func TestNewRotation_InvalidRateFallsBack(t *testing.T) {
	for _, rate := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		assert.Equal(t, BaseRate, NewRotation(rate).Rate())
	}
}
