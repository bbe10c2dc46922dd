package animation

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestFrameClock_Tick(t *testing.T) {
	clock := clockwork.NewFakeClock()
	f := NewFrameClock(clock)

	assert.Zero(t, f.Tick())

	clock.Advance(16 * time.Millisecond)
	assert.Equal(t, 16*time.Millisecond, f.Tick())

	assert.Zero(t, f.Tick())

	clock.Advance(time.Second)
	assert.Equal(t, time.Second, f.Tick())
}

func TestFrameClock_Since(t *testing.T) {
	clock := clockwork.NewFakeClock()
	f := NewFrameClock(clock)
	start := f.Now()
	clock.Advance(3 * time.Millisecond)
	assert.Equal(t, 3*time.Millisecond, f.Since(start))
}

func TestFrameClock_NilUsesRealClock(t *testing.T) {
	f := NewFrameClock(nil)
	f.Tick()
	assert.GreaterOrEqual(t, f.Tick(), time.Duration(0))
}
