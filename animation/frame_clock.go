package animation

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// FrameClock turns wall-clock readings into per-frame deltas
type FrameClock struct {
	clock   clockwork.Clock
	last    time.Time
	started bool
}

// NewFrameClock wraps a clock; pass clockwork.NewRealClock() in production
func NewFrameClock(clock clockwork.Clock) *FrameClock {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &FrameClock{clock: clock}
}

// Tick returns the time since the previous Tick. The first call returns 0.
func (f *FrameClock) Tick() time.Duration {
	now := f.clock.Now()
	if !f.started {
		f.started = true
		f.last = now
		return 0
	}
	dt := now.Sub(f.last)
	f.last = now
	if dt < 0 {
		return 0
	}
	return dt
}

// Now exposes the underlying clock for timing measurements
func (f *FrameClock) Now() time.Time {
	return f.clock.Now()
}

// Since measures elapsed time on the underlying clock
func (f *FrameClock) Since(t time.Time) time.Duration {
	return f.clock.Since(t)
}
