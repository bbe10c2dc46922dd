package animation

import (
	"math"
	"time"
)

const (
	// BaseRate is the globe spin in radians per second
	BaseRate = 0.05
	// CloudRateFactor makes the cloud shell drift ahead of the surface
	CloudRateFactor = 1.4
)

const twoPi = 2 * math.Pi

// Rotation advances the globe and cloud angles about the vertical axis.
// The two angles are separate fields written only by Advance; nothing else
// in the frame path touches them.
type Rotation struct {
	rate   float64
	globe  float64
	clouds float64

	// unwrapped totals, kept for ordering checks and diagnostics
	globeTotal  float64
	cloudsTotal float64
}

// NewRotation creates a rotation spinning at rate rad/s; non-positive rates
// fall back to BaseRate.
func NewRotation(rate float64) *Rotation {
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		rate = BaseRate
	}
	return &Rotation{rate: rate}
}

// Advance moves both angles forward by dt. Negative deltas are ignored so
// the angles never run backwards.
func (r *Rotation) Advance(dt time.Duration) {
	if dt <= 0 {
		return
	}
	secs := dt.Seconds()
	dGlobe := secs * r.rate
	dClouds := secs * r.rate * CloudRateFactor

	r.globeTotal += dGlobe
	r.cloudsTotal += dClouds
	r.globe = wrap(r.globe + dGlobe)
	r.clouds = wrap(r.clouds + dClouds)
}

// Globe returns the surface angle in [0, 2π)
func (r *Rotation) Globe() float64 { return r.globe }

// Clouds returns the cloud shell angle in [0, 2π)
func (r *Rotation) Clouds() float64 { return r.clouds }

// Rate returns the globe spin rate in rad/s
func (r *Rotation) Rate() float64 { return r.rate }

// Totals returns the unwrapped angles accumulated since creation
func (r *Rotation) Totals() (globe, clouds float64) {
	return r.globeTotal, r.cloudsTotal
}

func wrap(a float64) float64 {
	a = math.Mod(a, twoPi)
	if a < 0 {
		a += twoPi
	}
	return a
}
