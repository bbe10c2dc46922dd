package core

import (
	"image"
	"math"
)

// overlayKey identifies one rasterization. Regions that draw nothing all
// collapse to the Global key since their output is the same empty buffer.
type overlayKey struct {
	region RegionID
	temp   uint64
	valid  bool
}

func keyFor(region RegionID, metrics MetricSet) overlayKey {
	if _, ok := LookupRegion(region); !ok {
		return overlayKey{region: Global}
	}
	t, ok := ParseTemperature(metrics.Temperature)
	if !ok {
		return overlayKey{region: region}
	}
	return overlayKey{region: region, temp: math.Float64bits(t), valid: true}
}

// OverlayCache remembers the last rasterized overlay and rebuilds it only
// when the (region, temperature) pair changes.
type OverlayCache struct {
	key    overlayKey
	buf    *image.RGBA
	builds int
}

// NewOverlayCache creates an empty cache; the first Get always rasterizes
func NewOverlayCache() *OverlayCache {
	return &OverlayCache{}
}

// Get returns the overlay for the inputs and whether it was rebuilt.
// A rebuilt buffer is a new allocation; the previous one is dropped.
func (c *OverlayCache) Get(region RegionID, metrics MetricSet) (*image.RGBA, bool) {
	key := keyFor(region, metrics)
	if c.buf != nil && key == c.key {
		return c.buf, false
	}
	c.buf = Rasterize(region, metrics)
	c.key = key
	c.builds++
	return c.buf, true
}

// Builds counts how many times Get had to rasterize
func (c *OverlayCache) Builds() int {
	return c.builds
}
