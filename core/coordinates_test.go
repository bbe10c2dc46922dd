package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestPixelGeographicConversions documents the equirectangular layout
func TestPixelGeographicConversions(t *testing.T) {
	tests := []struct {
		name    string
		x, y    float64
		lat     float64
		lon     float64
		epsilon float64
	}{
		{"North-west corner", 0, 0, 90, -180, 1e-9},
		{"Center", 1024, 512, 0, 0, 1e-9},
		{"South edge", 1024, 1024, -90, 0, 1e-9},
		{"Quarter east", 1536, 256, 45, 90, 1e-9},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := PixelToGeographic(tc.x, tc.y)
			assert.InDelta(t, tc.lat, g.Lat, tc.epsilon)
			assert.InDelta(t, tc.lon, g.Lon, tc.epsilon)

			x, y := GeographicToPixel(g)
			assert.InDelta(t, tc.x, x, 1e-6)
			assert.InDelta(t, tc.y, y, 1e-6)
		})
	}
}

func TestGeographicToPixel_WrapsAndClamps(t *testing.T) {
	x, y := GeographicToPixel(Geographic{Lat: 120, Lon: 190})
	assert.InDelta(t, 10.0/360.0*OverlayWidth, x, 1e-6)
	assert.InDelta(t, 0, y, 1e-9)

	x, _ = GeographicToPixel(Geographic{Lon: -190})
	assert.InDelta(t, 350.0/360.0*OverlayWidth, x, 1e-6)
}

func TestBoundsGeographic(t *testing.T) {
	b, _ := LookupRegion("Europe")
	nw, se := BoundsGeographic(b)
	assert.Greater(t, nw.Lat, se.Lat)
	assert.Less(t, nw.Lon, se.Lon)
	assert.InDelta(t, 90-100.0/1024*180, nw.Lat, 1e-9)
}

func TestDegreesRadians(t *testing.T) {
	assert.InDelta(t, 180.0, RadiansToDegrees(DegreesToRadians(180)), 1e-12)
}

// TestGeographicToSphereMatchesMesh checks that placing a point on the sphere
// and reading its UV back lands on the same overlay pixel.
func TestGeographicToSphereMatchesMesh(t *testing.T) {
	points := []Geographic{
		{Lat: 0, Lon: 0},
		{Lat: 45, Lon: 90},
		{Lat: -30, Lon: -120},
		{Lat: 60, Lon: 170},
	}
	for _, g := range points {
		x, y, z := GeographicToSphere(g, 2)
		assert.InDelta(t, 2.0, math.Sqrt(x*x+y*y+z*z), 1e-9)

		u, v := SphereUV(x, y, z)
		px, py := UVToPixel(u, v)
		wantX, wantY := GeographicToPixel(g)
		assert.InDelta(t, wantX, float64(px), 1, "lon %v", g.Lon)
		assert.InDelta(t, wantY, float64(py), 1, "lat %v", g.Lat)
	}

	_, y, _ := GeographicToSphere(Geographic{Lat: 90}, 1)
	assert.InDelta(t, 1.0, y, 1e-9)
}
