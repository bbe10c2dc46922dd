package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupRegion(t *testing.T) {
	tests := []struct {
		id   RegionID
		want Bounds
	}{
		{"North America", Bounds{X: 400, Y: 100, W: 600, H: 300}},
		{"Europe", Bounds{X: 900, Y: 100, W: 300, H: 200}},
		{"Asia", Bounds{X: 1200, Y: 100, W: 500, H: 400}},
		{"Africa", Bounds{X: 900, Y: 300, W: 300, H: 400}},
		{"South America", Bounds{X: 600, Y: 400, W: 300, H: 400}},
		{"Oceania", Bounds{X: 1400, Y: 500, W: 400, H: 300}},
	}

	for _, tc := range tests {
		t.Run(string(tc.id), func(t *testing.T) {
			got, ok := LookupRegion(tc.id)
			require.True(t, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestLookupRegion_Missing(t *testing.T) {
	for _, id := range []RegionID{Global, "", "Atlantis", "asia"} {
		_, ok := LookupRegion(id)
		assert.False(t, ok, "region %q", id)
	}
}

func TestRegionIDs_AllRegisteredAndInCanvas(t *testing.T) {
	ids := RegionIDs()
	require.Len(t, ids, len(regionTable))

	canvas := NewOverlayBuffer().Bounds()
	for _, id := range ids {
		b, ok := LookupRegion(id)
		require.True(t, ok, "region %q", id)
		assert.True(t, b.Rect().In(canvas), "region %q outside canvas", id)
		assert.Positive(t, b.Area())
	}
}

func TestRegionIDs_ReturnsCopy(t *testing.T) {
	ids := RegionIDs()
	ids[0] = "Mars"
	assert.Equal(t, RegionID("North America"), RegionIDs()[0])
}

func TestRegionAt(t *testing.T) {
	tests := []struct {
		name   string
		x, y   int
		want   RegionID
		wantOK bool
	}{
		{"inside north america only", 500, 200, "North America", true},
		{"europe wins overlap with north america", 950, 150, "Europe", true},
		{"africa wins overlap with north america", 950, 350, "Africa", true},
		{"asia", 1450, 300, "Asia", true},
		{"oceania", 1500, 600, "Oceania", true},
		{"south america", 700, 500, "South America", true},
		{"pacific", 100, 500, "", false},
		{"right edge is exclusive", 1700, 200, "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := RegionAt(tc.x, tc.y)
			assert.Equal(t, tc.wantOK, ok)
			if tc.wantOK {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}
