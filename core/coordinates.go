package core

import (
	"math"
)

// Geographic represents a position in geographic coordinates
type Geographic struct {
	Lat float64 // Latitude in degrees [-90, 90], positive = north
	Lon float64 // Longitude in degrees [-180, 180), positive = east
}

// DegreesToRadians converts degrees to radians
func DegreesToRadians(degrees float64) float64 {
	return degrees * math.Pi / 180.0
}

// RadiansToDegrees converts radians to degrees
func RadiansToDegrees(radians float64) float64 {
	return radians * 180.0 / math.Pi
}

// PixelToGeographic converts overlay pixel coordinates to latitude/longitude.
// The canvas is equirectangular: x=0 is 180°W, y=0 is the north pole.
func PixelToGeographic(x, y float64) Geographic {
	return Geographic{
		Lat: 90.0 - y/OverlayHeight*180.0,
		Lon: x/OverlayWidth*360.0 - 180.0,
	}
}

// GeographicToPixel converts latitude/longitude to overlay pixel coordinates.
// Longitudes outside [-180, 180) wrap; latitudes are clamped to the poles.
func GeographicToPixel(g Geographic) (float64, float64) {
	lon := math.Mod(g.Lon+180.0, 360.0)
	if lon < 0 {
		lon += 360.0
	}
	lat := math.Max(-90, math.Min(90, g.Lat))
	return lon / 360.0 * OverlayWidth, (90.0 - lat) / 180.0 * OverlayHeight
}

// BoundsGeographic returns the north-west and south-east corners of a region
func BoundsGeographic(b Bounds) (nw, se Geographic) {
	nw = PixelToGeographic(float64(b.X), float64(b.Y))
	se = PixelToGeographic(float64(b.X+b.W), float64(b.Y+b.H))
	return nw, se
}

// GeographicToSphere places a geographic position on the globe mesh, using
// the same mapping GenerateSphereData lays the overlay out with.
func GeographicToSphere(g Geographic, radius float64) (x, y, z float64) {
	px, py := GeographicToPixel(g)
	phi := px / OverlayWidth * 2 * math.Pi
	theta := py / OverlayHeight * math.Pi
	x = -math.Cos(phi) * math.Sin(theta) * radius
	y = math.Cos(theta) * radius
	z = math.Sin(phi) * math.Sin(theta) * radius
	return x, y, z
}
