package core

import (
	"image"
	"image/color"
	"image/draw"
	"math"
)

// GlowPadding is how far the halo extends past the region rectangle, in pixels
const GlowPadding = 50

// NewOverlayBuffer allocates a fully transparent buffer at reference size
func NewOverlayBuffer() *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, OverlayWidth, OverlayHeight))
}

// Rasterize builds the climate overlay for a region. The result depends only
// on the region and the parsed temperature, so equal inputs give equal pixels.
// Global and unregistered regions produce a transparent buffer.
func Rasterize(region RegionID, metrics MetricSet) *image.RGBA {
	buf := NewOverlayBuffer()
	if region == Global {
		return buf
	}
	bounds, ok := LookupRegion(region)
	if !ok {
		return buf
	}
	return paintHighlight(buf, bounds, ColorForText(metrics.Temperature))
}

// paintHighlight fills the region and then paints the halo on top of it so
// the hard edge of the fill gets softened.
func paintHighlight(dst *image.RGBA, b Bounds, scale Scale) *image.RGBA {
	fill := b.Rect().Intersect(dst.Bounds())
	draw.Draw(dst, fill, image.NewUniform(scale.Fill), image.Point{}, draw.Src)

	cx, cy := b.Center()
	glow := &RadialGradient{
		CX:     cx,
		CY:     cy,
		Radius: math.Max(float64(b.W), float64(b.H)) / 2,
		Inner:  scale.Glow,
	}
	halo := b.Rect().Inset(-GlowPadding).Intersect(dst.Bounds())
	draw.Draw(dst, halo, glow, halo.Min, draw.Over)
	return dst
}

// RadialGradient is an unbounded image that fades Inner at (CX, CY) linearly
// to transparent at Radius. Pixels are sampled at their centers.
type RadialGradient struct {
	CX, CY float64
	Radius float64
	Inner  color.NRGBA
}

func (g *RadialGradient) ColorModel() color.Model {
	return color.NRGBAModel
}

func (g *RadialGradient) Bounds() image.Rectangle {
	return image.Rectangle{Min: image.Point{X: -1e9, Y: -1e9}, Max: image.Point{X: 1e9, Y: 1e9}}
}

func (g *RadialGradient) At(x, y int) color.Color {
	if g.Radius <= 0 {
		return color.NRGBA{}
	}
	d := math.Hypot(float64(x)+0.5-g.CX, float64(y)+0.5-g.CY)
	t := d / g.Radius
	if t >= 1 {
		return color.NRGBA{}
	}
	c := g.Inner
	c.A = uint8(math.Round(float64(g.Inner.A) * (1 - t)))
	return c
}
