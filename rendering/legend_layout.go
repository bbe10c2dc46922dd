package rendering

import (
	"fmt"
	"image/color"

	"climateglobe/core"
)

// LegendVertexStride is the float count per legend vertex: position(2) color(4)
const LegendVertexStride = 6

// Legend panel geometry in screen pixels, anchored top-left
const (
	legendMargin  = 10
	legendWidth   = 220
	legendHeight  = 86
	legendPadding = 10
	swatchSize    = 24
	tierBarHeight = 10
	zoomBarHeight = 6
)

// Caption position inside the panel: under the tier bars, right of the swatch
const (
	CaptionX = legendMargin + legendPadding + swatchSize + legendPadding
	CaptionY = legendMargin + legendPadding + tierBarHeight + 16
)

var (
	legendBackground = color.NRGBA{R: 15, G: 23, B: 42, A: 191}
	legendOutline    = color.NRGBA{R: 255, G: 255, B: 255, A: 220}
	legendInactive   = color.NRGBA{R: 100, G: 116, B: 139, A: 255}
	legendZoom       = color.NRGBA{R: 147, G: 197, B: 253, A: 255}
)

// LegendQuads lays out the on-screen key as colored triangles ready for a
// VBO. The panel holds the current swatch, one bar per tier with the active
// tier outlined, and a bar showing how far the camera is zoomed in.
func LegendQuads(l Legend, width, height float32) []float32 {
	if width < legendWidth+2*legendMargin || height < legendHeight+2*legendMargin {
		return nil
	}

	var v []float32
	x0 := float32(legendMargin)
	y0 := float32(legendMargin)
	v = appendQuad(v, x0, y0, legendWidth, legendHeight, legendBackground)

	sx := x0 + legendPadding
	sy := y0 + legendPadding
	swatch := legendInactive
	if l.Highlighted {
		swatch = l.Scale.Fill
	}
	v = appendQuad(v, sx, sy, swatchSize, swatchSize, swatch)

	tiers := []core.Tier{core.TierNominal, core.TierElevated, core.TierSevere}
	barX := sx + swatchSize + legendPadding
	barW := (x0 + legendWidth - legendPadding - barX) / float32(len(tiers))
	for i, t := range tiers {
		bx := barX + float32(i)*barW
		if l.Highlighted && t == l.Scale.Tier {
			v = appendQuad(v, bx, sy-2, barW-2, tierBarHeight+4, legendOutline)
		}
		v = appendQuad(v, bx+1, sy, barW-4, tierBarHeight, core.ColorFor(tierSample(t)).Fill)
	}

	zy := y0 + legendHeight - legendPadding - zoomBarHeight
	zw := float32(legendWidth - 2*legendPadding)
	v = appendQuad(v, sx, zy, zw, zoomBarHeight, legendInactive)
	if z := clamp01(l.Zoom); z > 0 {
		v = appendQuad(v, sx, zy, zw*z, zoomBarHeight, legendZoom)
	}
	return v
}

// LegendCaption is the text under the tier bars: the region, plus its tier
// when something is highlighted.
func LegendCaption(l Legend) string {
	if l.Region == "" {
		return string(core.Global)
	}
	if !l.Highlighted {
		return string(l.Region)
	}
	return fmt.Sprintf("%s  %s", l.Region, l.Scale.Tier)
}

// tierSample returns a temperature that falls inside tier t
func tierSample(t core.Tier) float64 {
	switch t {
	case core.TierSevere:
		return core.ElevatedMax + 1
	case core.TierElevated:
		return core.ElevatedMax
	default:
		return 0
	}
}

func appendQuad(v []float32, x, y, w, h float32, c color.NRGBA) []float32 {
	r := float32(c.R) / 255
	g := float32(c.G) / 255
	b := float32(c.B) / 255
	a := float32(c.A) / 255
	return append(v,
		x, y, r, g, b, a,
		x+w, y, r, g, b, a,
		x, y+h, r, g, b, a,
		x+w, y, r, g, b, a,
		x+w, y+h, r, g, b, a,
		x, y+h, r, g, b, a,
	)
}

func clamp01(f float32) float32 {
	if f < 0 || f != f {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
