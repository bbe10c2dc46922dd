//go:build raylib

package raylib

import (
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"

	"climateglobe/rendering"
)

// drawLegend replays the shared legend layout as raylib rectangles and puts
// the caption in the same spot the GL backend does.
func drawLegend(l rendering.Legend) {
	w, h := rl.GetScreenWidth(), rl.GetScreenHeight()
	v := rendering.LegendQuads(l, float32(w), float32(h))

	quad := rendering.LegendVertexStride * 6
	for i := 0; i+quad <= len(v); i += quad {
		x0, y0 := v[i], v[i+1]
		far := v[i+4*rendering.LegendVertexStride:]
		x1, y1 := far[0], far[1]
		c := color.RGBA{
			R: uint8(v[i+2] * 255),
			G: uint8(v[i+3] * 255),
			B: uint8(v[i+4] * 255),
			A: uint8(v[i+5] * 255),
		}
		rl.DrawRectangle(int32(x0), int32(y0), int32(x1-x0), int32(y1-y0), c)
	}

	if len(v) == 0 {
		return
	}
	rl.DrawText(rendering.LegendCaption(l), rendering.CaptionX, rendering.CaptionY, 13, rl.RayWhite)
}
