package rendering

import (
	"image"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// RasterizeCaption draws text in white on a transparent buffer sized to fit
// it, using the 7x13 fixed font. Empty text returns nil.
func RasterizeCaption(text string) *image.RGBA {
	if text == "" {
		return nil
	}
	face := basicfont.Face7x13
	m := face.Metrics()
	w := font.MeasureString(face, text).Ceil()
	h := m.Height.Ceil()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	d := font.Drawer{
		Dst:  img,
		Src:  image.White,
		Face: face,
		Dot:  fixed.P(0, m.Ascent.Ceil()),
	}
	d.DrawString(text)
	return img
}
