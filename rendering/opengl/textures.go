package opengl

import (
	"errors"
	"fmt"
	"image"
	"image/draw"

	"github.com/go-gl/gl/v4.1-core/gl"

	"climateglobe/rendering"
)

// TextureUploader moves RGBA buffers into GL textures. It must be used on
// the goroutine that owns the GL context.
type TextureUploader struct {
	live int
}

var errEmptyImage = errors.New("empty image")

// Upload creates a mipmapped RGBA8 texture from img
func (u *TextureUploader) Upload(img *image.RGBA) (rendering.Texture, error) {
	if img == nil || img.Bounds().Empty() {
		return rendering.Texture{}, errEmptyImage
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if img.Stride != w*4 || b.Min != (image.Point{}) {
		packed := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.Draw(packed, packed.Bounds(), img, b.Min, draw.Src)
		img = packed
	}

	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_2D, id)

	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)

	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 4)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(w), int32(h), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	if code := gl.GetError(); code != gl.NO_ERROR {
		gl.DeleteTextures(1, &id)
		return rendering.Texture{}, fmt.Errorf("glTexImage2D %dx%d: error 0x%x", w, h, code)
	}

	u.live++
	return rendering.Texture{ID: id, Width: w, Height: h}, nil
}

// Release deletes the GL texture behind tex
func (u *TextureUploader) Release(tex rendering.Texture) {
	if !tex.Valid() {
		return
	}
	id := tex.ID
	gl.DeleteTextures(1, &id)
	u.live--
}

// Live returns how many textures this uploader currently owns
func (u *TextureUploader) Live() int {
	return u.live
}

// bindTexture binds tex on a texture unit and points sampler at it.
// It reports whether a texture was bound.
func bindTexture(unit uint32, tex rendering.Texture, samplerLoc int32) bool {
	gl.ActiveTexture(gl.TEXTURE0 + unit)
	gl.BindTexture(gl.TEXTURE_2D, tex.ID)
	gl.Uniform1i(samplerLoc, int32(unit))
	return tex.Valid()
}
