package overlay

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"climateglobe/rendering"
	"climateglobe/rendering/opengl/shaders"
)

// caption draws one line of text from a texture that is re-rasterized only
// when the text changes.
type caption struct {
	program  uint32
	projLoc  int32
	fontLoc  int32
	colorLoc int32
	vao      uint32
	vbo      uint32
	texture  uint32

	text          string
	width, height float32
}

func newCaption() (*caption, error) {
	program, err := shaders.BuildCaptionProgram()
	if err != nil {
		return nil, fmt.Errorf("caption shader: %w", err)
	}
	c := &caption{
		program:  program,
		projLoc:  gl.GetUniformLocation(program, gl.Str("projection\x00")),
		fontLoc:  gl.GetUniformLocation(program, gl.Str("fontTexture\x00")),
		colorLoc: gl.GetUniformLocation(program, gl.Str("textColor\x00")),
	}

	gl.GenVertexArrays(1, &c.vao)
	gl.GenBuffers(1, &c.vbo)
	gl.BindVertexArray(c.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, c.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, 6*4*4, nil, gl.DYNAMIC_DRAW)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, 4*4, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(1, 2, gl.FLOAT, false, 4*4, gl.PtrOffset(2*4))
	gl.EnableVertexAttribArray(1)
	gl.BindVertexArray(0)

	gl.GenTextures(1, &c.texture)
	gl.BindTexture(gl.TEXTURE_2D, c.texture)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return c, nil
}

func (c *caption) setText(text string) {
	if text == c.text {
		return
	}
	c.text = text
	img := rendering.RasterizeCaption(text)
	if img == nil {
		c.width, c.height = 0, 0
		return
	}
	b := img.Bounds()
	c.width, c.height = float32(b.Dx()), float32(b.Dy())

	gl.BindTexture(gl.TEXTURE_2D, c.texture)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(b.Dx()), int32(b.Dy()), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 4)
	gl.BindTexture(gl.TEXTURE_2D, 0)
}

// render draws the caption with its top-left corner at (x, y). The caller
// has blending enabled.
func (c *caption) render(projection mgl32.Mat4, x, y float32) {
	if c.width == 0 {
		return
	}
	x1, y1 := x+c.width, y+c.height
	quad := []float32{
		x, y, 0, 0,
		x1, y, 1, 0,
		x, y1, 0, 1,
		x1, y, 1, 0,
		x1, y1, 1, 1,
		x, y1, 0, 1,
	}

	gl.UseProgram(c.program)
	gl.UniformMatrix4fv(c.projLoc, 1, false, &projection[0])
	gl.Uniform4f(c.colorLoc, 1, 1, 1, 0.95)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, c.texture)
	gl.Uniform1i(c.fontLoc, 0)

	gl.BindVertexArray(c.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, c.vbo)
	gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(quad)*4, gl.Ptr(quad))
	gl.DrawArrays(gl.TRIANGLES, 0, 6)
	gl.BindVertexArray(0)
	gl.BindTexture(gl.TEXTURE_2D, 0)
}

func (c *caption) release() {
	if c.program != 0 {
		gl.DeleteProgram(c.program)
	}
	if c.vao != 0 {
		gl.DeleteVertexArrays(1, &c.vao)
	}
	if c.vbo != 0 {
		gl.DeleteBuffers(1, &c.vbo)
	}
	if c.texture != 0 {
		gl.DeleteTextures(1, &c.texture)
	}
}
