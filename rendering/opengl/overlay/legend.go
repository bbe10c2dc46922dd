package overlay

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"climateglobe/rendering"
	"climateglobe/rendering/opengl/shaders"
)

// Legend draws the region key in screen space on top of the globe
type Legend struct {
	program  uint32
	projLoc  int32
	vao      uint32
	vbo      uint32
	vertices int32
	caption  *caption

	width  float32
	height float32
}

// NewLegend creates the legend renderer for a viewport size
func NewLegend(width, height int) (*Legend, error) {
	program, err := shaders.BuildLegendProgram()
	if err != nil {
		return nil, fmt.Errorf("legend shader: %w", err)
	}

	l := &Legend{
		program: program,
		projLoc: gl.GetUniformLocation(program, gl.Str("projection\x00")),
		width:   float32(width),
		height:  float32(height),
	}

	gl.GenVertexArrays(1, &l.vao)
	gl.GenBuffers(1, &l.vbo)

	gl.BindVertexArray(l.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, l.vbo)

	stride := int32(rendering.LegendVertexStride * 4)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, stride, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(1, 4, gl.FLOAT, false, stride, gl.PtrOffset(2*4))
	gl.EnableVertexAttribArray(1)

	gl.BindVertexArray(0)

	if l.caption, err = newCaption(); err != nil {
		l.Release()
		return nil, err
	}
	return l, nil
}

// Update rebuilds the vertex buffer for the current selection
func (l *Legend) Update(state rendering.Legend) {
	vertices := rendering.LegendQuads(state, l.width, l.height)
	l.vertices = int32(len(vertices) / rendering.LegendVertexStride)
	if l.vertices == 0 {
		return
	}
	l.caption.setText(rendering.LegendCaption(state))
	gl.BindBuffer(gl.ARRAY_BUFFER, l.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.DYNAMIC_DRAW)
}

// Render draws the last uploaded legend
func (l *Legend) Render() {
	if l.vertices == 0 {
		return
	}

	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.CULL_FACE)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)

	gl.UseProgram(l.program)
	projection := mgl32.Ortho2D(0, l.width, l.height, 0)
	gl.UniformMatrix4fv(l.projLoc, 1, false, &projection[0])

	gl.BindVertexArray(l.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, l.vertices)
	gl.BindVertexArray(0)

	l.caption.render(projection, rendering.CaptionX, rendering.CaptionY)

	gl.Disable(gl.BLEND)
	gl.Enable(gl.CULL_FACE)
	gl.Enable(gl.DEPTH_TEST)
}

// UpdateSize updates viewport size
func (l *Legend) UpdateSize(width, height int) {
	l.width = float32(width)
	l.height = float32(height)
}

// Release cleans up resources
func (l *Legend) Release() {
	if l.program != 0 {
		gl.DeleteProgram(l.program)
	}
	if l.vao != 0 {
		gl.DeleteVertexArrays(1, &l.vao)
	}
	if l.vbo != 0 {
		gl.DeleteBuffers(1, &l.vbo)
	}
	if l.caption != nil {
		l.caption.release()
	}
}
