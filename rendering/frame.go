package rendering

import (
	"github.com/go-gl/mathgl/mgl32"

	"climateglobe/core"
)

// Legend summarises the current selection for the on-screen key
type Legend struct {
	Region      core.RegionID
	Scale       core.Scale
	Highlighted bool
	Zoom        float32
}

// Frame is everything a backend reads to draw one frame
type Frame struct {
	State      *RenderState
	GlobeAngle float64
	CloudAngle float64
	Camera     *Camera
	Lights     LightingRig
	Legend     Legend
}

// Interaction receives viewport events that change the selection.
// Backends call it from the render thread while polling input.
type Interaction interface {
	SelectRegion(id core.RegionID)
	CycleRegion(step int)
}

// ModelMatrix returns the transform of a shell rotated about the Y axis
func ModelMatrix(angle float64, scale float32) mgl32.Mat4 {
	if scale <= 0 {
		scale = 1
	}
	return mgl32.HomogRotate3DY(float32(angle)).Mul4(mgl32.Scale3D(scale, scale, scale))
}
