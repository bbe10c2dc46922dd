package rendering

import (
	"github.com/go-gl/mathgl/mgl32"
)

// LightType defines the type of light source
type LightType int

const (
	LightTypePoint LightType = iota
	LightTypeDirectional
)

// Light represents a light source
type Light struct {
	Type      LightType
	Position  mgl32.Vec3 // point: location; directional: where the light comes from
	Color     mgl32.Vec3
	Intensity float32
}

// LightingRig is the fixed light setup of the scene
type LightingRig struct {
	Lights           []Light
	AmbientColor     mgl32.Vec3
	AmbientIntensity float32
}

// MaxLights is how many lights the globe shaders accept
const MaxLights = 4

// DefaultLighting is a soft ambient fill, a point light high on the right
// and a directional key light.
func DefaultLighting() LightingRig {
	return LightingRig{
		Lights: []Light{
			{
				Type:      LightTypePoint,
				Position:  mgl32.Vec3{10, 10, 10},
				Color:     mgl32.Vec3{1, 1, 1},
				Intensity: 1.0,
			},
			{
				Type:      LightTypeDirectional,
				Position:  mgl32.Vec3{5, 3, 5},
				Color:     mgl32.Vec3{1, 1, 1},
				Intensity: 0.8,
			},
		},
		AmbientColor:     mgl32.Vec3{1, 1, 1},
		AmbientIntensity: 0.5,
	}
}

// Direction returns the unit vector pointing from the surface toward the
// light at point p.
func (l Light) Direction(p mgl32.Vec3) mgl32.Vec3 {
	if l.Type == LightTypeDirectional {
		return l.Position.Normalize()
	}
	return l.Position.Sub(p).Normalize()
}
