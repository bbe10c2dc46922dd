package rendering

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"climateglobe/core"
)

func TestIntersectSphere(t *testing.T) {
	hit, ok := IntersectSphere(mgl32.Vec3{0, 0, 6}, mgl32.Vec3{0, 0, -1}, 2)
	require.True(t, ok)
	assert.InDelta(t, 2, hit[2], 1e-5)

	_, ok = IntersectSphere(mgl32.Vec3{0, 3, 6}, mgl32.Vec3{0, 0, -1}, 2)
	assert.False(t, ok)

	_, ok = IntersectSphere(mgl32.Vec3{0, 0, 6}, mgl32.Vec3{0, 0, 1}, 2)
	assert.False(t, ok, "sphere behind the ray")

	hit, ok = IntersectSphere(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0}, 2)
	require.True(t, ok, "origin inside the sphere")
	assert.InDelta(t, 2, hit[0], 1e-5)
}

func TestPickRegionCenterOverOcean(t *testing.T) {
	c := NewCamera(DefaultCameraSettings())

	res, ok := PickRegion(c, 400, 300, 800, 600, 0)
	require.True(t, ok)
	assert.Equal(t, core.Global, res.Region)
	assert.InDelta(t, 512, res.X, 1)
	assert.InDelta(t, 512, res.Y, 1)
}

func TestPickRegionUndoesGlobeRotation(t *testing.T) {
	c := NewCamera(DefaultCameraSettings())

	res, ok := PickRegion(c, 400, 300, 800, 600, 3*math.Pi/2)
	require.True(t, ok)
	assert.Equal(t, core.RegionID("Africa"), res.Region)
	assert.InDelta(t, 1024, res.X, 1)
	assert.InDelta(t, 0, res.Geo.Lat, 0.5)
}

func TestPickRegionMiss(t *testing.T) {
	c := NewCamera(DefaultCameraSettings())
	_, ok := PickRegion(c, 0, 0, 800, 600, 0)
	assert.False(t, ok)
}

func TestModelMatrixScalesAndRotates(t *testing.T) {
	m := ModelMatrix(math.Pi/2, 1.1)
	p := m.Mul4x1(mgl32.Vec4{2, 0, 0, 1})
	assert.InDelta(t, 0, p[0], 1e-5)
	assert.InDelta(t, -2.2, p[2], 1e-5)

	id := ModelMatrix(0, 0)
	assert.True(t, id.ApproxEqual(mgl32.Ident4()))
}

func TestDefaultLighting(t *testing.T) {
	rig := DefaultLighting()
	assert.InDelta(t, 0.5, rig.AmbientIntensity, 1e-6)
	require.Len(t, rig.Lights, 2)
	assert.LessOrEqual(t, len(rig.Lights), MaxLights)

	point := rig.Lights[0]
	assert.Equal(t, LightTypePoint, point.Type)
	assert.Equal(t, mgl32.Vec3{10, 10, 10}, point.Position)
	assert.InDelta(t, 1.0, point.Intensity, 1e-6)

	dir := rig.Lights[1]
	assert.Equal(t, LightTypeDirectional, dir.Type)
	assert.InDelta(t, 0.8, dir.Intensity, 1e-6)
	d := dir.Direction(mgl32.Vec3{100, 0, 0})
	assert.True(t, d.ApproxEqual(mgl32.Vec3{5, 3, 5}.Normalize()))
}
