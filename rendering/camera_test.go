package rendering

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewCameraDefaults(t *testing.T) {
	c := NewCamera(DefaultCameraSettings())

	assert.Equal(t, 6.0, c.Distance())
	lo, hi := c.DistanceRange()
	assert.Equal(t, 4.0, lo)
	assert.Equal(t, 8.0, hi)
	assert.Equal(t, 45.0, c.FOV())
	assert.False(t, c.AutoRotate)

	pos := c.Position()
	assert.InDelta(t, 0, pos[0], 1e-5)
	assert.InDelta(t, 0, pos[1], 1e-5)
	assert.InDelta(t, 6, pos[2], 1e-5)
}

func TestCameraDistanceStaysInRange(t *testing.T) {
	c := NewCamera(DefaultCameraSettings())

	for _, notches := range []float64{1, 5, 100, -3, -100, 0.5, math.Inf(1), math.Inf(-1), math.NaN()} {
		c.Zoom(notches)
		assert.GreaterOrEqual(t, c.Distance(), 4.0)
		assert.LessOrEqual(t, c.Distance(), 8.0)
	}

	c.SetDistance(0)
	assert.Equal(t, 4.0, c.Distance())
	c.SetDistance(50)
	assert.Equal(t, 8.0, c.Distance())
	c.SetDistance(math.NaN())
	assert.Equal(t, 8.0, c.Distance())
}

func TestCameraZoomDirection(t *testing.T) {
	c := NewCamera(DefaultCameraSettings())
	c.Zoom(1)
	assert.Less(t, c.Distance(), 6.0)
	c.Zoom(-2)
	assert.Greater(t, c.Distance(), 6.0)
}

func TestCameraInitialDistanceClamped(t *testing.T) {
	s := DefaultCameraSettings()
	s.Distance = 20
	assert.Equal(t, 8.0, NewCamera(s).Distance())
}

func TestCameraDragClampsPitch(t *testing.T) {
	c := NewCamera(DefaultCameraSettings())

	c.Drag(0, 10000)
	_, pitch := c.Orbit()
	assert.Less(t, pitch, math.Pi/2)

	c.Drag(0, -20000)
	_, pitch = c.Orbit()
	assert.Greater(t, pitch, -math.Pi/2)

	c.Drag(100, 0)
	yaw, _ := c.Orbit()
	assert.GreaterOrEqual(t, yaw, 0.0)
	assert.Less(t, yaw, 2*math.Pi)
}

func TestCameraAutoRotate(t *testing.T) {
	c := NewCamera(DefaultCameraSettings())

	c.Update(time.Second)
	yaw, _ := c.Orbit()
	assert.Equal(t, 0.0, yaw, "auto-rotate is off by default")

	c.AutoRotate = true
	c.Update(time.Second)
	yaw, _ = c.Orbit()
	assert.InDelta(t, 2*math.Pi-2*math.Pi/60*0.5, yaw, 1e-9)

	c.Update(-time.Second)
	yaw2, _ := c.Orbit()
	assert.Equal(t, yaw, yaw2)
}

func TestCameraZoomFraction(t *testing.T) {
	c := NewCamera(DefaultCameraSettings())
	assert.InDelta(t, 0.5, c.ZoomFraction(), 1e-9)
	c.SetDistance(4)
	assert.InDelta(t, 1.0, c.ZoomFraction(), 1e-9)
}

func TestCameraRayThroughCenter(t *testing.T) {
	c := NewCamera(DefaultCameraSettings())
	origin, dir := c.Ray(400, 300, 800, 600)

	assert.InDelta(t, 0, origin[0], 1e-3)
	assert.InDelta(t, 0, origin[1], 1e-3)
	assert.InDelta(t, 0, dir[0], 1e-4)
	assert.InDelta(t, 0, dir[1], 1e-4)
	assert.InDelta(t, -1, dir[2], 1e-4)
}
