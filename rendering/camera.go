package rendering

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// Orbit constraints for the viewport camera
const (
	DefaultDistance    = 6.0
	DefaultMinDistance = 4.0
	DefaultMaxDistance = 8.0
	DefaultFOV         = 45.0

	// DefaultAutoRotateSpeed matches one revolution per 120 s
	DefaultAutoRotateSpeed = 0.5

	// DefaultRotateSpeed is radians of orbit per pixel of drag
	DefaultRotateSpeed = 0.008

	maxPitch = math.Pi/2 - 0.01
)

// CameraSettings configures a Camera
type CameraSettings struct {
	Distance        float64
	MinDistance     float64
	MaxDistance     float64
	FOV             float64 // vertical, degrees
	AutoRotate      bool
	AutoRotateSpeed float64
	RotateSpeed     float64
}

// DefaultCameraSettings returns the stock orbit configuration
func DefaultCameraSettings() CameraSettings {
	return CameraSettings{
		Distance:        DefaultDistance,
		MinDistance:     DefaultMinDistance,
		MaxDistance:     DefaultMaxDistance,
		FOV:             DefaultFOV,
		AutoRotate:      false,
		AutoRotateSpeed: DefaultAutoRotateSpeed,
		RotateSpeed:     DefaultRotateSpeed,
	}
}

// Camera orbits the origin. Yaw and pitch come from pointer drags, distance
// from the scroll wheel. Panning is not supported: the target is always the
// globe center.
type Camera struct {
	yaw      float64
	pitch    float64
	distance float64

	minDistance float64
	maxDistance float64
	fov         float64
	rotateSpeed float64

	AutoRotate      bool
	AutoRotateSpeed float64
}

// NewCamera creates a camera looking down -Z at the origin
func NewCamera(s CameraSettings) *Camera {
	d := DefaultCameraSettings()
	if s.MinDistance <= 0 {
		s.MinDistance = d.MinDistance
	}
	if s.MaxDistance < s.MinDistance {
		s.MaxDistance = s.MinDistance
	}
	if s.FOV <= 0 || s.FOV >= 180 {
		s.FOV = d.FOV
	}
	if s.RotateSpeed <= 0 {
		s.RotateSpeed = d.RotateSpeed
	}
	c := &Camera{
		minDistance:     s.MinDistance,
		maxDistance:     s.MaxDistance,
		fov:             s.FOV,
		rotateSpeed:     s.RotateSpeed,
		AutoRotate:      s.AutoRotate,
		AutoRotateSpeed: s.AutoRotateSpeed,
	}
	c.SetDistance(s.Distance)
	return c
}

// Distance returns the current distance from the globe center
func (c *Camera) Distance() float64 { return c.distance }

// DistanceRange returns the zoom limits
func (c *Camera) DistanceRange() (float64, float64) { return c.minDistance, c.maxDistance }

// Orbit returns yaw and pitch in radians
func (c *Camera) Orbit() (yaw, pitch float64) { return c.yaw, c.pitch }

// FOV returns the vertical field of view in degrees
func (c *Camera) FOV() float64 { return c.fov }

// SetDistance moves the camera, clamped to the zoom range
func (c *Camera) SetDistance(d float64) {
	if math.IsNaN(d) {
		d = c.distance
	}
	c.distance = math.Max(c.minDistance, math.Min(c.maxDistance, d))
}

// Zoom dollies by scroll wheel notches; positive moves closer
func (c *Camera) Zoom(notches float64) {
	if math.IsNaN(notches) || math.IsInf(notches, 0) {
		if math.IsInf(notches, 1) {
			c.SetDistance(c.minDistance)
		} else if math.IsInf(notches, -1) {
			c.SetDistance(c.maxDistance)
		}
		return
	}
	c.SetDistance(c.distance * math.Pow(0.95, notches))
}

// Drag orbits the camera by a pointer movement in pixels
func (c *Camera) Drag(dx, dy float64) {
	if math.IsNaN(dx) || math.IsNaN(dy) {
		return
	}
	c.yaw = wrapAngle(c.yaw - dx*c.rotateSpeed)
	c.pitch = math.Max(-maxPitch, math.Min(maxPitch, c.pitch+dy*c.rotateSpeed))
}

// Update applies auto-rotation for one frame
func (c *Camera) Update(dt time.Duration) {
	if !c.AutoRotate || dt <= 0 {
		return
	}
	c.yaw = wrapAngle(c.yaw - 2*math.Pi/60*c.AutoRotateSpeed*dt.Seconds())
}

// ZoomFraction maps the distance onto [0, 1], 1 being fully zoomed in
func (c *Camera) ZoomFraction() float64 {
	span := c.maxDistance - c.minDistance
	if span <= 0 {
		return 1
	}
	return (c.maxDistance - c.distance) / span
}

// Position returns the camera location in world space
func (c *Camera) Position() mgl32.Vec3 {
	cp := math.Cos(c.pitch)
	return mgl32.Vec3{
		float32(c.distance * cp * math.Sin(c.yaw)),
		float32(c.distance * math.Sin(c.pitch)),
		float32(c.distance * cp * math.Cos(c.yaw)),
	}
}

// View returns the look-at matrix toward the origin
func (c *Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position(), mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0})
}

// Projection returns the perspective matrix for a viewport aspect ratio
func (c *Camera) Projection(aspect float32) mgl32.Mat4 {
	if aspect <= 0 {
		aspect = 1
	}
	return mgl32.Perspective(mgl32.DegToRad(float32(c.fov)), aspect, 0.1, 1000.0)
}

// Ray converts a window position into a world-space ray
func (c *Camera) Ray(x, y float64, width, height int) (origin, dir mgl32.Vec3) {
	if width <= 0 || height <= 0 {
		return c.Position(), c.Position().Mul(-1).Normalize()
	}
	ndcX := float32(2.0*x/float64(width) - 1.0)
	ndcY := float32(1.0 - 2.0*y/float64(height))

	invViewProj := c.Projection(float32(width) / float32(height)).Mul4(c.View()).Inv()

	near := invViewProj.Mul4x1(mgl32.Vec4{ndcX, ndcY, -1, 1})
	far := invViewProj.Mul4x1(mgl32.Vec4{ndcX, ndcY, 1, 1})
	near = near.Mul(1 / near[3])
	far = far.Mul(1 / far[3])

	origin = near.Vec3()
	dir = far.Vec3().Sub(origin).Normalize()
	return origin, dir
}

func wrapAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}
