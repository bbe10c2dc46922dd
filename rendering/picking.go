package rendering

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"climateglobe/core"
)

// GlobeRadius is the radius of the globe mesh in world units
const GlobeRadius = 2.0

// IntersectSphere performs ray-sphere intersection against a sphere at the
// origin and returns the nearest hit in front of the ray.
func IntersectSphere(origin, dir mgl32.Vec3, radius float32) (mgl32.Vec3, bool) {
	a := dir.Dot(dir)
	b := 2.0 * origin.Dot(dir)
	c := origin.Dot(origin) - radius*radius
	discriminant := b*b - 4*a*c
	if discriminant < 0 || a == 0 {
		return mgl32.Vec3{}, false
	}

	sqrtD := float32(math.Sqrt(float64(discriminant)))
	t := (-b - sqrtD) / (2.0 * a)
	if t < 0 {
		t = (-b + sqrtD) / (2.0 * a)
		if t < 0 {
			return mgl32.Vec3{}, false
		}
	}
	return origin.Add(dir.Mul(t)), true
}

// PickResult describes what lies under the pointer
type PickResult struct {
	Region core.RegionID
	X, Y   int // overlay pixel
	Geo    core.Geographic
}

// PickRegion casts a ray through a window position and reports the region
// under it. The globe angle undoes the mesh rotation so the hit lands on the
// right texel. Points on the globe outside every region resolve to Global;
// a miss reports false.
func PickRegion(cam *Camera, x, y float64, width, height int, globeAngle float64) (PickResult, bool) {
	origin, dir := cam.Ray(x, y, width, height)
	hit, ok := IntersectSphere(origin, dir, GlobeRadius)
	if !ok {
		return PickResult{}, false
	}

	local := mgl32.HomogRotate3DY(float32(-globeAngle)).Mul4x1(hit.Vec4(1)).Vec3()
	u, v := core.SphereUV(float64(local[0]), float64(local[1]), float64(local[2]))
	px, py := core.UVToPixel(u, v)

	res := PickResult{
		Region: core.Global,
		X:      px,
		Y:      py,
		Geo:    core.PixelToGeographic(float64(px), float64(py)),
	}
	if id, found := core.RegionAt(px, py); found {
		res.Region = id
	}
	return res, true
}
