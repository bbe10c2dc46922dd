package core

import (
	"math"
)

// SphereVertexStride is the float count per vertex: position(3) normal(3) uv(2)
const SphereVertexStride = 8

// SphereMesh is an interleaved UV sphere ready for upload
type SphereMesh struct {
	Vertices []float32
	Indices  []uint32
}

// GenerateSphereData generates vertex and index data for a UV sphere.
// Triangles wind counter-clockwise seen from outside. u runs eastward from
// the -X axis and v runs from the north pole (0) to the south pole (1), so
// an equirectangular image maps on without mirroring.
func GenerateSphereData(radius float32, segments, rings int) SphereMesh {
	if segments <= 0 {
		segments = 64
	}
	if rings <= 0 {
		rings = 32
	}

	mesh := SphereMesh{
		Vertices: make([]float32, 0, (rings+1)*(segments+1)*SphereVertexStride),
		Indices:  make([]uint32, 0, rings*segments*6),
	}

	for ring := 0; ring <= rings; ring++ {
		theta := float64(ring) * math.Pi / float64(rings)
		sinTheta := float32(math.Sin(theta))
		cosTheta := float32(math.Cos(theta))

		for seg := 0; seg <= segments; seg++ {
			phi := float64(seg) * 2.0 * math.Pi / float64(segments)
			sinPhi := float32(math.Sin(phi))
			cosPhi := float32(math.Cos(phi))

			x := -cosPhi * sinTheta
			y := cosTheta
			z := sinPhi * sinTheta

			u := float32(seg) / float32(segments)
			v := float32(ring) / float32(rings)

			mesh.Vertices = append(mesh.Vertices,
				x*radius, y*radius, z*radius,
				x, y, z,
				u, v,
			)
		}
	}

	for ring := 0; ring < rings; ring++ {
		for seg := 0; seg < segments; seg++ {
			current := uint32(ring*(segments+1) + seg)
			next := current + uint32(segments) + 1

			mesh.Indices = append(mesh.Indices,
				current, next, current+1,
				current+1, next, next+1,
			)
		}
	}

	return mesh
}

// VertexCount returns the number of vertices in the mesh
func (m SphereMesh) VertexCount() int {
	return len(m.Vertices) / SphereVertexStride
}

// SphereUV inverts the mapping used by GenerateSphereData for a point in
// the sphere's model space. Both results are in [0, 1).
func SphereUV(x, y, z float64) (u, v float64) {
	r := math.Sqrt(x*x + y*y + z*z)
	if r < 1e-12 {
		return 0, 0
	}
	phi := math.Atan2(z, -x)
	if phi < 0 {
		phi += 2 * math.Pi
	}
	theta := math.Acos(math.Max(-1, math.Min(1, y/r)))
	u = phi / (2 * math.Pi)
	v = theta / math.Pi
	if u >= 1 {
		u = 0
	}
	if v >= 1 {
		v = math.Nextafter(1, 0)
	}
	return u, v
}

// UVToPixel scales texture coordinates onto the overlay canvas
func UVToPixel(u, v float64) (int, int) {
	x := int(math.Floor(u * OverlayWidth))
	y := int(math.Floor(v * OverlayHeight))
	return clampInt(x, 0, OverlayWidth-1), clampInt(y, 0, OverlayHeight-1)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
