package common

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Plane represents a plane in 3D space using the equation: ax + by + cz + d = 0
// where (a, b, c) is the normal and d is the signed offset from the origin.
type Plane struct {
	Normal   mgl32.Vec3
	Distance float32
}

// SignedDistance returns the signed distance from p to the plane.
// Positive values lie on the side the normal points to.
func (p Plane) SignedDistance(pt mgl32.Vec3) float32 {
	return p.Normal.Dot(pt) + p.Distance
}

// Frustum represents the six planes of a view volume.
// Planes are oriented so that positive half-space is inside the frustum.
type Frustum struct {
	Planes [6]Plane // Left, Right, Bottom, Top, Near, Far
}

// FrustumPlane indices for clarity
const (
	FrustumLeft   = 0
	FrustumRight  = 1
	FrustumBottom = 2
	FrustumTop    = 3
	FrustumNear   = 4
	FrustumFar    = 5
)

// ExtractFrustumFromMatrix extracts frustum planes from a view-projection matrix
// whose clip-space depth range is [0, 1].
// Uses the Gribb/Hartmann method for plane extraction.
//
// Reference: https://www8.cs.umu.se/kurser/5DV051/HT12/lab/plane_extraction.pdf
//
// Parameters:
//   - viewProj: the combined projection * view matrix
//
// Returns:
//   - Frustum: the extracted frustum with normalized planes
func ExtractFrustumFromMatrix(viewProj mgl32.Mat4) Frustum {
	row := func(i int) mgl32.Vec4 {
		return mgl32.Vec4{viewProj[i], viewProj[4+i], viewProj[8+i], viewProj[12+i]}
	}
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)

	var f Frustum
	f.Planes[FrustumLeft] = planeFromRow(r3.Add(r0))
	f.Planes[FrustumRight] = planeFromRow(r3.Sub(r0))
	f.Planes[FrustumBottom] = planeFromRow(r3.Add(r1))
	f.Planes[FrustumTop] = planeFromRow(r3.Sub(r1))
	// Zero-to-one depth: the near plane is row 2 alone.
	f.Planes[FrustumNear] = planeFromRow(r2)
	f.Planes[FrustumFar] = planeFromRow(r3.Sub(r2))
	return f
}

// ContainsPoint reports whether pt lies inside the frustum, within tolerance eps.
func (f Frustum) ContainsPoint(pt mgl32.Vec3, eps float32) bool {
	for _, p := range f.Planes {
		if p.SignedDistance(pt) < -eps {
			return false
		}
	}
	return true
}

// IntersectsSphere reports whether a sphere touches or lies inside the frustum.
//
// Parameters:
//   - center: sphere center in the frustum's space
//   - radius: sphere radius
//
// Returns:
//   - bool: false only if the sphere is fully outside at least one plane
func (f Frustum) IntersectsSphere(center mgl32.Vec3, radius float32) bool {
	for _, p := range f.Planes {
		if p.SignedDistance(center) < -radius {
			return false
		}
	}
	return true
}

// planeFromRow builds a normalized plane from a combined matrix row.
func planeFromRow(r mgl32.Vec4) Plane {
	p := Plane{Normal: r.Vec3(), Distance: r[3]}
	length := p.Normal.Len()
	if length > 0 {
		invLen := 1.0 / length
		p.Normal = p.Normal.Mul(invLen)
		p.Distance *= invLen
	}
	return p
}
