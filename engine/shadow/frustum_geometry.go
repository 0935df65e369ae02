package shadow

import (
	"math"

	"github.com/Carmen-Shannon/oxy-csm/common"
	"github.com/go-gl/mathgl/mgl32"
)

// Corner indices shared by near and far planes so that index i names the same corner on both.
const (
	CornerTopRight = iota
	CornerBottomRight
	CornerBottomLeft
	CornerTopLeft
)

// PlaneCorners returns the four view-space corners of the frustum cross-section at depth.
// The view looks down +Z; corners are ordered top-right, bottom-right, bottom-left, top-left.
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: width / height
//   - depth: view-space distance of the plane
//
// Returns:
//   - [4]mgl32.Vec3: the corners at z = depth
func PlaneCorners(fovY, aspect, depth float32) [4]mgl32.Vec3 {
	halfH := depth * float32(math.Tan(float64(fovY)/2))
	halfW := halfH * aspect
	return [4]mgl32.Vec3{
		CornerTopRight:    {halfW, halfH, depth},
		CornerBottomRight: {halfW, -halfH, depth},
		CornerBottomLeft:  {-halfW, -halfH, depth},
		CornerTopLeft:     {-halfW, halfH, depth},
	}
}

// SliceCorners returns the world-space corners of the camera frustum between two view depths.
// Indices 0-3 are the near corners and 4-7 the matching far corners.
//
// Parameters:
//   - cam: the camera supplying fov, aspect, and inverse view
//   - near: view-space depth of the slice's near plane
//   - far: view-space depth of the slice's far plane
//
// Returns:
//   - [8]mgl32.Vec3: world-space corners
func SliceCorners(cam CameraView, near, far float32) [8]mgl32.Vec3 {
	inv := cam.InverseViewMatrix()
	fov, aspect := cam.Fov(), cam.Aspect()
	n := PlaneCorners(fov, aspect, near)
	f := PlaneCorners(fov, aspect, far)

	var out [8]mgl32.Vec3
	for i := range 4 {
		out[i] = common.TransformPoint(inv, n[i])
		out[i+4] = common.TransformPoint(inv, f[i])
	}
	return out
}
