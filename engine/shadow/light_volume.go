package shadow

import (
	"math"

	"github.com/Carmen-Shannon/oxy-csm/common"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// degenerateUpThreshold is the |cos| above which the light is treated as parallel to world up.
	degenerateUpThreshold = 0.99

	// radiusQuantum is the granularity the bounding radius is rounded up to.
	// Quantizing keeps the ortho extent stable while the camera moves slightly.
	radiusQuantum = 1.0 / 16.0
)

// FallbackUp is the up vector used when the light direction is near-parallel to world up.
var FallbackUp = mgl32.Vec3{0, 0, 1}

// LightVolume is the light-space bounding volume fitted around one frustum slice.
type LightVolume struct {
	Center mgl32.Vec3
	Radius float32
	Eye    mgl32.Vec3
	Up     mgl32.Vec3
	View   mgl32.Mat4
	Proj   mgl32.Mat4
}

// SelectUpVector picks the up vector for a light looking along dir.
//
// Parameters:
//   - dir: normalized light travel direction
//
// Returns:
//   - mgl32.Vec3: world up, or FallbackUp when |dot(dir, up)| > 0.99
func SelectUpVector(dir mgl32.Vec3) mgl32.Vec3 {
	if abs32(dir.Dot(common.WorldUp)) > degenerateUpThreshold {
		return FallbackUp
	}
	return common.WorldUp
}

// FitLightVolume fits a bounding sphere around corners and builds the light view and
// orthographic projection that contain it.
//
// The eye sits radius units behind the centroid along -dir and the projection spans
// [-r, r] on X and Y and [0, 2r] in depth, so every corner maps into clip space.
// The projection's Y scale is negated to match the shadow map's texel orientation.
//
// Parameters:
//   - corners: the 8 world-space corners of a frustum slice
//   - dir: normalized direction the light travels (from the light toward the scene)
//
// Returns:
//   - LightVolume: center, quantized radius, and the view/projection pair
func FitLightVolume(corners [8]mgl32.Vec3, dir mgl32.Vec3) LightVolume {
	var center mgl32.Vec3
	for _, c := range corners {
		center = center.Add(c)
	}
	center = center.Mul(1.0 / float32(len(corners)))

	var radius float32
	for _, c := range corners {
		radius = max(radius, c.Sub(center).Len())
	}
	radius = float32(math.Ceil(float64(radius)/radiusQuantum) * radiusQuantum)
	radius = max(radius, radiusQuantum)

	up := SelectUpVector(dir)
	eye := center.Sub(dir.Mul(radius))

	view := common.LookAtLH(eye, center, up)
	proj := common.OrthoLHZO(-radius, radius, -radius, radius, 0, 2*radius)
	proj[5] *= -1

	return LightVolume{
		Center: center,
		Radius: radius,
		Eye:    eye,
		Up:     up,
		View:   view,
		Proj:   proj,
	}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
