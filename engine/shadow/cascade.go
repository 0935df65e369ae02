package shadow

import "github.com/go-gl/mathgl/mgl32"

// Cascade is one depth slice of the camera frustum together with the light-space
// transforms used to render and sample it. Index i matches uniform slot i and depth layer i.
type Cascade struct {
	Index     int
	SplitNear float32
	SplitFar  float32
	Center    mgl32.Vec3
	Radius    float32
	View      mgl32.Mat4
	Proj      mgl32.Mat4
}

// ViewProj returns Proj * View.
func (c Cascade) ViewProj() mgl32.Mat4 {
	return c.Proj.Mul4(c.View)
}

// FrameState is everything the shadow pass reads for a single frame.
// It is passed by value through Render; the shadow system keeps no per-frame fields.
type FrameState struct {
	// FrameIndex selects the in-flight resource slot (taken modulo frames in flight).
	FrameIndex int
	// Camera supplies clip distances, projection parameters, and the inverse view.
	Camera CameraView
	// LightDirection is the normalized direction the sun's light travels.
	LightDirection mgl32.Vec3
	// Casters are the scene objects drawn into every cascade.
	Casters []Caster
}

// ComputeCascades derives the split ranges and light volumes for the current camera.
// It is a pure function of its inputs: identical inputs yield identical matrices.
//
// Parameters:
//   - cam: the camera for this frame
//   - lightDir: normalized light travel direction
//   - count: number of cascades
//   - lambda: split blend factor
//
// Returns:
//   - []Cascade: count cascades ordered near to far
func ComputeCascades(cam CameraView, lightDir mgl32.Vec3, count int, lambda float32) []Cascade {
	near := cam.Near()
	splits := ComputeSplitDepths(near, cam.Far(), count, lambda)

	cascades := make([]Cascade, count)
	last := near
	for i, split := range splits {
		vol := FitLightVolume(SliceCorners(cam, last, split), lightDir)
		cascades[i] = Cascade{
			Index:     i,
			SplitNear: last,
			SplitFar:  split,
			Center:    vol.Center,
			Radius:    vol.Radius,
			View:      vol.View,
			Proj:      vol.Proj,
		}
		last = split
	}
	return cascades
}
