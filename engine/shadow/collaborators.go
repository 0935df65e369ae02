package shadow

import "github.com/go-gl/mathgl/mgl32"

// CameraView is the read-only camera state consumed once per frame.
type CameraView interface {
	// Near returns the near clip distance (> 0).
	Near() float32
	// Far returns the far clip distance.
	Far() float32
	// Fov returns the vertical field of view in radians.
	Fov() float32
	// Aspect returns width / height.
	Aspect() float32
	// InverseViewMatrix returns the view-to-world transform.
	InverseViewMatrix() mgl32.Mat4
}

// Mesh is a drawable range of vertex and optional index data.
type Mesh interface {
	VertexBuffer() Buffer
	// IndexBuffer returns the uint32 index buffer, or nil when IndexCount is 0.
	IndexBuffer() Buffer
	VertexCount() uint32
	IndexCount() uint32
}

// Caster is a scene object that can be rendered into the shadow cascades.
type Caster interface {
	ModelMatrix() mgl32.Mat4
	Meshes() []Mesh
	CastsShadow() bool
}
