package common

import (
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// WorldUp is the engine's world-space up axis. Y is up in world and clip space.
var WorldUp = mgl32.Vec3{0, 1, 0}

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
}

// LookAtLH builds a left-handed view matrix looking from eye toward center.
// View space has +X right, +Y up, and +Z forward.
//
// Parameters:
//   - eye: viewer position in world space
//   - center: point the viewer looks at
//   - up: approximate up direction, must not be parallel to center-eye
//
// Returns:
//   - mgl32.Mat4: the column-major view matrix
func LookAtLH(eye, center, up mgl32.Vec3) mgl32.Mat4 {
	f := center.Sub(eye).Normalize()
	s := up.Cross(f).Normalize()
	u := f.Cross(s)

	return mgl32.Mat4{
		s[0], u[0], f[0], 0,
		s[1], u[1], f[1], 0,
		s[2], u[2], f[2], 0,
		-s.Dot(eye), -u.Dot(eye), -f.Dot(eye), 1,
	}
}

// OrthoLHZO builds a left-handed orthographic projection mapping view-space depth
// [near, far] to clip-space Z [0, 1], matching the WebGPU depth range.
//
// Parameters:
//   - left, right: view-space X bounds
//   - bottom, top: view-space Y bounds
//   - near, far: view-space Z bounds
//
// Returns:
//   - mgl32.Mat4: the column-major projection matrix
func OrthoLHZO(left, right, bottom, top, near, far float32) mgl32.Mat4 {
	rl := right - left
	tb := top - bottom
	fn := far - near

	m := mgl32.Ident4()
	m[0] = 2 / rl
	m[5] = 2 / tb
	m[10] = 1 / fn
	m[12] = -(right + left) / rl
	m[13] = -(top + bottom) / tb
	m[14] = -near / fn
	return m
}

// PerspectiveLHZO builds a left-handed perspective projection with clip-space Z in [0, 1].
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: viewport aspect ratio (width/height)
//   - near: near clipping plane distance (must be > 0)
//   - far: far clipping plane distance (must be > near)
//
// Returns:
//   - mgl32.Mat4: the column-major projection matrix
func PerspectiveLHZO(fovY, aspect, near, far float32) mgl32.Mat4 {
	tanHalf := float32(math.Tan(float64(fovY) / 2))

	var m mgl32.Mat4
	m[0] = 1 / (aspect * tanHalf)
	m[5] = 1 / tanHalf
	m[10] = far / (far - near)
	m[11] = 1
	m[14] = -(far * near) / (far - near)
	return m
}

// ViewYXZ builds a view matrix and its inverse from a position and Tait-Bryan
// rotation applied in Y (yaw), X (pitch), Z (roll) order.
//
// Parameters:
//   - position: viewer position in world space
//   - rotation: rotation angles in radians around X, Y, and Z
//
// Returns:
//   - view: the world-to-view matrix
//   - inverse: the view-to-world matrix
func ViewYXZ(position, rotation mgl32.Vec3) (view, inverse mgl32.Mat4) {
	c3 := float32(math.Cos(float64(rotation.Z())))
	s3 := float32(math.Sin(float64(rotation.Z())))
	c2 := float32(math.Cos(float64(rotation.X())))
	s2 := float32(math.Sin(float64(rotation.X())))
	c1 := float32(math.Cos(float64(rotation.Y())))
	s1 := float32(math.Sin(float64(rotation.Y())))

	u := mgl32.Vec3{c1*c3 + s1*s2*s3, c2 * s3, c1*s2*s3 - c3*s1}
	v := mgl32.Vec3{c3*s1*s2 - c1*s3, c2 * c3, c1*c3*s2 + s1*s3}
	w := mgl32.Vec3{c2 * s1, -s2, c1 * c2}

	view = mgl32.Mat4{
		u[0], v[0], w[0], 0,
		u[1], v[1], w[1], 0,
		u[2], v[2], w[2], 0,
		-u.Dot(position), -v.Dot(position), -w.Dot(position), 1,
	}
	inverse = mgl32.Mat4{
		u[0], u[1], u[2], 0,
		v[0], v[1], v[2], 0,
		w[0], w[1], w[2], 0,
		position[0], position[1], position[2], 1,
	}
	return view, inverse
}

// BuildModelMatrix constructs a model matrix from position, Euler rotation, and scale.
// The rotation order is Y * X * Z (yaw-pitch-roll).
//
// Parameters:
//   - position: translation in world space
//   - rotation: rotation angles in radians around each axis
//   - scale: scale factors along each axis
//
// Returns:
//   - mgl32.Mat4: the column-major model matrix
func BuildModelMatrix(position, rotation, scale mgl32.Vec3) mgl32.Mat4 {
	return mgl32.Translate3D(position[0], position[1], position[2]).
		Mul4(mgl32.HomogRotate3DY(rotation[1])).
		Mul4(mgl32.HomogRotate3DX(rotation[0])).
		Mul4(mgl32.HomogRotate3DZ(rotation[2])).
		Mul4(mgl32.Scale3D(scale[0], scale[1], scale[2]))
}

// TransformPoint applies m to p as a homogeneous point (w = 1) and drops w.
// No perspective divide is performed.
func TransformPoint(m mgl32.Mat4, p mgl32.Vec3) mgl32.Vec3 {
	return m.Mul4x1(p.Vec4(1)).Vec3()
}

// ProjectPoint applies m to p as a homogeneous point and performs the perspective divide.
func ProjectPoint(m mgl32.Mat4, p mgl32.Vec3) mgl32.Vec3 {
	h := m.Mul4x1(p.Vec4(1))
	if h[3] == 0 {
		return h.Vec3()
	}
	return h.Vec3().Mul(1 / h[3])
}
