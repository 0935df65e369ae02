package shadow

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// MaxCascades is the number of cascade slots in the GPU uniform layout.
const MaxCascades = 4

const (
	mat4Size = 64

	// DrawConstantsStride is the byte distance between draw-constant slots in the ring buffer.
	// It matches the WebGPU default minUniformBufferOffsetAlignment.
	DrawConstantsStride = 256
)

// GPUShadowUniform mirrors the WGSL ShadowUniform struct:
//
//	struct ShadowUniform {
//	    proj:   array<mat4x4<f32>, 4>,
//	    view:   array<mat4x4<f32>, 4>,
//	    splits: vec4<f32>,
//	};
type GPUShadowUniform struct {
	Proj   [MaxCascades]mgl32.Mat4
	View   [MaxCascades]mgl32.Mat4
	Splits [MaxCascades]float32
}

// Size returns the byte size of the uniform (528).
func (u *GPUShadowUniform) Size() uint64 {
	return 2*MaxCascades*mat4Size + 4*MaxCascades
}

// MarshalProj serializes cascade i's projection matrix, to be written at ProjOffset(i).
func (u *GPUShadowUniform) MarshalProj(i int) []byte {
	buf := make([]byte, mat4Size)
	putMat4(buf, u.Proj[i])
	return buf
}

// MarshalView serializes cascade i's view matrix, to be written at ViewOffset(i).
func (u *GPUShadowUniform) MarshalView(i int) []byte {
	buf := make([]byte, mat4Size)
	putMat4(buf, u.View[i])
	return buf
}

// MarshalSplits serializes only the split vector.
func (u *GPUShadowUniform) MarshalSplits() []byte {
	buf := make([]byte, 4*MaxCascades)
	for i, s := range u.Splits {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(s))
	}
	return buf
}

// ProjOffset returns the byte offset of cascade i's projection matrix.
func ProjOffset(i int) uint64 { return uint64(i) * mat4Size }

// ViewOffset returns the byte offset of cascade i's view matrix.
func ViewOffset(i int) uint64 { return uint64(MaxCascades+i) * mat4Size }

// SplitsOffset returns the byte offset of the split vector.
func SplitsOffset() uint64 { return 2 * MaxCascades * mat4Size }

// GPUDrawConstants mirrors the WGSL DrawConstants struct and replaces a push-constant block:
//
//	struct DrawConstants {
//	    model:   mat4x4<f32>,
//	    cascade: u32,
//	};
type GPUDrawConstants struct {
	Model   mgl32.Mat4
	Cascade uint32
}

// Size returns the WGSL size of DrawConstants (80, padded to 16-byte alignment).
func (d *GPUDrawConstants) Size() uint64 {
	return 80
}

// MarshalInto writes the constants into dst, which must hold at least Size bytes.
// Padding bytes are zeroed.
func (d *GPUDrawConstants) MarshalInto(dst []byte) {
	putMat4(dst, d.Model)
	binary.LittleEndian.PutUint32(dst[64:], d.Cascade)
	clear(dst[68:80])
}

func putMat4(dst []byte, m mgl32.Mat4) {
	for i, v := range m {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v))
	}
}
