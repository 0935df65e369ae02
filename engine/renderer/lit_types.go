package renderer

import (
	_ "embed"
	"encoding/binary"
	"math"

	"github.com/Carmen-Shannon/oxy-csm/engine/camera"
	"github.com/Carmen-Shannon/oxy-csm/engine/light"
	"github.com/Carmen-Shannon/oxy-csm/engine/model"
	"github.com/Carmen-Shannon/oxy-csm/engine/shadow"
	"github.com/go-gl/mathgl/mgl32"
)

//go:embed assets/lit.wgsl
var litSource string

// Bind group indices of the lit forward pass.
const (
	LitGroupFrame  = 0
	LitGroupDraw   = 1
	LitGroupShadow = 2
)

const (
	// litDrawStride is the byte distance between per-draw constant slots of the lit ring.
	litDrawStride = 256

	// defaultLitDrawCapacity is the initial slot count of the lit draw ring.
	defaultLitDrawCapacity = 256
)

// LitShaderSource assembles the WGSL of the lit forward pass: the camera, light, and vertex
// declarations, the shadow sampling functions bound at LitGroupShadow, then the pass itself.
//
// Parameters:
//   - cascadeCount: number of active shadow cascades
//
// Returns:
//   - string: the complete shader source
func LitShaderSource(cascadeCount int) string {
	return camera.GPUCameraUniformSource + "\n" +
		light.GPULightSource + "\n" +
		model.GPUVertexSource + "\n" +
		shadow.SamplingShaderSource(LitGroupShadow, cascadeCount) + "\n" +
		litSource
}

// LitDraw is one object of the lit pass: its transform, flat albedo, and the meshes it draws.
type LitDraw struct {
	Model  mgl32.Mat4
	Color  mgl32.Vec4
	Meshes []shadow.Mesh
}

// LitFrame is everything the lit pass consumes for one frame.
type LitFrame struct {
	// Camera is the packed camera uniform for this frame.
	Camera camera.GPUCameraUniform
	// Ambient is the scene ambient color written into the light buffer header.
	Ambient mgl32.Vec3
	Lights  []light.Light
	// ShadowGroup is the shadow system's bind group for this frame's slot.
	ShadowGroup shadow.BindGroup
	Draws       []LitDraw
}

// GPULitDrawConstants mirrors the WGSL DrawConstants struct of the lit pass:
//
//	struct DrawConstants {
//	    model:        mat4x4<f32>,
//	    normalMatrix: mat4x4<f32>,
//	    color:        vec4<f32>,
//	};
type GPULitDrawConstants struct {
	Model        mgl32.Mat4
	NormalMatrix mgl32.Mat4
	Color        mgl32.Vec4
}

// NewGPULitDrawConstants derives the normal matrix from model.
func NewGPULitDrawConstants(modelMatrix mgl32.Mat4, color mgl32.Vec4) GPULitDrawConstants {
	return GPULitDrawConstants{
		Model:        modelMatrix,
		NormalMatrix: modelMatrix.Mat3().Inv().Transpose().Mat4(),
		Color:        color,
	}
}

// Size returns the WGSL size of DrawConstants (144).
func (d *GPULitDrawConstants) Size() uint64 {
	return 2*64 + 16
}

// MarshalInto writes the constants into dst, which must hold at least Size bytes.
func (d *GPULitDrawConstants) MarshalInto(dst []byte) {
	for m, mat := range [2]mgl32.Mat4{d.Model, d.NormalMatrix} {
		for i := range 16 {
			binary.LittleEndian.PutUint32(dst[m*64+i*4:], math.Float32bits(mat[i]))
		}
	}
	for i := range 4 {
		binary.LittleEndian.PutUint32(dst[128+i*4:], math.Float32bits(d.Color[i]))
	}
}
