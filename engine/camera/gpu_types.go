package camera

import (
	_ "embed"
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// GPUCameraUniformSource is the canonical WGSL definition of the CameraUniform struct.
// Matches GPUCameraUniform layout exactly (208 bytes).
//
//go:embed assets/camera_uniform.wgsl
var GPUCameraUniformSource string

// GPUCameraUniform is the GPU-aligned representation of the camera uniform buffer.
// Matches the WGSL CameraUniform struct layout exactly (see GPUCameraUniformSource).
type GPUCameraUniform struct {
	Projection  mgl32.Mat4 // offset   0
	View        mgl32.Mat4 // offset  64
	InverseView mgl32.Mat4 // offset 128
	// Ambient is the ambient light color in xyz and its intensity in w.
	Ambient mgl32.Vec4 // offset 192
}

// NewGPUCameraUniform fills the uniform from a camera's current matrices.
//
// Parameters:
//   - c: the camera to read
//   - ambient: ambient color with intensity in w
//
// Returns:
//   - GPUCameraUniform: the populated uniform
func NewGPUCameraUniform(c Camera, ambient mgl32.Vec4) GPUCameraUniform {
	return GPUCameraUniform{
		Projection:  c.ProjectionMatrix(),
		View:        c.ViewMatrix(),
		InverseView: c.InverseViewMatrix(),
		Ambient:     ambient,
	}
}

// Size returns the size of the GPUCameraUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (208)
func (g *GPUCameraUniform) Size() int {
	return 3*64 + 16
}

// Marshal serializes the GPUCameraUniform struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUCameraUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	for m, mat := range [3]mgl32.Mat4{g.Projection, g.View, g.InverseView} {
		for i := range 16 {
			binary.LittleEndian.PutUint32(buf[m*64+i*4:], math.Float32bits(mat[i]))
		}
	}
	for i := range 4 {
		binary.LittleEndian.PutUint32(buf[192+i*4:], math.Float32bits(g.Ambient[i]))
	}
	return buf
}
