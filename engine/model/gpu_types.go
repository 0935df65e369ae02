package model

import (
	_ "embed"
	"encoding/binary"
	"math"
)

// GPUVertexSource is the canonical WGSL definition of the VertexInput struct for mesh pipelines.
// Matches GPUVertex layout exactly (32 bytes).
//
//go:embed assets/vertex.wgsl
var GPUVertexSource string

const (
	// GPUVertexStride is the byte stride of one GPUVertex in a vertex buffer.
	GPUVertexStride = 32

	// GPUVertexPositionOffset is the byte offset of the position attribute.
	GPUVertexPositionOffset = 0

	// GPUVertexNormalOffset is the byte offset of the normal attribute.
	GPUVertexNormalOffset = 12

	// GPUVertexTexCoordOffset is the byte offset of the texture coordinate attribute.
	GPUVertexTexCoordOffset = 24
)

// GPUVertex is the GPU-aligned representation of a single mesh vertex.
// Matches the WGSL VertexInput struct layout exactly (see GPUVertexSource).
// Size: 32 bytes, tightly packed.
type GPUVertex struct {
	Position [3]float32 // offset  0: vertex position in model space (12 bytes)
	Normal   [3]float32 // offset 12: vertex normal for lighting (12 bytes)
	TexCoord [2]float32 // offset 24: UV texture coordinate (8 bytes)
}

// Size returns the size of the GPUVertex struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUVertex) Size() int {
	return GPUVertexStride
}

// MarshalInto serializes the vertex into dst, which must hold at least 32 bytes.
//
// Parameters:
//   - dst: destination buffer
func (g *GPUVertex) MarshalInto(dst []byte) {
	for i := range 3 {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(g.Position[i]))
		binary.LittleEndian.PutUint32(dst[12+i*4:], math.Float32bits(g.Normal[i]))
	}
	binary.LittleEndian.PutUint32(dst[24:], math.Float32bits(g.TexCoord[0]))
	binary.LittleEndian.PutUint32(dst[28:], math.Float32bits(g.TexCoord[1]))
}

// MarshalVertices serializes a vertex slice into a tightly packed buffer.
//
// Parameters:
//   - vertices: the vertices to pack
//
// Returns:
//   - []byte: len(vertices) * 32 bytes
func MarshalVertices(vertices []GPUVertex) []byte {
	buf := make([]byte, len(vertices)*GPUVertexStride)
	for i := range vertices {
		vertices[i].MarshalInto(buf[i*GPUVertexStride:])
	}
	return buf
}

// MarshalIndices serializes uint32 indices in little-endian order.
//
// Parameters:
//   - indices: the indices to pack
//
// Returns:
//   - []byte: len(indices) * 4 bytes
func MarshalIndices(indices []uint32) []byte {
	buf := make([]byte, len(indices)*4)
	for i, idx := range indices {
		binary.LittleEndian.PutUint32(buf[i*4:], idx)
	}
	return buf
}
