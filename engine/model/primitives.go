package model

import "github.com/go-gl/mathgl/mgl32"

// cubeFaces lists the outward normal and the two in-plane axes of each cube face.
var cubeFaces = [6]struct {
	normal, u, v mgl32.Vec3
}{
	{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}},
	{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}},
	{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
}

// CubeMeshData returns an indexed cube of edge length size centered at the origin,
// with per-face normals (24 vertices, 36 indices).
//
// Parameters:
//   - size: edge length
//
// Returns:
//   - MeshData: the cube geometry
func CubeMeshData(size float32) MeshData {
	h := size / 2
	data := MeshData{
		Name:     "cube",
		Vertices: make([]GPUVertex, 0, 24),
		Indices:  make([]uint32, 0, 36),
	}
	corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	for _, face := range cubeFaces {
		base := uint32(len(data.Vertices))
		for _, c := range corners {
			p := face.normal.Add(face.u.Mul(c[0])).Add(face.v.Mul(c[1])).Mul(h)
			data.Vertices = append(data.Vertices, GPUVertex{
				Position: p,
				Normal:   face.normal,
				TexCoord: [2]float32{(c[0] + 1) / 2, (1 - c[1]) / 2},
			})
		}
		data.Indices = append(data.Indices, base, base+2, base+1, base, base+3, base+2)
	}
	return data
}

// PlaneMeshData returns a square in the XZ plane facing +Y, centered at the origin.
//
// Parameters:
//   - size: edge length
//
// Returns:
//   - MeshData: the plane geometry
func PlaneMeshData(size float32) MeshData {
	h := size / 2
	up := [3]float32{0, 1, 0}
	return MeshData{
		Name: "plane",
		Vertices: []GPUVertex{
			{Position: [3]float32{-h, 0, -h}, Normal: up, TexCoord: [2]float32{0, 1}},
			{Position: [3]float32{h, 0, -h}, Normal: up, TexCoord: [2]float32{1, 1}},
			{Position: [3]float32{h, 0, h}, Normal: up, TexCoord: [2]float32{1, 0}},
			{Position: [3]float32{-h, 0, h}, Normal: up, TexCoord: [2]float32{0, 0}},
		},
		Indices: []uint32{0, 2, 1, 0, 3, 2},
	}
}

// NewCube creates a single-mesh cube model.
//
// Parameters:
//   - name: the model name
//   - size: edge length
//
// Returns:
//   - Model: the cube model, not yet uploaded
func NewCube(name string, size float32) Model {
	return NewModel(WithName(name), WithMeshes(CubeMeshData(size)))
}

// NewPlane creates a single-mesh ground plane model.
//
// Parameters:
//   - name: the model name
//   - size: edge length
//
// Returns:
//   - Model: the plane model, not yet uploaded
func NewPlane(name string, size float32) Model {
	return NewModel(WithName(name), WithMeshes(PlaneMeshData(size)))
}
