package model

import "github.com/go-gl/mathgl/mgl32"

// MeshData is the CPU-side geometry of one mesh, as produced by the loader or the
// primitive builders.
type MeshData struct {
	// Name identifies the mesh within its model.
	Name string

	// Vertices are the mesh vertices in model space.
	Vertices []GPUVertex

	// Indices are triangle-list indices into Vertices. Empty means non-indexed drawing.
	Indices []uint32
}

// Bounds is an axis-aligned box in model space.
type Bounds struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// Center returns the midpoint of the box.
func (b Bounds) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Radius returns the radius of the sphere around Center enclosing the box.
func (b Bounds) Radius() float32 {
	return b.Max.Sub(b.Min).Len() * 0.5
}

// Union returns the smallest box containing both b and o.
func (b Bounds) Union(o Bounds) Bounds {
	return Bounds{
		Min: mgl32.Vec3{min(b.Min[0], o.Min[0]), min(b.Min[1], o.Min[1]), min(b.Min[2], o.Min[2])},
		Max: mgl32.Vec3{max(b.Max[0], o.Max[0]), max(b.Max[1], o.Max[1]), max(b.Max[2], o.Max[2])},
	}
}

// ComputeBounds returns the bounding box of the mesh vertices.
// An empty mesh yields a zero box at the origin.
//
// Returns:
//   - Bounds: the axis-aligned bounds
func (d *MeshData) ComputeBounds() Bounds {
	if len(d.Vertices) == 0 {
		return Bounds{}
	}
	b := Bounds{Min: d.Vertices[0].Position, Max: d.Vertices[0].Position}
	for _, v := range d.Vertices[1:] {
		p := mgl32.Vec3(v.Position)
		b = b.Union(Bounds{Min: p, Max: p})
	}
	return b
}
