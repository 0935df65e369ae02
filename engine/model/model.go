package model

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-csm/common"
	"github.com/Carmen-Shannon/oxy-csm/engine/shadow"
)

// BufferUploader creates GPU buffers initialized with data.
type BufferUploader interface {
	// CreateBufferWithData creates a buffer of len(data) bytes and fills it.
	//
	// Parameters:
	//   - label: debug name
	//   - usage: vertex or index usage
	//   - data: initial contents
	//
	// Returns:
	//   - shadow.Buffer: the buffer
	//   - error: error if creation or upload fails
	CreateBufferWithData(label string, usage shadow.BufferUsage, data []byte) (shadow.Buffer, error)
}

// mesh is the implementation of the Mesh interface.
type mesh struct {
	data         MeshData
	bounds       Bounds
	vertexBuffer shadow.Buffer
	indexBuffer  shadow.Buffer
}

// Mesh is one drawable part of a Model. Draw counts stay zero until the model is
// uploaded, so an un-uploaded mesh is never drawn.
type Mesh interface {
	shadow.Mesh

	// Name returns the mesh name.
	Name() string

	// Data returns the CPU-side geometry.
	Data() *MeshData

	// Bounds returns the model-space bounding box.
	Bounds() Bounds
}

var _ Mesh = &mesh{}

func (m *mesh) Name() string                { return m.data.Name }
func (m *mesh) Data() *MeshData             { return &m.data }
func (m *mesh) Bounds() Bounds              { return m.bounds }
func (m *mesh) VertexBuffer() shadow.Buffer { return m.vertexBuffer }
func (m *mesh) IndexBuffer() shadow.Buffer  { return m.indexBuffer }

func (m *mesh) VertexCount() uint32 {
	if m.vertexBuffer == nil {
		return 0
	}
	return uint32(len(m.data.Vertices))
}

func (m *mesh) IndexCount() uint32 {
	if m.vertexBuffer == nil || m.indexBuffer == nil {
		return 0
	}
	return uint32(len(m.data.Indices))
}

// model is the implementation of the Model interface.
type model struct {
	name     string
	meshes   []*mesh
	bounds   Bounds
	uploaded bool
}

// Model defines the interface for a 3D model: a named set of meshes sharing one transform.
// It is produced by the Loader or by the primitive constructors.
type Model interface {
	// Name retrieves the model identifier.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// Meshes returns the model's meshes in load order.
	//
	// Returns:
	//   - []Mesh: the meshes
	Meshes() []Mesh

	// ShadowMeshes returns the meshes as shadow.Mesh values for shadow casting.
	//
	// Returns:
	//   - []shadow.Mesh: the meshes
	ShadowMeshes() []shadow.Mesh

	// Bounds returns the model-space box enclosing every mesh.
	//
	// Returns:
	//   - Bounds: the bounds
	Bounds() Bounds

	// BoundingRadius returns the radius of the sphere around Bounds().Center().
	// Used by frustum culling.
	//
	// Returns:
	//   - float32: the bounding radius
	BoundingRadius() float32

	// Uploaded reports whether GPU buffers exist for every mesh.
	//
	// Returns:
	//   - bool: true after a successful Upload
	Uploaded() bool

	// Upload creates vertex and index buffers for every mesh. Calling it again is a no-op.
	// On failure, buffers created so far are released.
	//
	// Parameters:
	//   - up: the buffer uploader
	//
	// Returns:
	//   - error: error if a buffer could not be created
	Upload(up BufferUploader) error

	// Release destroys the GPU buffers. The CPU-side data is kept.
	Release()
}

var _ Model = &model{}

// NewModel creates a new Model instance with the specified options applied.
//
// Parameters:
//   - options: a variadic list of ModelBuilderOption functions to configure the Model
//
// Returns:
//   - Model: a new instance of Model configured with the provided options
func NewModel(options ...ModelBuilderOption) Model {
	m := &model{}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *model) addMesh(data MeshData) {
	b := data.ComputeBounds()
	if len(m.meshes) == 0 {
		m.bounds = b
	} else {
		m.bounds = m.bounds.Union(b)
	}
	m.meshes = append(m.meshes, &mesh{data: data, bounds: b})
}

func (m *model) Name() string {
	return m.name
}

func (m *model) Meshes() []Mesh {
	out := make([]Mesh, len(m.meshes))
	for i, ms := range m.meshes {
		out[i] = ms
	}
	return out
}

func (m *model) ShadowMeshes() []shadow.Mesh {
	out := make([]shadow.Mesh, len(m.meshes))
	for i, ms := range m.meshes {
		out[i] = ms
	}
	return out
}

func (m *model) Bounds() Bounds {
	return m.bounds
}

func (m *model) BoundingRadius() float32 {
	return m.bounds.Radius()
}

func (m *model) Uploaded() bool {
	return m.uploaded
}

func (m *model) Upload(up BufferUploader) error {
	if m.uploaded {
		return nil
	}
	for i, ms := range m.meshes {
		if len(ms.data.Vertices) == 0 {
			continue
		}
		label := fmt.Sprintf("%s_%d_%s", m.name, i, ms.data.Name)
		vb, err := up.CreateBufferWithData(label+"_vertices", shadow.BufferUsageVertex, MarshalVertices(ms.data.Vertices))
		if err != nil {
			m.Release()
			return fmt.Errorf("failed to upload vertices of %s: %w", label, err)
		}
		ms.vertexBuffer = vb

		if len(ms.data.Indices) > 0 {
			ib, err := up.CreateBufferWithData(label+"_indices", shadow.BufferUsageIndex, MarshalIndices(ms.data.Indices))
			if err != nil {
				m.Release()
				return fmt.Errorf("failed to upload indices of %s: %w", label, err)
			}
			ms.indexBuffer = ib
		}
	}
	m.uploaded = true
	common.Logger().Debug("model uploaded", "model", m.name, "meshes", len(m.meshes))
	return nil
}

func (m *model) Release() {
	for _, ms := range m.meshes {
		if ms.indexBuffer != nil {
			ms.indexBuffer.Release()
			ms.indexBuffer = nil
		}
		if ms.vertexBuffer != nil {
			ms.vertexBuffer.Release()
			ms.vertexBuffer = nil
		}
	}
	m.uploaded = false
}
