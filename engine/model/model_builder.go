package model

// ModelBuilderOption is a functional option for configuring a Model.
type ModelBuilderOption func(*model)

// WithName sets the model identifier.
//
// Parameters:
//   - name: the model name
//
// Returns:
//   - ModelBuilderOption: a function that applies the name option to a model
func WithName(name string) ModelBuilderOption {
	return func(m *model) {
		m.name = name
	}
}

// WithMeshes appends meshes to the model and extends its bounds.
//
// Parameters:
//   - meshes: the mesh geometry to add
//
// Returns:
//   - ModelBuilderOption: a function that applies the meshes option to a model
func WithMeshes(meshes ...MeshData) ModelBuilderOption {
	return func(m *model) {
		for _, d := range meshes {
			m.addMesh(d)
		}
	}
}
