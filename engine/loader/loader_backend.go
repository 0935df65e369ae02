package loader

import (
	"io"

	"github.com/Carmen-Shannon/oxy-csm/engine/model"
)

// importedModel is the CPU-side result of a backend import, before GPU upload.
type importedModel struct {
	name   string
	meshes []model.MeshData
}

// loaderBackend defines the generic interface for loading models from files or streams.
// Concrete implementations (e.g., gltfLoaderBackend) handle format-specific details.
type loaderBackend interface {
	// Load imports the static meshes of the file at path.
	//
	// Parameters:
	//   - path: the file path to load
	//
	// Returns:
	//   - *importedModel: the imported mesh data
	//   - error: error if loading fails
	Load(path string) (*importedModel, error)

	// LoadReader imports a model from a reader stream.
	//
	// Parameters:
	//   - name: name given to the imported model
	//   - r: the reader providing model data
	//
	// Returns:
	//   - *importedModel: the imported mesh data
	//   - error: error if loading fails
	LoadReader(name string, r io.Reader) (*importedModel, error)
}
