package loader

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-csm/common"
	"github.com/Carmen-Shannon/oxy-csm/engine/model"
)

// LoaderBackendType identifies the model file format backend to use.
type LoaderBackendType int

const (
	// BackendTypeGLTF selects the glTF/GLB loader backend.
	BackendTypeGLTF LoaderBackendType = iota
)

// defaultWorkers is the import pool size when WithWorkers is not given.
const defaultWorkers = 4

// ErrUnsupportedFormat is returned for file extensions no backend handles.
var ErrUnsupportedFormat = errors.New("loader: unsupported model format")

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	uploader model.BufferUploader
	workers  int
	pool     worker.DynamicWorkerPool
	poolOnce sync.Once

	modelCache map[string]model.Model

	backend loaderBackend
}

// Loader defines the public-facing interface for loading and caching static 3D models.
// It abstracts the file format behind a backend, uploads the geometry when a
// BufferUploader is configured, and manages a cache of previously loaded models.
type Loader interface {
	// Load imports a model file and caches the result.
	// If the model is already cached (by file path), the cached version is returned.
	//
	// Parameters:
	//   - path: the file path to the model file
	//
	// Returns:
	//   - model.Model: the loaded and cached model
	//   - error: error if loading or uploading fails
	Load(path string) (model.Model, error)

	// LoadAll imports several files concurrently on the loader's worker pool.
	// Uploads happen on the calling goroutine after every import finished.
	// Failures do not stop the remaining imports.
	//
	// Parameters:
	//   - paths: the file paths to load
	//
	// Returns:
	//   - []model.Model: the loaded models, in the order of paths; nil where loading failed
	//   - error: joined errors of every failed path
	LoadAll(paths ...string) ([]model.Model, error)

	// LoadReader imports a model from a reader stream and caches it by the given name.
	//
	// Parameters:
	//   - name: the cache key for the loaded model
	//   - r: the reader providing glTF JSON data
	//
	// Returns:
	//   - model.Model: the loaded model
	//   - error: error if loading fails
	LoadReader(name string, r io.Reader) (model.Model, error)

	// Get retrieves a cached model by name. Returns nil if not found.
	//
	// Parameters:
	//   - name: the cache key to look up
	//
	// Returns:
	//   - model.Model: the cached model or nil
	Get(name string) model.Model

	// Models returns a copy of the model cache.
	//
	// Returns:
	//   - map[string]model.Model: all cached models keyed by name
	Models() map[string]model.Model

	// Release destroys the GPU buffers of every cached model and empties the cache.
	Release()
}

var _ Loader = &loader{}

// NewLoader creates a new Loader instance with the specified backend type and options applied.
//
// Parameters:
//   - backendType: the type of loader backend to use (e.g., BackendTypeGLTF)
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader configured with the provided backend and options
func NewLoader(backendType LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{
		workers:    defaultWorkers,
		modelCache: make(map[string]model.Model),
	}

	switch backendType {
	case BackendTypeGLTF:
		l.backend = newGLTFLoaderBackend()
	}

	for _, option := range options {
		option(l)
	}
	return l
}

func (l *loader) Load(path string) (model.Model, error) {
	if cached := l.Get(path); cached != nil {
		return cached, nil
	}

	imported, err := l.importFile(path)
	if err != nil {
		return nil, err
	}
	return l.finish(path, imported)
}

func (l *loader) LoadAll(paths ...string) ([]model.Model, error) {
	models := make([]model.Model, len(paths))
	imported := make([]*importedModel, len(paths))
	errs := make([]error, len(paths))

	l.poolOnce.Do(func() {
		l.pool = worker.NewDynamicWorkerPool(l.workers, 256, 1*time.Second)
	})

	var wg sync.WaitGroup
	for i, path := range paths {
		if cached := l.Get(path); cached != nil {
			models[i] = cached
			continue
		}
		wg.Add(1)
		idx, p := i, path
		l.pool.SubmitTask(worker.Task{
			ID: idx,
			Do: func() (any, error) {
				defer wg.Done()
				imported[idx], errs[idx] = l.importFile(p)
				return nil, errs[idx]
			},
		})
	}
	wg.Wait()

	for i, imp := range imported {
		if imp == nil {
			continue
		}
		models[i], errs[i] = l.finish(paths[i], imp)
	}
	return models, errors.Join(errs...)
}

func (l *loader) LoadReader(name string, r io.Reader) (model.Model, error) {
	if cached := l.Get(name); cached != nil {
		return cached, nil
	}

	imported, err := l.backend.LoadReader(name, r)
	if err != nil {
		return nil, fmt.Errorf("failed to load from reader %q: %w", name, err)
	}
	return l.finish(name, imported)
}

func (l *loader) Get(name string) model.Model {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.modelCache[name]
}

func (l *loader) Models() map[string]model.Model {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string]model.Model, len(l.modelCache))
	for k, v := range l.modelCache {
		result[k] = v
	}
	return result
}

func (l *loader) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.modelCache {
		m.Release()
	}
	clear(l.modelCache)
}

// importFile resolves the backend for path and imports it.
func (l *loader) importFile(path string) (*importedModel, error) {
	backend, err := l.resolveBackend(path)
	if err != nil {
		return nil, err
	}
	imported, err := backend.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return imported, nil
}

// resolveBackend selects an appropriate loader backend based on the file extension.
// Currently only glTF/GLB is supported.
func (l *loader) resolveBackend(path string) (loaderBackend, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".gltf", ".glb":
		return l.backend, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// finish builds the Model, uploads it when an uploader is configured, and caches it.
// A concurrent load of the same key keeps the first cached model.
func (l *loader) finish(key string, imported *importedModel) (model.Model, error) {
	m := model.NewModel(
		model.WithName(imported.name),
		model.WithMeshes(imported.meshes...),
	)

	if l.uploader != nil {
		if err := m.Upload(l.uploader); err != nil {
			return nil, fmt.Errorf("failed to upload model %q: %w", imported.name, err)
		}
	}

	l.mu.Lock()
	if existing, ok := l.modelCache[key]; ok {
		l.mu.Unlock()
		m.Release()
		return existing, nil
	}
	l.modelCache[key] = m
	l.mu.Unlock()

	vertices := 0
	for _, d := range imported.meshes {
		vertices += len(d.Vertices)
	}
	common.Logger().Info("model loaded", "model", imported.name, "meshes", len(imported.meshes), "vertices", vertices)
	return m, nil
}
