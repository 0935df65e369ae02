package loader

import (
	"github.com/Carmen-Shannon/oxy-csm/engine/model"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithUploader sets the BufferUploader used to create GPU buffers for loaded models.
// Without one, models are returned with CPU-side data only.
//
// Parameters:
//   - up: the buffer uploader, typically the renderer
//
// Returns:
//   - LoaderBuilderOption: a function that applies the uploader option to a loader
func WithUploader(up model.BufferUploader) LoaderBuilderOption {
	return func(l *loader) {
		l.uploader = up
	}
}

// WithWorkers sets the maximum number of concurrent imports used by LoadAll.
//
// Parameters:
//   - n: worker count; values below 1 are ignored
//
// Returns:
//   - LoaderBuilderOption: a function that applies the workers option to a loader
func WithWorkers(n int) LoaderBuilderOption {
	return func(l *loader) {
		if n > 0 {
			l.workers = n
		}
	}
}

// WithModel is an option builder that pre-populates the model cache with a model.
//
// Parameters:
//   - key: the cache key for the model
//   - model: the model to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the model option to a loader
func WithModel(key string, model model.Model) LoaderBuilderOption {
	return func(l *loader) {
		l.modelCache[key] = model
	}
}
