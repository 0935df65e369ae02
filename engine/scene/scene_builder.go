package scene

import (
	"github.com/Carmen-Shannon/oxy-csm/engine/game_object"
	"github.com/Carmen-Shannon/oxy-csm/engine/light"
	"github.com/Carmen-Shannon/oxy-csm/engine/shadow"
	"github.com/go-gl/mathgl/mgl32"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithActive sets whether the scene is active for rendering.
//
// Parameters:
//   - active: whether the scene is active
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithActive(active bool) SceneBuilderOption {
	return func(s *scene) {
		s.active = active
	}
}

// WithObjects adds initial objects to the scene.
// Objects without IDs will be assigned new IDs, and attached lights join the scene.
//
// Parameters:
//   - objects: the objects to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithObjects(objects ...game_object.GameObject) SceneBuilderOption {
	return func(s *scene) {
		for _, obj := range objects {
			s.add(obj)
		}
	}
}

// WithLights adds standalone lights to the scene.
//
// Parameters:
//   - lights: the lights to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLights(lights ...light.Light) SceneBuilderOption {
	return func(s *scene) {
		for _, l := range lights {
			if l != nil {
				s.lights = append(s.lights, l)
			}
		}
	}
}

// WithAmbientColor sets the scene ambient color.
func WithAmbientColor(color mgl32.Vec3) SceneBuilderOption {
	return func(s *scene) {
		s.ambientColor = color
	}
}

// WithUpdateWorkers sets the number of worker goroutines used by Update.
// Defaults to runtime.NumCPU()-1.
//
// Parameters:
//   - n: the number of update workers (minimum 1)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithUpdateWorkers(n int) SceneBuilderOption {
	return func(s *scene) {
		if n < 1 {
			n = 1
		}
		s.updateWorkers = n
	}
}

// WithCullingDisabled disables camera frustum culling of the lit pass. Shadow casters
// are never culled against the camera since off-screen objects can shadow visible ones.
// By default culling is enabled (disabled = false).
//
// Parameters:
//   - disabled: true to disable frustum culling, false to enable it (default)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithCullingDisabled(disabled bool) SceneBuilderOption {
	return func(s *scene) {
		s.cullingDisabled = disabled
	}
}

// WithShadowOptions forwards options to the shadow system the scene creates.
// The scene always sets the vertex layout to the model package's GPUVertex.
//
// Parameters:
//   - options: shadow system options such as shadow.WithCascadeCount
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithShadowOptions(options ...shadow.SystemBuilderOption) SceneBuilderOption {
	return func(s *scene) {
		s.shadowOptions = append(s.shadowOptions, options...)
	}
}

// WithShadowSystem uses an existing shadow system instead of creating one.
// The scene takes ownership and releases it in Release; WithShadowOptions is ignored.
func WithShadowSystem(sys shadow.System) SceneBuilderOption {
	return func(s *scene) {
		s.shadows = sys
	}
}
