package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-csm/engine/scene"
	"github.com/Carmen-Shannon/oxy-csm/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
type EngineBuilderOption func(*engine)

// WithProfiling feeds each rendered frame's shadow and lit pass counters to the profiler,
// which logs a summary at its report interval.
//
// Parameters:
//   - enabled: if true, frames are reported to the profiler
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithTickRate sets how often active scenes are updated, in ticks per second.
// Camera movement and object motion advance on ticks; rendering runs on its own loop and
// draws whatever state the last tick left. Values <= 0 select 60Hz.
//
// Parameters:
//   - fps: target ticks per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			fps = 60.0
		}
		e.engineTickRate = time.Second / time.Duration(fps)
	}
}

// WithWindow sets the window the engine pumps messages on and reads key state from.
// Resize events are forwarded to every registered scene.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithScene registers a scene at the given key during engine construction.
// Every active scene is updated each tick, but only the active scene with the lowest key
// records shadow cascades and presents.
//
// Parameters:
//   - key: the scene's priority (lowest active key renders)
//   - s: the Scene to register
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithScene(key int, s scene.Scene) EngineBuilderOption {
	return func(e *engine) {
		e.scenes[key] = s
	}
}

// WithRenderFrameLimit caps how many frames per second are rendered. The frame index
// handed to the scene still advances by one per rendered frame, so shadow resource slots
// cycle the same way at any cap. Pass 0 to uncap (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			e.renderFrameLimit = 0
			return
		}
		e.renderFrameLimit = time.Second / time.Duration(fps)
	}
}
