package shadow

// SystemBuilderOption is a functional option for configuring a shadow System.
// Use the With* functions to create options.
type SystemBuilderOption func(*shadowSystem)

// WithResolution sets the width and height of every cascade layer.
// The value is fixed for the lifetime of the system.
//
// Parameters:
//   - resolution: texels per side
//
// Returns:
//   - SystemBuilderOption: option function to apply
func WithResolution(resolution uint32) SystemBuilderOption {
	return func(s *shadowSystem) {
		s.resolution = resolution
	}
}

// WithCascadeCount sets the number of cascades, between 1 and MaxCascades.
//
// Parameters:
//   - count: number of cascades
//
// Returns:
//   - SystemBuilderOption: option function to apply
func WithCascadeCount(count int) SystemBuilderOption {
	return func(s *shadowSystem) {
		s.cascadeCount = count
	}
}

// WithLambda sets the blend between logarithmic (1) and uniform (0) splits.
//
// Parameters:
//   - lambda: blend factor in [0, 1]
//
// Returns:
//   - SystemBuilderOption: option function to apply
func WithLambda(lambda float32) SystemBuilderOption {
	return func(s *shadowSystem) {
		s.lambda = lambda
	}
}

// WithDepthBiasTable sets the per-cascade depth bias. The table needs at least one
// entry per cascade.
//
// Parameters:
//   - table: bias values indexed by cascade
//
// Returns:
//   - SystemBuilderOption: option function to apply
func WithDepthBiasTable(table DepthBiasTable) SystemBuilderOption {
	return func(s *shadowSystem) {
		s.biasTable = append(DepthBiasTable(nil), table...)
	}
}

// WithFramesInFlight sets how many frames of shadow resources are allocated.
//
// Parameters:
//   - frames: number of resource sets
//
// Returns:
//   - SystemBuilderOption: option function to apply
func WithFramesInFlight(frames int) SystemBuilderOption {
	return func(s *shadowSystem) {
		s.framesInFlight = frames
	}
}

// WithHonorCastsShadow skips casters whose CastsShadow returns false.
// By default every caster is drawn into every cascade.
//
// Parameters:
//   - honor: true to skip non-casters
//
// Returns:
//   - SystemBuilderOption: option function to apply
func WithHonorCastsShadow(honor bool) SystemBuilderOption {
	return func(s *shadowSystem) {
		s.honorCasts = honor
	}
}

// WithDrawCapacity sets the initial number of draw-constant slots per frame.
// The ring grows on demand.
func WithDrawCapacity(slots int) SystemBuilderOption {
	return func(s *shadowSystem) {
		s.drawCapacity = slots
	}
}

// WithVertexLayout describes where the position attribute lives in the caster vertex buffers.
//
// Parameters:
//   - stride: byte stride of one vertex
//   - positionOffset: byte offset of the float32x3 position
//
// Returns:
//   - SystemBuilderOption: option function to apply
func WithVertexLayout(stride, positionOffset uint64) SystemBuilderOption {
	return func(s *shadowSystem) {
		s.vertexStride = stride
		s.positionOffset = positionOffset
	}
}

// WithCullMode sets face culling for the depth pipelines. The light projection flips Y,
// which reverses winding, so front-face culling here removes back faces of the scene.
func WithCullMode(mode CullMode) SystemBuilderOption {
	return func(s *shadowSystem) {
		s.cullMode = mode
	}
}

// WithShaderSource replaces the depth-pass WGSL. The shader must keep the binding layout
// and vs_main entry point of DepthShaderSource.
func WithShaderSource(source string) SystemBuilderOption {
	return func(s *shadowSystem) {
		s.shaderSource = source
	}
}
