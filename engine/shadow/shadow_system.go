package shadow

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-csm/common"
)

const (
	// DefaultResolution is the width and height of every cascade layer.
	DefaultResolution uint32 = 2048

	// DefaultFramesInFlight is the number of per-frame resource sets.
	DefaultFramesInFlight = 2

	// defaultDrawCapacity is the initial draw-constant slots per frame.
	defaultDrawCapacity = 1024

	// clearDepth is the far value every cascade layer is cleared to.
	clearDepth float32 = 1.0
)

var (
	ErrInvalidCascadeCount   = errors.New("shadow: cascade count must be between 1 and 4")
	ErrInvalidResolution     = errors.New("shadow: resolution must be greater than zero")
	ErrInvalidFramesInFlight = errors.New("shadow: frames in flight must be at least 1")
	ErrBiasTableTooShort     = errors.New("shadow: depth bias table has fewer entries than cascades")
)

// Stats summarizes the work recorded by the most recent Render call.
type Stats struct {
	Passes  int
	Draws   int
	Skipped int
}

// System renders the cascaded shadow maps and exposes them to the shading pass.
type System interface {
	// Render computes this frame's cascades and records one depth pass per cascade into enc.
	// Casters are drawn into every cascade in increasing cascade order.
	//
	// Parameters:
	//   - enc: encoder for the frame's command stream
	//   - frame: the per-frame state
	//
	// Returns:
	//   - []Cascade: the cascades that were rendered
	//   - error: error if a pass could not be recorded or a buffer write failed
	Render(enc Encoder, frame FrameState) ([]Cascade, error)

	// BindGroupLayout returns the layout the shading pass must declare for shadow resources.
	//
	// Returns:
	//   - BindGroupLayout: uniform at 0, depth array at 1, comparison sampler at 2
	BindGroupLayout() BindGroupLayout

	// BindGroup returns the shading bind group for an in-flight frame.
	//
	// Parameters:
	//   - frameIndex: the frame index (taken modulo frames in flight)
	//
	// Returns:
	//   - BindGroup: the frame's bind group
	BindGroup(frameIndex int) BindGroup

	// Targets returns the depth target manager.
	//
	// Returns:
	//   - *DepthTargetManager: the depth targets
	Targets() *DepthTargetManager

	// CascadeCount returns the number of cascades.
	//
	// Returns:
	//   - int: cascade count
	CascadeCount() int

	// Resolution returns the per-layer shadow map resolution.
	//
	// Returns:
	//   - uint32: width and height in texels
	Resolution() uint32

	// FramesInFlight returns the number of per-frame resource sets.
	//
	// Returns:
	//   - int: frames in flight
	FramesInFlight() int

	// Lambda returns the split blend factor.
	//
	// Returns:
	//   - float32: lambda
	Lambda() float32

	// Stats returns counters from the most recent Render call.
	//
	// Returns:
	//   - Stats: pass and draw counts
	Stats() Stats

	// Release destroys every GPU resource owned by the system, bind groups first and
	// textures last. The device must outlive this call.
	Release()
}

// drawItem is one mesh of one caster, resolved once per frame.
type drawItem struct {
	constants GPUDrawConstants
	mesh      Mesh
}

type shadowSystem struct {
	device         Device
	resolution     uint32
	cascadeCount   int
	framesInFlight int
	lambda         float32
	biasTable      DepthBiasTable
	honorCasts     bool
	drawCapacity   int
	shaderSource   string
	vertexStride   uint64
	positionOffset uint64
	cullMode       CullMode

	targets   *DepthTargetManager
	bindings  *Bindings
	pipelines []Pipeline

	uniform   GPUShadowUniform
	draws     []drawItem
	ring      []byte
	dynOffset []uint32
	stats     Stats
}

var _ System = &shadowSystem{}

// NewSystem validates the configuration and creates the depth targets, bindings,
// and one depth pipeline per cascade.
//
// Parameters:
//   - dev: the graphics device
//   - options: functional options for resolution, cascade count, bias table, and more
//
// Returns:
//   - System: the shadow system
//   - error: a configuration error, or a wrapped device error
func NewSystem(dev Device, options ...SystemBuilderOption) (System, error) {
	s := &shadowSystem{
		device:         dev,
		resolution:     DefaultResolution,
		cascadeCount:   DefaultCascadeCount,
		framesInFlight: DefaultFramesInFlight,
		lambda:         DefaultLambda,
		biasTable:      DefaultDepthBiasTable(),
		drawCapacity:   defaultDrawCapacity,
		shaderSource:   DepthShaderSource(),
		vertexStride:   12,
		cullMode:       CullModeNone,
		dynOffset:      make([]uint32, 1),
	}
	for _, option := range options {
		option(s)
	}

	if err := s.validate(); err != nil {
		return nil, err
	}

	var err error
	s.targets, err = NewDepthTargetManager(dev, s.resolution, s.cascadeCount, s.framesInFlight)
	if err != nil {
		return nil, err
	}

	s.bindings, err = NewBindings(dev, s.targets, s.drawCapacity)
	if err != nil {
		s.Release()
		return nil, err
	}

	for c := range s.cascadeCount {
		p, err := dev.CreateDepthPipeline(DepthPipelineDescriptor{
			Label:            fmt.Sprintf("shadow_depth_cascade_%d", c),
			Layout:           s.bindings.PassLayout(),
			ShaderSource:     s.shaderSource,
			VertexEntryPoint: "vs_main",
			VertexStride:     s.vertexStride,
			PositionOffset:   s.positionOffset,
			Bias:             s.biasTable[c],
			CullMode:         s.cullMode,
			DepthCompare:     common.CompareFunctionLessEqual,
		})
		if err != nil {
			s.Release()
			return nil, fmt.Errorf("failed to create shadow pipeline for cascade %d: %w", c, err)
		}
		s.pipelines = append(s.pipelines, p)
	}

	return s, nil
}

func (s *shadowSystem) validate() error {
	switch {
	case s.cascadeCount < 1 || s.cascadeCount > MaxCascades:
		return fmt.Errorf("%w: got %d", ErrInvalidCascadeCount, s.cascadeCount)
	case s.resolution == 0:
		return ErrInvalidResolution
	case s.framesInFlight < 1:
		return fmt.Errorf("%w: got %d", ErrInvalidFramesInFlight, s.framesInFlight)
	case len(s.biasTable) < s.cascadeCount:
		return fmt.Errorf("%w: %d entries for %d cascades", ErrBiasTableTooShort, len(s.biasTable), s.cascadeCount)
	}
	return nil
}

func (s *shadowSystem) Render(enc Encoder, frame FrameState) ([]Cascade, error) {
	slot := frame.FrameIndex % s.framesInFlight
	cascades := ComputeCascades(frame.Camera, frame.LightDirection, s.cascadeCount, s.lambda)

	s.collectDraws(frame.Casters)
	perCascade := len(s.draws)
	if err := s.bindings.ensureRingCapacity(slot, perCascade*s.cascadeCount); err != nil {
		return nil, err
	}
	fb := &s.bindings.frames[slot]

	if need := perCascade * s.cascadeCount * DrawConstantsStride; cap(s.ring) < need {
		s.ring = make([]byte, need)
	}
	s.ring = s.ring[:perCascade*s.cascadeCount*DrawConstantsStride]

	for i := range s.uniform.Splits {
		s.uniform.Splits[i] = 0
	}
	for i, c := range cascades {
		s.uniform.Splits[i] = c.SplitFar
	}
	if err := s.device.WriteBuffer(fb.uniform, SplitsOffset(), s.uniform.MarshalSplits()); err != nil {
		return nil, fmt.Errorf("failed to write shadow splits: %w", err)
	}

	s.stats = Stats{Skipped: s.stats.Skipped}
	for c, cascade := range cascades {
		if err := s.renderCascade(enc, fb, slot, c, cascade); err != nil {
			return nil, err
		}
	}

	common.Logger().Debug("shadow cascades rendered",
		"frame", frame.FrameIndex, "passes", s.stats.Passes, "draws", s.stats.Draws)
	return cascades, nil
}

// renderCascade records the depth pass of cascade c.
func (s *shadowSystem) renderCascade(enc Encoder, fb *frameBindings, slot, c int, cascade Cascade) error {
	s.uniform.Proj[c] = cascade.Proj
	s.uniform.View[c] = cascade.View
	if err := s.device.WriteBuffer(fb.uniform, ProjOffset(c), s.uniform.MarshalProj(c)); err != nil {
		return fmt.Errorf("failed to write cascade %d projection: %w", c, err)
	}
	if err := s.device.WriteBuffer(fb.uniform, ViewOffset(c), s.uniform.MarshalView(c)); err != nil {
		return fmt.Errorf("failed to write cascade %d view: %w", c, err)
	}

	pass, err := enc.BeginDepthPass(s.targets.LayerView(slot, c), clearDepth)
	if err != nil {
		return fmt.Errorf("failed to begin shadow pass for cascade %d: %w", c, err)
	}

	res := float32(s.resolution)
	pass.SetViewport(0, 0, res, res, 0, 1)
	pass.SetScissorRect(0, 0, s.resolution, s.resolution)
	pass.SetPipeline(s.pipelines[c])

	base := c * len(s.draws)
	for d := range s.draws {
		item := &s.draws[d]
		idx := base + d
		item.constants.Cascade = uint32(c)
		item.constants.MarshalInto(s.ring[idx*DrawConstantsStride:])

		s.dynOffset[0] = uint32(idx * DrawConstantsStride)
		pass.SetBindGroup(0, fb.passGroup, s.dynOffset)
		pass.SetVertexBuffer(0, item.mesh.VertexBuffer())
		if n := item.mesh.IndexCount(); n > 0 {
			pass.SetIndexBuffer(item.mesh.IndexBuffer())
			pass.DrawIndexed(n)
		} else {
			pass.Draw(item.mesh.VertexCount())
		}
		s.stats.Draws++
	}

	if len(s.draws) > 0 {
		start := base * DrawConstantsStride
		end := (base + len(s.draws)) * DrawConstantsStride
		if err := s.device.WriteBuffer(fb.drawRing, uint64(start), s.ring[start:end]); err != nil {
			pass.End()
			return fmt.Errorf("failed to write cascade %d draw constants: %w", c, err)
		}
	}

	if err := pass.End(); err != nil {
		return fmt.Errorf("failed to end shadow pass for cascade %d: %w", c, err)
	}
	s.stats.Passes++
	return nil
}

// collectDraws flattens casters into per-mesh draw items, reusing the backing slice.
func (s *shadowSystem) collectDraws(casters []Caster) {
	s.draws = s.draws[:0]
	s.stats.Skipped = 0
	for _, caster := range casters {
		if caster == nil {
			continue
		}
		if s.honorCasts && !caster.CastsShadow() {
			s.stats.Skipped++
			continue
		}
		model := caster.ModelMatrix()
		for _, mesh := range caster.Meshes() {
			if mesh == nil || (mesh.IndexCount() == 0 && mesh.VertexCount() == 0) {
				continue
			}
			s.draws = append(s.draws, drawItem{
				constants: GPUDrawConstants{Model: model},
				mesh:      mesh,
			})
		}
	}
}

func (s *shadowSystem) BindGroupLayout() BindGroupLayout {
	return s.bindings.Layout()
}

func (s *shadowSystem) BindGroup(frameIndex int) BindGroup {
	return s.bindings.BindGroup(frameIndex % s.framesInFlight)
}

func (s *shadowSystem) Targets() *DepthTargetManager {
	return s.targets
}

func (s *shadowSystem) CascadeCount() int {
	return s.cascadeCount
}

func (s *shadowSystem) Resolution() uint32 {
	return s.resolution
}

func (s *shadowSystem) FramesInFlight() int {
	return s.framesInFlight
}

func (s *shadowSystem) Lambda() float32 {
	return s.lambda
}

func (s *shadowSystem) Stats() Stats {
	return s.stats
}

func (s *shadowSystem) Release() {
	for _, p := range s.pipelines {
		p.Release()
	}
	s.pipelines = nil
	if s.bindings != nil {
		s.bindings.Release()
		s.bindings = nil
	}
	if s.targets != nil {
		s.targets.Release()
		s.targets = nil
	}
}
