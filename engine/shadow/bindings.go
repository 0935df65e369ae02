package shadow

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-csm/common"
)

// Binding slots of the shading-pass layout.
const (
	BindingShadowUniform = 0
	BindingShadowMap     = 1
	BindingShadowSampler = 2
)

// Binding slots of the depth-pass layout.
const (
	passBindingUniform       = 0
	passBindingDrawConstants = 1
)

// frameBindings holds the buffers and bind groups of one in-flight frame.
type frameBindings struct {
	uniform      Buffer
	drawRing     Buffer
	ringSlots    int
	passGroup    BindGroup
	shadingGroup BindGroup
}

// Bindings owns the shadow uniform buffers, the draw-constant rings, and the bind groups
// exposing them. The shading layout is the contract with the main pass:
//
//	binding 0: ShadowUniform (vertex | fragment)
//	binding 1: texture_depth_2d_array (fragment)
//	binding 2: sampler_comparison (fragment)
type Bindings struct {
	device        Device
	targets       *DepthTargetManager
	uniformSize   uint64
	shadingLayout BindGroupLayout
	passLayout    BindGroupLayout
	frames        []frameBindings
}

// NewBindings creates layouts, per-frame uniform buffers, draw-constant rings with
// initialSlots slots, and the bind groups over them.
//
// Parameters:
//   - dev: the device to allocate from
//   - targets: the depth targets whose array views and sampler are bound for shading
//   - initialSlots: starting capacity of each frame's draw-constant ring
//
// Returns:
//   - *Bindings: the bindings
//   - error: error if any layout, buffer, or bind group creation fails
func NewBindings(dev Device, targets *DepthTargetManager, initialSlots int) (*Bindings, error) {
	var u GPUShadowUniform
	b := &Bindings{
		device:      dev,
		targets:     targets,
		uniformSize: u.Size(),
	}

	var err error
	b.shadingLayout, err = dev.CreateBindGroupLayout(BindGroupLayoutDescriptor{
		Label: "shadow_shading_layout",
		Entries: []BindGroupLayoutEntry{
			{Binding: BindingShadowUniform, Visibility: ShaderStageVertex | ShaderStageFragment, Type: BindingTypeUniform, MinBindingSize: b.uniformSize},
			{Binding: BindingShadowMap, Visibility: ShaderStageFragment, Type: BindingTypeDepthTextureArray},
			{Binding: BindingShadowSampler, Visibility: ShaderStageFragment, Type: BindingTypeComparisonSampler},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create shadow shading layout: %w", err)
	}

	var dc GPUDrawConstants
	b.passLayout, err = dev.CreateBindGroupLayout(BindGroupLayoutDescriptor{
		Label: "shadow_pass_layout",
		Entries: []BindGroupLayoutEntry{
			{Binding: passBindingUniform, Visibility: ShaderStageVertex, Type: BindingTypeUniform, MinBindingSize: b.uniformSize},
			{Binding: passBindingDrawConstants, Visibility: ShaderStageVertex, Type: BindingTypeUniform, HasDynamicOffset: true, MinBindingSize: dc.Size()},
		},
	})
	if err != nil {
		b.Release()
		return nil, fmt.Errorf("failed to create shadow pass layout: %w", err)
	}

	b.frames = make([]frameBindings, targets.FramesInFlight())
	for f := range b.frames {
		fb := &b.frames[f]
		fb.uniform, err = dev.CreateBuffer(BufferDescriptor{
			Label: fmt.Sprintf("shadow_uniform_frame_%d", f),
			Size:  b.uniformSize,
			Usage: BufferUsageUniform,
		})
		if err != nil {
			b.Release()
			return nil, fmt.Errorf("failed to create shadow uniform buffer %d: %w", f, err)
		}

		fb.shadingGroup, err = dev.CreateBindGroup(BindGroupDescriptor{
			Label:  fmt.Sprintf("shadow_shading_group_frame_%d", f),
			Layout: b.shadingLayout,
			Entries: []BindGroupEntry{
				{Binding: BindingShadowUniform, Buffer: fb.uniform, Size: b.uniformSize},
				{Binding: BindingShadowMap, TextureView: targets.ArrayView(f)},
				{Binding: BindingShadowSampler, Sampler: targets.Sampler()},
			},
		})
		if err != nil {
			b.Release()
			return nil, fmt.Errorf("failed to create shadow shading bind group %d: %w", f, err)
		}

		if err := b.growRing(f, max(initialSlots, 1)); err != nil {
			b.Release()
			return nil, err
		}
	}

	return b, nil
}

// Layout returns the bind group layout the main shading pass declares for shadows.
func (b *Bindings) Layout() BindGroupLayout {
	return b.shadingLayout
}

// BindGroup returns the shading bind group of an in-flight frame.
func (b *Bindings) BindGroup(frameIndex int) BindGroup {
	return b.frames[frameIndex].shadingGroup
}

// PassLayout returns the layout of the depth-pass bind group.
func (b *Bindings) PassLayout() BindGroupLayout {
	return b.passLayout
}

// ensureRingCapacity grows a frame's draw-constant ring so it holds at least slots entries.
func (b *Bindings) ensureRingCapacity(frameIndex, slots int) error {
	if slots <= b.frames[frameIndex].ringSlots {
		return nil
	}
	grown := max(slots, b.frames[frameIndex].ringSlots*2)
	common.Logger().Debug("growing shadow draw ring", "frame", frameIndex, "slots", grown)
	return b.growRing(frameIndex, grown)
}

// growRing replaces the ring buffer and depth-pass bind group of frame f.
func (b *Bindings) growRing(f, slots int) error {
	fb := &b.frames[f]
	ring, err := b.device.CreateBuffer(BufferDescriptor{
		Label: fmt.Sprintf("shadow_draw_ring_frame_%d", f),
		Size:  uint64(slots) * DrawConstantsStride,
		Usage: BufferUsageUniform,
	})
	if err != nil {
		return fmt.Errorf("failed to create shadow draw ring %d: %w", f, err)
	}

	var dc GPUDrawConstants
	group, err := b.device.CreateBindGroup(BindGroupDescriptor{
		Label:  fmt.Sprintf("shadow_pass_group_frame_%d", f),
		Layout: b.passLayout,
		Entries: []BindGroupEntry{
			{Binding: passBindingUniform, Buffer: fb.uniform, Size: b.uniformSize},
			{Binding: passBindingDrawConstants, Buffer: ring, Size: dc.Size()},
		},
	})
	if err != nil {
		ring.Release()
		return fmt.Errorf("failed to create shadow pass bind group %d: %w", f, err)
	}

	if fb.passGroup != nil {
		fb.passGroup.Release()
	}
	if fb.drawRing != nil {
		fb.drawRing.Release()
	}
	fb.drawRing = ring
	fb.passGroup = group
	fb.ringSlots = slots
	return nil
}

// Release destroys bind groups before the buffers and layouts they reference.
func (b *Bindings) Release() {
	for i := range b.frames {
		fb := &b.frames[i]
		if fb.passGroup != nil {
			fb.passGroup.Release()
			fb.passGroup = nil
		}
		if fb.shadingGroup != nil {
			fb.shadingGroup.Release()
			fb.shadingGroup = nil
		}
	}
	for i := range b.frames {
		fb := &b.frames[i]
		if fb.drawRing != nil {
			fb.drawRing.Release()
			fb.drawRing = nil
		}
		if fb.uniform != nil {
			fb.uniform.Release()
			fb.uniform = nil
		}
		fb.ringSlots = 0
	}
	if b.passLayout != nil {
		b.passLayout.Release()
		b.passLayout = nil
	}
	if b.shadingLayout != nil {
		b.shadingLayout.Release()
		b.shadingLayout = nil
	}
}
