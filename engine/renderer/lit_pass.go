package renderer

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-csm/common"
	"github.com/Carmen-Shannon/oxy-csm/engine/camera"
	"github.com/Carmen-Shannon/oxy-csm/engine/light"
	"github.com/Carmen-Shannon/oxy-csm/engine/model"
	"github.com/Carmen-Shannon/oxy-csm/engine/shadow"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrLitPipelineMissing is returned by DrawLit before InitLitPipeline succeeded.
var ErrLitPipelineMissing = errors.New("renderer: lit pipeline not initialized")

// litPass owns the lit forward pipeline and the buffers it reads.
//
//	group 0: CameraUniform (binding 0), LightBuffer (binding 1)
//	group 1: DrawConstants with a dynamic offset into the draw ring
//	group 2: the shadow system's shading group
type litPass struct {
	module      *wgpu.ShaderModule
	layout      *wgpu.PipelineLayout
	pipeline    *wgpu.RenderPipeline
	frameLayout *wgpu.BindGroupLayout
	drawLayout  *wgpu.BindGroupLayout

	cameraBuffer *wgpu.Buffer
	lightBuffer  *wgpu.Buffer
	frameGroup   *wgpu.BindGroup

	drawRing  *wgpu.Buffer
	drawGroup *wgpu.BindGroup
	ringSlots int

	scratch   []byte
	dynOffset []uint32
}

func (b *wgpuRendererBackendImpl) InitLitPipeline(shadowLayout shadow.BindGroupLayout, cascadeCount int) error {
	shadowGroupLayout, ok := shadowLayout.(*wgpu.BindGroupLayout)
	if !ok {
		return ErrForeignHandle
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.surfaceFormat == nil {
		return ErrSurfaceNotConfigured
	}
	if b.lit != nil {
		b.lit.release()
		b.lit = nil
	}

	lp := &litPass{dynOffset: make([]uint32, 1)}
	if err := b.createLitPass(lp, shadowGroupLayout, cascadeCount); err != nil {
		lp.release()
		return err
	}
	b.lit = lp

	common.Logger().Info("lit pipeline created", "cascades", cascadeCount, "msaa", uint32(b.sampleCount))
	return nil
}

// createLitPass fills lp; on error the caller releases whatever was created.
func (b *wgpuRendererBackendImpl) createLitPass(lp *litPass, shadowLayout *wgpu.BindGroupLayout, cascadeCount int) error {
	var err error
	var cam camera.GPUCameraUniform
	var dc GPULitDrawConstants

	lp.frameLayout, err = b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "lit_frame_layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform, MinBindingSize: uint64(cam.Size())},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageFragment,
				Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform, MinBindingSize: light.SceneLightsBufferSize},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create lit frame layout: %w", err)
	}

	lp.drawLayout, err = b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "lit_draw_layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform, HasDynamicOffset: true, MinBindingSize: dc.Size()},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create lit draw layout: %w", err)
	}

	lp.cameraBuffer, err = b.createBuffer("lit_camera_uniform", shadow.BufferUsageUniform, uint64(cam.Size()))
	if err != nil {
		return fmt.Errorf("failed to create camera uniform: %w", err)
	}
	lp.lightBuffer, err = b.createBuffer("lit_light_buffer", shadow.BufferUsageUniform, light.SceneLightsBufferSize)
	if err != nil {
		return fmt.Errorf("failed to create light buffer: %w", err)
	}
	lp.frameGroup, err = b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "lit_frame_group",
		Layout: lp.frameLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: lp.cameraBuffer, Offset: 0, Size: wgpu.WholeSize},
			{Binding: 1, Buffer: lp.lightBuffer, Offset: 0, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create lit frame group: %w", err)
	}

	if err := b.growLitRing(lp, defaultLitDrawCapacity); err != nil {
		return err
	}

	lp.module, err = b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: "lit_shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: LitShaderSource(cascadeCount),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to compile lit shader: %w", err)
	}

	lp.layout, err = b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "lit_pipeline_layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{lp.frameLayout, lp.drawLayout, shadowLayout},
	})
	if err != nil {
		return fmt.Errorf("failed to create lit pipeline layout: %w", err)
	}

	lp.pipeline, err = b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "lit_pipeline",
		Layout: lp.layout,
		Vertex: wgpu.VertexState{
			Module:     lp.module,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{
				{
					ArrayStride: model.GPUVertexStride,
					StepMode:    wgpu.VertexStepModeVertex,
					Attributes: []wgpu.VertexAttribute{
						{Format: wgpu.VertexFormatFloat32x3, Offset: model.GPUVertexPositionOffset, ShaderLocation: 0},
						{Format: wgpu.VertexFormatFloat32x3, Offset: model.GPUVertexNormalOffset, ShaderLocation: 1},
						{Format: wgpu.VertexFormatFloat32x2, Offset: model.GPUVertexTexCoordOffset, ShaderLocation: 2},
					},
				},
			},
		},
		Fragment: &wgpu.FragmentState{
			Module:     lp.module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    *b.surfaceFormat,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: uint32(b.sampleCount),
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create lit pipeline: %w", err)
	}
	return nil
}

// growLitRing replaces the draw ring and its bind group. Must be called with mu held.
func (b *wgpuRendererBackendImpl) growLitRing(lp *litPass, slots int) error {
	ring, err := b.createBuffer("lit_draw_ring", shadow.BufferUsageUniform, uint64(slots)*litDrawStride)
	if err != nil {
		return fmt.Errorf("failed to create lit draw ring: %w", err)
	}

	var dc GPULitDrawConstants
	group, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "lit_draw_group",
		Layout: lp.drawLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: ring, Offset: 0, Size: dc.Size()},
		},
	})
	if err != nil {
		ring.Release()
		return fmt.Errorf("failed to create lit draw group: %w", err)
	}

	if lp.drawGroup != nil {
		lp.drawGroup.Release()
	}
	if lp.drawRing != nil {
		lp.drawRing.Release()
	}
	lp.drawRing = ring
	lp.drawGroup = group
	lp.ringSlots = slots
	return nil
}

func (b *wgpuRendererBackendImpl) DrawLit(frame LitFrame) (int, error) {
	shadowGroup, ok := frame.ShadowGroup.(*wgpu.BindGroup)
	if !ok {
		return 0, ErrForeignHandle
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder == nil {
		return 0, ErrNoFrame
	}
	lp := b.lit
	if lp == nil {
		return 0, ErrLitPipelineMissing
	}

	if err := b.queue.WriteBuffer(lp.cameraBuffer, 0, frame.Camera.Marshal()); err != nil {
		return 0, fmt.Errorf("failed to write camera uniform: %w", err)
	}
	lightData, _ := light.MarshalSceneLights(frame.Ambient, frame.Lights)
	if err := b.queue.WriteBuffer(lp.lightBuffer, 0, lightData); err != nil {
		return 0, fmt.Errorf("failed to write light buffer: %w", err)
	}

	if n := len(frame.Draws); n > lp.ringSlots {
		grown := max(n, lp.ringSlots*2)
		common.Logger().Debug("growing lit draw ring", "slots", grown)
		if err := b.growLitRing(lp, grown); err != nil {
			return 0, err
		}
	}
	if need := len(frame.Draws) * litDrawStride; cap(lp.scratch) < need {
		lp.scratch = make([]byte, need)
	}
	lp.scratch = lp.scratch[:len(frame.Draws)*litDrawStride]
	for i, d := range frame.Draws {
		dc := NewGPULitDrawConstants(d.Model, d.Color)
		dc.MarshalInto(lp.scratch[i*litDrawStride:])
	}
	if len(lp.scratch) > 0 {
		if err := b.queue.WriteBuffer(lp.drawRing, 0, lp.scratch); err != nil {
			return 0, fmt.Errorf("failed to write lit draw constants: %w", err)
		}
	}

	pass := b.frameEncoder.BeginRenderPass(b.renderPassDescriptor)
	pass.SetPipeline(lp.pipeline)
	pass.SetBindGroup(LitGroupFrame, lp.frameGroup, nil)
	pass.SetBindGroup(LitGroupShadow, shadowGroup, nil)

	draws := 0
	for i, d := range frame.Draws {
		lp.dynOffset[0] = uint32(i * litDrawStride)
		pass.SetBindGroup(LitGroupDraw, lp.drawGroup, lp.dynOffset)
		for _, mesh := range d.Meshes {
			if mesh == nil {
				continue
			}
			if n := mesh.IndexCount(); n > 0 {
				pass.SetVertexBuffer(0, mesh.VertexBuffer().(*wgpu.Buffer), 0, wgpu.WholeSize)
				pass.SetIndexBuffer(mesh.IndexBuffer().(*wgpu.Buffer), wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
				pass.DrawIndexed(n, 1, 0, 0, 0)
				draws++
			} else if n := mesh.VertexCount(); n > 0 {
				pass.SetVertexBuffer(0, mesh.VertexBuffer().(*wgpu.Buffer), 0, wgpu.WholeSize)
				pass.Draw(n, 1, 0, 0)
				draws++
			}
		}
	}
	err := pass.End()
	pass.Release()
	if err != nil {
		return 0, fmt.Errorf("failed to end lit pass: %w", err)
	}

	return draws, nil
}

// release destroys the pipeline before the bindings it references. Safe on a partial pass.
func (lp *litPass) release() {
	if lp.pipeline != nil {
		lp.pipeline.Release()
	}
	if lp.layout != nil {
		lp.layout.Release()
	}
	if lp.module != nil {
		lp.module.Release()
	}
	if lp.frameGroup != nil {
		lp.frameGroup.Release()
	}
	if lp.drawGroup != nil {
		lp.drawGroup.Release()
	}
	for _, buf := range []*wgpu.Buffer{lp.cameraBuffer, lp.lightBuffer, lp.drawRing} {
		if buf != nil {
			buf.Release()
		}
	}
	if lp.frameLayout != nil {
		lp.frameLayout.Release()
	}
	if lp.drawLayout != nil {
		lp.drawLayout.Release()
	}
	*lp = litPass{}
}
