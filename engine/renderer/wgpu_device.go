package renderer

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-csm/common"
	"github.com/Carmen-Shannon/oxy-csm/engine/model"
	"github.com/Carmen-Shannon/oxy-csm/engine/shadow"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrForeignHandle is returned when a resource handle was not created by this backend.
var ErrForeignHandle = errors.New("renderer: handle was not created by the wgpu backend")

var (
	_ shadow.Device        = &wgpuRendererBackendImpl{}
	_ model.BufferUploader = &wgpuRendererBackendImpl{}
)

// wgpuDepthPipeline keeps the shader module and layout alive for as long as the pipeline.
type wgpuDepthPipeline struct {
	pipeline *wgpu.RenderPipeline
	layout   *wgpu.PipelineLayout
	module   *wgpu.ShaderModule
}

func (p *wgpuDepthPipeline) Release() {
	p.pipeline.Release()
	p.layout.Release()
	p.module.Release()
}

func (b *wgpuRendererBackendImpl) CreateDepthTexture(desc shadow.DepthTextureDescriptor) (shadow.Texture, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: desc.Label,
		Size: wgpu.Extent3D{
			Width:              desc.Width,
			Height:             desc.Height,
			DepthOrArrayLayers: desc.Layers,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth32Float,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		return nil, err
	}
	return tex, nil
}

func (b *wgpuRendererBackendImpl) CreateTextureView(tex shadow.Texture, desc shadow.TextureViewDescriptor) (shadow.TextureView, error) {
	native, ok := tex.(*wgpu.Texture)
	if !ok {
		return nil, ErrForeignHandle
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	dimension := wgpu.TextureViewDimension2D
	if desc.Array || desc.LayerCount > 1 {
		dimension = wgpu.TextureViewDimension2DArray
	}
	view, err := native.CreateView(&wgpu.TextureViewDescriptor{
		Label:           desc.Label,
		Format:          wgpu.TextureFormatDepth32Float,
		Dimension:       dimension,
		BaseMipLevel:    0,
		MipLevelCount:   1,
		BaseArrayLayer:  desc.BaseLayer,
		ArrayLayerCount: desc.LayerCount,
		Aspect:          wgpu.TextureAspectDepthOnly,
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (b *wgpuRendererBackendImpl) CreateSampler(desc common.SamplerStagingData) (shadow.Sampler, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	samp, err := b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         desc.Label,
		AddressModeU:  toWGPUAddressMode(desc.AddressModeU),
		AddressModeV:  toWGPUAddressMode(desc.AddressModeV),
		AddressModeW:  toWGPUAddressMode(desc.AddressModeW),
		MagFilter:     toWGPUFilterMode(desc.MagFilter),
		MinFilter:     toWGPUFilterMode(desc.MinFilter),
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMinClamp:   desc.LodMinClamp,
		LodMaxClamp:   common.Coalesce(desc.LodMaxClamp, 32.0),
		MaxAnisotropy: common.Coalesce(desc.MaxAnisotropy, 1),
		Compare:       toWGPUCompareFunction(desc.Compare),
	})
	if err != nil {
		return nil, err
	}
	return samp, nil
}

func (b *wgpuRendererBackendImpl) CreateBuffer(desc shadow.BufferDescriptor) (shadow.Buffer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.createBuffer(desc.Label, desc.Usage, desc.Size)
}

// createBuffer must be called with mu held.
func (b *wgpuRendererBackendImpl) createBuffer(label string, usage shadow.BufferUsage, size uint64) (*wgpu.Buffer, error) {
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            label,
		Size:             common.AlignUp(max(size, 4), 4),
		Usage:            toWGPUBufferUsage(usage) | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, err
	}
	return buf, nil
}

func (b *wgpuRendererBackendImpl) WriteBuffer(buf shadow.Buffer, offset uint64, data []byte) error {
	native, ok := buf.(*wgpu.Buffer)
	if !ok {
		return ErrForeignHandle
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	return b.queue.WriteBuffer(native, offset, data)
}

func (b *wgpuRendererBackendImpl) CreateBufferWithData(label string, usage shadow.BufferUsage, data []byte) (shadow.Buffer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	buf, err := b.createBuffer(label, usage, uint64(len(data)))
	if err != nil {
		return nil, err
	}
	// Queue writes must be a multiple of four bytes.
	if rem := len(data) % 4; rem != 0 {
		data = append(data[:len(data):len(data)], make([]byte, 4-rem)...)
	}
	if err := b.queue.WriteBuffer(buf, 0, data); err != nil {
		buf.Release()
		return nil, err
	}
	return buf, nil
}

func (b *wgpuRendererBackendImpl) CreateBindGroupLayout(desc shadow.BindGroupLayoutDescriptor) (shadow.BindGroupLayout, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries := make([]wgpu.BindGroupLayoutEntry, len(desc.Entries))
	for i, e := range desc.Entries {
		entries[i] = toWGPULayoutEntry(e)
	}
	layout, err := b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   desc.Label,
		Entries: entries,
	})
	if err != nil {
		return nil, err
	}
	return layout, nil
}

func (b *wgpuRendererBackendImpl) CreateBindGroup(desc shadow.BindGroupDescriptor) (shadow.BindGroup, error) {
	layout, ok := desc.Layout.(*wgpu.BindGroupLayout)
	if !ok {
		return nil, ErrForeignHandle
	}

	entries := make([]wgpu.BindGroupEntry, len(desc.Entries))
	for i, e := range desc.Entries {
		entry := wgpu.BindGroupEntry{Binding: e.Binding}
		switch {
		case e.Buffer != nil:
			buf, ok := e.Buffer.(*wgpu.Buffer)
			if !ok {
				return nil, fmt.Errorf("binding %d: %w", e.Binding, ErrForeignHandle)
			}
			entry.Buffer = buf
			entry.Offset = e.Offset
			entry.Size = common.Coalesce(e.Size, wgpu.WholeSize)
		case e.TextureView != nil:
			view, ok := e.TextureView.(*wgpu.TextureView)
			if !ok {
				return nil, fmt.Errorf("binding %d: %w", e.Binding, ErrForeignHandle)
			}
			entry.TextureView = view
		case e.Sampler != nil:
			samp, ok := e.Sampler.(*wgpu.Sampler)
			if !ok {
				return nil, fmt.Errorf("binding %d: %w", e.Binding, ErrForeignHandle)
			}
			entry.Sampler = samp
		default:
			return nil, fmt.Errorf("binding %d has no resource", e.Binding)
		}
		entries[i] = entry
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	group, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   desc.Label,
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}

func (b *wgpuRendererBackendImpl) CreateDepthPipeline(desc shadow.DepthPipelineDescriptor) (shadow.Pipeline, error) {
	groupLayout, ok := desc.Layout.(*wgpu.BindGroupLayout)
	if !ok {
		return nil, ErrForeignHandle
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	module, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: desc.Label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: desc.ShaderSource,
		},
	})
	if err != nil {
		return nil, err
	}

	layout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            desc.Label,
		BindGroupLayouts: []*wgpu.BindGroupLayout{groupLayout},
	})
	if err != nil {
		module.Release()
		return nil, err
	}

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: desc.VertexEntryPoint,
			Buffers: []wgpu.VertexBufferLayout{
				{
					ArrayStride: desc.VertexStride,
					StepMode:    wgpu.VertexStepModeVertex,
					Attributes: []wgpu.VertexAttribute{
						{Format: wgpu.VertexFormatFloat32x3, Offset: desc.PositionOffset, ShaderLocation: 0},
					},
				},
			},
		},
		// Depth only
		Fragment: nil,
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  toWGPUCullMode(desc.CullMode),
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:              wgpu.TextureFormatDepth32Float,
			DepthWriteEnabled:   true,
			DepthCompare:        toWGPUCompareFunction(desc.DepthCompare),
			DepthBias:           desc.Bias.ConstantUnits(),
			DepthBiasSlopeScale: desc.Bias.Slope,
			DepthBiasClamp:      desc.Bias.Clamp,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	})
	if err != nil {
		layout.Release()
		module.Release()
		return nil, err
	}

	return &wgpuDepthPipeline{pipeline: created, layout: layout, module: module}, nil
}

func toWGPULayoutEntry(e shadow.BindGroupLayoutEntry) wgpu.BindGroupLayoutEntry {
	entry := wgpu.BindGroupLayoutEntry{
		Binding:    e.Binding,
		Visibility: toWGPUShaderStage(e.Visibility),
	}
	switch e.Type {
	case shadow.BindingTypeUniform:
		entry.Buffer = wgpu.BufferBindingLayout{
			Type:             wgpu.BufferBindingTypeUniform,
			HasDynamicOffset: e.HasDynamicOffset,
			MinBindingSize:   e.MinBindingSize,
		}
	case shadow.BindingTypeDepthTextureArray:
		entry.Texture = wgpu.TextureBindingLayout{
			SampleType:    wgpu.TextureSampleTypeDepth,
			ViewDimension: wgpu.TextureViewDimension2DArray,
			Multisampled:  false,
		}
	case shadow.BindingTypeComparisonSampler:
		entry.Sampler = wgpu.SamplerBindingLayout{
			Type: wgpu.SamplerBindingTypeComparison,
		}
	}
	return entry
}

func toWGPUShaderStage(s shadow.ShaderStage) wgpu.ShaderStage {
	var out wgpu.ShaderStage
	if s&shadow.ShaderStageVertex != 0 {
		out |= wgpu.ShaderStageVertex
	}
	if s&shadow.ShaderStageFragment != 0 {
		out |= wgpu.ShaderStageFragment
	}
	return out
}

func toWGPUBufferUsage(u shadow.BufferUsage) wgpu.BufferUsage {
	switch u {
	case shadow.BufferUsageVertex:
		return wgpu.BufferUsageVertex
	case shadow.BufferUsageIndex:
		return wgpu.BufferUsageIndex
	default:
		return wgpu.BufferUsageUniform
	}
}

func toWGPUCullMode(m shadow.CullMode) wgpu.CullMode {
	switch m {
	case shadow.CullModeFront:
		return wgpu.CullModeFront
	case shadow.CullModeBack:
		return wgpu.CullModeBack
	default:
		return wgpu.CullModeNone
	}
}

func toWGPUAddressMode(m common.AddressMode) wgpu.AddressMode {
	switch m {
	case common.AddressModeRepeat:
		return wgpu.AddressModeRepeat
	case common.AddressModeMirrorRepeat:
		return wgpu.AddressModeMirrorRepeat
	default:
		return wgpu.AddressModeClampToEdge
	}
}

func toWGPUFilterMode(m common.FilterMode) wgpu.FilterMode {
	if m == common.FilterModeLinear {
		return wgpu.FilterModeLinear
	}
	return wgpu.FilterModeNearest
}

func toWGPUCompareFunction(f common.CompareFunction) wgpu.CompareFunction {
	switch f {
	case common.CompareFunctionNever:
		return wgpu.CompareFunctionNever
	case common.CompareFunctionLess:
		return wgpu.CompareFunctionLess
	case common.CompareFunctionLessEqual:
		return wgpu.CompareFunctionLessEqual
	case common.CompareFunctionEqual:
		return wgpu.CompareFunctionEqual
	case common.CompareFunctionGreaterEqual:
		return wgpu.CompareFunctionGreaterEqual
	case common.CompareFunctionGreater:
		return wgpu.CompareFunctionGreater
	case common.CompareFunctionAlways:
		return wgpu.CompareFunctionAlways
	default:
		return wgpu.CompareFunctionUndefined
	}
}
