package shadow

import (
	"github.com/Carmen-Shannon/oxy-csm/common"
)

// Resource is a GPU object that must be released explicitly by its owner.
type Resource interface {
	// Release frees the underlying GPU object. Calling it twice is undefined.
	Release()
}

// Opaque handle types returned by a Device. Backends hand out their native objects
// and type-assert them back when the handle is used.
type (
	Texture         interface{ Resource }
	TextureView     interface{ Resource }
	Sampler         interface{ Resource }
	Buffer          interface{ Resource }
	BindGroupLayout interface{ Resource }
	BindGroup       interface{ Resource }
	Pipeline        interface{ Resource }
)

// BufferUsage describes how a buffer created through a Device will be bound.
type BufferUsage int

const (
	BufferUsageUniform BufferUsage = iota
	BufferUsageVertex
	BufferUsageIndex
)

// ShaderStage is a bit set of pipeline stages that can see a binding.
type ShaderStage uint32

const (
	ShaderStageVertex ShaderStage = 1 << iota
	ShaderStageFragment
)

// BindingType identifies the kind of resource at a layout binding.
type BindingType int

const (
	BindingTypeUniform BindingType = iota
	BindingTypeDepthTextureArray
	BindingTypeComparisonSampler
)

// CullMode selects which triangle faces the depth pipeline discards.
type CullMode int

const (
	CullModeNone CullMode = iota
	CullModeFront
	CullModeBack
)

// DepthTextureDescriptor describes a layered depth image.
type DepthTextureDescriptor struct {
	Label  string
	Width  uint32
	Height uint32
	// Layers is the number of array layers, one per cascade.
	Layers uint32
}

// TextureViewDescriptor selects a layer range of a depth texture.
type TextureViewDescriptor struct {
	Label      string
	BaseLayer  uint32
	LayerCount uint32
	// Array requests a 2D-array view dimension even when LayerCount is 1.
	Array bool
}

// BufferDescriptor describes a GPU buffer. Buffers are always writable from the host.
type BufferDescriptor struct {
	Label string
	Size  uint64
	Usage BufferUsage
}

// BindGroupLayoutEntry describes a single binding slot in a layout.
type BindGroupLayoutEntry struct {
	Binding          uint32
	Visibility       ShaderStage
	Type             BindingType
	HasDynamicOffset bool
	MinBindingSize   uint64
}

// BindGroupLayoutDescriptor describes a bind group layout.
type BindGroupLayoutDescriptor struct {
	Label   string
	Entries []BindGroupLayoutEntry
}

// BindGroupEntry binds one resource. Exactly one of Buffer, TextureView, or Sampler is set.
type BindGroupEntry struct {
	Binding     uint32
	Buffer      Buffer
	Offset      uint64
	Size        uint64
	TextureView TextureView
	Sampler     Sampler
}

// BindGroupDescriptor describes a bind group against a layout.
type BindGroupDescriptor struct {
	Label   string
	Layout  BindGroupLayout
	Entries []BindGroupEntry
}

// DepthPipelineDescriptor describes a depth-only render pipeline with a single
// position attribute and fixed depth bias state.
type DepthPipelineDescriptor struct {
	Label            string
	Layout           BindGroupLayout
	ShaderSource     string
	VertexEntryPoint string
	// VertexStride is the byte stride of the bound vertex buffer.
	VertexStride uint64
	// PositionOffset is the byte offset of the float32x3 position inside a vertex.
	PositionOffset uint64
	Bias           DepthBias
	CullMode       CullMode
	DepthCompare   common.CompareFunction
}

// Device is the subset of a graphics device the shadow system needs.
// Creation failures are returned as errors; the caller decides whether they are fatal.
type Device interface {
	// CreateDepthTexture creates a Depth32Float texture array usable as a render
	// attachment and as a sampled texture.
	CreateDepthTexture(desc DepthTextureDescriptor) (Texture, error)

	// CreateTextureView creates a view over a layer range of tex.
	CreateTextureView(tex Texture, desc TextureViewDescriptor) (TextureView, error)

	// CreateSampler creates a sampler. A defined Compare function makes it a comparison sampler.
	CreateSampler(desc common.SamplerStagingData) (Sampler, error)

	// CreateBuffer creates a host-writable buffer.
	CreateBuffer(desc BufferDescriptor) (Buffer, error)

	// WriteBuffer schedules a host-to-device copy into buf at offset.
	// Writes become visible to commands submitted after the call.
	WriteBuffer(buf Buffer, offset uint64, data []byte) error

	// CreateBindGroupLayout creates a bind group layout.
	CreateBindGroupLayout(desc BindGroupLayoutDescriptor) (BindGroupLayout, error)

	// CreateBindGroup creates a bind group.
	CreateBindGroup(desc BindGroupDescriptor) (BindGroup, error)

	// CreateDepthPipeline creates a depth-only render pipeline.
	CreateDepthPipeline(desc DepthPipelineDescriptor) (Pipeline, error)
}

// Encoder records depth passes into the current frame's command stream.
type Encoder interface {
	// BeginDepthPass starts a depth-only pass writing to target, cleared to clearDepth.
	BeginDepthPass(target TextureView, clearDepth float32) (PassEncoder, error)
}

// PassEncoder records commands for a single depth pass.
type PassEncoder interface {
	SetViewport(x, y, width, height, minDepth, maxDepth float32)
	SetScissorRect(x, y, width, height uint32)
	SetPipeline(p Pipeline)
	SetBindGroup(index uint32, group BindGroup, dynamicOffsets []uint32)
	SetVertexBuffer(slot uint32, buf Buffer)
	// SetIndexBuffer binds a uint32 index buffer.
	SetIndexBuffer(buf Buffer)
	Draw(vertexCount uint32)
	DrawIndexed(indexCount uint32)
	End() error
}
