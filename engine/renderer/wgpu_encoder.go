package renderer

import (
	"github.com/Carmen-Shannon/oxy-csm/engine/shadow"
	"github.com/cogentcore/webgpu/wgpu"
)

// wgpuShadowEncoder records depth passes into the frame's command encoder, ahead of the
// main pass, so the cascades are complete before the lit pass samples them.
type wgpuShadowEncoder struct {
	encoder *wgpu.CommandEncoder
}

var _ shadow.Encoder = &wgpuShadowEncoder{}

func (e *wgpuShadowEncoder) BeginDepthPass(target shadow.TextureView, clearDepth float32) (shadow.PassEncoder, error) {
	view, ok := target.(*wgpu.TextureView)
	if !ok {
		return nil, ErrForeignHandle
	}

	pass := e.encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: nil,
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            view,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: clearDepth,
		},
	})
	return &wgpuDepthPass{pass: pass}, nil
}

// wgpuDepthPass adapts a render pass encoder to shadow.PassEncoder.
// Handles are asserted without checks; a foreign handle is a programming error.
type wgpuDepthPass struct {
	pass *wgpu.RenderPassEncoder
}

var _ shadow.PassEncoder = &wgpuDepthPass{}

func (p *wgpuDepthPass) SetViewport(x, y, width, height, minDepth, maxDepth float32) {
	p.pass.SetViewport(x, y, width, height, minDepth, maxDepth)
}

func (p *wgpuDepthPass) SetScissorRect(x, y, width, height uint32) {
	p.pass.SetScissorRect(x, y, width, height)
}

func (p *wgpuDepthPass) SetPipeline(pl shadow.Pipeline) {
	p.pass.SetPipeline(pl.(*wgpuDepthPipeline).pipeline)
}

func (p *wgpuDepthPass) SetBindGroup(index uint32, group shadow.BindGroup, dynamicOffsets []uint32) {
	p.pass.SetBindGroup(index, group.(*wgpu.BindGroup), dynamicOffsets)
}

func (p *wgpuDepthPass) SetVertexBuffer(slot uint32, buf shadow.Buffer) {
	p.pass.SetVertexBuffer(slot, buf.(*wgpu.Buffer), 0, wgpu.WholeSize)
}

func (p *wgpuDepthPass) SetIndexBuffer(buf shadow.Buffer) {
	p.pass.SetIndexBuffer(buf.(*wgpu.Buffer), wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
}

func (p *wgpuDepthPass) Draw(vertexCount uint32) {
	p.pass.Draw(vertexCount, 1, 0, 0)
}

func (p *wgpuDepthPass) DrawIndexed(indexCount uint32) {
	p.pass.DrawIndexed(indexCount, 1, 0, 0, 0)
}

func (p *wgpuDepthPass) End() error {
	err := p.pass.End()
	p.pass.Release()
	return err
}
