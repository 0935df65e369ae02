package renderer

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-csm/common"
	"github.com/Carmen-Shannon/oxy-csm/engine/model"
	"github.com/Carmen-Shannon/oxy-csm/engine/shadow"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// ErrNoFrame is returned when a frame operation runs outside BeginFrame/EndFrame.
	ErrNoFrame = errors.New("renderer: no frame in progress")

	// ErrFrameInProgress is returned when BeginFrame is called before the previous frame was presented.
	ErrFrameInProgress = errors.New("renderer: previous frame surface not yet presented")

	// ErrSurfaceNotConfigured is returned when a surface-dependent resource is created before ConfigureSurface.
	ErrSurfaceNotConfigured = errors.New("renderer: surface is not configured")
)

type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat        *wgpu.TextureFormat
	msaaTexture          *wgpu.Texture
	msaaTextureView      *wgpu.TextureView
	depthTexture         *wgpu.Texture
	depthTextureView     *wgpu.TextureView
	renderPassDescriptor *wgpu.RenderPassDescriptor

	presentMode wgpu.PresentMode // defaults to PresentModeImmediate (Uncapped)
	sampleCount MSAASampleCount  // MSAA sample count for the main render pass
	clearColor  wgpu.Color

	// Frame state shared by the shadow passes and the lit pass
	frameEncoder *wgpu.CommandEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView

	lit *litPass
}

type wgpuRendererBackend interface {
	shadow.Device
	model.BufferUploader

	Device() *wgpu.Device
	Queue() *wgpu.Queue
	Adapter() *wgpu.Adapter
	Surface() *wgpu.Surface

	// ConfigureSurface is a wrapper for boilerplate logic required when calling ConfigureSurface on a surface.
	// This is required when the surface size changes, such as when the window is resized.
	// A zero-sized surface (minimized window) is ignored.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	ConfigureSurface(width, height int)

	// SetPresentMode sets the surface present mode which controls how frames are delivered to the display.
	//
	// Parameters:
	//   - mode: the PresentMode to use (VSync or Uncapped)
	SetPresentMode(mode PresentMode)

	// SetClearColor sets the color the main pass clears to.
	SetClearColor(r, g, b float64)

	// InitLitPipeline creates the lit forward pipeline and its per-frame and per-draw bindings.
	// The surface must be configured first so the color target format is known.
	//
	// Parameters:
	//   - shadowLayout: the shading layout published by the shadow system, bound at LitGroupShadow
	//   - cascadeCount: number of active cascades sampled by the fragment shader
	//
	// Returns:
	//   - error: an error if any GPU resource could not be created
	InitLitPipeline(shadowLayout shadow.BindGroupLayout, cascadeCount int) error

	// BeginFrame acquires the next swapchain texture and creates the frame's command encoder.
	// Shadow passes recorded through the returned encoder execute before the lit pass.
	//
	// Returns:
	//   - shadow.Encoder: the encoder for depth passes
	//   - error: an error if the swapchain texture could not be acquired
	BeginFrame() (shadow.Encoder, error)

	// DrawLit uploads the frame's camera, lights, and draw constants, then records the lit pass.
	//
	// Parameters:
	//   - frame: the lit frame description
	//
	// Returns:
	//   - int: the number of mesh draws recorded
	//   - error: an error if no frame is in progress or an upload fails
	DrawLit(frame LitFrame) (int, error)

	// EndFrame finishes the command encoder and submits it to the GPU queue.
	// Does not present the surface, call Present() after EndFrame to display the frame.
	//
	// Returns:
	//   - error: an error if the command buffer could not be finished
	EndFrame() error

	// Present presents the surface to the display and releases the swapchain texture.
	// Must be called once per frame after EndFrame.
	Present()

	// Release destroys every resource owned by the backend, ending with the device.
	Release()
}

var _ RendererBackend = &wgpuRendererBackendImpl{}

func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool, sampleCount MSAASampleCount) wgpuRendererBackend {
	runtime.LockOSThread()
	w := &wgpuRendererBackendImpl{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeImmediate,
		sampleCount: sampleCount,
		clearColor:  wgpu.Color{R: 0.1, G: 0.1, B: 0.1, A: 1.0},
	}
	w.surface = w.instance.CreateSurface(surfaceDescriptor)

	a, err := w.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    w.surface,
	})
	if err != nil {
		panic(err)
	}
	w.adapter = a

	// The default limits cover the three bind groups of the lit pass.
	limits := wgpu.DefaultLimits()

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: limits,
		},
	})
	if err != nil {
		panic(err)
	}
	w.device = d
	w.queue = d.GetQueue()

	common.Logger().Info("wgpu device created",
		"fallback", forceFallbackAdapter, "msaa", uint32(sampleCount))
	return w
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = &capabilities.Formats[0]

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      *b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	b.releaseTargets()

	count := uint32(b.sampleCount)
	msaaEnabled := count > 1

	if msaaEnabled {
		// The render pass draws into the MSAA texture and resolves into the swapchain view.
		msaaTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
			Label: "MSAA Texture",
			Size: wgpu.Extent3D{
				Width:              uint32(width),
				Height:             uint32(height),
				DepthOrArrayLayers: 1,
			},
			MipLevelCount: 1,
			SampleCount:   count,
			Dimension:     wgpu.TextureDimension2D,
			Format:        *b.surfaceFormat,
			Usage:         wgpu.TextureUsageRenderAttachment,
		})
		if err != nil {
			panic(err)
		}
		b.msaaTexture = msaaTexture
		b.msaaTextureView, err = msaaTexture.CreateView(nil)
		if err != nil {
			panic(err)
		}
	}

	// Depth texture sample count must match the color attachment.
	depthTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Depth Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   count,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth24Plus,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		panic(err)
	}
	b.depthTexture = depthTexture
	b.depthTextureView, err = depthTexture.CreateView(nil)
	if err != nil {
		panic(err)
	}

	// With MSAA, View is the MSAA texture and ResolveTarget is set per frame.
	// Without it, View is set per frame to the swapchain view.
	storeOp := wgpu.StoreOpStore
	if msaaEnabled {
		storeOp = wgpu.StoreOpDiscard
	}
	b.renderPassDescriptor = &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:          b.msaaTextureView,
				ResolveTarget: nil,
				LoadOp:        wgpu.LoadOpClear,
				StoreOp:       storeOp,
				ClearValue:    b.clearColor,
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.depthTextureView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	}

	common.Logger().Debug("surface configured", "width", width, "height", height)
}

// releaseTargets must be called with mu held.
func (b *wgpuRendererBackendImpl) releaseTargets() {
	if b.msaaTextureView != nil {
		b.msaaTextureView.Release()
		b.msaaTextureView = nil
	}
	if b.msaaTexture != nil {
		b.msaaTexture.Release()
		b.msaaTexture = nil
	}
	if b.depthTextureView != nil {
		b.depthTextureView.Release()
		b.depthTextureView = nil
	}
	if b.depthTexture != nil {
		b.depthTexture.Release()
		b.depthTexture = nil
	}
}

func (b *wgpuRendererBackendImpl) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.presentMode = toWGPUPresentMode(mode)
	common.Logger().Debug("present mode set", "mode", mode.String())
}

func toWGPUPresentMode(mode PresentMode) wgpu.PresentMode {
	switch mode {
	case PresentModeVSync:
		return wgpu.PresentModeFifo
	case PresentModeUncapped:
		fallthrough
	default:
		return wgpu.PresentModeImmediate
	}
}

func (b *wgpuRendererBackendImpl) SetClearColor(r, g, bl float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.clearColor = wgpu.Color{R: r, G: g, B: bl, A: 1.0}
	if b.renderPassDescriptor != nil {
		b.renderPassDescriptor.ColorAttachments[0].ClearValue = b.clearColor
	}
}

func (b *wgpuRendererBackendImpl) BeginFrame() (shadow.Encoder, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.renderPassDescriptor == nil {
		return nil, ErrSurfaceNotConfigured
	}
	// A held surface texture means the last frame was never presented.
	if b.frameSurface != nil {
		return nil, ErrFrameInProgress
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return nil, err
	}

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return nil, err
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return nil, err
	}

	if b.sampleCount > 1 {
		b.renderPassDescriptor.ColorAttachments[0].ResolveTarget = view
	} else {
		b.renderPassDescriptor.ColorAttachments[0].View = view
	}

	b.frameEncoder = encoder
	b.frameSurface = surfaceTexture
	b.frameView = view

	return &wgpuShadowEncoder{encoder: encoder}, nil
}

func (b *wgpuRendererBackendImpl) EndFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder == nil {
		return ErrNoFrame
	}

	commandBuffer, err := b.frameEncoder.Finish(nil)
	b.frameEncoder.Release()
	b.frameEncoder = nil
	if err != nil {
		b.releaseFrameSurface()
		return fmt.Errorf("failed to finish frame commands: %w", err)
	}

	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
	return nil
}

func (b *wgpuRendererBackendImpl) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface == nil {
		return
	}

	b.surface.Present()
	b.releaseFrameSurface()
}

// releaseFrameSurface must be called with mu held.
func (b *wgpuRendererBackendImpl) releaseFrameSurface() {
	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	if b.frameSurface != nil {
		b.frameSurface.Release()
		b.frameSurface = nil
	}
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder != nil {
		b.frameEncoder.Release()
		b.frameEncoder = nil
	}
	b.releaseFrameSurface()
	if b.lit != nil {
		b.lit.release()
		b.lit = nil
	}
	b.releaseTargets()
	b.queue.Release()
	b.device.Release()
	b.adapter.Release()
	b.surface.Release()
	b.instance.Release()
}

func (b *wgpuRendererBackendImpl) Device() *wgpu.Device {
	return b.device
}

func (b *wgpuRendererBackendImpl) Queue() *wgpu.Queue {
	return b.queue
}

func (b *wgpuRendererBackendImpl) Adapter() *wgpu.Adapter {
	return b.adapter
}

func (b *wgpuRendererBackendImpl) Surface() *wgpu.Surface {
	return b.surface
}
