package renderer

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-csm/common"
	"github.com/Carmen-Shannon/oxy-csm/engine/model"
	"github.com/Carmen-Shannon/oxy-csm/engine/shadow"
	"github.com/Carmen-Shannon/oxy-csm/engine/window"
	"github.com/go-gl/mathgl/mgl32"
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	backendType RendererBackendType
	backend     RendererBackend

	// frameActive is true between BeginFrame and EndFrame.
	frameActive bool
	frameDraws  int

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
	pendingMSAA          *MSAASampleCount
	pendingClearColor    *mgl32.Vec3
}

// Renderer defines the interface for the rendering system.
//
// A frame is BeginFrame, any number of shadow depth passes recorded on the returned encoder,
// one DrawLit, EndFrame, then Present. The renderer doubles as the shadow.Device the shadow
// system allocates from and as the model.BufferUploader meshes upload through.
type Renderer interface {
	model.BufferUploader

	// Device returns the graphics device used by the shadow system.
	//
	// Returns:
	//   - shadow.Device: the device
	Device() shadow.Device

	// Resize configures the underlying backend to handle a new surface size.
	// This should be called when re-sizing the window or when the surface size should change.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// SetPresentMode sets the surface present mode which controls how frames are delivered to the display.
	// A call to Resize is required after changing this for the new mode to take effect.
	//
	// Parameters:
	//   - mode: the PresentMode to use (VSync or Uncapped)
	SetPresentMode(mode PresentMode)

	// InitLitPipeline creates the lit forward pipeline against the shadow system's shading layout.
	//
	// Parameters:
	//   - shadowLayout: the layout returned by shadow.System.BindGroupLayout
	//   - cascadeCount: number of active cascades
	//
	// Returns:
	//   - error: an error if pipeline creation fails
	InitLitPipeline(shadowLayout shadow.BindGroupLayout, cascadeCount int) error

	// BeginFrame acquires the swapchain texture and opens the frame's command encoder.
	// Must be paired with EndFrame.
	//
	// Returns:
	//   - shadow.Encoder: the encoder the shadow system records its depth passes into
	//   - error: an error if the swapchain texture could not be acquired
	BeginFrame() (shadow.Encoder, error)

	// DrawLit records the lit forward pass of the current frame.
	//
	// Parameters:
	//   - frame: camera, lights, shadow bindings, and draws for this frame
	//
	// Returns:
	//   - error: an error if no frame is in progress or an upload fails
	DrawLit(frame LitFrame) error

	// EndFrame submits the frame's command buffer to the GPU.
	// Does not present the surface, call Present() after EndFrame to display the frame.
	//
	// Returns:
	//   - error: an error if the frame could not be submitted
	EndFrame() error

	// Present presents the surface to the display and releases the swapchain texture.
	// Must be called once per frame after EndFrame.
	Present()

	// FrameDraws returns the mesh draws recorded by the last DrawLit.
	FrameDraws() int

	// Release destroys the renderer's GPU resources and device. Resources created through
	// Device must be released first.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer instance with the specified backend type for the given window.
// Device or surface failures are fatal and panic.
//
// Parameters:
//   - backendType: the type of rendering backend to use (e.g., WGPU)
//   - window: the window whose surface the renderer presents to
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new instance of Renderer configured with the specified backend and options
func NewRenderer(backendType RendererBackendType, window window.Window, options ...RendererBuilderOption) Renderer {
	r := newRenderer(backendType, options...)

	switch backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		r.backend = newWGPURendererBackend(window.SurfaceDescriptor(), r.forceFallbackAdapter, r.msaa())
	}

	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}
	if c := r.pendingClearColor; c != nil {
		r.backend.SetClearColor(float64(c[0]), float64(c[1]), float64(c[2]))
	}

	r.backend.ConfigureSurface(window.Width(), window.Height())
	return r
}

// newRenderer applies options without touching the GPU.
func newRenderer(backendType RendererBackendType, options ...RendererBuilderOption) *renderer {
	r := &renderer{
		mu:          &sync.Mutex{},
		backendType: backendType,
	}

	// Options are applied first so config flags (e.g. forceFallbackAdapter) are
	// available before the backend requests a GPU adapter.
	for _, opt := range options {
		opt(r)
	}
	return r
}

// msaa returns the configured sample count, MSAA4x by default or when the count is invalid.
func (r *renderer) msaa() MSAASampleCount {
	if r.pendingMSAA == nil {
		return MSAA4x
	}
	if !r.pendingMSAA.Valid() {
		common.Logger().Warn("unsupported msaa sample count, using 4x", "samples", uint32(*r.pendingMSAA))
		return MSAA4x
	}
	return *r.pendingMSAA
}

func (r *renderer) Device() shadow.Device {
	return r.backend
}

func (r *renderer) CreateBufferWithData(label string, usage shadow.BufferUsage, data []byte) (shadow.Buffer, error) {
	return r.backend.CreateBufferWithData(label, usage, data)
}

func (r *renderer) Resize(width, height int) {
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *renderer) InitLitPipeline(shadowLayout shadow.BindGroupLayout, cascadeCount int) error {
	return r.backend.InitLitPipeline(shadowLayout, cascadeCount)
}

func (r *renderer) BeginFrame() (shadow.Encoder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frameActive {
		return nil, ErrFrameInProgress
	}
	enc, err := r.backend.BeginFrame()
	if err != nil {
		return nil, err
	}
	r.frameActive = true
	return enc, nil
}

func (r *renderer) DrawLit(frame LitFrame) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.frameActive {
		return ErrNoFrame
	}
	n, err := r.backend.DrawLit(frame)
	r.frameDraws = n
	return err
}

func (r *renderer) EndFrame() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.frameActive {
		return ErrNoFrame
	}
	r.frameActive = false
	return r.backend.EndFrame()
}

func (r *renderer) Present() {
	r.backend.Present()
}

func (r *renderer) FrameDraws() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frameDraws
}

func (r *renderer) Release() {
	r.backend.Release()
}
