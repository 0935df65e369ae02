package renderer

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU backend, which records shadow cascades and the lit
	// pass into one command encoder per frame.
	BackendTypeWGPU RendererBackendType = iota
)

// PresentMode controls when a submitted frame reaches the display.
type PresentMode int

const (
	// PresentModeVSync presents on the next vertical blank. Frame submission blocks once the
	// swapchain is full, which also paces how often cascades are re-rendered.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents immediately and may tear.
	PresentModeUncapped
)

// String returns the lowercase name used in logs and flags.
func (m PresentMode) String() string {
	switch m {
	case PresentModeVSync:
		return "vsync"
	case PresentModeUncapped:
		return "uncapped"
	default:
		return "unknown"
	}
}

// MSAASampleCount is the sample count of the lit pass color and depth targets.
// Shadow cascades are always single-sampled regardless of this setting.
// WebGPU guarantees 1 and 4; 8 and 16 depend on the adapter.
type MSAASampleCount uint32

const (
	// MSAAOff renders the lit pass with a single sample.
	MSAAOff MSAASampleCount = 1

	// MSAA4x is the default.
	MSAA4x MSAASampleCount = 4

	// MSAA8x is adapter-dependent.
	MSAA8x MSAASampleCount = 8

	// MSAA16x is adapter-dependent.
	MSAA16x MSAASampleCount = 16
)

// Valid reports whether c is one of the defined sample counts.
func (c MSAASampleCount) Valid() bool {
	switch c {
	case MSAAOff, MSAA4x, MSAA8x, MSAA16x:
		return true
	}
	return false
}

// RendererBackend is what the Renderer drives each frame: BeginFrame hands out the encoder
// the shadow system records its cascades into, DrawLit records the main pass sampling them,
// then EndFrame submits and Present shows the result.
// Every backend is also the shadow.Device and model.BufferUploader of the frames it renders.
type RendererBackend interface {
	wgpuRendererBackend
}
