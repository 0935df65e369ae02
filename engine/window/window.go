package window

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

// Window provides platform windowing and keyboard input.
// Wraps platform-specific window implementations with a common interface.
type Window interface {
	// SetUpdateCallback sets the function called each message loop iteration.
	//
	// Parameters:
	//   - callback: function to call (or nil to disable)
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called when the framebuffer is resized.
	//
	// Parameters:
	//   - callback: function receiving new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetKeyDownCallback sets the callback for key press events.
	//
	// Parameters:
	//   - callback: function receiving the virtual key code
	SetKeyDownCallback(callback func(keyCode uint32))

	// SetKeyUpCallback sets the callback for key release events.
	//
	// Parameters:
	//   - callback: function receiving the virtual key code
	SetKeyUpCallback(callback func(keyCode uint32))

	// IsKeyPressed reports whether a key is currently held. Safe to call from any goroutine.
	//
	// Parameters:
	//   - keyCode: the virtual key code (see common.Key*)
	//
	// Returns:
	//   - bool: true while the key is down
	IsKeyPressed(keyCode uint32) bool

	// SetTitle replaces the title bar text. Must be called from the window's thread.
	//
	// Parameters:
	//   - title: the new title
	SetTitle(title string)

	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor suitable for creating a WebGPU surface.
	// The descriptor is platform-appropriate (Windows HWND, X11 Xlib, Wayland, macOS Metal, etc.)
	// and is created by the wgpuglfw bridge from the underlying GLFW window.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform-specific surface descriptor, or nil if window is not initialized
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning returns true if the window is still active.
	//
	// Returns:
	//   - bool: true if window is running, false if closed
	IsRunning() bool

	// Close closes the window and releases platform resources.
	//
	// Returns:
	//   - error: error if close operation fails
	Close() error

	// ProcessMessages runs the window message loop.
	// Blocks until the window is closed. Calls OnUpdate callback each iteration.
	ProcessMessages()

	// Width returns the current framebuffer width in pixels.
	//
	// Returns:
	//   - int: width in pixels
	Width() int

	// Height returns the current framebuffer height in pixels.
	//
	// Returns:
	//   - int: height in pixels
	Height() int
}

// engineWindow is the implementation of the Window interface.
// Holds window configuration, GLFW state, key state, and event callbacks.
type engineWindow struct {
	// title is the window title displayed in the title bar.
	title string

	// maxWidth and maxHeight bound the window size during resize.
	maxWidth, maxHeight int

	// minWidth and minHeight bound the window size during resize.
	minWidth, minHeight int

	// sizeMu guards width and height, which the render goroutine reads.
	sizeMu sync.RWMutex
	width  int
	height int

	// keysMu guards pressed.
	keysMu  sync.RWMutex
	pressed map[uint32]bool

	// internalWindow holds the platform-specific window data (glfwWindow).
	internalWindow any

	// onUpdate is called each iteration of the message loop (if set).
	onUpdate func()

	// onResize is called when the framebuffer is resized.
	onResize func(width, height int)

	// onKeyDown is called when a key is pressed or repeats.
	onKeyDown func(keyCode uint32)

	// onKeyUp is called when a key is released.
	onKeyUp func(keyCode uint32)
}

var _ Window = &engineWindow{}

// NewWindow creates a new Window with the specified options.
// Applies default values first, then each option in order.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the configured, visible window
func NewWindow(options ...WindowBuilderOption) Window {
	w := newEngineWindow(options...)
	if err := newPlatformWindow(w); err != nil {
		panic(fmt.Sprintf("failed to create platform window: %v", err))
	}
	return w
}

// newEngineWindow applies defaults and options without touching the platform layer.
func newEngineWindow(options ...WindowBuilderOption) *engineWindow {
	w := &engineWindow{
		title:     "oxy-csm",
		maxWidth:  3840,
		maxHeight: 2160,
		minWidth:  320,
		minHeight: 200,
		width:     1280,
		height:    720,
		pressed:   make(map[uint32]bool),
	}
	for _, opt := range options {
		opt(w)
	}
	return w
}

func (w *engineWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetKeyDownCallback(callback func(keyCode uint32)) {
	w.onKeyDown = callback
}

func (w *engineWindow) SetKeyUpCallback(callback func(keyCode uint32)) {
	w.onKeyUp = callback
}

func (w *engineWindow) IsKeyPressed(keyCode uint32) bool {
	w.keysMu.RLock()
	defer w.keysMu.RUnlock()
	return w.pressed[keyCode]
}

// handleKey records key state and forwards the event to the registered callbacks.
func (w *engineWindow) handleKey(keyCode uint32, down bool) {
	w.keysMu.Lock()
	if down {
		w.pressed[keyCode] = true
	} else {
		delete(w.pressed, keyCode)
	}
	w.keysMu.Unlock()

	if down && w.onKeyDown != nil {
		w.onKeyDown(keyCode)
	}
	if !down && w.onKeyUp != nil {
		w.onKeyUp(keyCode)
	}
}

// handleResize stores the new framebuffer size and notifies the resize callback.
func (w *engineWindow) handleResize(width, height int) {
	w.setSize(width, height)
	if w.onResize != nil {
		w.onResize(width, height)
	}
}

func (w *engineWindow) setSize(width, height int) {
	w.sizeMu.Lock()
	w.width = width
	w.height = height
	w.sizeMu.Unlock()
}

func (w *engineWindow) SetTitle(title string) {
	w.title = title
	platformSetTitle(w, title)
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() {
		if succ := platformProcessMessages(w); !succ {
			break
		}

		if w.onUpdate != nil {
			w.onUpdate()
		}

		runtime.Gosched()
	}
}

func (w *engineWindow) Width() int {
	w.sizeMu.RLock()
	defer w.sizeMu.RUnlock()
	return w.width
}

func (w *engineWindow) Height() int {
	w.sizeMu.RLock()
	defer w.sizeMu.RUnlock()
	return w.height
}
