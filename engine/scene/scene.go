package scene

import (
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-csm/common"
	"github.com/Carmen-Shannon/oxy-csm/engine/camera"
	"github.com/Carmen-Shannon/oxy-csm/engine/game_object"
	"github.com/Carmen-Shannon/oxy-csm/engine/light"
	"github.com/Carmen-Shannon/oxy-csm/engine/model"
	"github.com/Carmen-Shannon/oxy-csm/engine/profiler"
	"github.com/Carmen-Shannon/oxy-csm/engine/renderer"
	"github.com/Carmen-Shannon/oxy-csm/engine/shadow"
	"github.com/go-gl/mathgl/mgl32"
)

// updateBatch is the number of objects updated by one pool task.
const updateBatch = 64

var _ shadow.CameraView = camera.Camera(nil)

// Scene defines the interface for a renderable collection of game objects and lights.
//
// A Scene owns the cascaded shadow system for its renderer. Each frame, Update advances the
// objects and Render records the shadow cascades followed by the lit pass that samples them.
type Scene interface {
	// Name returns the name of the scene.
	//
	// Returns:
	//   - string: the scene name
	Name() string

	// SetName sets the name of the scene.
	//
	// Parameters:
	//   - name: the new scene name
	SetName(name string)

	// Active returns whether the scene is active for rendering.
	//
	// Returns:
	//   - bool: true if the scene is active
	Active() bool

	// SetActive sets whether the scene is active for rendering.
	//
	// Parameters:
	//   - active: whether the scene should be active
	SetActive(active bool)

	// Camera returns the camera attached to the scene.
	//
	// Returns:
	//   - camera.Camera: the attached camera
	Camera() camera.Camera

	// SetCamera sets the camera attached to the scene.
	//
	// Parameters:
	//   - cam: the camera to attach (must not be nil)
	SetCamera(cam camera.Camera)

	// Renderer returns the renderer attached to the scene.
	//
	// Returns:
	//   - renderer.Renderer: the attached renderer
	Renderer() renderer.Renderer

	// Shadows returns the scene's cascaded shadow system.
	//
	// Returns:
	//   - shadow.System: the shadow system
	Shadows() shadow.System

	// CullingDisabled returns whether camera frustum culling of the lit pass is disabled.
	//
	// Returns:
	//   - bool: true if culling is disabled
	CullingDisabled() bool

	// SetCullingDisabled enables or disables camera frustum culling of the lit pass.
	// Shadow casters are never culled against the camera.
	//
	// Parameters:
	//   - disabled: true to disable culling
	SetCullingDisabled(disabled bool)

	// AddLight adds a standalone light to the scene.
	//
	// Parameters:
	//   - l: the light to add
	AddLight(l light.Light)

	// RemoveLight removes a light from the scene.
	//
	// Parameters:
	//   - l: the light to remove
	RemoveLight(l light.Light)

	// Lights returns a copy of the scene's lights, standalone and attached.
	//
	// Returns:
	//   - []light.Light: the lights
	Lights() []light.Light

	// AmbientColor returns the scene ambient color.
	//
	// Returns:
	//   - mgl32.Vec3: ambient RGB
	AmbientColor() mgl32.Vec3

	// SetAmbientColor sets the scene ambient color.
	//
	// Parameters:
	//   - color: ambient RGB
	SetAmbientColor(color mgl32.Vec3)

	// Add adds an object to the scene, assigning an ID when it has none. An attached light
	// joins the scene's lights and follows the object's position.
	//
	// Parameters:
	//   - obj: the object to add
	//
	// Returns:
	//   - uint64: the object's ID
	Add(obj game_object.GameObject) uint64

	// Get returns the object with the given ID, or nil.
	//
	// Parameters:
	//   - id: the object ID
	//
	// Returns:
	//   - game_object.GameObject: the object or nil
	Get(id uint64) game_object.GameObject

	// Remove removes the object with the given ID and its attached light.
	//
	// Parameters:
	//   - id: the object ID
	Remove(id uint64)

	// Count returns the number of objects in the scene.
	//
	// Returns:
	//   - int: object count
	Count() int

	// Objects returns the scene's objects in insertion order.
	//
	// Returns:
	//   - []game_object.GameObject: the objects
	Objects() []game_object.GameObject

	// Clear removes every object and attached light.
	Clear()

	// Update advances every enabled object by dt, syncs attached lights to their objects,
	// and refreshes the camera matrices.
	//
	// Parameters:
	//   - dt: elapsed time in seconds
	Update(dt float32)

	// Render records and presents one frame: the shadow cascades, then the lit pass.
	// Inactive scenes render nothing.
	//
	// Parameters:
	//   - frameIndex: the monotonically increasing frame counter
	//
	// Returns:
	//   - error: an error if the frame could not be recorded or submitted
	Render(frameIndex int) error

	// Resize updates the camera aspect and the renderer's surface.
	//
	// Parameters:
	//   - width: new surface width in pixels
	//   - height: new surface height in pixels
	Resize(width, height int)

	// Stats returns the work recorded by the last Render.
	//
	// Returns:
	//   - profiler.FrameStats: shadow and lit pass counts
	Stats() profiler.FrameStats

	// Release destroys the shadow system. Idle update workers exit on their own.
	Release()
}

type scene struct {
	mu *sync.RWMutex

	name   string
	active bool

	registry map[uint64]game_object.GameObject
	order    []uint64
	nextID   uint64

	cam camera.Camera
	r   renderer.Renderer

	shadows       shadow.System
	shadowOptions []shadow.SystemBuilderOption

	cullingDisabled bool

	lights       []light.Light
	lightObjects []game_object.GameObject
	ambientColor mgl32.Vec3

	// updatePool runs object updates in batches. A WaitGroup is the per-frame
	// barrier since the pool's own Wait blocks until workers idle-exit.
	updatePool    worker.DynamicWorkerPool
	updateWorkers int

	// Pre-allocated slices reused each frame to avoid per-frame allocations.
	casters  []shadow.Caster
	litDraws []renderer.LitDraw

	stats profiler.FrameStats
}

// Ensure scene implements Scene interface.
var _ Scene = &scene{}

// NewScene creates a new Scene with the given camera and renderer, creates its shadow system
// on the renderer's device, and builds the lit pipeline against the shadow shading layout.
// NewScene panics if cam or r is nil, or if GPU initialization fails.
//
// Parameters:
//   - name: the name of the scene
//   - cam: the camera to attach (must not be nil)
//   - r: the renderer to attach (must not be nil)
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, cam camera.Camera, r renderer.Renderer, options ...SceneBuilderOption) Scene {
	if cam == nil {
		panic("scene: NewScene requires a non-nil Camera")
	}
	if r == nil {
		panic("scene: NewScene requires a non-nil Renderer")
	}

	s := &scene{
		mu:            &sync.RWMutex{},
		name:          name,
		cam:           cam,
		r:             r,
		registry:      make(map[uint64]game_object.GameObject),
		nextID:        1,
		ambientColor:  mgl32.Vec3{0.08, 0.08, 0.1},
		updateWorkers: max(runtime.NumCPU()-1, 1),
	}

	for _, option := range options {
		option(s)
	}

	// Queue size of 256 matches the loader's pool.
	s.updatePool = worker.NewDynamicWorkerPool(s.updateWorkers, 256, 1*time.Second)

	if s.shadows == nil {
		opts := append([]shadow.SystemBuilderOption{
			shadow.WithVertexLayout(model.GPUVertexStride, model.GPUVertexPositionOffset),
		}, s.shadowOptions...)
		sys, err := shadow.NewSystem(r.Device(), opts...)
		if err != nil {
			panic(fmt.Sprintf("scene: failed to create shadow system: %v", err))
		}
		s.shadows = sys
	}

	if err := r.InitLitPipeline(s.shadows.BindGroupLayout(), s.shadows.CascadeCount()); err != nil {
		panic(fmt.Sprintf("scene: failed to init lit pipeline: %v", err))
	}

	common.Logger().Info("scene created",
		"name", name,
		"cascades", s.shadows.CascadeCount(),
		"resolution", s.shadows.Resolution(),
		"lambda", s.shadows.Lambda(),
		"frames_in_flight", s.shadows.FramesInFlight())
	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *scene) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) Camera() camera.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cam
}

func (s *scene) SetCamera(cam camera.Camera) {
	if cam == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cam = cam
}

func (s *scene) Renderer() renderer.Renderer {
	return s.r
}

func (s *scene) Shadows() shadow.System {
	return s.shadows
}

func (s *scene) CullingDisabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cullingDisabled
}

func (s *scene) SetCullingDisabled(disabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cullingDisabled = disabled
}

func (s *scene) AddLight(l light.Light) {
	if l == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lights = append(s.lights, l)
}

func (s *scene) RemoveLight(l light.Light) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLight(l)
}

// removeLight must be called with the write lock held.
func (s *scene) removeLight(l light.Light) {
	if i := slices.Index(s.lights, l); i >= 0 {
		s.lights = slices.Delete(s.lights, i, i+1)
	}
}

func (s *scene) Lights() []light.Light {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.lights)
}

func (s *scene) AmbientColor() mgl32.Vec3 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ambientColor
}

func (s *scene) SetAmbientColor(color mgl32.Vec3) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ambientColor = color
}

func (s *scene) Add(obj game_object.GameObject) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(obj)
}

// add must be called with the write lock held.
func (s *scene) add(obj game_object.GameObject) uint64 {
	if obj.ID() == 0 {
		obj.SetID(s.nextID)
	}
	id := obj.ID()
	if id >= s.nextID {
		s.nextID = id + 1
	}
	if _, exists := s.registry[id]; exists {
		return id
	}

	s.registry[id] = obj
	s.order = append(s.order, id)
	if l := obj.Light(); l != nil {
		s.lights = append(s.lights, l)
		s.lightObjects = append(s.lightObjects, obj)
	}
	return id
}

func (s *scene) Get(id uint64) game_object.GameObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry[id]
}

func (s *scene) Remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, exists := s.registry[id]
	if !exists {
		return
	}
	delete(s.registry, id)
	if i := slices.Index(s.order, id); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}

	if l := obj.Light(); l != nil {
		s.removeLight(l)
		if i := slices.Index(s.lightObjects, obj); i >= 0 {
			s.lightObjects = slices.Delete(s.lightObjects, i, i+1)
		}
	}
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.registry)
}

func (s *scene) Objects() []game_object.GameObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.objects()
}

// objects must be called with the lock held.
func (s *scene) objects() []game_object.GameObject {
	out := make([]game_object.GameObject, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.registry[id])
	}
	return out
}

func (s *scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, obj := range s.lightObjects {
		s.removeLight(obj.Light())
	}
	s.registry = make(map[uint64]game_object.GameObject)
	s.order = nil
	s.lightObjects = nil
}

func (s *scene) Update(dt float32) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	objects := s.objects()
	var wg sync.WaitGroup
	for start := 0; start < len(objects); start += updateBatch {
		batch := objects[start:min(start+updateBatch, len(objects))]
		wg.Add(1)
		s.updatePool.SubmitTask(worker.Task{
			ID: start,
			Do: func() (any, error) {
				defer wg.Done()
				for _, obj := range batch {
					if obj.Enabled() {
						obj.Update(dt)
					}
				}
				return nil, nil
			},
		})
	}
	wg.Wait()

	// Attached lights follow their object's world position.
	for _, obj := range s.lightObjects {
		if l := obj.Light(); l != nil && obj.Enabled() {
			x, y, z := obj.Position()
			l.SetPosition(mgl32.Vec3{x, y, z})
		}
	}

	s.cam.Update()
}

func (s *scene) Render(frameIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return nil
	}

	enc, err := s.r.BeginFrame()
	if err != nil {
		return fmt.Errorf("failed to begin frame: %w", err)
	}

	s.stats = profiler.FrameStats{}
	if frame, ok := s.buildFrameState(frameIndex); ok {
		if _, err := s.shadows.Render(enc, frame); err != nil {
			return s.abortFrame(fmt.Errorf("failed to render shadow cascades: %w", err))
		}
		s.stats.Shadow = s.shadows.Stats()
	}

	lit := renderer.LitFrame{
		Camera:      camera.NewGPUCameraUniform(s.cam, s.ambientColor.Vec4(1)),
		Ambient:     s.ambientColor,
		Lights:      s.lights,
		ShadowGroup: s.shadows.BindGroup(frameIndex),
		Draws:       s.collectLitDraws(),
	}
	if err := s.r.DrawLit(lit); err != nil {
		return s.abortFrame(fmt.Errorf("failed to draw lit pass: %w", err))
	}
	s.stats.LitDraws = s.r.FrameDraws()

	if err := s.r.EndFrame(); err != nil {
		s.r.Present()
		return fmt.Errorf("failed to submit frame: %w", err)
	}
	s.r.Present()
	return nil
}

// abortFrame submits and presents what was recorded so the swapchain texture is returned.
func (s *scene) abortFrame(cause error) error {
	endErr := s.r.EndFrame()
	s.r.Present()
	return errors.Join(cause, endErr)
}

// buildFrameState gathers the shadow inputs for a frame. It reports false when the
// scene has no enabled shadow-casting directional light. Caller must hold s.mu.
func (s *scene) buildFrameState(frameIndex int) (shadow.FrameState, bool) {
	sun := light.ShadowLight(s.lights)
	if sun == nil {
		return shadow.FrameState{}, false
	}

	s.casters = s.casters[:0]
	for _, id := range s.order {
		obj := s.registry[id]
		if obj.Enabled() && obj.Model() != nil {
			s.casters = append(s.casters, obj)
		}
	}

	return shadow.FrameState{
		FrameIndex:     frameIndex,
		Camera:         s.cam,
		LightDirection: sun.Direction(),
		Casters:        s.casters,
	}, true
}

// collectLitDraws returns the enabled objects inside the camera frustum. Caller must hold s.mu.
func (s *scene) collectLitDraws() []renderer.LitDraw {
	frustum := s.cam.Frustum()
	s.litDraws = s.litDraws[:0]
	for _, id := range s.order {
		obj := s.registry[id]
		if !obj.Enabled() || obj.Model() == nil {
			continue
		}
		if !s.cullingDisabled {
			center, radius := obj.BoundingSphere()
			if !frustum.IntersectsSphere(center, radius) {
				continue
			}
		}
		s.litDraws = append(s.litDraws, renderer.LitDraw{
			Model:  obj.ModelMatrix(),
			Color:  obj.Color(),
			Meshes: obj.Meshes(),
		})
	}
	return s.litDraws
}

func (s *scene) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	s.mu.Lock()
	s.cam.SetAspect(float32(width) / float32(height))
	s.mu.Unlock()
	s.r.Resize(width, height)
}

func (s *scene) Stats() profiler.FrameStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

func (s *scene) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.shadows != nil {
		s.shadows.Release()
		s.shadows = nil
	}
}
