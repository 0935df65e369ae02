package camera

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-csm/common"
	"github.com/go-gl/mathgl/mgl32"
)

type cameraImpl struct {
	mu *sync.Mutex

	fov    float32
	aspect float32
	near   float32
	far    float32

	viewMatrix           mgl32.Mat4
	inverseViewMatrix    mgl32.Mat4
	projectionMatrix     mgl32.Mat4
	viewProjectionMatrix mgl32.Mat4
	position             mgl32.Vec3

	controller MovementController
}

// Camera defines the interface for the camera system.
// The camera holds perspective settings and a left-handed view with +Y up and +Z forward.
// Projections map view depth to clip-space Z in [0, 1].
type Camera interface {
	// Fov returns the vertical field of view in radians.
	//
	// Returns:
	//   - float32: field of view in radians
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	//
	// Returns:
	//   - float32: the aspect ratio
	Aspect() float32

	// Near returns the near clipping plane distance.
	//
	// Returns:
	//   - float32: near plane distance
	Near() float32

	// Far returns the far clipping plane distance.
	//
	// Returns:
	//   - float32: far plane distance
	Far() float32

	// Position returns the world-space camera position of the current view.
	//
	// Returns:
	//   - mgl32.Vec3: camera position
	Position() mgl32.Vec3

	// ViewMatrix returns the current world-to-view matrix.
	//
	// Returns:
	//   - mgl32.Mat4: the view matrix
	ViewMatrix() mgl32.Mat4

	// InverseViewMatrix returns the current view-to-world matrix.
	//
	// Returns:
	//   - mgl32.Mat4: the inverse view matrix
	InverseViewMatrix() mgl32.Mat4

	// ProjectionMatrix returns the current projection matrix.
	//
	// Returns:
	//   - mgl32.Mat4: the projection matrix
	ProjectionMatrix() mgl32.Mat4

	// ViewProjectionMatrix returns projection * view.
	//
	// Returns:
	//   - mgl32.Mat4: the combined matrix
	ViewProjectionMatrix() mgl32.Mat4

	// Frustum returns the world-space view frustum of the current view-projection.
	//
	// Returns:
	//   - common.Frustum: the six frustum planes
	Frustum() common.Frustum

	// Controller returns the attached MovementController, or nil.
	//
	// Returns:
	//   - MovementController: the attached controller or nil
	Controller() MovementController

	// Update reads position and rotation from the controller and recomputes the view.
	// If no controller is attached, this method does nothing.
	Update()

	// SetViewYXZ sets the view from a position and Y-X-Z Euler rotation.
	//
	// Parameters:
	//   - position: camera position in world space
	//   - rotation: pitch (X), yaw (Y), and roll (Z) in radians
	SetViewYXZ(position, rotation mgl32.Vec3)

	// SetViewTarget points the camera from position toward target.
	//
	// Parameters:
	//   - position: camera position in world space
	//   - target: world-space point to look at
	//   - up: approximate up direction
	SetViewTarget(position, target, up mgl32.Vec3)

	// SetFov sets the field of view in radians and recomputes the projection.
	//
	// Parameters:
	//   - fov: field of view in radians
	SetFov(fov float32)

	// SetAspect sets the aspect ratio and recomputes the projection.
	//
	// Parameters:
	//   - aspect: the aspect ratio
	SetAspect(aspect float32)

	// SetNear sets the near clipping plane distance and recomputes the projection.
	//
	// Parameters:
	//   - near: near plane distance
	SetNear(near float32)

	// SetFar sets the far clipping plane distance and recomputes the projection.
	//
	// Parameters:
	//   - far: far plane distance
	SetFar(far float32)

	// SetController attaches a MovementController to the camera.
	//
	// Parameters:
	//   - ctrl: the controller to attach
	SetController(ctrl MovementController)
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new Camera with a 50 degree field of view and clip planes at 0.1 and 100.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:                &sync.Mutex{},
		fov:               50.0 * (math.Pi / 180.0),
		aspect:            1.0,
		near:              0.1,
		far:               100.0,
		viewMatrix:        mgl32.Ident4(),
		inverseViewMatrix: mgl32.Ident4(),
	}
	for _, option := range options {
		option(c)
	}
	if c.controller != nil {
		c.updateView()
	}
	c.updateProjection()
	return c
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) Position() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

func (c *cameraImpl) ViewMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix
}

func (c *cameraImpl) InverseViewMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inverseViewMatrix
}

func (c *cameraImpl) ProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) ViewProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProjectionMatrix
}

func (c *cameraImpl) Frustum() common.Frustum {
	c.mu.Lock()
	defer c.mu.Unlock()
	return common.ExtractFrustumFromMatrix(c.viewProjectionMatrix)
}

func (c *cameraImpl) Controller() MovementController {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controller
}

func (c *cameraImpl) Update() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.controller == nil {
		return
	}
	c.updateView()
}

func (c *cameraImpl) SetViewYXZ(position, rotation mgl32.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setView(common.ViewYXZ(position, rotation))
	c.position = position
}

func (c *cameraImpl) SetViewTarget(position, target, up mgl32.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	view := common.LookAtLH(position, target, up)
	c.setView(view, view.Inv())
	c.position = position
}

func (c *cameraImpl) SetFov(fov float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov = fov
	c.updateProjection()
}

func (c *cameraImpl) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
	c.updateProjection()
}

func (c *cameraImpl) SetNear(near float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.near = near
	c.updateProjection()
}

func (c *cameraImpl) SetFar(far float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.far = far
	c.updateProjection()
}

func (c *cameraImpl) SetController(ctrl MovementController) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.controller = ctrl
}

// updateView recomputes the view from the controller. Caller must hold the mutex.
func (c *cameraImpl) updateView() {
	pos := c.controller.Position()
	c.setView(common.ViewYXZ(pos, c.controller.Rotation()))
	c.position = pos
}

// setView stores a view/inverse pair and refreshes the combined matrix. Caller must hold the mutex.
func (c *cameraImpl) setView(view, inverse mgl32.Mat4) {
	c.viewMatrix = view
	c.inverseViewMatrix = inverse
	c.viewProjectionMatrix = c.projectionMatrix.Mul4(c.viewMatrix)
}

// updateProjection recomputes the projection and combined matrices. Caller must hold the mutex.
func (c *cameraImpl) updateProjection() {
	c.projectionMatrix = common.PerspectiveLHZO(c.fov, c.aspect, c.near, c.far)
	c.viewProjectionMatrix = c.projectionMatrix.Mul4(c.viewMatrix)
}
