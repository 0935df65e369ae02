package camera

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-csm/common"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// maxPitch keeps the camera from flipping over the vertical.
	maxPitch = 1.5

	inputEpsilon = 1e-12
)

// movementControllerImpl is the single implementation of MovementController.
type movementControllerImpl struct {
	mu *sync.Mutex

	position mgl32.Vec3
	rotation mgl32.Vec3

	moveSpeed float32
	lookSpeed float32
	keys      KeyMappings
}

var _ MovementController = &movementControllerImpl{}

// DefaultKeyMappings returns WASD to move, E and Q to rise and sink, and the arrow keys to look.
//
// Returns:
//   - KeyMappings: the default bindings
func DefaultKeyMappings() KeyMappings {
	return KeyMappings{
		MoveLeft:     common.KeyA,
		MoveRight:    common.KeyD,
		MoveForward:  common.KeyW,
		MoveBackward: common.KeyS,
		MoveUp:       common.KeyE,
		MoveDown:     common.KeyQ,
		LookLeft:     common.KeyLeft,
		LookRight:    common.KeyRight,
		LookUp:       common.KeyUp,
		LookDown:     common.KeyDown,
	}
}

// NewMovementController creates a controller at the origin looking down +Z.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - MovementController: the newly created controller
func NewMovementController(options ...MovementControllerOption) MovementController {
	mc := &movementControllerImpl{
		mu:        &sync.Mutex{},
		moveSpeed: 3.0,
		lookSpeed: 1.0,
		keys:      DefaultKeyMappings(),
	}
	for _, option := range options {
		option(mc)
	}
	mc.constrain()
	return mc
}

func (mc *movementControllerImpl) Position() mgl32.Vec3 {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.position
}

func (mc *movementControllerImpl) Rotation() mgl32.Vec3 {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.rotation
}

func (mc *movementControllerImpl) SetPosition(position mgl32.Vec3) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.position = position
}

func (mc *movementControllerImpl) SetRotation(rotation mgl32.Vec3) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.rotation = rotation
	mc.constrain()
}

func (mc *movementControllerImpl) MoveSpeed() float32 {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.moveSpeed
}

func (mc *movementControllerImpl) LookSpeed() float32 {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.lookSpeed
}

func (mc *movementControllerImpl) Keys() KeyMappings {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.keys
}

func (mc *movementControllerImpl) MoveInPlaneXZ(keys KeyState, dt float32) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	var look mgl32.Vec3
	if keys.IsKeyPressed(mc.keys.LookRight) {
		look[1] += 1
	}
	if keys.IsKeyPressed(mc.keys.LookLeft) {
		look[1] -= 1
	}
	// Positive pitch tilts the view toward -Y.
	if keys.IsKeyPressed(mc.keys.LookUp) {
		look[0] -= 1
	}
	if keys.IsKeyPressed(mc.keys.LookDown) {
		look[0] += 1
	}
	if look.Dot(look) > inputEpsilon {
		mc.rotation = mc.rotation.Add(look.Normalize().Mul(mc.lookSpeed * dt))
	}
	mc.constrain()

	yaw := float64(mc.rotation[1])
	forward := mgl32.Vec3{float32(math.Sin(yaw)), 0, float32(math.Cos(yaw))}
	right := mgl32.Vec3{forward[2], 0, -forward[0]}

	var move mgl32.Vec3
	if keys.IsKeyPressed(mc.keys.MoveForward) {
		move = move.Add(forward)
	}
	if keys.IsKeyPressed(mc.keys.MoveBackward) {
		move = move.Sub(forward)
	}
	if keys.IsKeyPressed(mc.keys.MoveRight) {
		move = move.Add(right)
	}
	if keys.IsKeyPressed(mc.keys.MoveLeft) {
		move = move.Sub(right)
	}
	if keys.IsKeyPressed(mc.keys.MoveUp) {
		move = move.Add(common.WorldUp)
	}
	if keys.IsKeyPressed(mc.keys.MoveDown) {
		move = move.Sub(common.WorldUp)
	}
	if move.Dot(move) > inputEpsilon {
		mc.position = mc.position.Add(move.Normalize().Mul(mc.moveSpeed * dt))
	}
}

// constrain clamps pitch and wraps yaw. Caller must hold the mutex.
func (mc *movementControllerImpl) constrain() {
	mc.rotation[0] = common.Clamp(mc.rotation[0], -maxPitch, maxPitch)
	mc.rotation[1] = common.WrapAngle(mc.rotation[1])
}
