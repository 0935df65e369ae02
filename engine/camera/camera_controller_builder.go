package camera

import "github.com/go-gl/mathgl/mgl32"

// MovementControllerOption is a functional option for configuring a MovementController.
type MovementControllerOption func(*movementControllerImpl)

// WithPosition sets the starting world-space position.
//
// Parameters:
//   - position: the starting position
//
// Returns:
//   - MovementControllerOption: option function to apply
func WithPosition(position mgl32.Vec3) MovementControllerOption {
	return func(mc *movementControllerImpl) {
		mc.position = position
	}
}

// WithRotation sets the starting pitch, yaw, and roll in radians.
//
// Parameters:
//   - rotation: the starting rotation
//
// Returns:
//   - MovementControllerOption: option function to apply
func WithRotation(rotation mgl32.Vec3) MovementControllerOption {
	return func(mc *movementControllerImpl) {
		mc.rotation = rotation
	}
}

// WithMoveSpeed sets the translation speed in units per second.
//
// Parameters:
//   - speed: move speed
//
// Returns:
//   - MovementControllerOption: option function to apply
func WithMoveSpeed(speed float32) MovementControllerOption {
	return func(mc *movementControllerImpl) {
		mc.moveSpeed = speed
	}
}

// WithLookSpeed sets the rotation speed in radians per second.
func WithLookSpeed(speed float32) MovementControllerOption {
	return func(mc *movementControllerImpl) {
		mc.lookSpeed = speed
	}
}

// WithKeyMappings replaces the default WASD/EQ/arrow-key bindings.
func WithKeyMappings(keys KeyMappings) MovementControllerOption {
	return func(mc *movementControllerImpl) {
		mc.keys = keys
	}
}
