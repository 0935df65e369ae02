package camera

import "github.com/go-gl/mathgl/mgl32"

// KeyState reports whether a key is currently held. Key codes are the constants in common.
type KeyState interface {
	IsKeyPressed(keyCode uint32) bool
}

// KeyMappings binds movement and look actions to key codes.
type KeyMappings struct {
	MoveLeft     uint32
	MoveRight    uint32
	MoveForward  uint32
	MoveBackward uint32
	MoveUp       uint32
	MoveDown     uint32
	LookLeft     uint32
	LookRight    uint32
	LookUp       uint32
	LookDown     uint32
}

// MovementController defines a first-person fly controller that moves in the XZ plane.
// Controllers own positional state; the camera reads it in Update.
type MovementController interface {
	// Position returns the controller's world-space position.
	//
	// Returns:
	//   - mgl32.Vec3: the position
	Position() mgl32.Vec3

	// Rotation returns the pitch (X), yaw (Y), and roll (Z) angles in radians.
	//
	// Returns:
	//   - mgl32.Vec3: the rotation
	Rotation() mgl32.Vec3

	// SetPosition sets the world-space position directly.
	//
	// Parameters:
	//   - position: world-space coordinates
	SetPosition(position mgl32.Vec3)

	// SetRotation sets the rotation directly. Pitch is clamped and yaw wrapped.
	//
	// Parameters:
	//   - rotation: pitch, yaw, and roll in radians
	SetRotation(rotation mgl32.Vec3)

	// MoveInPlaneXZ applies one frame of keyboard input. Look keys rotate by LookSpeed
	// radians per second and move keys translate by MoveSpeed units per second.
	// Forward and right stay horizontal regardless of pitch.
	//
	// Parameters:
	//   - keys: the current key state
	//   - dt: frame time in seconds
	MoveInPlaneXZ(keys KeyState, dt float32)

	// MoveSpeed returns the translation speed in units per second.
	//
	// Returns:
	//   - float32: move speed
	MoveSpeed() float32

	// LookSpeed returns the rotation speed in radians per second.
	//
	// Returns:
	//   - float32: look speed
	LookSpeed() float32

	// Keys returns the active key mappings.
	//
	// Returns:
	//   - KeyMappings: the key bindings
	Keys() KeyMappings
}
