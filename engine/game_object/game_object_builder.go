package game_object

import (
	"github.com/Carmen-Shannon/oxy-csm/engine/light"
	"github.com/Carmen-Shannon/oxy-csm/engine/model"
	"github.com/go-gl/mathgl/mgl32"
)

// GameObjectBuilderOption is a functional option for configuring a GameObject during construction.
type GameObjectBuilderOption func(*gameObject)

// WithID sets the ID of the GameObject.
//
// Parameters:
//   - id: unique identifier for the GameObject
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the ID
func WithID(id uint64) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.id = id
	}
}

// WithEnabled sets whether the GameObject is enabled for rendering.
//
// Parameters:
//   - enabled: true to render the object, false to skip it
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the Enabled state
func WithEnabled(enabled bool) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.enabled.Store(enabled)
	}
}

// WithCastsShadow sets the per-object shadow flag.
//
// Parameters:
//   - casts: true to mark the object as a shadow caster
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the CastsShadow flag
func WithCastsShadow(casts bool) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.castsShadow.Store(casts)
	}
}

// WithModel sets the Model for this GameObject.
//
// Parameters:
//   - m: the Model to associate
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the Model
func WithModel(m model.Model) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.mdl = m
	}
}

// WithPosition sets the initial position of the GameObject.
//
// Parameters:
//   - x: the x position
//   - y: the y position
//   - z: the z position
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the initial position
func WithPosition(x, y, z float32) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.position = mgl32.Vec3{x, y, z}
	}
}

// WithScale sets the initial scale of the GameObject.
//
// Parameters:
//   - sx: the x scale factor
//   - sy: the y scale factor
//   - sz: the z scale factor
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the initial scale
func WithScale(sx, sy, sz float32) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.scale = mgl32.Vec3{sx, sy, sz}
	}
}

// WithRotation sets the initial rotation of the GameObject.
//
// Parameters:
//   - rx: the x rotation angle
//   - ry: the y rotation angle
//   - rz: the z rotation angle
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the initial rotation
func WithRotation(rx, ry, rz float32) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.rotation = mgl32.Vec3{rx, ry, rz}
	}
}

// WithRotationSpeed sets the angular velocity applied on every Update.
//
// Parameters:
//   - rx: the x rotation speed
//   - ry: the y rotation speed
//   - rz: the z rotation speed
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the rotation speed
func WithRotationSpeed(rx, ry, rz float32) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.rotationSpeed = mgl32.Vec3{rx, ry, rz}
	}
}

// WithLight attaches a Light to the GameObject. When added to a scene, the
// scene syncs the light's position from the object's transform each frame.
//
// Parameters:
//   - l: the Light to attach
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the attached light
func WithLight(l light.Light) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.attachedLight = l
	}
}

// WithColor sets the flat RGBA albedo of the GameObject.
//
// Parameters:
//   - color: the albedo, alpha in w
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the color
func WithColor(color mgl32.Vec4) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.color = color
	}
}
