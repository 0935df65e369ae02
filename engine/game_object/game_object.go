package game_object

import (
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-csm/common"
	"github.com/Carmen-Shannon/oxy-csm/engine/light"
	"github.com/Carmen-Shannon/oxy-csm/engine/model"
	"github.com/Carmen-Shannon/oxy-csm/engine/shadow"
	"github.com/go-gl/mathgl/mgl32"
)

type gameObject struct {
	id            uint64
	enabled       atomic.Bool
	castsShadow   atomic.Bool
	mdl           model.Model
	attachedLight light.Light

	mu            sync.RWMutex
	position      mgl32.Vec3
	rotation      mgl32.Vec3
	rotationSpeed mgl32.Vec3
	scale         mgl32.Vec3
	color         mgl32.Vec4
}

// GameObject defines the interface for a scene entity: a Model placed in the world by a
// position, a YXZ Euler rotation, and a scale. Every GameObject is a shadow.Caster.
type GameObject interface {
	shadow.Caster

	// ID returns the object's unique identifier.
	//
	// Returns:
	//   - uint64: the object ID
	ID() uint64

	// Enabled returns whether this object is enabled for rendering.
	//
	// Returns:
	//   - bool: true if enabled
	Enabled() bool

	// Model returns the Model associated with this object, or nil if not set.
	//
	// Returns:
	//   - model.Model: the associated model or nil
	Model() model.Model

	// Position returns the object's world-space position.
	//
	// Returns:
	//   - x, y, z: position components
	Position() (x, y, z float32)

	// Rotation returns the object's rotation angles in radians.
	//
	// Returns:
	//   - rx, ry, rz: rotation angles
	Rotation() (rx, ry, rz float32)

	// RotationSpeed returns the angular velocity applied by Update, in radians per second.
	//
	// Returns:
	//   - rx, ry, rz: rotation speed values
	RotationSpeed() (rx, ry, rz float32)

	// Scale returns the object's scale factors.
	//
	// Returns:
	//   - sx, sy, sz: scale components
	Scale() (sx, sy, sz float32)

	// BoundingSphere returns a world-space sphere enclosing the model, used for culling.
	// Objects without a model return a zero radius at their position.
	//
	// Returns:
	//   - center: sphere center in world space
	//   - radius: sphere radius
	BoundingSphere() (center mgl32.Vec3, radius float32)

	// Update advances the rotation by RotationSpeed * dt.
	//
	// Parameters:
	//   - dt: elapsed seconds
	Update(dt float32)

	// SetID sets the object's unique identifier.
	//
	// Parameters:
	//   - id: the ID to assign
	SetID(id uint64)

	// SetEnabled sets whether the object is enabled for rendering.
	//
	// Parameters:
	//   - enabled: true to enable
	SetEnabled(enabled bool)

	// SetCastsShadow sets the per-object shadow flag. The shadow system only consults it
	// when configured to honor it.
	//
	// Parameters:
	//   - casts: true to mark the object as a shadow caster
	SetCastsShadow(casts bool)

	// SetModel assigns a Model to this object.
	//
	// Parameters:
	//   - m: the Model to associate
	SetModel(m model.Model)

	// SetPosition updates the object's position.
	//
	// Parameters:
	//   - x, y, z: new position components
	SetPosition(x, y, z float32)

	// SetRotation updates the object's rotation.
	//
	// Parameters:
	//   - rx, ry, rz: new rotation angles
	SetRotation(rx, ry, rz float32)

	// SetRotationSpeed updates the object's angular velocity.
	//
	// Parameters:
	//   - rx, ry, rz: new rotation speed values
	SetRotationSpeed(rx, ry, rz float32)

	// SetScale updates the object's scale.
	//
	// Parameters:
	//   - sx, sy, sz: new scale factors
	SetScale(sx, sy, sz float32)

	// Color returns the flat RGBA albedo used by the lit pass.
	Color() mgl32.Vec4

	// SetColor sets the flat RGBA albedo.
	SetColor(color mgl32.Vec4)

	// Light returns the Light attached to this object, or nil if none is set.
	//
	// Returns:
	//   - light.Light: the attached light or nil
	Light() light.Light

	// SetLight attaches a Light to this object. When the object is added to a
	// scene, the scene syncs the light's position from the object's transform
	// each frame. Pass nil to detach.
	//
	// Parameters:
	//   - l: the Light to attach, or nil to detach
	SetLight(l light.Light)
}

var _ GameObject = &gameObject{}

// DefaultColor is the albedo of objects created without WithColor.
var DefaultColor = mgl32.Vec4{0.8, 0.8, 0.8, 1}

// NewGameObject creates a new GameObject configured with the given options.
// Objects start enabled with unit scale and a light grey albedo.
//
// Parameters:
//   - options: functional options to configure the object
//
// Returns:
//   - GameObject: the newly created object
func NewGameObject(options ...GameObjectBuilderOption) GameObject {
	obj := &gameObject{
		scale: mgl32.Vec3{1, 1, 1},
		color: DefaultColor,
	}
	obj.enabled.Store(true)
	for _, option := range options {
		option(obj)
	}
	return obj
}

func (g *gameObject) ID() uint64 {
	return g.id
}

func (g *gameObject) Enabled() bool {
	return g.enabled.Load()
}

func (g *gameObject) CastsShadow() bool {
	return g.castsShadow.Load()
}

func (g *gameObject) Model() model.Model {
	return g.mdl
}

func (g *gameObject) Meshes() []shadow.Mesh {
	if g.mdl == nil {
		return nil
	}
	return g.mdl.ShadowMeshes()
}

func (g *gameObject) ModelMatrix() mgl32.Mat4 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return common.BuildModelMatrix(g.position, g.rotation, g.scale)
}

func (g *gameObject) Position() (x, y, z float32) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.position[0], g.position[1], g.position[2]
}

func (g *gameObject) Rotation() (rx, ry, rz float32) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.rotation[0], g.rotation[1], g.rotation[2]
}

func (g *gameObject) RotationSpeed() (rx, ry, rz float32) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.rotationSpeed[0], g.rotationSpeed[1], g.rotationSpeed[2]
}

func (g *gameObject) Scale() (sx, sy, sz float32) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.scale[0], g.scale[1], g.scale[2]
}

func (g *gameObject) BoundingSphere() (mgl32.Vec3, float32) {
	m := g.ModelMatrix()
	g.mu.RLock()
	pos, scale := g.position, g.scale
	g.mu.RUnlock()
	if g.mdl == nil {
		return pos, 0
	}
	b := g.mdl.Bounds()
	maxScale := max(abs(scale[0]), abs(scale[1]), abs(scale[2]))
	return common.TransformPoint(m, b.Center()), b.Radius() * maxScale
}

func (g *gameObject) Update(dt float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.rotationSpeed == (mgl32.Vec3{}) {
		return
	}
	for i := range 3 {
		g.rotation[i] = common.WrapAngle(g.rotation[i] + g.rotationSpeed[i]*dt)
	}
}

func (g *gameObject) SetID(id uint64) {
	g.id = id
}

func (g *gameObject) SetEnabled(enabled bool) {
	g.enabled.Store(enabled)
}

func (g *gameObject) SetCastsShadow(casts bool) {
	g.castsShadow.Store(casts)
}

func (g *gameObject) SetModel(m model.Model) {
	g.mdl = m
}

func (g *gameObject) SetPosition(x, y, z float32) {
	g.mu.Lock()
	g.position = mgl32.Vec3{x, y, z}
	g.mu.Unlock()
}

func (g *gameObject) SetRotation(rx, ry, rz float32) {
	g.mu.Lock()
	g.rotation = mgl32.Vec3{rx, ry, rz}
	g.mu.Unlock()
}

func (g *gameObject) SetRotationSpeed(rx, ry, rz float32) {
	g.mu.Lock()
	g.rotationSpeed = mgl32.Vec3{rx, ry, rz}
	g.mu.Unlock()
}

func (g *gameObject) SetScale(sx, sy, sz float32) {
	g.mu.Lock()
	g.scale = mgl32.Vec3{sx, sy, sz}
	g.mu.Unlock()
}

func (g *gameObject) Light() light.Light {
	return g.attachedLight
}

func (g *gameObject) SetLight(l light.Light) {
	g.attachedLight = l
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func (g *gameObject) Color() mgl32.Vec4 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.color
}

func (g *gameObject) SetColor(color mgl32.Vec4) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.color = color
}
