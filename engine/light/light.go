package light

import "github.com/go-gl/mathgl/mgl32"

// LightType identifies the kind of light source.
type LightType int

const (
	// LightTypeDirectional represents a light with no position, only direction.
	// Used for the sun. Affects all fragments uniformly with no distance attenuation,
	// and is the only type that drives the cascaded shadow maps.
	LightTypeDirectional LightType = iota

	// LightTypePoint represents a light that emits in all directions from a position.
	// Attenuates with distance up to a configurable range.
	LightTypePoint
)

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	lightType    LightType
	position     mgl32.Vec3
	direction    mgl32.Vec3
	color        mgl32.Vec3
	intensity    float32
	lightRange   float32
	enabled      bool
	castsShadows bool
}

// Light defines the interface for a light source in the scene.
//
// Lights are scene-level entities that contribute to the final pixel color
// during the lit forward pass. Type-specific properties return zero-meaning
// values when not applicable.
//
// Lights are managed by the scene and marshaled into a GPU storage buffer
// each frame via MarshalSceneLights.
type Light interface {
	// Type returns the kind of light source.
	//
	// Returns:
	//   - LightType: the light type (directional or point)
	Type() LightType

	// Position returns the world-space position of the light.
	// Meaningless for directional lights.
	//
	// Returns:
	//   - mgl32.Vec3: the position
	Position() mgl32.Vec3

	// Direction returns the normalized direction the light travels, from the
	// source toward the scene. Meaningless for point lights.
	//
	// Returns:
	//   - mgl32.Vec3: the normalized direction
	Direction() mgl32.Vec3

	// Color returns the RGB color of the light.
	//
	// Returns:
	//   - mgl32.Vec3: color as (r, g, b)
	Color() mgl32.Vec3

	// Intensity returns the scalar intensity multiplier for the light.
	//
	// Returns:
	//   - float32: the intensity value
	Intensity() float32

	// Range returns the maximum attenuation distance for point lights.
	//
	// Returns:
	//   - float32: the range value
	Range() float32

	// Enabled returns whether this light is active for rendering.
	// Disabled lights are skipped during GPU buffer marshaling.
	//
	// Returns:
	//   - bool: true if the light is enabled
	Enabled() bool

	// CastsShadows returns whether this light drives the cascaded shadow maps.
	// Only directional lights are honored.
	//
	// Returns:
	//   - bool: true if the light casts shadows
	CastsShadows() bool

	// SetPosition sets the world-space position of the light.
	//
	// Parameters:
	//   - position: the new position
	SetPosition(position mgl32.Vec3)

	// SetDirection sets the travel direction of the light and normalizes it.
	// A zero vector is ignored.
	//
	// Parameters:
	//   - direction: direction (will be normalized)
	SetDirection(direction mgl32.Vec3)

	// SetColor sets the RGB color of the light.
	//
	// Parameters:
	//   - color: color components
	SetColor(color mgl32.Vec3)

	// SetIntensity sets the scalar intensity multiplier.
	//
	// Parameters:
	//   - intensity: the intensity value
	SetIntensity(intensity float32)

	// SetRange sets the maximum attenuation distance.
	//
	// Parameters:
	//   - lightRange: the range value
	SetRange(lightRange float32)

	// SetEnabled enables or disables the light for rendering.
	//
	// Parameters:
	//   - enabled: true to enable
	SetEnabled(enabled bool)

	// SetCastsShadows sets whether the light drives the shadow maps.
	//
	// Parameters:
	//   - castsShadows: true to enable shadow casting
	SetCastsShadows(castsShadows bool)
}

var _ Light = &lightImpl{}

// NewLight creates a new Light of the specified type with sensible defaults and
// any provided options applied.
//
// Parameters:
//   - lightType: the kind of light to create
//   - opts: variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - Light: a new Light instance
func NewLight(lightType LightType, opts ...LightBuilderOption) Light {
	l := &lightImpl{
		lightType:  lightType,
		direction:  mgl32.Vec3{0, -1, 0},
		color:      mgl32.Vec3{1, 1, 1},
		intensity:  1.0,
		lightRange: 10.0,
		enabled:    true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewSun creates a shadow-casting directional light. The sun sits in direction
// toSun from the scene, so its light travels along -toSun.
//
// Parameters:
//   - toSun: direction from the scene toward the sun
//   - opts: additional options
//
// Returns:
//   - Light: the sun
func NewSun(toSun mgl32.Vec3, opts ...LightBuilderOption) Light {
	base := []LightBuilderOption{
		WithDirection(toSun.Mul(-1)),
		WithCastsShadows(true),
	}
	return NewLight(LightTypeDirectional, append(base, opts...)...)
}

// ShadowLight returns the first enabled, shadow-casting directional light in lights.
//
// Parameters:
//   - lights: candidate lights
//
// Returns:
//   - Light: the shadow light, or nil if none qualifies
func ShadowLight(lights []Light) Light {
	for _, l := range lights {
		if l != nil && l.Enabled() && l.CastsShadows() && l.Type() == LightTypeDirectional {
			return l
		}
	}
	return nil
}

func (l *lightImpl) Type() LightType {
	return l.lightType
}

func (l *lightImpl) Position() mgl32.Vec3 {
	return l.position
}

func (l *lightImpl) Direction() mgl32.Vec3 {
	return l.direction
}

func (l *lightImpl) Color() mgl32.Vec3 {
	return l.color
}

func (l *lightImpl) Intensity() float32 {
	return l.intensity
}

func (l *lightImpl) Range() float32 {
	return l.lightRange
}

func (l *lightImpl) Enabled() bool {
	return l.enabled
}

func (l *lightImpl) CastsShadows() bool {
	return l.castsShadows
}

func (l *lightImpl) SetPosition(position mgl32.Vec3) {
	l.position = position
}

func (l *lightImpl) SetDirection(direction mgl32.Vec3) {
	l.direction = normalizeOr(direction, l.direction)
}

func (l *lightImpl) SetColor(color mgl32.Vec3) {
	l.color = color
}

func (l *lightImpl) SetIntensity(intensity float32) {
	l.intensity = intensity
}

func (l *lightImpl) SetRange(lightRange float32) {
	l.lightRange = lightRange
}

func (l *lightImpl) SetEnabled(enabled bool) {
	l.enabled = enabled
}

func (l *lightImpl) SetCastsShadows(castsShadows bool) {
	l.castsShadows = castsShadows
}

// normalizeOr returns v normalized, or fallback if v has zero length.
func normalizeOr(v, fallback mgl32.Vec3) mgl32.Vec3 {
	if v.Dot(v) == 0 {
		return fallback
	}
	return v.Normalize()
}
