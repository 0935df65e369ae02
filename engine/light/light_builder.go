package light

import "github.com/go-gl/mathgl/mgl32"

// LightBuilderOption is a function that configures a Light instance during construction.
type LightBuilderOption func(*lightImpl)

// WithPosition is an option builder that sets the world-space position of the light.
//
// Parameters:
//   - position: the light position
//
// Returns:
//   - LightBuilderOption: a function that applies the position option to a lightImpl
func WithPosition(position mgl32.Vec3) LightBuilderOption {
	return func(l *lightImpl) {
		l.position = position
	}
}

// WithDirection is an option builder that sets the travel direction of the light.
// The direction is normalized before storing.
//
// Parameters:
//   - direction: the light direction
//
// Returns:
//   - LightBuilderOption: a function that applies the direction option to a lightImpl
func WithDirection(direction mgl32.Vec3) LightBuilderOption {
	return func(l *lightImpl) {
		l.direction = normalizeOr(direction, l.direction)
	}
}

// WithColor is an option builder that sets the RGB color of the light.
//
// Parameters:
//   - color: the light color
//
// Returns:
//   - LightBuilderOption: a function that applies the color option to a lightImpl
func WithColor(color mgl32.Vec3) LightBuilderOption {
	return func(l *lightImpl) {
		l.color = color
	}
}

// WithIntensity is an option builder that sets the scalar intensity multiplier.
//
// Parameters:
//   - intensity: the intensity value
//
// Returns:
//   - LightBuilderOption: a function that applies the intensity option to a lightImpl
func WithIntensity(intensity float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.intensity = intensity
	}
}

// WithRange is an option builder that sets the attenuation distance of a point light.
func WithRange(lightRange float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.lightRange = lightRange
	}
}

// WithEnabled is an option builder that sets whether the light starts enabled.
func WithEnabled(enabled bool) LightBuilderOption {
	return func(l *lightImpl) {
		l.enabled = enabled
	}
}

// WithCastsShadows is an option builder that marks the light as the shadow source.
func WithCastsShadows(castsShadows bool) LightBuilderOption {
	return func(l *lightImpl) {
		l.castsShadows = castsShadows
	}
}
