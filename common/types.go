// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain
// structs that express commonly used data-types, along with the math helpers shared by every package.
package common

// AddressMode controls how texture coordinates outside [0, 1] are resolved.
type AddressMode int

const (
	AddressModeClampToEdge AddressMode = iota
	AddressModeRepeat
	AddressModeMirrorRepeat
)

// FilterMode selects texel filtering for magnification and minification.
type FilterMode int

const (
	FilterModeNearest FilterMode = iota
	FilterModeLinear
)

// CompareFunction is the depth comparison used by comparison samplers and depth tests.
type CompareFunction int

const (
	CompareFunctionUndefined CompareFunction = iota
	CompareFunctionNever
	CompareFunctionLess
	CompareFunctionLessEqual
	CompareFunctionEqual
	CompareFunctionGreaterEqual
	CompareFunctionGreater
	CompareFunctionAlways
)

// SamplerStagingData holds the configuration for a sampler pending GPU creation.
// Backends translate these values to their native enums.
type SamplerStagingData struct {
	// Label is a debug name passed to the GPU API.
	Label string
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode for texture coordinates outside the [0, 1] range in each dimension (U, V, W).
	AddressModeU, AddressModeV, AddressModeW AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter FilterMode
	// LodMinClamp and LodMaxClamp specify the minimum and maximum level of detail (LOD) for mipmapping.
	LodMinClamp, LodMaxClamp float32
	// Compare specifies the comparison function for comparison samplers. Undefined makes a regular filtering sampler.
	Compare CompareFunction
	// MaxAnisotropy specifies the maximum anisotropy level for anisotropic filtering.
	MaxAnisotropy uint16
}

// ShadowComparisonSampler returns the sampler configuration used for hardware shadow tests:
// linear filtering, clamp-to-edge addressing, and a less-or-equal comparison.
//
// Parameters:
//   - label: debug name for the sampler
//
// Returns:
//   - SamplerStagingData: the sampler configuration
func ShadowComparisonSampler(label string) SamplerStagingData {
	return SamplerStagingData{
		Label:         label,
		AddressModeU:  AddressModeClampToEdge,
		AddressModeV:  AddressModeClampToEdge,
		AddressModeW:  AddressModeClampToEdge,
		MagFilter:     FilterModeLinear,
		MinFilter:     FilterModeLinear,
		LodMinClamp:   0,
		LodMaxClamp:   1,
		Compare:       CompareFunctionLessEqual,
		MaxAnisotropy: 1,
	}
}
