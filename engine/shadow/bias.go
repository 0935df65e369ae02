package shadow

import "math"

// depth32UnitScale converts a depth-space offset at depth 1.0 into the integer
// units WebGPU uses for constant depth bias on a 32-bit float depth target.
const depth32UnitScale = 1 << 23

// DepthBias is the constant and slope-scaled bias applied while rendering one cascade.
type DepthBias struct {
	// Constant is a depth-space offset.
	Constant float32
	// Slope scales the bias by the polygon's maximum depth slope.
	Slope float32
	// Clamp limits the total bias; 0 disables clamping.
	Clamp float32
}

// ConstantUnits returns Constant expressed in integer depth-bias units.
//
// On a float depth target one unit near depth 1 is 2^-23, so the bias moves a fragment by
// at most Constant*2r world units, 2r being the cascade's depth range. Cascade 0 at r = 8
// shifts by about 0.008, roughly one texel of a 2048 map over the same 16 units.
func (b DepthBias) ConstantUnits() int32 {
	return int32(math.Round(float64(b.Constant) * depth32UnitScale))
}

// DepthBiasTable holds one DepthBias per cascade. Farther cascades cover more world
// space per texel and need larger values.
type DepthBiasTable []DepthBias

// DefaultDepthBiasTable returns the tuned bias values for four cascades.
func DefaultDepthBiasTable() DepthBiasTable {
	return DepthBiasTable{
		{Constant: 0.0005, Slope: 1.25},
		{Constant: 0.0010, Slope: 1.5},
		{Constant: 0.0020, Slope: 1.75},
		{Constant: 0.0030, Slope: 2.0},
	}
}
