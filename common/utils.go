package common

import "math"

// Coalesce returns the first non-zero value from the provided values, or the zero value if all are zero.
//
// Parameters:
//   - values: a variadic list of values to check for non-zero status
//
// Returns:
//   - T: the first non-zero value from the input, or the zero value if all are zero
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// Clamp restricts v to the closed range [lo, hi].
func Clamp(v, lo, hi float32) float32 {
	return max(lo, min(v, hi))
}

// WrapAngle folds an angle in radians into [0, 2π).
func WrapAngle(a float32) float32 {
	w := float32(math.Mod(float64(a), 2*math.Pi))
	if w < 0 {
		w += 2 * math.Pi
	}
	return w
}

// AlignUp rounds n up to the next multiple of align. align must be a power of two.
func AlignUp(n, align uint64) uint64 {
	return (n + align - 1) &^ (align - 1)
}
