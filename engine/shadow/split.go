package shadow

import "math"

const (
	// DefaultCascadeCount is the number of depth slices rendered per frame.
	DefaultCascadeCount = 4

	// DefaultLambda blends the logarithmic (1) and uniform (0) split schemes.
	DefaultLambda float32 = 0.73
)

// ComputeSplitDepths partitions [near, far] into count view-space slices using the
// practical split scheme: split[i] = lambda*(log_i - uniform_i) + uniform_i.
// The returned values are the far boundary of each cascade; cascade 0 starts at near.
//
// near must be > 0 and far > near. Neither is validated.
//
// Parameters:
//   - near: camera near clip distance
//   - far: camera far clip distance
//   - count: number of cascades
//   - lambda: blend factor in [0, 1]
//
// Returns:
//   - []float32: count non-decreasing split depths, the last equal to far
func ComputeSplitDepths(near, far float32, count int, lambda float32) []float32 {
	if count <= 0 {
		return nil
	}
	splits := make([]float32, count)

	n := float64(near)
	rng := float64(far) - n
	ratio := (n + rng) / n
	l := float64(lambda)
	for i := range count {
		p := float64(i+1) / float64(count)
		logSplit := n * math.Pow(ratio, p)
		uniformSplit := n + rng*p
		splits[i] = float32(l*(logSplit-uniformSplit) + uniformSplit)
	}
	// At p = 1 both schemes land on far; pin it so rounding cannot leave a gap.
	splits[count-1] = far
	return splits
}
