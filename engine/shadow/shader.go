package shadow

import (
	_ "embed"
	"strconv"
	"strings"
)

//go:embed assets/shadow_depth.wgsl
var depthShaderSource string

//go:embed assets/shadow_sample.wgsl
var sampleShaderSource string

// DepthShaderSource returns the WGSL of the depth-only cascade pass. Its vertex entry
// point is vs_main and it reads a float32x3 position at location 0.
func DepthShaderSource() string {
	return depthShaderSource
}

// SamplingShaderSource returns WGSL declaring the shadow bindings at the given group and
// the functions shadow_cascade_index(viewDepth) and shadow_factor(worldPos, viewDepth).
// The main pass prepends it to its own shader.
//
// Parameters:
//   - group: bind group index the main pass uses for the shadow layout
//   - cascadeCount: number of active cascades
//
// Returns:
//   - string: the WGSL snippet
func SamplingShaderSource(group, cascadeCount int) string {
	return strings.NewReplacer(
		"SHADOW_GROUP", strconv.Itoa(group),
		"SHADOW_CASCADES", strconv.Itoa(cascadeCount),
	).Replace(sampleShaderSource)
}
