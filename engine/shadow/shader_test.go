package shadow

import (
	"strings"
	"testing"
)

func TestSamplingShaderSourceSubstitutes(t *testing.T) {
	src := SamplingShaderSource(2, 3)
	if strings.Contains(src, "SHADOW_GROUP") || strings.Contains(src, "SHADOW_CASCADES") {
		t.Fatal("placeholders left in sampling shader")
	}
	for _, want := range []string{
		"@group(2) @binding(0)",
		"@group(2) @binding(1)",
		"@group(2) @binding(2)",
		"SHADOW_CASCADE_COUNT: u32 = 3u",
		"fn shadow_factor(",
		"fn shadow_cascade_index(",
	} {
		if !strings.Contains(src, want) {
			t.Errorf("sampling shader missing %q", want)
		}
	}
}

func TestDepthShaderSource(t *testing.T) {
	src := DepthShaderSource()
	if !strings.Contains(src, "fn vs_main(") || !strings.Contains(src, "@location(0)") {
		t.Error("depth shader lacks vs_main with a location 0 position")
	}
}
