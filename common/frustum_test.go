package common

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func testFrustum() Frustum {
	proj := PerspectiveLHZO(mgl32.DegToRad(90), 1, 1, 100)
	view := LookAtLH(mgl32.Vec3{}, mgl32.Vec3{0, 0, 1}, WorldUp)
	return ExtractFrustumFromMatrix(proj.Mul4(view))
}

func TestFrustumContainsPoint(t *testing.T) {
	f := testFrustum()
	cases := []struct {
		name string
		p    mgl32.Vec3
		want bool
	}{
		{"center", mgl32.Vec3{0, 0, 50}, true},
		{"behind", mgl32.Vec3{0, 0, -5}, false},
		{"before near", mgl32.Vec3{0, 0, 0.5}, false},
		{"beyond far", mgl32.Vec3{0, 0, 150}, false},
		{"left of frustum", mgl32.Vec3{-20, 0, 10}, false},
		{"above frustum", mgl32.Vec3{0, 20, 10}, false},
		{"inside edge", mgl32.Vec3{9, 9, 10}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := f.ContainsPoint(tc.p, 1e-4); got != tc.want {
				t.Errorf("ContainsPoint(%v) = %v, want %v", tc.p, got, tc.want)
			}
		})
	}
}

func TestFrustumIntersectsSphere(t *testing.T) {
	f := testFrustum()
	if !f.IntersectsSphere(mgl32.Vec3{-12, 0, 10}, 3) {
		t.Error("sphere straddling the left plane should intersect")
	}
	if f.IntersectsSphere(mgl32.Vec3{-30, 0, 10}, 3) {
		t.Error("sphere far left of the frustum should not intersect")
	}
}

func TestFrustumPlanesNormalized(t *testing.T) {
	for i, p := range testFrustum().Planes {
		if l := p.Normal.Len(); l < 0.999 || l > 1.001 {
			t.Errorf("plane %d normal length = %v", i, l)
		}
	}
}
