package common

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

const tol = 1e-4

// within returns an absolute-tolerance comparison for mgl32's ApproxFuncEqual.
func within(tol float64) func(a, b float32) bool {
	return func(a, b float32) bool {
		return math.Abs(float64(a-b)) <= tol
	}
}

func TestLookAtLHForward(t *testing.T) {
	eye := mgl32.Vec3{0, 0, -5}
	view := LookAtLH(eye, mgl32.Vec3{}, WorldUp)

	// The target sits straight ahead on +Z in view space.
	got := TransformPoint(view, mgl32.Vec3{})
	if !got.ApproxFuncEqual(mgl32.Vec3{0, 0, 5}, within(tol)) {
		t.Errorf("target in view space = %v, want (0, 0, 5)", got)
	}
	// +X in world stays to the right.
	right := TransformPoint(view, mgl32.Vec3{1, 0, 0})
	if right[0] <= 0 {
		t.Errorf("world +X maps to view %v, want positive x", right)
	}
}

func TestOrthoLHZODepthRange(t *testing.T) {
	proj := OrthoLHZO(-2, 2, -1, 1, 0, 10)
	cases := []struct {
		in, want mgl32.Vec3
	}{
		{mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, 0}},
		{mgl32.Vec3{0, 0, 10}, mgl32.Vec3{0, 0, 1}},
		{mgl32.Vec3{2, 1, 5}, mgl32.Vec3{1, 1, 0.5}},
		{mgl32.Vec3{-2, -1, 5}, mgl32.Vec3{-1, -1, 0.5}},
	}
	for _, tc := range cases {
		if got := ProjectPoint(proj, tc.in); !got.ApproxFuncEqual(tc.want, within(tol)) {
			t.Errorf("ortho(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestPerspectiveLHZODepthRange(t *testing.T) {
	proj := PerspectiveLHZO(mgl32.DegToRad(60), 1.5, 0.1, 100)
	if z := ProjectPoint(proj, mgl32.Vec3{0, 0, 0.1})[2]; math.Abs(float64(z)) > tol {
		t.Errorf("near plane depth = %v, want 0", z)
	}
	if z := ProjectPoint(proj, mgl32.Vec3{0, 0, 100})[2]; math.Abs(float64(z-1)) > tol {
		t.Errorf("far plane depth = %v, want 1", z)
	}
	// The top edge of the frustum at depth d lies at y = d * tan(fov/2).
	top := float32(10 * math.Tan(math.Pi/6))
	if y := ProjectPoint(proj, mgl32.Vec3{0, top, 10})[1]; math.Abs(float64(y-1)) > tol {
		t.Errorf("top edge projects to y = %v, want 1", y)
	}
}

func TestViewYXZInverse(t *testing.T) {
	pos := mgl32.Vec3{3, -2, 7}
	rot := mgl32.Vec3{0.3, -1.1, 0.2}
	view, inv := ViewYXZ(pos, rot)

	if !view.Mul4(inv).ApproxFuncEqual(mgl32.Ident4(), within(tol)) {
		t.Errorf("view * inverse is not identity:\n%v", view.Mul4(inv))
	}
	if got := TransformPoint(inv, mgl32.Vec3{}); !got.ApproxFuncEqual(pos, within(tol)) {
		t.Errorf("view origin maps to %v, want camera position %v", got, pos)
	}
}

func TestViewYXZYaw(t *testing.T) {
	// A quarter turn of yaw points the camera along world +X.
	_, inv := ViewYXZ(mgl32.Vec3{}, mgl32.Vec3{0, math.Pi / 2, 0})
	forward := TransformPoint(inv, mgl32.Vec3{0, 0, 1})
	if !forward.ApproxFuncEqual(mgl32.Vec3{1, 0, 0}, within(tol)) {
		t.Errorf("forward after yaw = %v, want (1, 0, 0)", forward)
	}
}

func TestBuildModelMatrix(t *testing.T) {
	m := BuildModelMatrix(mgl32.Vec3{1, 2, 3}, mgl32.Vec3{}, mgl32.Vec3{2, 2, 2})
	if got := TransformPoint(m, mgl32.Vec3{1, 1, 1}); !got.ApproxFuncEqual(mgl32.Vec3{3, 4, 5}, within(tol)) {
		t.Errorf("model * (1,1,1) = %v, want (3, 4, 5)", got)
	}
}

func TestSliceToBytes(t *testing.T) {
	if SliceToBytes([]float32{}) != nil {
		t.Error("empty slice should produce nil")
	}
	if got := len(SliceToBytes([]mgl32.Vec3{{1, 2, 3}, {4, 5, 6}})); got != 24 {
		t.Errorf("len = %d, want 24", got)
	}
}
