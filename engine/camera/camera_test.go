package camera

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-csm/common"
	"github.com/go-gl/mathgl/mgl32"
)

const tol = 1e-4

// within returns an absolute-tolerance comparison for mgl32's ApproxFuncEqual.
func within(tol float64) func(a, b float32) bool {
	return func(a, b float32) bool {
		return math.Abs(float64(a-b)) <= tol
	}
}

// keySet is a KeyState backed by a set of held keys.
type keySet map[uint32]bool

func (k keySet) IsKeyPressed(code uint32) bool { return k[code] }

func TestCameraDefaults(t *testing.T) {
	c := NewCamera()
	if c.Near() != 0.1 || c.Far() != 100 || c.Aspect() != 1 {
		t.Errorf("defaults near=%v far=%v aspect=%v", c.Near(), c.Far(), c.Aspect())
	}
	if c.ViewMatrix() != mgl32.Ident4() || c.InverseViewMatrix() != mgl32.Ident4() {
		t.Error("camera without a controller should start at the identity view")
	}
}

func TestCameraFollowsController(t *testing.T) {
	ctrl := NewMovementController(WithPosition(mgl32.Vec3{1, 2, 3}), WithRotation(mgl32.Vec3{0.3, 1.2, 0}))
	c := NewCamera(WithController(ctrl), WithAspect(16.0/9.0))

	if !c.Position().ApproxFuncEqual(mgl32.Vec3{1, 2, 3}, within(tol)) {
		t.Errorf("position = %v", c.Position())
	}
	if !c.ViewMatrix().Mul4(c.InverseViewMatrix()).ApproxFuncEqual(mgl32.Ident4(), within(tol)) {
		t.Error("view and inverse view disagree")
	}

	ctrl.SetPosition(mgl32.Vec3{4, 5, 6})
	c.Update()
	if got := common.TransformPoint(c.InverseViewMatrix(), mgl32.Vec3{}); !got.ApproxFuncEqual(mgl32.Vec3{4, 5, 6}, within(tol)) {
		t.Errorf("view origin after Update = %v", got)
	}
}

func TestCameraProjectionDepthRange(t *testing.T) {
	c := NewCamera(WithNear(0.5), WithFar(50))
	c.SetViewYXZ(mgl32.Vec3{}, mgl32.Vec3{})

	near := common.ProjectPoint(c.ViewProjectionMatrix(), mgl32.Vec3{0, 0, 0.5})
	far := common.ProjectPoint(c.ViewProjectionMatrix(), mgl32.Vec3{0, 0, 50})
	if math.Abs(float64(near[2])) > tol || math.Abs(float64(far[2]-1)) > tol {
		t.Errorf("depth range = [%v, %v], want [0, 1]", near[2], far[2])
	}

	c.SetFar(10)
	if z := common.ProjectPoint(c.ViewProjectionMatrix(), mgl32.Vec3{0, 0, 10})[2]; math.Abs(float64(z-1)) > tol {
		t.Errorf("far plane after SetFar projects to %v", z)
	}
}

func TestCameraFrustumCulling(t *testing.T) {
	c := NewCamera(WithFov(mgl32.DegToRad(60)), WithNear(0.1), WithFar(100))
	c.SetViewTarget(mgl32.Vec3{0, 0, -10}, mgl32.Vec3{}, common.WorldUp)

	f := c.Frustum()
	if !f.IntersectsSphere(mgl32.Vec3{}, 1) {
		t.Error("sphere at the look target should be visible")
	}
	if f.IntersectsSphere(mgl32.Vec3{0, 0, -20}, 1) {
		t.Error("sphere behind the camera should be culled")
	}
}

func TestMovementForwardFollowsYaw(t *testing.T) {
	ctrl := NewMovementController(WithRotation(mgl32.Vec3{0, math.Pi / 2, 0}))
	ctrl.MoveInPlaneXZ(keySet{common.KeyW: true}, 1)

	if got := ctrl.Position(); !got.ApproxFuncEqual(mgl32.Vec3{3, 0, 0}, within(tol)) {
		t.Errorf("position after 1s forward at yaw 90° = %v, want (3, 0, 0)", got)
	}
}

func TestMovementIsHorizontalAndNormalized(t *testing.T) {
	ctrl := NewMovementController(WithRotation(mgl32.Vec3{1.2, 0, 0}))
	ctrl.MoveInPlaneXZ(keySet{common.KeyW: true, common.KeyD: true}, 0.5)

	got := ctrl.Position()
	if got[1] != 0 {
		t.Errorf("pitched forward movement changed height: %v", got)
	}
	if l := got.Len(); math.Abs(float64(l-1.5)) > tol {
		t.Errorf("diagonal step length = %v, want 1.5", l)
	}
	if got[0] <= 0 || got[2] <= 0 {
		t.Errorf("forward+right at yaw 0 = %v, want +X and +Z", got)
	}
}

func TestMovementVertical(t *testing.T) {
	ctrl := NewMovementController(WithMoveSpeed(2))
	ctrl.MoveInPlaneXZ(keySet{common.KeyE: true}, 1)
	if got := ctrl.Position(); !got.ApproxFuncEqual(mgl32.Vec3{0, 2, 0}, within(tol)) {
		t.Errorf("after E: %v", got)
	}
	ctrl.MoveInPlaneXZ(keySet{common.KeyE: true, common.KeyQ: true}, 1)
	if got := ctrl.Position(); !got.ApproxFuncEqual(mgl32.Vec3{0, 2, 0}, within(tol)) {
		t.Errorf("opposing keys should cancel: %v", got)
	}
}

func TestLookClampsPitchAndWrapsYaw(t *testing.T) {
	ctrl := NewMovementController(WithLookSpeed(10))
	ctrl.MoveInPlaneXZ(keySet{common.KeyDown: true}, 1)
	if got := ctrl.Rotation()[0]; got != maxPitch {
		t.Errorf("pitch = %v, want clamped to %v", got, float32(maxPitch))
	}
	ctrl.MoveInPlaneXZ(keySet{common.KeyUp: true}, 1)
	if got := ctrl.Rotation()[0]; got != -maxPitch {
		t.Errorf("pitch = %v, want clamped to %v", got, float32(-maxPitch))
	}

	ctrl.MoveInPlaneXZ(keySet{common.KeyLeft: true}, 0.1)
	yaw := ctrl.Rotation()[1]
	if yaw < 0 || yaw >= 2*math.Pi {
		t.Errorf("yaw %v not wrapped into [0, 2π)", yaw)
	}
	if math.Abs(float64(yaw)-(2*math.Pi-1)) > 1e-4 {
		t.Errorf("yaw after turning left by 1 rad = %v", yaw)
	}
}

func TestLookUpRaisesView(t *testing.T) {
	ctrl := NewMovementController()
	ctrl.MoveInPlaneXZ(keySet{common.KeyUp: true}, 0.5)

	c := NewCamera(WithController(ctrl))
	forward := common.TransformPoint(c.InverseViewMatrix(), mgl32.Vec3{0, 0, 1})
	if forward[1] <= 0 {
		t.Errorf("looking up points the view at %v, want positive y", forward)
	}
}

func TestGPUCameraUniformMarshal(t *testing.T) {
	c := NewCamera()
	c.SetViewYXZ(mgl32.Vec3{1, 2, 3}, mgl32.Vec3{})
	u := NewGPUCameraUniform(c, mgl32.Vec4{1, 1, 1, 0.2})
	buf := u.Marshal()
	if len(buf) != 208 {
		t.Fatalf("len = %d, want 208", len(buf))
	}
	// inverseView[12] is the camera x position.
	bits := uint32(buf[128+48]) | uint32(buf[129+48])<<8 | uint32(buf[130+48])<<16 | uint32(buf[131+48])<<24
	if math.Float32frombits(bits) != 1 {
		t.Errorf("inverse view translation x = %v", math.Float32frombits(bits))
	}
}
