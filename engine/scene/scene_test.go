package scene

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-csm/engine/camera"
	"github.com/Carmen-Shannon/oxy-csm/engine/game_object"
	"github.com/Carmen-Shannon/oxy-csm/engine/light"
	"github.com/Carmen-Shannon/oxy-csm/engine/model"
	"github.com/Carmen-Shannon/oxy-csm/engine/renderer"
	"github.com/Carmen-Shannon/oxy-csm/engine/shadow"
	"github.com/go-gl/mathgl/mgl32"
)

// fakeRenderer records the frame calls; other methods panic on the nil embed.
type fakeRenderer struct {
	renderer.Renderer
	litLayoutCascades int
	begins, ends      int
	presents          int
	lastLit           renderer.LitFrame
	resized           [2]int
}

func (f *fakeRenderer) InitLitPipeline(_ shadow.BindGroupLayout, cascadeCount int) error {
	f.litLayoutCascades = cascadeCount
	return nil
}

func (f *fakeRenderer) BeginFrame() (shadow.Encoder, error) {
	f.begins++
	return nil, nil
}

func (f *fakeRenderer) DrawLit(frame renderer.LitFrame) error {
	f.lastLit = frame
	f.lastLit.Draws = append([]renderer.LitDraw(nil), frame.Draws...)
	return nil
}

func (f *fakeRenderer) EndFrame() error {
	f.ends++
	return nil
}

func (f *fakeRenderer) Present()        { f.presents++ }
func (f *fakeRenderer) FrameDraws() int { return len(f.lastLit.Draws) }
func (f *fakeRenderer) Resize(w, h int) { f.resized = [2]int{w, h} }

type fakeGroup struct{ frame int }

func (fakeGroup) Release() {}

// fakeShadows records the frame state handed to Render.
type fakeShadows struct {
	shadow.System
	renders   int
	lastFrame shadow.FrameState
	err       error
	released  bool
}

func (f *fakeShadows) Render(_ shadow.Encoder, frame shadow.FrameState) ([]shadow.Cascade, error) {
	f.renders++
	f.lastFrame = frame
	f.lastFrame.Casters = append([]shadow.Caster(nil), frame.Casters...)
	return nil, f.err
}

func (f *fakeShadows) BindGroupLayout() shadow.BindGroupLayout { return fakeGroup{} }
func (f *fakeShadows) BindGroup(frameIndex int) shadow.BindGroup {
	return fakeGroup{frame: frameIndex % 2}
}
func (f *fakeShadows) CascadeCount() int   { return 4 }
func (f *fakeShadows) Resolution() uint32  { return 2048 }
func (f *fakeShadows) Lambda() float32     { return 0.73 }
func (f *fakeShadows) FramesInFlight() int { return 2 }
func (f *fakeShadows) Stats() shadow.Stats { return shadow.Stats{Passes: 4, Draws: f.renders} }
func (f *fakeShadows) Release()            { f.released = true }

func newTestScene(t *testing.T, options ...SceneBuilderOption) (*scene, *fakeRenderer, *fakeShadows) {
	t.Helper()
	cam := camera.NewCamera()
	cam.SetViewYXZ(mgl32.Vec3{}, mgl32.Vec3{})
	fr := &fakeRenderer{}
	fs := &fakeShadows{}
	opts := append([]SceneBuilderOption{WithShadowSystem(fs), WithActive(true), WithUpdateWorkers(2)}, options...)
	s := NewScene("test", cam, fr, opts...).(*scene)
	return s, fr, fs
}

func cubeAt(x, y, z float32) game_object.GameObject {
	return game_object.NewGameObject(
		game_object.WithModel(model.NewCube("cube", 1)),
		game_object.WithPosition(x, y, z),
	)
}

func TestNewScenePanicsOnNilCollaborators(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for nil camera")
		}
	}()
	NewScene("bad", nil, &fakeRenderer{})
}

func TestNewSceneInitsLitPipeline(t *testing.T) {
	_, fr, _ := newTestScene(t)
	if fr.litLayoutCascades != 4 {
		t.Errorf("lit pipeline cascades = %d, want 4", fr.litLayoutCascades)
	}
}

func TestAddAssignsIDs(t *testing.T) {
	s, _, _ := newTestScene(t)

	a := cubeAt(0, 0, 5)
	b := game_object.NewGameObject(game_object.WithID(10))
	c := cubeAt(0, 0, 6)

	if id := s.Add(a); id != 1 {
		t.Errorf("first ID = %d, want 1", id)
	}
	if id := s.Add(b); id != 10 {
		t.Errorf("explicit ID = %d, want 10", id)
	}
	if id := s.Add(c); id != 11 {
		t.Errorf("ID after explicit = %d, want 11", id)
	}
	if s.Count() != 3 {
		t.Errorf("Count = %d, want 3", s.Count())
	}

	objs := s.Objects()
	if objs[0] != a || objs[1] != b || objs[2] != c {
		t.Error("Objects not in insertion order")
	}

	s.Remove(10)
	if s.Get(10) != nil || s.Count() != 2 {
		t.Error("Remove did not drop the object")
	}
}

func TestAttachedLights(t *testing.T) {
	s, _, _ := newTestScene(t)

	lamp := light.NewLight(light.LightTypePoint)
	obj := game_object.NewGameObject(game_object.WithLight(lamp), game_object.WithPosition(1, 2, 3))
	id := s.Add(obj)

	if got := s.Lights(); len(got) != 1 || got[0] != lamp {
		t.Fatalf("Lights = %v, want the attached lamp", got)
	}

	s.Update(0.016)
	if got := lamp.Position(); got != (mgl32.Vec3{1, 2, 3}) {
		t.Errorf("lamp position = %v, want (1, 2, 3)", got)
	}

	s.Remove(id)
	if len(s.Lights()) != 0 {
		t.Error("attached light not removed with its object")
	}
}

func TestUpdateRunsEveryObject(t *testing.T) {
	s, _, _ := newTestScene(t)

	var objs []game_object.GameObject
	for range updateBatch*2 + 3 {
		obj := game_object.NewGameObject(game_object.WithRotationSpeed(0, 1, 0))
		s.Add(obj)
		objs = append(objs, obj)
	}
	disabled := game_object.NewGameObject(game_object.WithRotationSpeed(0, 1, 0), game_object.WithEnabled(false))
	s.Add(disabled)

	s.Update(0.5)
	for i, obj := range objs {
		if _, ry, _ := obj.Rotation(); ry != 0.5 {
			t.Fatalf("object %d rotation = %v, want 0.5", i, ry)
		}
	}
	if _, ry, _ := disabled.Rotation(); ry != 0 {
		t.Errorf("disabled object rotated to %v", ry)
	}
}

func TestRenderSkipsShadowsWithoutLight(t *testing.T) {
	s, fr, fs := newTestScene(t)
	s.Add(cubeAt(0, 0, 5))

	if err := s.Render(0); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if fs.renders != 0 {
		t.Errorf("shadow renders = %d, want 0 without a shadow light", fs.renders)
	}
	if fr.lastLit.ShadowGroup == nil {
		t.Error("lit pass must still bind the shadow group")
	}
	if fr.begins != 1 || fr.ends != 1 || fr.presents != 1 {
		t.Errorf("begins=%d ends=%d presents=%d, want 1 each", fr.begins, fr.ends, fr.presents)
	}
	if s.Stats().Shadow.Passes != 0 {
		t.Errorf("shadow passes = %d, want 0", s.Stats().Shadow.Passes)
	}
}

func TestRenderBuildsFrameState(t *testing.T) {
	sun := light.NewSun(mgl32.Vec3{1, 1, -0.2})
	s, fr, fs := newTestScene(t, WithLights(sun))

	visible := cubeAt(0, 0, 5)
	behind := cubeAt(0, 0, -20)
	empty := game_object.NewGameObject()
	s.Add(visible)
	s.Add(behind)
	s.Add(empty)
	s.Update(0.02)

	if err := s.Render(3); err != nil {
		t.Fatalf("Render: %v", err)
	}

	if fs.renders != 1 {
		t.Fatalf("shadow renders = %d, want 1", fs.renders)
	}
	frame := fs.lastFrame
	if frame.FrameIndex != 3 {
		t.Errorf("frame index = %d, want 3", frame.FrameIndex)
	}
	if frame.LightDirection != sun.Direction() {
		t.Errorf("light direction = %v, want %v", frame.LightDirection, sun.Direction())
	}
	// Casters are not culled against the camera; objects without a model are skipped.
	if len(frame.Casters) != 2 {
		t.Errorf("casters = %d, want 2", len(frame.Casters))
	}

	if len(fr.lastLit.Draws) != 1 {
		t.Fatalf("lit draws = %d, want 1 after frustum culling", len(fr.lastLit.Draws))
	}
	if fr.lastLit.Draws[0].Model != visible.ModelMatrix() {
		t.Error("lit draw is not the visible object")
	}
	if g, ok := fr.lastLit.ShadowGroup.(fakeGroup); !ok || g.frame != 1 {
		t.Errorf("shadow group = %v, want frame slot 1", fr.lastLit.ShadowGroup)
	}
	stats := s.Stats()
	if stats.Shadow.Passes != 4 || stats.LitDraws != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestRenderCullingDisabled(t *testing.T) {
	s, fr, _ := newTestScene(t, WithCullingDisabled(true))
	s.Add(cubeAt(0, 0, 5))
	s.Add(cubeAt(0, 0, -20))

	if err := s.Render(0); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(fr.lastLit.Draws) != 2 {
		t.Errorf("lit draws = %d, want 2 with culling disabled", len(fr.lastLit.Draws))
	}
}

func TestRenderShadowErrorEndsFrame(t *testing.T) {
	s, fr, fs := newTestScene(t, WithLights(light.NewSun(mgl32.Vec3{0, 1, 0})))
	fs.err = errors.New("boom")
	s.Add(cubeAt(0, 0, 5))

	err := s.Render(0)
	if !errors.Is(err, fs.err) {
		t.Fatalf("Render err = %v, want wrapped shadow error", err)
	}
	if fr.ends != 1 || fr.presents != 1 {
		t.Errorf("aborted frame ends=%d presents=%d, want 1 and 1", fr.ends, fr.presents)
	}
}

func TestInactiveSceneRendersNothing(t *testing.T) {
	s, fr, _ := newTestScene(t, WithActive(false))
	if err := s.Render(0); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if fr.begins != 0 {
		t.Error("inactive scene began a frame")
	}
}

func TestResizeAndRelease(t *testing.T) {
	s, fr, fs := newTestScene(t)

	s.Resize(1600, 800)
	if got := s.Camera().Aspect(); got != 2 {
		t.Errorf("aspect = %v, want 2", got)
	}
	if fr.resized != [2]int{1600, 800} {
		t.Errorf("renderer resized to %v", fr.resized)
	}

	s.Release()
	if !fs.released {
		t.Error("Release did not release the shadow system")
	}
}
