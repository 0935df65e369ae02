package shadow

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-csm/common"
	"github.com/go-gl/mathgl/mgl32"
)

// newTestSystem creates a system on a fresh fake device with two casters:
// one indexed mesh and one non-indexed mesh.
func newTestSystem(t *testing.T, options ...SystemBuilderOption) (*shadowSystem, *fakeDevice, []Caster) {
	t.Helper()
	dev := newFakeDevice()
	sys, err := NewSystem(dev, options...)
	if err != nil {
		t.Fatalf("NewSystem: %v", err)
	}

	vb0, _ := dev.CreateBuffer(BufferDescriptor{Label: "cube_vertices", Size: 1024})
	ib0, _ := dev.CreateBuffer(BufferDescriptor{Label: "cube_indices", Size: 1024})
	vb1, _ := dev.CreateBuffer(BufferDescriptor{Label: "tri_vertices", Size: 1024})

	casters := []Caster{
		fakeCaster{
			model:  mgl32.Translate3D(1, 0, 0),
			meshes: []Mesh{fakeMesh{vb: vb0, ib: ib0, vCount: 24, iCount: 36}},
			casts:  true,
		},
		fakeCaster{
			model:  mgl32.Translate3D(0, 2, 0),
			meshes: []Mesh{fakeMesh{vb: vb1, vCount: 3}},
		},
	}
	return sys.(*shadowSystem), dev, casters
}

func testFrame(index int, casters []Caster) FrameState {
	return FrameState{
		FrameIndex:     index,
		Camera:         newFakeCamera(mgl32.Vec3{0, 2, -6}, mgl32.Vec3{0.2, 0, 0}),
		LightDirection: mgl32.Vec3{1, 1, -0.2}.Normalize().Mul(-1),
		Casters:        casters,
	}
}

func TestNewSystemDefaults(t *testing.T) {
	sys, dev, _ := newTestSystem(t)

	if sys.CascadeCount() != DefaultCascadeCount || sys.Resolution() != DefaultResolution ||
		sys.FramesInFlight() != DefaultFramesInFlight || sys.Lambda() != DefaultLambda {
		t.Errorf("unexpected defaults: cascades=%d res=%d frames=%d lambda=%v",
			sys.CascadeCount(), sys.Resolution(), sys.FramesInFlight(), sys.Lambda())
	}

	if len(dev.pipelines) != DefaultCascadeCount {
		t.Fatalf("created %d pipelines, want one per cascade", len(dev.pipelines))
	}
	table := DefaultDepthBiasTable()
	for c, p := range dev.pipelines {
		if p.Bias != table[c] {
			t.Errorf("pipeline %d bias = %+v, want %+v", c, p.Bias, table[c])
		}
		if p.DepthCompare != common.CompareFunctionLessEqual || p.CullMode != CullModeNone {
			t.Errorf("pipeline %d compare=%v cull=%v", c, p.DepthCompare, p.CullMode)
		}
		if p.VertexEntryPoint != "vs_main" || p.VertexStride != 12 {
			t.Errorf("pipeline %d entry=%q stride=%d", c, p.VertexEntryPoint, p.VertexStride)
		}
	}

	if len(dev.samplers) != 1 || dev.samplers[0].Compare != common.CompareFunctionLessEqual {
		t.Errorf("expected a single LessEqual comparison sampler, got %+v", dev.samplers)
	}
}

func TestShadingLayoutContract(t *testing.T) {
	_, dev, _ := newTestSystem(t)

	var shading *BindGroupLayoutDescriptor
	for i := range dev.layouts {
		if dev.layouts[i].Label == "shadow_shading_layout" {
			shading = &dev.layouts[i]
		}
	}
	if shading == nil {
		t.Fatal("shading layout was not created")
	}
	want := []struct {
		binding uint32
		typ     BindingType
		stages  ShaderStage
	}{
		{BindingShadowUniform, BindingTypeUniform, ShaderStageVertex | ShaderStageFragment},
		{BindingShadowMap, BindingTypeDepthTextureArray, ShaderStageFragment},
		{BindingShadowSampler, BindingTypeComparisonSampler, ShaderStageFragment},
	}
	if len(shading.Entries) != len(want) {
		t.Fatalf("shading layout has %d entries, want %d", len(shading.Entries), len(want))
	}
	for i, w := range want {
		e := shading.Entries[i]
		if e.Binding != w.binding || e.Type != w.typ || e.Visibility != w.stages {
			t.Errorf("entry %d = %+v, want binding %d type %d stages %d", i, e, w.binding, w.typ, w.stages)
		}
	}
	if shading.Entries[0].MinBindingSize != 528 {
		t.Errorf("uniform min binding size = %d, want 528", shading.Entries[0].MinBindingSize)
	}
}

func TestRenderRecordsOnePassPerCascade(t *testing.T) {
	sys, dev, casters := newTestSystem(t)
	enc := &fakeEncoder{dev: dev}

	cascades, err := sys.Render(enc, testFrame(3, casters))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(cascades) != 4 {
		t.Fatalf("got %d cascades", len(cascades))
	}

	perPass := []string{
		"begin", "viewport", "scissor", "pipeline",
		"bindgroup", "vertex", "index", "drawIndexed",
		"bindgroup", "vertex", "draw",
		"end",
	}
	var want []string
	for range 4 {
		want = append(want, perPass...)
	}
	if got := enc.ops(); !slices.Equal(got, want) {
		t.Fatalf("command order:\n got  %v\n want %v", got, want)
	}

	begins := 0
	for i, cmd := range enc.commands {
		switch cmd.op {
		case "begin":
			// Frame 3 with two frames in flight uses slot 1.
			if want := fmt.Sprintf("shadow_depth_frame_1_layer_%d", begins); cmd.target != want {
				t.Errorf("pass %d target = %q, want %q", begins, cmd.target, want)
			}
			begins++
		case "viewport", "scissor":
			if cmd.count != DefaultResolution {
				t.Errorf("%s at %d covers %d texels, want %d", cmd.op, i, cmd.count, DefaultResolution)
			}
		case "pipeline":
			if want := fmt.Sprintf("shadow_depth_cascade_%d", begins-1); cmd.target != want {
				t.Errorf("pass %d pipeline = %q, want %q", begins-1, cmd.target, want)
			}
		}
	}

	st := sys.Stats()
	if st.Passes != 4 || st.Draws != 8 || st.Skipped != 0 {
		t.Errorf("stats = %+v, want 4 passes and 8 draws", st)
	}
}

func TestRenderDynamicOffsetsAndConstants(t *testing.T) {
	sys, dev, casters := newTestSystem(t)
	enc := &fakeEncoder{dev: dev}
	if _, err := sys.Render(enc, testFrame(0, casters)); err != nil {
		t.Fatalf("Render: %v", err)
	}

	var offsets []uint32
	for _, cmd := range enc.commands {
		if cmd.op == "bindgroup" {
			if cmd.target != "shadow_pass_group_frame_0" {
				t.Errorf("bound %q, want frame 0 pass group", cmd.target)
			}
			if len(cmd.offsets) != 1 {
				t.Fatalf("expected one dynamic offset, got %v", cmd.offsets)
			}
			offsets = append(offsets, cmd.offsets[0])
		}
	}
	for i, off := range offsets {
		if off != uint32(i*DrawConstantsStride) {
			t.Errorf("draw %d offset = %d, want %d", i, off, i*DrawConstantsStride)
		}
	}

	// Reassemble the ring from its writes and check the cascade index of every slot.
	ring := make([]byte, len(offsets)*DrawConstantsStride)
	for _, w := range dev.writes {
		if w.label == "shadow_draw_ring_frame_0" {
			copy(ring[w.offset:], w.data)
		}
	}
	for slot := range offsets {
		base := slot * DrawConstantsStride
		cascade := binary.LittleEndian.Uint32(ring[base+64:])
		if want := uint32(slot / len(casters)); cascade != want {
			t.Errorf("slot %d cascade = %d, want %d", slot, cascade, want)
		}
		tx := math.Float32frombits(binary.LittleEndian.Uint32(ring[base+48:]))
		if want := casters[slot%len(casters)].ModelMatrix()[12]; tx != want {
			t.Errorf("slot %d model translation x = %v, want %v", slot, tx, want)
		}
	}
}

func TestRenderWritesUniformBeforeEachPass(t *testing.T) {
	sys, dev, casters := newTestSystem(t)
	enc := &fakeEncoder{dev: dev}
	cascades, err := sys.Render(enc, testFrame(0, casters))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	var uniformWrites []bufferWrite
	for _, w := range dev.writes {
		if w.label == "shadow_uniform_frame_0" {
			uniformWrites = append(uniformWrites, w)
		}
	}
	if len(uniformWrites) == 0 || uniformWrites[0].offset != SplitsOffset() {
		t.Fatalf("splits must be written first, got %+v", uniformWrites)
	}
	for i, c := range cascades {
		got := math.Float32frombits(binary.LittleEndian.Uint32(uniformWrites[0].data[i*4:]))
		if got != c.SplitFar {
			t.Errorf("split %d = %v, want %v", i, got, c.SplitFar)
		}
	}

	for c := range cascades {
		wrote := map[uint64]bool{}
		for _, w := range dev.writes[:enc.writesAtBegin[c]] {
			if w.label == "shadow_uniform_frame_0" {
				wrote[w.offset] = true
			}
		}
		if !wrote[ProjOffset(c)] || !wrote[ViewOffset(c)] {
			t.Errorf("cascade %d matrices were not written before its pass began", c)
		}
	}

	for _, w := range uniformWrites[1:] {
		for c, cascade := range cascades {
			var want mgl32.Mat4
			switch w.offset {
			case ProjOffset(c):
				want = cascade.Proj
			case ViewOffset(c):
				want = cascade.View
			default:
				continue
			}
			for i := range want {
				if got := math.Float32frombits(binary.LittleEndian.Uint32(w.data[i*4:])); got != want[i] {
					t.Fatalf("cascade %d matrix at offset %d element %d = %v, want %v", c, w.offset, i, got, want[i])
				}
			}
		}
	}
}

func TestRenderHonorsCastsShadow(t *testing.T) {
	sys, dev, casters := newTestSystem(t, WithHonorCastsShadow(true))
	enc := &fakeEncoder{dev: dev}
	if _, err := sys.Render(enc, testFrame(0, casters)); err != nil {
		t.Fatalf("Render: %v", err)
	}
	st := sys.Stats()
	if st.Draws != 4 || st.Skipped != 1 {
		t.Errorf("stats = %+v, want 4 draws and 1 skipped caster", st)
	}
	for _, cmd := range enc.commands {
		if cmd.op == "vertex" && cmd.target == "tri_vertices" {
			t.Fatal("non-casting object was drawn")
		}
	}
}

func TestRenderWithoutCasters(t *testing.T) {
	sys, dev, _ := newTestSystem(t)
	enc := &fakeEncoder{dev: dev}
	if _, err := sys.Render(enc, testFrame(0, nil)); err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := []string{"begin", "viewport", "scissor", "pipeline", "end"}
	for c := range 4 {
		if got := enc.ops()[c*5 : c*5+5]; !slices.Equal(got, want) {
			t.Errorf("cascade %d ops = %v, want %v", c, got, want)
		}
	}
}

func TestRenderGrowsDrawRing(t *testing.T) {
	sys, dev, casters := newTestSystem(t, WithDrawCapacity(2))
	enc := &fakeEncoder{dev: dev}
	if _, err := sys.Render(enc, testFrame(0, casters)); err != nil {
		t.Fatalf("Render: %v", err)
	}

	if got := sys.bindings.frames[0].ringSlots; got < 8 {
		t.Errorf("ring holds %d slots, want at least 8", got)
	}
	if got := sys.bindings.frames[1].ringSlots; got != 2 {
		t.Errorf("untouched frame ring holds %d slots, want 2", got)
	}
	released := 0
	for _, r := range dev.releases {
		if r == "buffer:shadow_draw_ring_frame_0" {
			released++
		}
	}
	if released != 1 {
		t.Errorf("old ring released %d times, want 1", released)
	}
}

func TestRenderPassFailure(t *testing.T) {
	sys, dev, casters := newTestSystem(t)
	enc := &fakeEncoder{dev: dev, failPass: 2}
	_, err := sys.Render(enc, testFrame(0, casters))
	if !errors.Is(err, errInjected) {
		t.Fatalf("expected injected error, got %v", err)
	}
	if !strings.Contains(err.Error(), "cascade 1") {
		t.Errorf("error %q does not name the failing cascade", err)
	}
}

func TestRenderPassEndFailure(t *testing.T) {
	sys, dev, casters := newTestSystem(t)
	enc := &fakeEncoder{dev: dev, failEnd: 3}
	_, err := sys.Render(enc, testFrame(0, casters))
	if !errors.Is(err, errInjected) {
		t.Fatalf("expected injected error, got %v", err)
	}
	if !strings.Contains(err.Error(), "failed to end shadow pass for cascade 2") {
		t.Errorf("error %q does not name the cascade whose pass failed to end", err)
	}
	if got := sys.Stats().Passes; got != 2 {
		t.Errorf("Passes = %d, want 2 completed before the failure", got)
	}
}

func TestNewSystemValidation(t *testing.T) {
	cases := []struct {
		name    string
		options []SystemBuilderOption
		want    error
	}{
		{"zero cascades", []SystemBuilderOption{WithCascadeCount(0)}, ErrInvalidCascadeCount},
		{"too many cascades", []SystemBuilderOption{WithCascadeCount(5)}, ErrInvalidCascadeCount},
		{"zero resolution", []SystemBuilderOption{WithResolution(0)}, ErrInvalidResolution},
		{"zero frames", []SystemBuilderOption{WithFramesInFlight(0)}, ErrInvalidFramesInFlight},
		{"short bias table", []SystemBuilderOption{WithDepthBiasTable(DepthBiasTable{{Constant: 0.001}})}, ErrBiasTableTooShort},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dev := newFakeDevice()
			_, err := NewSystem(dev, tc.options...)
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
			if len(dev.created) != 0 {
				t.Errorf("created %d resources before validating", len(dev.created))
			}
		})
	}
}

func TestNewSystemCustomCascades(t *testing.T) {
	dev := newFakeDevice()
	sys, err := NewSystem(dev,
		WithCascadeCount(2),
		WithResolution(512),
		WithFramesInFlight(3),
		WithLambda(0.5),
		WithCullMode(CullModeFront),
		WithVertexLayout(32, 0),
	)
	if err != nil {
		t.Fatalf("NewSystem: %v", err)
	}
	if len(dev.pipelines) != 2 || dev.pipelines[1].CullMode != CullModeFront || dev.pipelines[0].VertexStride != 32 {
		t.Errorf("unexpected pipelines: %+v", dev.pipelines)
	}
	if sys.Targets().FramesInFlight() != 3 || sys.Targets().Resolution() != 512 {
		t.Errorf("targets do not reflect options")
	}
	if sys.BindGroup(4) != sys.BindGroup(1) {
		t.Error("frame index is not wrapped by frames in flight")
	}
}

func TestNewSystemCleansUpOnPipelineFailure(t *testing.T) {
	dev := newFakeDevice()
	dev.failKind, dev.failAt = "pipeline", 3

	_, err := NewSystem(dev)
	if !errors.Is(err, errInjected) {
		t.Fatalf("expected injected error, got %v", err)
	}
	if n := dev.liveCount(); n != 0 {
		t.Errorf("%d resources leaked after failed construction", n)
	}
}

func TestSystemReleaseOrder(t *testing.T) {
	dev := newFakeDevice()
	sys, err := NewSystem(dev)
	if err != nil {
		t.Fatalf("NewSystem: %v", err)
	}
	sys.Release()

	if n := dev.liveCount(); n != 0 {
		t.Fatalf("%d resources still live after Release", n)
	}

	last := func(kind string) int {
		idx := -1
		for i, r := range dev.releases {
			if strings.HasPrefix(r, kind+":") {
				idx = i
			}
		}
		return idx
	}
	first := func(kind string) int {
		for i, r := range dev.releases {
			if strings.HasPrefix(r, kind+":") {
				return i
			}
		}
		return -1
	}
	if last("group") > first("buffer") {
		t.Error("a buffer was released before every bind group")
	}
	if last("group") > first("view") {
		t.Error("a texture view was released before every bind group")
	}
	if last("view") > first("texture") {
		t.Error("a texture was released before its views")
	}
	if last("pipeline") > first("layout") {
		t.Error("a layout was released before every pipeline")
	}
}
