package model

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-csm/engine/shadow"
	"github.com/go-gl/mathgl/mgl32"
)

type fakeBuffer struct {
	label    string
	usage    shadow.BufferUsage
	data     []byte
	released bool
}

func (b *fakeBuffer) Release() { b.released = true }

type fakeUploader struct {
	buffers []*fakeBuffer
	failAt  int
}

var errUpload = errors.New("upload failed")

func (u *fakeUploader) CreateBufferWithData(label string, usage shadow.BufferUsage, data []byte) (shadow.Buffer, error) {
	if u.failAt > 0 && len(u.buffers)+1 == u.failAt {
		return nil, errUpload
	}
	b := &fakeBuffer{label: label, usage: usage, data: append([]byte(nil), data...)}
	u.buffers = append(u.buffers, b)
	return b, nil
}

func TestGPUVertexLayout(t *testing.T) {
	v := GPUVertex{
		Position: [3]float32{1, 2, 3},
		Normal:   [3]float32{0, 1, 0},
		TexCoord: [2]float32{0.25, 0.75},
	}
	if v.Size() != GPUVertexStride {
		t.Fatalf("Size() = %d, want %d", v.Size(), GPUVertexStride)
	}
	buf := MarshalVertices([]GPUVertex{v, v})
	if len(buf) != 2*GPUVertexStride {
		t.Fatalf("len = %d, want %d", len(buf), 2*GPUVertexStride)
	}
	read := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
	}
	checks := []struct {
		off  int
		want float32
	}{
		{GPUVertexPositionOffset, 1},
		{GPUVertexPositionOffset + 8, 3},
		{GPUVertexNormalOffset + 4, 1},
		{GPUVertexTexCoordOffset, 0.25},
		{GPUVertexTexCoordOffset + 4, 0.75},
		{GPUVertexStride + GPUVertexPositionOffset + 4, 2},
	}
	for _, c := range checks {
		if got := read(c.off); got != c.want {
			t.Errorf("float at %d = %v, want %v", c.off, got, c.want)
		}
	}
}

func TestMarshalIndices(t *testing.T) {
	buf := MarshalIndices([]uint32{7, 1 << 20})
	if binary.LittleEndian.Uint32(buf) != 7 || binary.LittleEndian.Uint32(buf[4:]) != 1<<20 {
		t.Fatalf("unexpected index bytes %v", buf)
	}
}

func TestCubeBounds(t *testing.T) {
	m := NewCube("cube", 2)
	b := m.Bounds()
	if b.Min != (mgl32.Vec3{-1, -1, -1}) || b.Max != (mgl32.Vec3{1, 1, 1}) {
		t.Fatalf("bounds = %v..%v", b.Min, b.Max)
	}
	if got, want := m.BoundingRadius(), float32(math.Sqrt(3)); math.Abs(float64(got-want)) > 1e-5 {
		t.Errorf("BoundingRadius() = %v, want %v", got, want)
	}
	data := m.Meshes()[0].Data()
	if len(data.Vertices) != 24 || len(data.Indices) != 36 {
		t.Fatalf("cube has %d vertices, %d indices", len(data.Vertices), len(data.Indices))
	}
	for i, v := range data.Vertices {
		n := mgl32.Vec3(v.Normal)
		p := mgl32.Vec3(v.Position)
		if math.Abs(float64(p.Dot(n)-1)) > 1e-5 {
			t.Errorf("vertex %d at %v does not lie on its face %v", i, p, n)
		}
	}
}

func TestBoundsUnion(t *testing.T) {
	plane := PlaneMeshData(4)
	cube := CubeMeshData(1)
	m := NewModel(WithName("combo"), WithMeshes(plane, cube))
	b := m.Bounds()
	if b.Min != (mgl32.Vec3{-2, -0.5, -2}) || b.Max != (mgl32.Vec3{2, 0.5, 2}) {
		t.Fatalf("bounds = %v..%v", b.Min, b.Max)
	}
	if c := b.Center(); c != (mgl32.Vec3{}) {
		t.Errorf("Center() = %v", c)
	}
}

func TestMeshCountsZeroUntilUploaded(t *testing.T) {
	m := NewCube("cube", 1)
	mesh := m.Meshes()[0]
	if mesh.VertexCount() != 0 || mesh.IndexCount() != 0 {
		t.Fatalf("un-uploaded mesh reports %d/%d", mesh.VertexCount(), mesh.IndexCount())
	}

	up := &fakeUploader{}
	if err := m.Upload(up); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if !m.Uploaded() {
		t.Fatal("Uploaded() = false")
	}
	if mesh.VertexCount() != 24 || mesh.IndexCount() != 36 {
		t.Fatalf("uploaded mesh reports %d/%d", mesh.VertexCount(), mesh.IndexCount())
	}
	if len(up.buffers) != 2 {
		t.Fatalf("created %d buffers, want 2", len(up.buffers))
	}
	if up.buffers[0].usage != shadow.BufferUsageVertex || len(up.buffers[0].data) != 24*GPUVertexStride {
		t.Errorf("vertex buffer %q usage %v size %d", up.buffers[0].label, up.buffers[0].usage, len(up.buffers[0].data))
	}
	if up.buffers[1].usage != shadow.BufferUsageIndex || len(up.buffers[1].data) != 36*4 {
		t.Errorf("index buffer %q usage %v size %d", up.buffers[1].label, up.buffers[1].usage, len(up.buffers[1].data))
	}

	if err := m.Upload(up); err != nil || len(up.buffers) != 2 {
		t.Fatalf("second Upload() created buffers or failed: %v", err)
	}

	m.Release()
	for _, b := range up.buffers {
		if !b.released {
			t.Errorf("buffer %s not released", b.label)
		}
	}
	if mesh.VertexCount() != 0 || mesh.VertexBuffer() != nil {
		t.Error("released mesh still drawable")
	}
}

func TestUploadFailureReleasesPartialBuffers(t *testing.T) {
	m := NewModel(WithName("two"), WithMeshes(CubeMeshData(1), PlaneMeshData(1)))
	up := &fakeUploader{failAt: 3}
	err := m.Upload(up)
	if !errors.Is(err, errUpload) {
		t.Fatalf("Upload() error = %v, want errUpload", err)
	}
	if m.Uploaded() {
		t.Error("Uploaded() = true after failure")
	}
	for _, b := range up.buffers {
		if !b.released {
			t.Errorf("buffer %s leaked", b.label)
		}
	}
}

func TestShadowMeshes(t *testing.T) {
	m := NewModel(WithName("pair"), WithMeshes(CubeMeshData(1), PlaneMeshData(1)))
	sm := m.ShadowMeshes()
	if len(sm) != 2 {
		t.Fatalf("ShadowMeshes() len = %d", len(sm))
	}
	for i, mesh := range m.Meshes() {
		if sm[i] != shadow.Mesh(mesh) {
			t.Errorf("mesh %d differs", i)
		}
	}
}
