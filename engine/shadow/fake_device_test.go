package shadow

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-csm/common"
	"github.com/go-gl/mathgl/mgl32"
)

var errInjected = errors.New("injected failure")

// fakeResource records its label and the order it was released in.
type fakeResource struct {
	kind     string
	label    string
	dev      *fakeDevice
	released bool
	size     uint64
}

func (r *fakeResource) Release() {
	r.released = true
	r.dev.releases = append(r.dev.releases, r.kind+":"+r.label)
}

type bufferWrite struct {
	label  string
	offset uint64
	data   []byte
}

// fakeDevice records every call and can fail the n-th creation of a given kind.
type fakeDevice struct {
	created   []*fakeResource
	releases  []string
	writes    []bufferWrite
	pipelines []DepthPipelineDescriptor
	layouts   []BindGroupLayoutDescriptor
	groups    []BindGroupDescriptor
	samplers  []common.SamplerStagingData

	failKind string
	failAt   int
	counts   map[string]int
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{counts: map[string]int{}}
}

func (d *fakeDevice) create(kind, label string) (*fakeResource, error) {
	d.counts[kind]++
	if kind == d.failKind && d.counts[kind] == d.failAt {
		return nil, fmt.Errorf("%s %q: %w", kind, label, errInjected)
	}
	r := &fakeResource{kind: kind, label: label, dev: d}
	d.created = append(d.created, r)
	return r, nil
}

func (d *fakeDevice) CreateDepthTexture(desc DepthTextureDescriptor) (Texture, error) {
	r, err := d.create("texture", desc.Label)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (d *fakeDevice) CreateTextureView(_ Texture, desc TextureViewDescriptor) (TextureView, error) {
	r, err := d.create("view", desc.Label)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (d *fakeDevice) CreateSampler(desc common.SamplerStagingData) (Sampler, error) {
	d.samplers = append(d.samplers, desc)
	r, err := d.create("sampler", desc.Label)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (d *fakeDevice) CreateBuffer(desc BufferDescriptor) (Buffer, error) {
	r, err := d.create("buffer", desc.Label)
	if err != nil {
		return nil, err
	}
	r.size = desc.Size
	return r, nil
}

func (d *fakeDevice) WriteBuffer(buf Buffer, offset uint64, data []byte) error {
	r := buf.(*fakeResource)
	if offset+uint64(len(data)) > r.size {
		return fmt.Errorf("write of %d bytes at %d overflows %q (%d bytes)", len(data), offset, r.label, r.size)
	}
	d.writes = append(d.writes, bufferWrite{label: r.label, offset: offset, data: append([]byte(nil), data...)})
	return nil
}

func (d *fakeDevice) CreateBindGroupLayout(desc BindGroupLayoutDescriptor) (BindGroupLayout, error) {
	d.layouts = append(d.layouts, desc)
	r, err := d.create("layout", desc.Label)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (d *fakeDevice) CreateBindGroup(desc BindGroupDescriptor) (BindGroup, error) {
	d.groups = append(d.groups, desc)
	r, err := d.create("group", desc.Label)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (d *fakeDevice) CreateDepthPipeline(desc DepthPipelineDescriptor) (Pipeline, error) {
	d.pipelines = append(d.pipelines, desc)
	r, err := d.create("pipeline", desc.Label)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// liveCount returns how many created resources have not been released.
func (d *fakeDevice) liveCount() int {
	n := 0
	for _, r := range d.created {
		if !r.released {
			n++
		}
	}
	return n
}

// passCommand is one recorded pass call.
type passCommand struct {
	op      string
	target  string
	offsets []uint32
	count   uint32
}

type fakeEncoder struct {
	dev      *fakeDevice
	commands []passCommand
	failPass int
	failEnd  int
	passes   int
	// writesAtBegin holds len(dev.writes) at each BeginDepthPass.
	writesAtBegin []int
}

func (e *fakeEncoder) BeginDepthPass(target TextureView, _ float32) (PassEncoder, error) {
	e.passes++
	if e.failPass == e.passes {
		return nil, errInjected
	}
	if e.dev != nil {
		e.writesAtBegin = append(e.writesAtBegin, len(e.dev.writes))
	}
	e.commands = append(e.commands, passCommand{op: "begin", target: target.(*fakeResource).label})
	return &fakePass{enc: e, index: e.passes}, nil
}

type fakePass struct {
	enc   *fakeEncoder
	index int
}

func (p *fakePass) rec(c passCommand) { p.enc.commands = append(p.enc.commands, c) }

func (p *fakePass) SetViewport(_, _, w, h, _, _ float32) {
	p.rec(passCommand{op: "viewport", count: uint32(w)})
}
func (p *fakePass) SetScissorRect(_, _, w, _ uint32) { p.rec(passCommand{op: "scissor", count: w}) }
func (p *fakePass) SetPipeline(pl Pipeline) {
	p.rec(passCommand{op: "pipeline", target: pl.(*fakeResource).label})
}
func (p *fakePass) SetBindGroup(_ uint32, g BindGroup, offsets []uint32) {
	p.rec(passCommand{op: "bindgroup", target: g.(*fakeResource).label, offsets: append([]uint32(nil), offsets...)})
}
func (p *fakePass) SetVertexBuffer(_ uint32, b Buffer) {
	p.rec(passCommand{op: "vertex", target: b.(*fakeResource).label})
}
func (p *fakePass) SetIndexBuffer(b Buffer) {
	p.rec(passCommand{op: "index", target: b.(*fakeResource).label})
}
func (p *fakePass) Draw(n uint32)        { p.rec(passCommand{op: "draw", count: n}) }
func (p *fakePass) DrawIndexed(n uint32) { p.rec(passCommand{op: "drawIndexed", count: n}) }
func (p *fakePass) End() error {
	p.rec(passCommand{op: "end"})
	if p.enc.failEnd == p.index {
		return errInjected
	}
	return nil
}

func (e *fakeEncoder) ops() []string {
	out := make([]string, len(e.commands))
	for i, c := range e.commands {
		out[i] = c.op
	}
	return out
}

// fakeCamera is a camera at a fixed pose.
type fakeCamera struct {
	near, far, fov, aspect float32
	inverse                mgl32.Mat4
}

func (c fakeCamera) Near() float32                 { return c.near }
func (c fakeCamera) Far() float32                  { return c.far }
func (c fakeCamera) Fov() float32                  { return c.fov }
func (c fakeCamera) Aspect() float32               { return c.aspect }
func (c fakeCamera) InverseViewMatrix() mgl32.Mat4 { return c.inverse }

func newFakeCamera(position, rotation mgl32.Vec3) fakeCamera {
	_, inv := common.ViewYXZ(position, rotation)
	return fakeCamera{near: 0.1, far: 200, fov: mgl32.DegToRad(60), aspect: 16.0 / 9.0, inverse: inv}
}

type fakeMesh struct {
	vb, ib         Buffer
	vCount, iCount uint32
}

func (m fakeMesh) VertexBuffer() Buffer { return m.vb }
func (m fakeMesh) IndexBuffer() Buffer  { return m.ib }
func (m fakeMesh) VertexCount() uint32  { return m.vCount }
func (m fakeMesh) IndexCount() uint32   { return m.iCount }

type fakeCaster struct {
	model  mgl32.Mat4
	meshes []Mesh
	casts  bool
}

func (c fakeCaster) ModelMatrix() mgl32.Mat4 { return c.model }
func (c fakeCaster) Meshes() []Mesh          { return c.meshes }
func (c fakeCaster) CastsShadow() bool       { return c.casts }
