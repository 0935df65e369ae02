package loader

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-csm/common"
	"github.com/Carmen-Shannon/oxy-csm/engine/model"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// gltfLoaderBackendImpl is the implementation of gltfLoaderBackend.
type gltfLoaderBackendImpl struct{}

// gltfLoaderBackend is a loaderBackend implementation for glTF/GLB files.
// Node transforms are baked into the vertices and geometry is mirrored on Z
// into the engine's left-handed space.
type gltfLoaderBackend interface {
	loaderBackend
}

var _ gltfLoaderBackend = &gltfLoaderBackendImpl{}

// newGLTFLoaderBackend creates a new glTF loader backend.
//
// Returns:
//   - gltfLoaderBackend: the loader backend for glTF/GLB files
func newGLTFLoaderBackend() gltfLoaderBackend {
	return &gltfLoaderBackendImpl{}
}

func (b *gltfLoaderBackendImpl) Load(path string) (*importedModel, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open glTF %q: %w", path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return importDocument(name, doc)
}

func (b *gltfLoaderBackendImpl) LoadReader(name string, r io.Reader) (*importedModel, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(r).Decode(doc); err != nil {
		return nil, fmt.Errorf("failed to decode glTF %q: %w", name, err)
	}
	return importDocument(name, doc)
}

// importDocument walks the default scene (or every root node when there is none)
// and converts each triangle primitive into one MeshData in model space.
func importDocument(name string, doc *gltf.Document) (*importedModel, error) {
	imp := &importedModel{name: name}

	var roots []int
	if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
		roots = doc.Scenes[*doc.Scene].Nodes
	} else {
		roots = rootNodes(doc)
	}

	for _, root := range roots {
		if err := imp.walkNode(doc, root, mgl32.Ident4(), 0); err != nil {
			return nil, err
		}
	}
	if len(imp.meshes) == 0 {
		return nil, fmt.Errorf("glTF %q has no triangle meshes", name)
	}
	return imp, nil
}

// rootNodes returns every node that is not a child of another node.
func rootNodes(doc *gltf.Document) []int {
	hasParent := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if c < len(hasParent) {
				hasParent[c] = true
			}
		}
	}
	var roots []int
	for i := range doc.Nodes {
		if !hasParent[i] {
			roots = append(roots, i)
		}
	}
	return roots
}

// maxNodeDepth bounds recursion on malformed, cyclic node graphs.
const maxNodeDepth = 64

func (imp *importedModel) walkNode(doc *gltf.Document, idx int, parent mgl32.Mat4, depth int) error {
	if idx < 0 || idx >= len(doc.Nodes) {
		return fmt.Errorf("glTF %q references missing node %d", imp.name, idx)
	}
	if depth > maxNodeDepth {
		return fmt.Errorf("glTF %q node hierarchy deeper than %d", imp.name, maxNodeDepth)
	}
	node := doc.Nodes[idx]
	world := parent.Mul4(localTransform(node))

	if node.Mesh != nil && *node.Mesh < len(doc.Meshes) {
		gm := doc.Meshes[*node.Mesh]
		for pi, prim := range gm.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles {
				common.Logger().Debug("skipping non-triangle primitive", "model", imp.name, "mesh", gm.Name, "primitive", pi)
				continue
			}
			data, err := readPrimitive(doc, prim, world)
			if err != nil {
				return fmt.Errorf("glTF %q mesh %d primitive %d: %w", imp.name, *node.Mesh, pi, err)
			}
			data.Name = primitiveName(gm.Name, node.Name, pi)
			imp.meshes = append(imp.meshes, data)
		}
	}

	for _, c := range node.Children {
		if err := imp.walkNode(doc, c, world, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func primitiveName(meshName, nodeName string, pi int) string {
	base := common.Coalesce(meshName, nodeName, "mesh")
	return fmt.Sprintf("%s_p%d", base, pi)
}

// localTransform returns the node matrix, or the TRS composition when no matrix is set.
func localTransform(n *gltf.Node) mgl32.Mat4 {
	mat := n.MatrixOrDefault()
	var m mgl32.Mat4
	for i := range mat {
		m[i] = float32(mat[i])
	}
	if m != mgl32.Ident4() {
		return m
	}

	t := n.TranslationOrDefault()
	r := n.RotationOrDefault()
	s := n.ScaleOrDefault()
	q := mgl32.Quat{W: float32(r[3]), V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])}}
	return mgl32.Translate3D(float32(t[0]), float32(t[1]), float32(t[2])).
		Mul4(q.Normalize().Mat4()).
		Mul4(mgl32.Scale3D(float32(s[0]), float32(s[1]), float32(s[2])))
}

// readPrimitive reads positions, normals, UVs, and indices, bakes world into them,
// and converts from glTF's right-handed frame by negating Z and reversing winding.
func readPrimitive(doc *gltf.Document, prim *gltf.Primitive, world mgl32.Mat4) (model.MeshData, error) {
	var data model.MeshData

	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return data, fmt.Errorf("no POSITION attribute")
	}
	acr, err := accessor(doc, posIdx)
	if err != nil {
		return data, err
	}
	positions, err := modeler.ReadPosition(doc, acr, nil)
	if err != nil {
		return data, fmt.Errorf("failed to read positions: %w", err)
	}

	var normals [][3]float32
	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		if acr, err = accessor(doc, idx); err != nil {
			return data, err
		}
		if normals, err = modeler.ReadNormal(doc, acr, nil); err != nil {
			return data, fmt.Errorf("failed to read normals: %w", err)
		}
	}
	var uvs [][2]float32
	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		if acr, err = accessor(doc, idx); err != nil {
			return data, err
		}
		if uvs, err = modeler.ReadTextureCoord(doc, acr, nil); err != nil {
			return data, fmt.Errorf("failed to read texture coordinates: %w", err)
		}
	}

	normalMat := world.Mat3().Inv().Transpose()
	data.Vertices = make([]model.GPUVertex, len(positions))
	for i, p := range positions {
		wp := common.TransformPoint(world, mgl32.Vec3(p))
		v := model.GPUVertex{
			Position: [3]float32{wp[0], wp[1], -wp[2]},
			Normal:   [3]float32{0, 1, 0},
		}
		if i < len(normals) {
			n := normalMat.Mul3x1(mgl32.Vec3(normals[i]))
			if l := n.Len(); l > 0 {
				n = n.Mul(1 / l)
			}
			v.Normal = [3]float32{n[0], n[1], -n[2]}
		}
		if i < len(uvs) {
			v.TexCoord = uvs[i]
		}
		data.Vertices[i] = v
	}

	if prim.Indices != nil {
		if acr, err = accessor(doc, *prim.Indices); err != nil {
			return data, err
		}
		indices, err := modeler.ReadIndices(doc, acr, nil)
		if err != nil {
			return data, fmt.Errorf("failed to read indices: %w", err)
		}
		data.Indices = indices
	} else {
		data.Indices = make([]uint32, len(positions))
		for i := range data.Indices {
			data.Indices[i] = uint32(i)
		}
	}
	if len(data.Indices)%3 != 0 {
		return data, fmt.Errorf("index count %d is not a multiple of 3", len(data.Indices))
	}
	for i := 0; i < len(data.Indices); i += 3 {
		data.Indices[i+1], data.Indices[i+2] = data.Indices[i+2], data.Indices[i+1]
	}
	for _, idx := range data.Indices {
		if int(idx) >= len(data.Vertices) {
			return data, fmt.Errorf("index %d out of range for %d vertices", idx, len(data.Vertices))
		}
	}
	return data, nil
}

// accessor returns accessor idx, rejecting references to missing accessors or buffer views.
func accessor(doc *gltf.Document, idx int) (*gltf.Accessor, error) {
	if idx < 0 || idx >= len(doc.Accessors) || doc.Accessors[idx] == nil {
		return nil, fmt.Errorf("missing accessor %d", idx)
	}
	acr := doc.Accessors[idx]
	if acr.BufferView != nil {
		if bv := *acr.BufferView; bv < 0 || bv >= len(doc.BufferViews) || doc.BufferViews[bv] == nil {
			return nil, fmt.Errorf("accessor %d references missing buffer view %d", idx, bv)
		}
		if b := doc.BufferViews[*acr.BufferView].Buffer; b < 0 || b >= len(doc.Buffers) {
			return nil, fmt.Errorf("accessor %d references missing buffer %d", idx, b)
		}
	}
	return acr, nil
}
