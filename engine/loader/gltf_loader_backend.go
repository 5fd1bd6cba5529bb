package loader

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-portal/common"
	"github.com/Carmen-Shannon/oxy-portal/engine/model"
	"github.com/Carmen-Shannon/oxy-portal/engine/scene"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"
)

// gltfMeshBackendImpl is the implementation of gltfMeshBackend.
type gltfMeshBackendImpl struct {
	decoder func(extension string) (MeshDecoder, bool)
	log     *zap.Logger
}

// gltfMeshBackend is a meshBackend for glTF and GLB files.
type gltfMeshBackend interface {
	meshBackend
}

var _ gltfMeshBackend = &gltfMeshBackendImpl{}

// newGLTFMeshBackend creates the glTF backend.
//
// Parameters:
//   - decoder: resolves compression extensions to registered decoders
//   - log: the loader's logger
//
// Returns:
//   - gltfMeshBackend: the backend
func newGLTFMeshBackend(decoder func(string) (MeshDecoder, bool), log *zap.Logger) gltfMeshBackend {
	return &gltfMeshBackendImpl{decoder: decoder, log: log}
}

func (b *gltfMeshBackendImpl) Load(path string) (*scene.Node, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open gltf: %w", err)
	}

	fragment := scene.NewNode(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	identity := make([]float32, 16)
	common.Identity(identity)

	for _, idx := range gltfSceneRoots(doc) {
		child, err := b.buildNode(doc, idx, identity)
		if err != nil {
			return nil, err
		}
		fragment.Add(child)
	}
	return fragment, nil
}

// buildNode converts a glTF node and its subtree. Mesh positions are transformed by the
// accumulated world matrix so the resulting scene nodes carry no transform of their own.
func (b *gltfMeshBackendImpl) buildNode(doc *gltf.Document, idx int, parentWorld []float32) (*scene.Node, error) {
	if idx < 0 || idx >= len(doc.Nodes) {
		return nil, fmt.Errorf("node index %d out of range", idx)
	}
	src := doc.Nodes[idx]

	world := make([]float32, 16)
	common.Mul4(world, parentWorld, gltfLocalMatrix(src))

	n := scene.NewNode(src.Name)
	if src.Mesh != nil {
		mesh, err := b.buildMesh(doc, *src.Mesh)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", src.Name, err)
		}
		mesh.Transform(world)
		n.Mesh = mesh
	}

	for _, c := range src.Children {
		child, err := b.buildNode(doc, c, world)
		if err != nil {
			return nil, err
		}
		n.Add(child)
	}
	return n, nil
}

// buildMesh merges every triangle primitive of a glTF mesh into one model.Mesh.
func (b *gltfMeshBackendImpl) buildMesh(doc *gltf.Document, idx int) (*model.Mesh, error) {
	if idx < 0 || idx >= len(doc.Meshes) {
		return nil, fmt.Errorf("mesh index %d out of range", idx)
	}
	src := doc.Meshes[idx]
	mesh := &model.Mesh{Name: src.Name}

	for i, prim := range src.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			b.log.Warn("skipping non-triangle primitive", zap.String("mesh", src.Name), zap.Int("primitive", i))
			continue
		}
		vertices, indices, err := b.readPrimitive(doc, prim)
		if err != nil {
			return nil, fmt.Errorf("mesh %q primitive %d: %w", src.Name, i, err)
		}
		mesh.Append(vertices, indices)
	}
	mesh.ComputeBounds()
	return mesh, nil
}

func (b *gltfMeshBackendImpl) readPrimitive(doc *gltf.Document, prim *gltf.Primitive) ([]model.GPUVertex, []uint32, error) {
	if ext, ok := prim.Extensions[ExtensionDraco]; ok {
		d, found := b.decoder(ExtensionDraco)
		if !found {
			return nil, nil, fmt.Errorf("%w: %s", ErrDecoderUnavailable, ExtensionDraco)
		}
		return d.Decode(doc, prim, ext)
	}

	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, nil, fmt.Errorf("no POSITION attribute")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, nil, fmt.Errorf("read positions: %w", err)
	}

	var uvs [][2]float32
	if uvIdx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		uvs, err = modeler.ReadTextureCoord(doc, doc.Accessors[uvIdx], nil)
		if err != nil {
			return nil, nil, fmt.Errorf("read texcoords: %w", err)
		}
	}

	vertices := make([]model.GPUVertex, len(positions))
	for i, p := range positions {
		vertices[i].Position = p
		if i < len(uvs) {
			vertices[i].TexCoord = uvs[i]
		}
	}

	var indices []uint32
	if prim.Indices != nil {
		indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return nil, nil, fmt.Errorf("read indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	return vertices, indices, nil
}

// gltfSceneRoots returns the root node indices of the default scene. Files without a
// scene fall back to every node that is nobody's child.
func gltfSceneRoots(doc *gltf.Document) []int {
	if len(doc.Scenes) > 0 {
		s := 0
		if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
			s = *doc.Scene
		}
		return doc.Scenes[s].Nodes
	}

	isChild := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if c >= 0 && c < len(isChild) {
				isChild[c] = true
			}
		}
	}
	var roots []int
	for i := range doc.Nodes {
		if !isChild[i] {
			roots = append(roots, i)
		}
	}
	return roots
}

var gltfIdentity = [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

// gltfLocalMatrix returns the node's local transform. An explicit matrix wins over TRS;
// all-zero rotation and scale are read as their glTF defaults.
func gltfLocalMatrix(n *gltf.Node) []float32 {
	out := make([]float32, 16)

	if n.Matrix != [16]float64{} && n.Matrix != gltfIdentity {
		for i, v := range n.Matrix {
			out[i] = float32(v)
		}
		return out
	}

	t := [3]float32{float32(n.Translation[0]), float32(n.Translation[1]), float32(n.Translation[2])}
	q := [4]float32{0, 0, 0, 1}
	if n.Rotation != [4]float64{} {
		q = [4]float32{float32(n.Rotation[0]), float32(n.Rotation[1]), float32(n.Rotation[2]), float32(n.Rotation[3])}
	}
	s := [3]float32{1, 1, 1}
	if n.Scale != [3]float64{} {
		s = [3]float32{float32(n.Scale[0]), float32(n.Scale[1]), float32(n.Scale[2])}
	}
	common.ComposeTRS(out, t, q, s)
	return out
}
