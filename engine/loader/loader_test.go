package loader

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-portal/common"
	"github.com/Carmen-Shannon/oxy-portal/engine/model"
	"github.com/Carmen-Shannon/oxy-portal/engine/scene"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTriangleDoc builds a document with one triangle mesh instanced by one root node per
// name, each translated along X by its index.
func newTriangleDoc(names ...string) *gltf.Document {
	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	uv := modeler.WriteTextureCoord(doc, [][2]float32{{0, 0}, {1, 0}, {0, 1}})
	idx := modeler.WriteIndices(doc, []uint16{0, 1, 2})
	doc.Meshes = []*gltf.Mesh{{
		Name: "tri",
		Primitives: []*gltf.Primitive{{
			Indices:    gltf.Index(idx),
			Attributes: map[string]int{gltf.POSITION: pos, gltf.TEXCOORD_0: uv},
		}},
	}}
	for i, name := range names {
		doc.Nodes = append(doc.Nodes, &gltf.Node{
			Name:        name,
			Mesh:        gltf.Index(0),
			Translation: [3]float64{float64(i), 0, 0},
			Rotation:    [4]float64{0, 0, 0, 1},
			Scale:       [3]float64{1, 1, 1},
		})
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, i)
	}
	return doc
}

func saveGLB(t *testing.T, doc *gltf.Document) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "portal.glb")
	require.NoError(t, gltf.SaveBinary(doc, path))
	return path
}

func TestMeshLoaderLoadsDefaultSceneRoots(t *testing.T) {
	names := []string{scene.NodeBaked, scene.NodePortalLight, scene.NodePoleLightA, scene.NodePoleLightB}
	path := saveGLB(t, newTriangleDoc(names...))

	l := NewMeshLoader()
	fragment, err := l.Load(path)
	require.NoError(t, err)

	children := fragment.Children()
	require.Len(t, children, 4)
	for i, c := range children {
		assert.Equal(t, names[i], c.Name)
		require.NotNil(t, c.Mesh)
		assert.Len(t, c.Mesh.Vertices, 3)
		assert.Equal(t, []uint32{0, 1, 2}, c.Mesh.Indices)
		assert.Nil(t, c.Material)
	}

	// translation is baked into the positions
	last := children[3].Mesh
	assert.InDelta(t, 3, last.BoundingMin[0], 1e-6)
	assert.InDelta(t, 4, last.BoundingMax[0], 1e-6)
	assert.Equal(t, [2]float32{1, 0}, last.Vertices[1].TexCoord)

	lookup := fragment.FindChildren(names...)
	assert.True(t, lookup.OK())
}

func TestMeshLoaderCachesByPath(t *testing.T) {
	path := saveGLB(t, newTriangleDoc("baked"))
	l := NewMeshLoader()

	first, err := l.Load(path)
	require.NoError(t, err)
	second, err := l.Load(path)
	require.NoError(t, err)
	assert.Same(t, first, second)

	cached, ok := l.Get(path)
	assert.True(t, ok)
	assert.Same(t, first, cached)
}

func TestMeshLoaderRejectsUnknownExtension(t *testing.T) {
	_, err := NewMeshLoader().Load("scene.fbx")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestMeshLoaderMissingFile(t *testing.T) {
	_, err := NewMeshLoader().Load(filepath.Join(t.TempDir(), "missing.glb"))
	assert.Error(t, err)
}

func TestMeshLoaderDracoPrimitives(t *testing.T) {
	doc := newTriangleDoc("baked")
	doc.Meshes[0].Primitives[0].Extensions = gltf.Extensions{
		ExtensionDraco: map[string]any{"bufferView": 0, "attributes": map[string]int{"POSITION": 0}},
	}
	path := saveGLB(t, doc)

	t.Run("decoder tool missing", func(t *testing.T) {
		_, err := NewMeshLoader(WithDecoderConfig(DecoderConfig{Path: t.TempDir()})).Load(path)
		assert.ErrorIs(t, err, ErrDecoderUnavailable)
	})

	t.Run("registered decoder", func(t *testing.T) {
		calls := 0
		dec := MeshDecoderFunc(func(_ *gltf.Document, _ *gltf.Primitive, ext any) ([]model.GPUVertex, []uint32, error) {
			calls++
			assert.NotNil(t, ext)
			return []model.GPUVertex{{}, {Position: [3]float32{2, 0, 0}}, {Position: [3]float32{0, 2, 0}}}, []uint32{0, 1, 2}, nil
		})
		l := NewMeshLoader(WithDecoder(ExtensionDraco, dec))
		fragment, err := l.Load(path)
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
		assert.InDelta(t, 2, fragment.Children()[0].Mesh.BoundingMax[0], 1e-6)
	})
}

func TestMeshLoaderDecoderConfig(t *testing.T) {
	assert.Equal(t, DecoderConfig{Path: "draco/"}, NewMeshLoader().DecoderConfig())
	assert.Equal(t, "static/draco/", NewMeshLoader(WithDecoderConfig(DecoderConfig{Path: "static/draco/"})).DecoderConfig().Path)
	assert.Equal(t, DefaultDecoderPath, NewMeshLoader(WithDecoderConfig(DecoderConfig{})).DecoderConfig().Path)
}

// writePNG writes a 1x2 image: red on the first row, blue on the second.
func writePNG(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 1, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	img.Set(0, 1, color.RGBA{B: 255, A: 255})

	path := filepath.Join(t.TempDir(), "baked.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func TestTextureLoader(t *testing.T) {
	path := writePNG(t)

	t.Run("keeps file row order and tags sRGB", func(t *testing.T) {
		tex, err := NewTextureLoader().Load(path)
		require.NoError(t, err)
		assert.Equal(t, uint32(1), tex.Width)
		assert.Equal(t, uint32(2), tex.Height)
		assert.False(t, tex.FlipY)
		assert.Equal(t, common.ColorSpaceSRGB, tex.ColorSpace)
		assert.Equal(t, []byte{255, 0, 0, 255, 0, 0, 255, 255}, tex.Pixels)
	})

	t.Run("flip option reverses rows", func(t *testing.T) {
		tex, err := NewTextureLoader(WithFlipY(true)).Load(path)
		require.NoError(t, err)
		assert.True(t, tex.FlipY)
		assert.Equal(t, []byte{0, 0, 255, 255, 255, 0, 0, 255}, tex.Pixels)
	})

	t.Run("linear override", func(t *testing.T) {
		tex, err := NewTextureLoader(WithColorSpace(common.ColorSpaceLinear)).Load(path)
		require.NoError(t, err)
		assert.Equal(t, common.ColorSpaceLinear, tex.ColorSpace)
	})

	t.Run("unknown encoding", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.jpg")
		require.NoError(t, os.WriteFile(bad, []byte("not an image"), 0o644))
		_, err := NewTextureLoader().Load(bad)
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})
}

func TestAsyncPostsCallbacks(t *testing.T) {
	texPath := writePNG(t)
	meshPath := saveGLB(t, newTriangleDoc("baked"))

	posted := make(chan func(), 8)
	a := NewAsync(NewTextureLoader(), NewMeshLoader(), DispatcherFunc(func(fn func()) { posted <- fn }), WithPool(2, 4, 0))
	defer a.Close()

	var tex *common.TextureStagingData
	var fragment *scene.Node
	var loadErr error
	a.LoadTexture(texPath, func(d *common.TextureStagingData) { tex = d }, func(err error) { loadErr = err })
	a.LoadMesh(meshPath, func(n *scene.Node) { fragment = n }, func(err error) { loadErr = err })
	a.LoadMesh("missing.glb", func(n *scene.Node) { t.Error("unexpected load") }, func(err error) { loadErr = err })
	a.Wait()

	// nothing runs until the owner drains the posted callbacks
	assert.Nil(t, tex)
	assert.Nil(t, fragment)
	require.Len(t, posted, 3)
	for range 3 {
		(<-posted)()
	}

	require.NotNil(t, tex)
	require.NotNil(t, fragment)
	assert.Len(t, fragment.Children(), 1)
	assert.Error(t, loadErr)
}
