package loader

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// quadOBJ is what the fake tool writes: one quad face with texture coordinates.
const quadOBJ = `# draco_decoder output
v 0 0 0
v 2 0 0
v 0 2 0
v 2 2 0
vt 0 0
vt 1 0
vt 0 1
vt 1 1
f 1/1 2/2 4/4 3/3
`

// writeTool installs a shell script named draco_decoder in a temp dir and returns the dir.
func writeTool(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("decoder tool fixture is a shell script")
	}
	dir := t.TempDir()
	script := "#!/bin/sh\n" + body
	require.NoError(t, os.WriteFile(filepath.Join(dir, DracoToolName), []byte(script), 0o755))
	return dir
}

// quadTool copies its input next to itself and writes quadOBJ to the -o path.
func quadTool(t *testing.T) string {
	return writeTool(t, `
while [ $# -gt 0 ]; do
  case "$1" in
    -i) in="$2"; shift ;;
    -o) out="$2"; shift ;;
  esac
  shift
done
cp "$in" "$(dirname "$0")/last.drc"
cat > "$out" <<'OBJ'
`+quadOBJ+`OBJ
`)
}

func dracoDoc() *gltf.Document {
	doc := newTriangleDoc("baked")
	doc.Meshes[0].Primitives[0].Extensions = gltf.Extensions{
		ExtensionDraco: map[string]any{"bufferView": 0, "attributes": map[string]int{"POSITION": 0, "TEXCOORD_0": 1}},
	}
	return doc
}

func TestDracoToolDecoderRunsConfiguredTool(t *testing.T) {
	toolDir := quadTool(t)
	doc := dracoDoc()
	compressed, err := modeler.ReadBufferView(doc, doc.BufferViews[0])
	require.NoError(t, err)
	path := saveGLB(t, doc)

	l := NewMeshLoader(WithDecoderConfig(DecoderConfig{Path: toolDir}))
	fragment, err := l.Load(path)
	require.NoError(t, err)

	mesh := fragment.Children()[0].Mesh
	require.NotNil(t, mesh)
	assert.Len(t, mesh.Vertices, 4)
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, mesh.Indices)
	assert.Equal(t, [3]float32{2, 2, 0}, mesh.Vertices[2].Position)
	assert.Equal(t, [2]float32{1, 1}, mesh.Vertices[2].TexCoord)
	assert.InDelta(t, 2, mesh.BoundingMax[1], 1e-6)

	// the tool received the compressed buffer view
	seen, err := os.ReadFile(filepath.Join(toolDir, "last.drc"))
	require.NoError(t, err)
	assert.Equal(t, compressed, seen)
}

func TestDracoToolDecoderToolFailure(t *testing.T) {
	toolDir := writeTool(t, "echo 'Failed to decode the input file' >&2\nexit 3\n")
	path := saveGLB(t, dracoDoc())

	_, err := NewMeshLoader(WithDecoderConfig(DecoderConfig{Path: toolDir})).Load(path)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDecoderUnavailable)
	assert.Contains(t, err.Error(), "Failed to decode the input file")
}

func TestParseDracoExtension(t *testing.T) {
	fromMap, err := parseDracoExtension(map[string]any{"bufferView": 3, "attributes": map[string]int{"POSITION": 0}})
	require.NoError(t, err)
	assert.Equal(t, 3, fromMap.BufferView)
	assert.Equal(t, 0, fromMap.Attributes["POSITION"])

	fromRaw, err := parseDracoExtension(json.RawMessage(`{"bufferView":0,"attributes":{}}`))
	require.NoError(t, err)
	assert.Equal(t, 0, fromRaw.BufferView)

	_, err = parseDracoExtension(json.RawMessage(`{"attributes":{}}`))
	assert.Error(t, err)
}

func TestParseOBJ(t *testing.T) {
	t.Run("shared corners and negative indices", func(t *testing.T) {
		vertices, indices, err := parseOBJ(strings.NewReader(`
v 0 0 0
v 1 0 0
v 0 1 0
v 1 1 0
f 1 2 3
f -3 -1 -2
`))
		require.NoError(t, err)
		assert.Len(t, vertices, 4)
		assert.Equal(t, []uint32{0, 1, 2, 1, 3, 2}, indices)
	})

	t.Run("normals are ignored", func(t *testing.T) {
		vertices, indices, err := parseOBJ(strings.NewReader("v 0 0 0\nv 1 0 0\nv 0 1 0\nvn 0 0 1\nf 1//1 2//1 3//1\n"))
		require.NoError(t, err)
		assert.Len(t, vertices, 3)
		assert.Equal(t, []uint32{0, 1, 2}, indices)
	})

	t.Run("errors", func(t *testing.T) {
		for name, body := range map[string]string{
			"index out of range": "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 4\n",
			"short vertex":       "v 0 0\n",
			"no faces":           "v 0 0 0\n",
			"degenerate face":    "v 0 0 0\nv 1 0 0\nf 1 2\n",
		} {
			_, _, err := parseOBJ(strings.NewReader(body))
			assert.Error(t, err, name)
		}
	})
}
