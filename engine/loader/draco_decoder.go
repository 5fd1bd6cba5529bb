package loader

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-portal/engine/model"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"
)

// DracoToolName is the reference Draco command-line decoder looked up in the decoder directory.
const DracoToolName = "draco_decoder"

// dracoExtension is the KHR_draco_mesh_compression object of a primitive.
type dracoExtension struct {
	BufferView int            `json:"bufferView"`
	Attributes map[string]int `json:"attributes"`
}

// dracoToolDecoder is the implementation of a MeshDecoder that runs the Draco tool.
type dracoToolDecoder struct {
	dir string
	log *zap.Logger
}

var _ MeshDecoder = &dracoToolDecoder{}

// NewDracoToolDecoder creates a MeshDecoder for KHR_draco_mesh_compression primitives. Each
// compressed buffer view is written to a temporary .drc file and decoded to OBJ by the
// draco_decoder binary found in dir. A missing binary fails with ErrDecoderUnavailable.
//
// Parameters:
//   - dir: the decoder directory holding draco_decoder
//   - log: the logger; nil disables logging
//
// Returns:
//   - MeshDecoder: the decoder
func NewDracoToolDecoder(dir string, log *zap.Logger) MeshDecoder {
	if log == nil {
		log = zap.NewNop()
	}
	return &dracoToolDecoder{dir: dir, log: log.Named("draco")}
}

// toolPath returns the decoder binary inside the decoder directory.
func (d *dracoToolDecoder) toolPath() string {
	name := DracoToolName
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return filepath.Join(d.dir, name)
}

func (d *dracoToolDecoder) Decode(doc *gltf.Document, _ *gltf.Primitive, extension any) ([]model.GPUVertex, []uint32, error) {
	tool := d.toolPath()
	if _, err := os.Stat(tool); err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", ErrDecoderUnavailable, ExtensionDraco, err)
	}

	ext, err := parseDracoExtension(extension)
	if err != nil {
		return nil, nil, err
	}
	if ext.BufferView < 0 || ext.BufferView >= len(doc.BufferViews) {
		return nil, nil, fmt.Errorf("draco buffer view %d out of range", ext.BufferView)
	}
	compressed, err := modeler.ReadBufferView(doc, doc.BufferViews[ext.BufferView])
	if err != nil {
		return nil, nil, fmt.Errorf("read draco buffer view: %w", err)
	}

	work, err := os.MkdirTemp("", "draco-*")
	if err != nil {
		return nil, nil, fmt.Errorf("create draco work dir: %w", err)
	}
	defer os.RemoveAll(work)

	in := filepath.Join(work, "mesh.drc")
	out := filepath.Join(work, "mesh.obj")
	if err := os.WriteFile(in, compressed, 0o600); err != nil {
		return nil, nil, fmt.Errorf("write draco input: %w", err)
	}

	cmd := exec.Command(tool, "-i", in, "-o", out)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, nil, fmt.Errorf("%s failed: %w: %s", DracoToolName, err, bytes.TrimSpace(output))
	}

	f, err := os.Open(out)
	if err != nil {
		return nil, nil, fmt.Errorf("read decoded mesh: %w", err)
	}
	defer f.Close()

	vertices, indices, err := parseOBJ(f)
	if err != nil {
		return nil, nil, fmt.Errorf("parse decoded mesh: %w", err)
	}
	d.log.Debug("draco primitive decoded", zap.Int("bytes", len(compressed)), zap.Int("vertices", len(vertices)), zap.Int("indices", len(indices)))
	return vertices, indices, nil
}

// parseDracoExtension accepts the extension as qmuntal/gltf leaves unknown extensions
// (json.RawMessage) or as a decoded map.
func parseDracoExtension(extension any) (dracoExtension, error) {
	var raw []byte
	switch v := extension.(type) {
	case json.RawMessage:
		raw = v
	case []byte:
		raw = v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return dracoExtension{}, fmt.Errorf("encode %s extension: %w", ExtensionDraco, err)
		}
		raw = b
	}

	ext := dracoExtension{BufferView: -1}
	if err := json.Unmarshal(raw, &ext); err != nil {
		return dracoExtension{}, fmt.Errorf("decode %s extension: %w", ExtensionDraco, err)
	}
	if ext.BufferView < 0 {
		return dracoExtension{}, fmt.Errorf("%s extension has no bufferView", ExtensionDraco)
	}
	return ext, nil
}

// objCorner is one face corner: 1-based position and texcoord indices (texcoord 0 = none).
type objCorner struct {
	v, vt int
}

// parseOBJ reads the positions, texture coordinates and faces draco_decoder writes. Each
// distinct position/texcoord pair becomes one vertex; polygons are fan-triangulated.
func parseOBJ(r io.Reader) ([]model.GPUVertex, []uint32, error) {
	var positions [][3]float32
	var uvs [][2]float32
	var vertices []model.GPUVertex
	var indices []uint32
	seen := make(map[objCorner]uint32)

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "v":
			p, err := parseFloats(fields[1:], 3)
			if err != nil {
				return nil, nil, fmt.Errorf("line %d: %w", line, err)
			}
			positions = append(positions, [3]float32{p[0], p[1], p[2]})
		case "vt":
			t, err := parseFloats(fields[1:], 2)
			if err != nil {
				return nil, nil, fmt.Errorf("line %d: %w", line, err)
			}
			uvs = append(uvs, [2]float32{t[0], t[1]})
		case "f":
			if len(fields) < 4 {
				return nil, nil, fmt.Errorf("line %d: face with %d corners", line, len(fields)-1)
			}
			face := make([]uint32, 0, len(fields)-1)
			for _, field := range fields[1:] {
				c, err := parseCorner(field, len(positions), len(uvs))
				if err != nil {
					return nil, nil, fmt.Errorf("line %d: %w", line, err)
				}
				idx, ok := seen[c]
				if !ok {
					v := model.GPUVertex{Position: positions[c.v-1]}
					if c.vt > 0 {
						v.TexCoord = uvs[c.vt-1]
					}
					idx = uint32(len(vertices))
					vertices = append(vertices, v)
					seen[c] = idx
				}
				face = append(face, idx)
			}
			for i := 1; i+1 < len(face); i++ {
				indices = append(indices, face[0], face[i], face[i+1])
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	if len(indices) == 0 {
		return nil, nil, errors.New("no faces")
	}
	return vertices, indices, nil
}

func parseFloats(fields []string, n int) ([]float32, error) {
	if len(fields) < n {
		return nil, fmt.Errorf("want %d components, got %d", n, len(fields))
	}
	out := make([]float32, n)
	for i := range n {
		v, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return nil, err
		}
		out[i] = float32(v)
	}
	return out, nil
}

// parseCorner reads "v", "v/vt", "v//vn" or "v/vt/vn". Negative indices count from the end.
func parseCorner(field string, numPositions, numUVs int) (objCorner, error) {
	parts := strings.Split(field, "/")
	resolve := func(s string, n int) (int, error) {
		i, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("corner %q: %w", field, err)
		}
		if i < 0 {
			i = n + 1 + i
		}
		if i < 1 || i > n {
			return 0, fmt.Errorf("corner %q: index %d out of range", field, i)
		}
		return i, nil
	}

	var c objCorner
	var err error
	if c.v, err = resolve(parts[0], numPositions); err != nil {
		return objCorner{}, err
	}
	if len(parts) > 1 && parts[1] != "" {
		if c.vt, err = resolve(parts[1], numUVs); err != nil {
			return objCorner{}, err
		}
	}
	return c, nil
}
