package loader

import (
	"errors"

	"github.com/Carmen-Shannon/oxy-portal/engine/model"
	"github.com/qmuntal/gltf"
)

// ExtensionDraco is the glTF extension name of Draco-compressed primitives.
const ExtensionDraco = "KHR_draco_mesh_compression"

// DefaultDecoderPath is the directory holding the Draco decoder tool.
const DefaultDecoderPath = "draco/"

// ErrDecoderUnavailable is returned when a primitive needs a decoder that is not registered
// or whose backing tool is missing.
var ErrDecoderUnavailable = errors.New("mesh decoder unavailable")

// DecoderConfig locates the decompression backend.
type DecoderConfig struct {
	// Path is the directory the Draco decoder tool is run from.
	Path string
}

// MeshDecoder decompresses a primitive that uses a compression extension.
type MeshDecoder interface {
	// Decode returns the primitive's vertices and triangle indices.
	//
	// Parameters:
	//   - doc: the glTF document holding the compressed buffer views
	//   - prim: the compressed primitive
	//   - extension: the raw extension object from the primitive
	//
	// Returns:
	//   - []model.GPUVertex: decoded vertices
	//   - []uint32: decoded indices
	//   - error: error if decoding fails
	Decode(doc *gltf.Document, prim *gltf.Primitive, extension any) ([]model.GPUVertex, []uint32, error)
}

// MeshDecoderFunc adapts a function to MeshDecoder.
type MeshDecoderFunc func(doc *gltf.Document, prim *gltf.Primitive, extension any) ([]model.GPUVertex, []uint32, error)

// Decode calls f.
func (f MeshDecoderFunc) Decode(doc *gltf.Document, prim *gltf.Primitive, extension any) ([]model.GPUVertex, []uint32, error) {
	return f(doc, prim, extension)
}
