package model

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUVertexSize is the byte stride of GPUVertex in a vertex buffer.
const GPUVertexSize = 20

// GPUVertexSource is the WGSL definition of the VertexInput struct for mesh pipelines.
//
//go:embed assets/vertex.wgsl
var GPUVertexSource string

// GPUVertex is the vertex layout shared by the basic and portal pipelines.
// Baked lighting lives in the texture, so no normals or tangents are needed.
// Size: 20 bytes.
type GPUVertex struct {
	Position [3]float32 // offset  0: world-space position (location 0)
	TexCoord [2]float32 // offset 12: UV texture coordinate (location 1)
}

// Size returns the size of the GPUVertex struct in bytes.
func (g *GPUVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUVertex struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 20-byte buffer ready for GPU upload.
func (g *GPUVertex) Marshal() []byte {
	buf := make([]byte, GPUVertexSize)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.Position[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.Position[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.Position[2]))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(g.TexCoord[0]))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(g.TexCoord[1]))
	return buf
}
