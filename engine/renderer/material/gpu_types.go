package material

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUBasicUniformsSource is the WGSL definition of BasicUniforms.
//
//go:embed assets/basic_uniforms.wgsl
var GPUBasicUniformsSource string

// GPUBasicUniforms is the uniform block of the basic (unlit) shader.
// Size: 16 bytes.
type GPUBasicUniforms struct {
	Color      [3]float32 // offset  0: linear RGB colour (vec3<f32>)
	HasTexture float32    // offset 12: 1 when the colour texture is sampled, 0 otherwise
}

// Size returns the size of the GPUBasicUniforms struct in bytes.
func (g *GPUBasicUniforms) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 16-byte buffer ready for GPU upload
func (g *GPUBasicUniforms) Marshal() []byte {
	buf := make([]byte, g.Size())
	putVec3(buf[0:], g.Color)
	binary.LittleEndian.PutUint32(buf[12:], math.Float32bits(g.HasTexture))
	return buf
}

// GPUPortalUniformsSource is the WGSL definition of PortalUniforms.
//
//go:embed assets/portal_uniforms.wgsl
var GPUPortalUniformsSource string

// GPUPortalUniforms is the uniform block of the portal shader.
// Time sits in the padding slot after the first vec3, matching WGSL alignment.
// Size: 32 bytes.
type GPUPortalUniforms struct {
	ColorStart [3]float32 // offset  0: linear RGB (vec3<f32>)
	Time       float32    // offset 12: elapsed seconds
	ColorEnd   [3]float32 // offset 16: linear RGB (vec3<f32>)
	_pad       float32    // offset 28
}

// Size returns the size of the GPUPortalUniforms struct in bytes.
func (g *GPUPortalUniforms) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 32-byte buffer ready for GPU upload
func (g *GPUPortalUniforms) Marshal() []byte {
	buf := make([]byte, g.Size())
	putVec3(buf[0:], g.ColorStart)
	binary.LittleEndian.PutUint32(buf[12:], math.Float32bits(g.Time))
	putVec3(buf[16:], g.ColorEnd)
	return buf
}

// GPUFireflyUniformsSource is the WGSL definition of FireflyUniforms.
//
//go:embed assets/firefly_uniforms.wgsl
var GPUFireflyUniformsSource string

// GPUFireflyUniforms is the uniform block of the firefly shader.
// Size: 16 bytes.
type GPUFireflyUniforms struct {
	PixelRatio float32 // offset  0
	PointSize  float32 // offset  4: point size in pixels at unit distance
	Time       float32 // offset  8: elapsed seconds
	_pad       float32 // offset 12
}

// Size returns the size of the GPUFireflyUniforms struct in bytes.
func (g *GPUFireflyUniforms) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 16-byte buffer ready for GPU upload
func (g *GPUFireflyUniforms) Marshal() []byte {
	buf := make([]byte, g.Size())
	binary.LittleEndian.PutUint32(buf[0:], math.Float32bits(g.PixelRatio))
	binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(g.PointSize))
	binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(g.Time))
	return buf
}

func putVec3(buf []byte, v [3]float32) {
	for i := range 3 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v[i]))
	}
}
