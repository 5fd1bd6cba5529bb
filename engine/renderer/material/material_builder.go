package material

import (
	"github.com/Carmen-Shannon/oxy-portal/common"
)

// MaterialBuilderOption is a function that configures a material instance during construction.
type MaterialBuilderOption func(*material)

// WithName sets the name of the material.
//
// Parameters:
//   - name: the identifier for the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name option to a material
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithColor sets the flat colour of a basic material.
//
// Parameters:
//   - c: the sRGB colour
//
// Returns:
//   - MaterialBuilderOption: a function that applies the colour option to a material
func WithColor(c common.Color) MaterialBuilderOption {
	return func(m *material) {
		m.color = c
	}
}

// WithTexture sets the colour texture of a basic material.
//
// Parameters:
//   - tex: the decoded texture
//
// Returns:
//   - MaterialBuilderOption: a function that applies the texture option to a material
func WithTexture(tex *common.TextureStagingData) MaterialBuilderOption {
	return func(m *material) {
		m.texture = tex
	}
}

// WithShader makes the material shader-driven with the given pipeline key and GPU uniform encoder.
//
// Parameters:
//   - pipelineKey: the shader program name
//   - encode: builds the GPU uniform block from the material's current values
//
// Returns:
//   - MaterialBuilderOption: a function that applies the shader option to a material
func WithShader(pipelineKey string, encode func(m Material) UniformBlock) MaterialBuilderOption {
	return func(m *material) {
		m.kind = KindShader
		m.pipelineKey = pipelineKey
		m.encode = encode
	}
}

// WithFloatUniform declares a float uniform slot with its initial value.
//
// Parameters:
//   - name: the uniform name
//   - v: the initial value
//
// Returns:
//   - MaterialBuilderOption: a function that declares the slot
func WithFloatUniform(name string, v float32) MaterialBuilderOption {
	return func(m *material) {
		m.declare(name, &uniform{kind: UniformFloat, value: v})
	}
}

// WithColorUniform declares a colour uniform slot with its initial value.
//
// Parameters:
//   - name: the uniform name
//   - c: the initial sRGB colour
//
// Returns:
//   - MaterialBuilderOption: a function that declares the slot
func WithColorUniform(name string, c common.Color) MaterialBuilderOption {
	return func(m *material) {
		m.declare(name, &uniform{kind: UniformColor, color: c})
	}
}

// WithBlending sets the blend mode, transparency and depth-write flags.
//
// Parameters:
//   - blending: the blend mode
//   - transparent: whether fragments are blended
//   - depthWrite: whether fragments write depth
//
// Returns:
//   - MaterialBuilderOption: a function that applies the blend state to a material
func WithBlending(blending Blending, transparent, depthWrite bool) MaterialBuilderOption {
	return func(m *material) {
		m.blending = blending
		m.transparent = transparent
		m.depthWrite = depthWrite
	}
}

func (m *material) declare(name string, u *uniform) {
	if _, exists := m.uniforms[name]; !exists {
		m.order = append(m.order, name)
	}
	m.uniforms[name] = u
}
