package material

import (
	"errors"
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/oxy-portal/common"
)

var (
	// ErrUnknownUniform is returned when a material has no uniform slot with the requested name.
	ErrUnknownUniform = errors.New("unknown uniform")

	// ErrUniformKind is returned when a uniform is read or written as the wrong kind.
	ErrUniformKind = errors.New("uniform kind mismatch")
)

// Kind distinguishes fixed surface descriptions from shader-driven ones.
type Kind int

const (
	// KindBasic is an unlit surface with a flat colour and an optional texture.
	KindBasic Kind = iota
	// KindShader is driven by a custom WGSL program and named uniform slots.
	KindShader
)

// Blending selects how fragments combine with the framebuffer.
type Blending int

const (
	// BlendNormal writes opaque fragments, or alpha-blends them when the material is transparent.
	BlendNormal Blending = iota
	// BlendAdditive adds source colour weighted by source alpha, so overlaps brighten.
	BlendAdditive
)

// UniformKind is the value type of a uniform slot.
type UniformKind int

const (
	UniformFloat UniformKind = iota
	UniformColor
)

// uniform is a named value slot on a shader material.
type uniform struct {
	kind  UniformKind
	value float32
	color common.Color
}

// UniformBlock is a GPU-aligned uniform struct.
type UniformBlock interface {
	Size() int
	Marshal() []byte
}

// material is the implementation of the Material interface.
type material struct {
	name        string
	kind        Kind
	pipelineKey string

	color   common.Color
	texture *common.TextureStagingData

	blending    Blending
	transparent bool
	depthWrite  bool

	order    []string
	uniforms map[string]*uniform
	encode   func(m Material) UniformBlock

	version uint64
}

// Material is a surface description bound to scene nodes.
//
// The structure (kind, pipeline, blending, set of uniform names) is fixed at construction;
// only uniform values and the texture change afterwards. Every change bumps Version so the
// renderer can re-upload the uniform buffer lazily.
type Material interface {
	// Name retrieves the material identifier.
	Name() string

	// Kind reports whether the material is basic or shader-driven.
	Kind() Kind

	// PipelineKey names the shader program the material renders with ("basic", "portal", "fireflies").
	PipelineKey() string

	// Color returns the flat colour of a basic material.
	Color() common.Color

	// Texture returns the colour texture of a basic material, or nil.
	Texture() *common.TextureStagingData

	// SetTexture replaces the colour texture of a basic material. Textures that load after
	// the material is in the scene arrive this way; nil returns to the flat colour.
	//
	// Parameters:
	//   - tex: the decoded texture, or nil
	SetTexture(tex *common.TextureStagingData)

	// Blending returns the blend mode.
	Blending() Blending

	// Transparent reports whether fragments are blended rather than written opaque.
	Transparent() bool

	// DepthWrite reports whether fragments write to the depth buffer.
	DepthWrite() bool

	// Uniforms lists the uniform slot names in declaration order.
	Uniforms() []string

	// Float reads a float uniform.
	//
	// Parameters:
	//   - name: the uniform name
	//
	// Returns:
	//   - float32: the current value
	//   - error: ErrUnknownUniform or ErrUniformKind
	Float(name string) (float32, error)

	// SetFloat writes a float uniform.
	//
	// Parameters:
	//   - name: the uniform name
	//   - v: the new value
	//
	// Returns:
	//   - error: ErrUnknownUniform or ErrUniformKind
	SetFloat(name string, v float32) error

	// ColorUniform reads a colour uniform.
	//
	// Parameters:
	//   - name: the uniform name
	//
	// Returns:
	//   - common.Color: the current sRGB colour
	//   - error: ErrUnknownUniform or ErrUniformKind
	ColorUniform(name string) (common.Color, error)

	// SetColorUniform writes a colour uniform.
	//
	// Parameters:
	//   - name: the uniform name
	//   - c: the new sRGB colour
	//
	// Returns:
	//   - error: ErrUnknownUniform or ErrUniformKind
	SetColorUniform(name string, c common.Color) error

	// UniformBlock encodes the current values into the material's GPU layout.
	UniformBlock() UniformBlock

	// Version increases every time a uniform value changes.
	Version() uint64
}

var _ Material = &material{}

// NewMaterial creates a new Material configured with the provided options.
// Without options it is an opaque white basic material.
//
// Parameters:
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: a new Material instance
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{
		kind:        KindBasic,
		pipelineKey: PipelineBasic,
		color:       common.Color{R: 1, G: 1, B: 1},
		depthWrite:  true,
		uniforms:    make(map[string]*uniform),
	}
	for _, opt := range options {
		opt(m)
	}
	if m.encode == nil {
		m.encode = encodeBasic
	}
	return m
}

func (m *material) Name() string {
	return m.name
}

func (m *material) Kind() Kind {
	return m.kind
}

func (m *material) PipelineKey() string {
	return m.pipelineKey
}

func (m *material) Color() common.Color {
	return m.color
}

func (m *material) Texture() *common.TextureStagingData {
	return m.texture
}

func (m *material) SetTexture(tex *common.TextureStagingData) {
	if m.texture == tex {
		return
	}
	m.texture = tex
	m.version++
}

func (m *material) Blending() Blending {
	return m.blending
}

func (m *material) Transparent() bool {
	return m.transparent
}

func (m *material) DepthWrite() bool {
	return m.depthWrite
}

func (m *material) Uniforms() []string {
	return slices.Clone(m.order)
}

func (m *material) Float(name string) (float32, error) {
	u, err := m.slot(name, UniformFloat)
	if err != nil {
		return 0, err
	}
	return u.value, nil
}

func (m *material) SetFloat(name string, v float32) error {
	u, err := m.slot(name, UniformFloat)
	if err != nil {
		return err
	}
	u.value = v
	m.version++
	return nil
}

func (m *material) ColorUniform(name string) (common.Color, error) {
	u, err := m.slot(name, UniformColor)
	if err != nil {
		return common.Color{}, err
	}
	return u.color, nil
}

func (m *material) SetColorUniform(name string, c common.Color) error {
	u, err := m.slot(name, UniformColor)
	if err != nil {
		return err
	}
	u.color = c
	m.version++
	return nil
}

func (m *material) UniformBlock() UniformBlock {
	return m.encode(m)
}

func (m *material) Version() uint64 {
	return m.version
}

func (m *material) slot(name string, kind UniformKind) (*uniform, error) {
	u, ok := m.uniforms[name]
	if !ok {
		return nil, fmt.Errorf("%w %q on material %q", ErrUnknownUniform, name, m.name)
	}
	if u.kind != kind {
		return nil, fmt.Errorf("%w: %q on material %q", ErrUniformKind, name, m.name)
	}
	return u, nil
}

// floatOr reads a float uniform the encoder declared, or 0.
func floatOr(m Material, name string) float32 {
	v, _ := m.Float(name)
	return v
}

// colorOr reads a colour uniform the encoder declared, or black.
func colorOr(m Material, name string) common.Color {
	c, _ := m.ColorUniform(name)
	return c
}
