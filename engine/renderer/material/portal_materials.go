package material

import (
	"github.com/Carmen-Shannon/oxy-portal/common"
)

// Pipeline keys; each names a shader directory under assets/shaders.
const (
	PipelineBasic     = "basic"
	PipelinePortal    = "portal"
	PipelineFireflies = "fireflies"
)

// Uniform slot names shared with the WGSL programs.
const (
	UniformTime       = "uTime"
	UniformColorStart = "uColorStart"
	UniformColorEnd   = "uColorEnd"
	UniformPixelRatio = "uPixelRatio"
	UniformSize       = "uSize"
)

// Material names.
const (
	NameBaked       = "baked"
	NamePoleLight   = "poleLight"
	NamePortalLight = "portalLight"
	NameFireflies   = "fireflies"
)

// DefaultPoleLightColor is the warm white of the pole lamps.
var DefaultPoleLightColor = common.ColorFromUint32(0xffffe5)

// PortalParams carries the initial values for the portal scene's materials.
type PortalParams struct {
	// BakedTexture is the pre-lit texture of the whole scene.
	BakedTexture *common.TextureStagingData
	// PoleLightColor is the flat colour of both pole lamps.
	PoleLightColor common.Color
	// PortalColorStart and PortalColorEnd seed the portal gradient uniforms.
	PortalColorStart common.Color
	PortalColorEnd   common.Color
	// PixelRatio is the capped device pixel ratio.
	PixelRatio float32
	// FireflySize is the firefly point size at unit distance.
	FireflySize float32
}

// PortalMaterials holds one material per surface role. Both pole lamps share PoleLight.
type PortalMaterials struct {
	Baked       Material
	PoleLight   Material
	PortalLight Material
	Fireflies   Material
}

// NewPortalMaterials builds the four materials of the portal scene.
//
// Parameters:
//   - p: initial values
//
// Returns:
//   - *PortalMaterials: the material set
func NewPortalMaterials(p PortalParams) *PortalMaterials {
	return &PortalMaterials{
		Baked: NewMaterial(
			WithName(NameBaked),
			WithTexture(p.BakedTexture),
		),
		PoleLight: NewMaterial(
			WithName(NamePoleLight),
			WithColor(p.PoleLightColor),
		),
		PortalLight: NewMaterial(
			WithName(NamePortalLight),
			WithShader(PipelinePortal, encodePortal),
			WithFloatUniform(UniformTime, 0),
			WithColorUniform(UniformColorStart, p.PortalColorStart),
			WithColorUniform(UniformColorEnd, p.PortalColorEnd),
		),
		Fireflies: NewMaterial(
			WithName(NameFireflies),
			WithShader(PipelineFireflies, encodeFireflies),
			WithFloatUniform(UniformPixelRatio, p.PixelRatio),
			WithFloatUniform(UniformSize, p.FireflySize),
			WithFloatUniform(UniformTime, 0),
			WithBlending(BlendAdditive, true, false),
		),
	}
}

// SetTime writes elapsed seconds into every shader material's uTime.
//
// Parameters:
//   - seconds: elapsed time since the loop started
func (pm *PortalMaterials) SetTime(seconds float32) {
	_ = pm.PortalLight.SetFloat(UniformTime, seconds)
	_ = pm.Fireflies.SetFloat(UniformTime, seconds)
}

// All returns the materials in draw order: opaque first, additive last.
func (pm *PortalMaterials) All() []Material {
	return []Material{pm.Baked, pm.PoleLight, pm.PortalLight, pm.Fireflies}
}

func encodeBasic(m Material) UniformBlock {
	u := &GPUBasicUniforms{Color: m.Color().Linear()}
	if m.Texture() != nil {
		u.HasTexture = 1
	}
	return u
}

func encodePortal(m Material) UniformBlock {
	return &GPUPortalUniforms{
		ColorStart: colorOr(m, UniformColorStart).Linear(),
		Time:       floatOr(m, UniformTime),
		ColorEnd:   colorOr(m, UniformColorEnd).Linear(),
	}
}

func encodeFireflies(m Material) UniformBlock {
	return &GPUFireflyUniforms{
		PixelRatio: floatOr(m, UniformPixelRatio),
		PointSize:  floatOr(m, UniformSize),
		Time:       floatOr(m, UniformTime),
	}
}
