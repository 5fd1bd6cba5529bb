package material

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-portal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParams() PortalParams {
	return PortalParams{
		BakedTexture:     &common.TextureStagingData{Width: 1, Height: 1, Pixels: []byte{1, 2, 3, 4}, ColorSpace: common.ColorSpaceSRGB},
		PoleLightColor:   DefaultPoleLightColor,
		PortalColorStart: common.MustParseHexColor("#000000"),
		PortalColorEnd:   common.MustParseHexColor("#ffffff"),
		PixelRatio:       2,
		FireflySize:      100,
	}
}

func f32At(buf []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
}

func TestNewPortalMaterials(t *testing.T) {
	pm := NewPortalMaterials(testParams())

	assert.Equal(t, KindBasic, pm.Baked.Kind())
	assert.NotNil(t, pm.Baked.Texture())
	assert.Equal(t, PipelineBasic, pm.Baked.PipelineKey())

	assert.Equal(t, KindBasic, pm.PoleLight.Kind())
	assert.Equal(t, "#ffffe5", pm.PoleLight.Color().Hex())
	assert.Nil(t, pm.PoleLight.Texture())

	assert.Equal(t, KindShader, pm.PortalLight.Kind())
	assert.Equal(t, []string{UniformTime, UniformColorStart, UniformColorEnd}, pm.PortalLight.Uniforms())
	tm, err := pm.PortalLight.Float(UniformTime)
	require.NoError(t, err)
	assert.Zero(t, tm)

	assert.Equal(t, KindShader, pm.Fireflies.Kind())
	assert.Equal(t, []string{UniformPixelRatio, UniformSize, UniformTime}, pm.Fireflies.Uniforms())
	assert.Equal(t, BlendAdditive, pm.Fireflies.Blending())
	assert.True(t, pm.Fireflies.Transparent())
	assert.False(t, pm.Fireflies.DepthWrite())
	size, err := pm.Fireflies.Float(UniformSize)
	require.NoError(t, err)
	assert.Equal(t, float32(100), size)

	assert.True(t, pm.Baked.DepthWrite())
	assert.False(t, pm.Baked.Transparent())
}

func TestSetTimeUpdatesBothShaderMaterials(t *testing.T) {
	pm := NewPortalMaterials(testParams())
	portalVersion, fireflyVersion := pm.PortalLight.Version(), pm.Fireflies.Version()

	pm.SetTime(1.5)

	v, _ := pm.PortalLight.Float(UniformTime)
	assert.Equal(t, float32(1.5), v)
	v, _ = pm.Fireflies.Float(UniformTime)
	assert.Equal(t, float32(1.5), v)
	assert.Greater(t, pm.PortalLight.Version(), portalVersion)
	assert.Greater(t, pm.Fireflies.Version(), fireflyVersion)
}

func TestUniformErrors(t *testing.T) {
	pm := NewPortalMaterials(testParams())

	assert.ErrorIs(t, pm.PortalLight.SetFloat("uMissing", 1), ErrUnknownUniform)
	assert.ErrorIs(t, pm.PortalLight.SetFloat(UniformColorStart, 1), ErrUniformKind)
	_, err := pm.Fireflies.ColorUniform(UniformSize)
	assert.ErrorIs(t, err, ErrUniformKind)
	assert.ErrorIs(t, pm.Baked.SetColorUniform(UniformColorEnd, common.Color{}), ErrUnknownUniform)
}

func TestPortalUniformBlock(t *testing.T) {
	pm := NewPortalMaterials(testParams())
	require.NoError(t, pm.PortalLight.SetColorUniform(UniformColorStart, common.MustParseHexColor("#ffffff")))
	pm.SetTime(2)

	block := pm.PortalLight.UniformBlock()
	buf := block.Marshal()
	require.Len(t, buf, 32)
	assert.Equal(t, 32, block.Size())
	assert.InDelta(t, 1, f32At(buf, 0), 1e-5)
	assert.Equal(t, float32(2), f32At(buf, 12))
	assert.InDelta(t, 1, f32At(buf, 16), 1e-5)
}

func TestFireflyUniformBlock(t *testing.T) {
	pm := NewPortalMaterials(testParams())
	require.NoError(t, pm.Fireflies.SetFloat(UniformSize, 250))

	buf := pm.Fireflies.UniformBlock().Marshal()
	require.Len(t, buf, 16)
	assert.Equal(t, float32(2), f32At(buf, 0))
	assert.Equal(t, float32(250), f32At(buf, 4))
	assert.Equal(t, float32(0), f32At(buf, 8))
}

func TestBasicUniformBlock(t *testing.T) {
	pm := NewPortalMaterials(testParams())

	baked := pm.Baked.UniformBlock().Marshal()
	require.Len(t, baked, 16)
	assert.Equal(t, float32(1), f32At(baked, 12))

	pole := pm.PoleLight.UniformBlock().Marshal()
	assert.Equal(t, float32(0), f32At(pole, 12))
	assert.InDelta(t, 1, f32At(pole, 0), 1e-5)
}

func TestAllDrawOrder(t *testing.T) {
	pm := NewPortalMaterials(testParams())
	all := pm.All()
	require.Len(t, all, 4)
	assert.Equal(t, NameFireflies, all[3].Name())
}

func TestSetTextureLateBinding(t *testing.T) {
	p := testParams()
	tex := p.BakedTexture
	p.BakedTexture = nil
	pm := NewPortalMaterials(p)

	assert.Nil(t, pm.Baked.Texture())
	assert.Equal(t, float32(0), f32At(pm.Baked.UniformBlock().Marshal(), 12))

	v := pm.Baked.Version()
	pm.Baked.SetTexture(tex)
	assert.Same(t, tex, pm.Baked.Texture())
	assert.Equal(t, v+1, pm.Baked.Version())
	assert.Equal(t, float32(1), f32At(pm.Baked.UniformBlock().Marshal(), 12))

	// same texture again is not a change
	pm.Baked.SetTexture(tex)
	assert.Equal(t, v+1, pm.Baked.Version())
}
