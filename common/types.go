// package common contains plain data types and helpers shared across the engine packages.
package common

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// ColorSpace tags how the texel values of a texture should be interpreted.
type ColorSpace int

const (
	// ColorSpaceLinear stores texels as linear values (data textures, normal maps).
	ColorSpaceLinear ColorSpace = iota

	// ColorSpaceSRGB stores gamma-encoded texels; the GPU decodes them to linear when sampling.
	ColorSpaceSRGB
)

// TextureStagingData holds RGBA pixel data for a texture pending GPU upload.
type TextureStagingData struct {
	// Pixels is the RGBA8 pixel data, 4 bytes per pixel, row-major from the first decoded row.
	Pixels []byte
	// Width is the width of the texture in pixels.
	Width uint32
	// Height is the height of the texture in pixels.
	Height uint32
	// ColorSpace selects the GPU texture format (RGBA8UnormSrgb for ColorSpaceSRGB).
	ColorSpace ColorSpace
	// FlipY records whether rows were flipped vertically during decode.
	FlipY bool
}

// Format returns the GPU texture format matching the staging data's colour space.
//
// Returns:
//   - wgpu.TextureFormat: the texture format to create the GPU texture with
func (t TextureStagingData) Format() wgpu.TextureFormat {
	if t.ColorSpace == ColorSpaceSRGB {
		return wgpu.TextureFormatRGBA8UnormSrgb
	}
	return wgpu.TextureFormatRGBA8Unorm
}

// SamplerStagingData holds the configuration for a sampler pending GPU creation.
// Zero-valued fields fall back to linear filtering and repeat addressing.
type SamplerStagingData struct {
	// AddressModeU, AddressModeV, AddressModeW specify addressing for coordinates outside [0, 1].
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter wgpu.FilterMode
	// MipmapFilter specifies the filtering mode for mipmap level selection.
	MipmapFilter wgpu.MipmapFilterMode
}
