package loader

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/Carmen-Shannon/oxy-portal/common"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// textureLoader is the implementation of the TextureLoader interface.
type textureLoader struct {
	flipY      bool
	colorSpace common.ColorSpace
}

// TextureLoader decodes image files into RGBA staging data ready for GPU upload.
// JPEG, PNG, WebP and BMP are supported.
type TextureLoader interface {
	// Load decodes the image at path.
	//
	// Parameters:
	//   - path: the image file path
	//
	// Returns:
	//   - *common.TextureStagingData: RGBA8 pixels, dimensions and colour space tag
	//   - error: ErrUnsupportedFormat for unknown encodings, or a wrapped read error
	Load(path string) (*common.TextureStagingData, error)
}

var _ TextureLoader = &textureLoader{}

// NewTextureLoader creates a TextureLoader. By default rows are kept in file order
// (no vertical flip) and textures are tagged sRGB, matching UVs exported by glTF tools.
//
// Parameters:
//   - options: a variadic list of TextureLoaderBuilderOption functions
//
// Returns:
//   - TextureLoader: the configured loader
func NewTextureLoader(options ...TextureLoaderBuilderOption) TextureLoader {
	t := &textureLoader{colorSpace: common.ColorSpaceSRGB}
	for _, option := range options {
		option(t)
	}
	return t
}

func (t *textureLoader) Load(path string) (*common.TextureStagingData, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open texture file %s: %w", path, err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, fmt.Errorf("%w: texture %s", ErrUnsupportedFormat, path)
		}
		return nil, fmt.Errorf("failed to decode texture file %s: %w", path, err)
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	if t.flipY {
		flipRows(rgba.Pix, rgba.Stride, bounds.Dy())
	}

	return &common.TextureStagingData{
		Pixels:     rgba.Pix,
		Width:      uint32(bounds.Dx()),
		Height:     uint32(bounds.Dy()),
		ColorSpace: t.colorSpace,
		FlipY:      t.flipY,
	}, nil
}

func flipRows(pix []byte, stride, height int) {
	tmp := make([]byte, stride)
	for top, bottom := 0, height-1; top < bottom; top, bottom = top+1, bottom-1 {
		a := pix[top*stride : (top+1)*stride]
		b := pix[bottom*stride : (bottom+1)*stride]
		copy(tmp, a)
		copy(a, b)
		copy(b, tmp)
	}
}

// TextureLoaderBuilderOption is a functional option for configuring a TextureLoader.
type TextureLoaderBuilderOption func(*textureLoader)

// WithFlipY flips rows vertically after decoding.
//
// Parameters:
//   - flip: whether to flip
//
// Returns:
//   - TextureLoaderBuilderOption: a function that applies the option
func WithFlipY(flip bool) TextureLoaderBuilderOption {
	return func(t *textureLoader) {
		t.flipY = flip
	}
}

// WithColorSpace overrides the colour space tag (sRGB by default).
//
// Parameters:
//   - cs: the colour space
//
// Returns:
//   - TextureLoaderBuilderOption: a function that applies the option
func WithColorSpace(cs common.ColorSpace) TextureLoaderBuilderOption {
	return func(t *textureLoader) {
		t.colorSpace = cs
	}
}
