package common

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrInvalidColor is returned when a colour string is not a valid #rgb or #rrggbb hex value.
var ErrInvalidColor = errors.New("invalid hex color")

// Color is an sRGB colour with channels in [0, 1].
type Color struct {
	R, G, B float32
}

// ParseHexColor parses "#rrggbb" or "#rgb" (the leading '#' is optional).
//
// Parameters:
//   - s: the hex colour string
//
// Returns:
//   - Color: the parsed sRGB colour
//   - error: ErrInvalidColor if s is malformed
func ParseHexColor(s string) (Color, error) {
	hex := "#" + strings.TrimPrefix(strings.TrimSpace(s), "#")
	// colorful.Hex scans with fmt, which would skip embedded blanks and ignore trailing digits.
	if (len(hex) != 4 && len(hex) != 7) || strings.ContainsAny(hex, " \t") {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return Color{}, fmt.Errorf("%w: %q: %v", ErrInvalidColor, s, err)
	}
	return Color{R: float32(c.R), G: float32(c.G), B: float32(c.B)}, nil
}

// MustParseHexColor is ParseHexColor for compile-time constants; it panics on malformed input.
func MustParseHexColor(s string) Color {
	c, err := ParseHexColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

// ColorFromUint32 converts a 0xRRGGBB value to a Color.
func ColorFromUint32(v uint32) Color {
	return Color{
		R: float32((v>>16)&0xff) / 255,
		G: float32((v>>8)&0xff) / 255,
		B: float32(v&0xff) / 255,
	}
}

// Hex formats the colour as lowercase "#rrggbb".
func (c Color) Hex() string {
	return c.colorful().Hex()
}

// Linear converts the sRGB colour to linear space, the space shaders blend in.
//
// Returns:
//   - [3]float32: linear RGB channels
func (c Color) Linear() [3]float32 {
	r, g, b := c.colorful().LinearRgb()
	return [3]float32{float32(r), float32(g), float32(b)}
}

func (c Color) colorful() colorful.Color {
	return colorful.Color{R: float64(c.R), G: float64(c.G), B: float64(c.B)}.Clamped()
}
