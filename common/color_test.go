package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"#112233", "#112233"},
		{"112233", "#112233"},
		{"#ABCDEF", "#abcdef"},
		{"#fff", "#ffffff"},
		{" #ffffe5 ", "#ffffe5"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, err := ParseHexColor(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Hex())
		})
	}
}

func TestParseHexColorInvalid(t *testing.T) {
	for _, in := range []string{"", "#12", "#12345", "#gggggg", "#1122334", "#1 2 3", "#12 345"} {
		_, err := ParseHexColor(in)
		assert.ErrorIs(t, err, ErrInvalidColor, in)
	}
}

func TestColorLinear(t *testing.T) {
	white := MustParseHexColor("#ffffff").Linear()
	assert.InDeltaSlice(t, []float32{1, 1, 1}, white[:], 1e-5)

	black := MustParseHexColor("#000000").Linear()
	assert.Equal(t, [3]float32{}, black)

	// Mid grey in sRGB is roughly 21.4% linear.
	grey := MustParseHexColor("#808080").Linear()
	assert.InDelta(t, 0.2158, grey[0], 1e-3)

	// out-of-range channels are clamped before conversion
	bright := Color{R: 1.5, G: -0.5, B: 1}.Linear()
	assert.InDeltaSlice(t, []float32{1, 0, 1}, bright[:], 1e-5)
}

func TestColorHexRoundTrip(t *testing.T) {
	c := ColorFromUint32(0xffffe5)
	assert.Equal(t, "#ffffe5", c.Hex())
	assert.Equal(t, c, MustParseHexColor(c.Hex()))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 400.0, Clamp(500.0, 1, 400))
	assert.Equal(t, 1.0, Clamp(0.0, 1, 400))
	assert.Equal(t, 42, Clamp(42, 1, 400))
}

func TestCoalesce(t *testing.T) {
	assert.Equal(t, "b", Coalesce("", "b", "c"))
	assert.Equal(t, 0, Coalesce(0, 0))
}
