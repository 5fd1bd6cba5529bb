package particles

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateLengthsAndBounds(t *testing.T) {
	f := Generate(DefaultCount, NewRand())
	require.Len(t, f.Positions, 450)
	require.Len(t, f.Scales, 150)
	assert.Equal(t, 150, f.Count())

	for i := range f.Count() {
		p := f.Position(i)
		assert.GreaterOrEqual(t, p[0], float32(-2))
		assert.LessOrEqual(t, p[0], float32(2))
		assert.GreaterOrEqual(t, p[1], float32(0))
		assert.LessOrEqual(t, p[1], float32(1.5))
		assert.GreaterOrEqual(t, p[2], float32(-2))
		assert.LessOrEqual(t, p[2], float32(2))
		assert.GreaterOrEqual(t, f.Scales[i], float32(0))
		assert.LessOrEqual(t, f.Scales[i], float32(1))
	}
}

func TestGenerateIsIndependentPerParticle(t *testing.T) {
	f := Generate(DefaultCount, rand.New(rand.NewPCG(1, 2)))

	// Independent draws: no two particles share a position, and the axes are not copies of each other.
	seen := make(map[[3]float32]bool, f.Count())
	sameXZ := 0
	for i := range f.Count() {
		p := f.Position(i)
		assert.False(t, seen[p], "duplicate particle %d", i)
		seen[p] = true
		if p[0] == p[2] {
			sameXZ++
		}
	}
	assert.Zero(t, sameXZ)

	// The field should spread over the whole volume rather than a corner of it.
	var minX, maxX, maxY float32 = 2, -2, 0
	for i := range f.Count() {
		p := f.Position(i)
		minX, maxX, maxY = min(minX, p[0]), max(maxX, p[0]), max(maxY, p[1])
	}
	assert.Less(t, minX, float32(-1))
	assert.Greater(t, maxX, float32(1))
	assert.Greater(t, maxY, float32(0.75))
}

func TestGenerateSameSeedSameField(t *testing.T) {
	a := Generate(10, rand.New(rand.NewPCG(7, 7)))
	b := Generate(10, rand.New(rand.NewPCG(7, 7)))
	assert.Equal(t, a, b)
}

func TestGenerateZero(t *testing.T) {
	f := Generate(0, NewRand())
	assert.Empty(t, f.Positions)
	assert.Empty(t, f.Scales)
	assert.Empty(t, f.Interleave())
}

func TestInterleave(t *testing.T) {
	f := &Field{Positions: []float32{1, 2, 3, 4, 5, 6}, Scales: []float32{0.5, 0.25}}
	assert.Equal(t, []float32{1, 2, 3, 0.5, 4, 5, 6, 0.25}, f.Interleave())
}
