// Package particles generates the firefly point field.
package particles

import (
	"math/rand/v2"
)

// DefaultCount is the number of fireflies in the portal scene.
const DefaultCount = 150

// Field bounds: x and z span [-HalfExtent, HalfExtent], y spans [0, MaxHeight], scale spans [0, 1].
const (
	HalfExtent float32 = 2
	MaxHeight  float32 = 1.5
)

// Field is a fixed-size particle buffer: three position components and one scale per particle.
// It is generated once and never resized.
type Field struct {
	Positions []float32
	Scales    []float32
}

// Count returns the number of particles in the field.
func (f *Field) Count() int {
	return len(f.Scales)
}

// Position returns the position of particle i.
func (f *Field) Position(i int) [3]float32 {
	return [3]float32{f.Positions[i*3], f.Positions[i*3+1], f.Positions[i*3+2]}
}

// Generate samples count particles uniformly inside the firefly volume.
// Each coordinate and scale is an independent draw from rng.
//
// Parameters:
//   - count: number of particles
//   - rng: the random source; use NewRand for an entropy-seeded source
//
// Returns:
//   - *Field: the generated particle buffer
func Generate(count int, rng *rand.Rand) *Field {
	count = max(count, 0)
	f := &Field{
		Positions: make([]float32, count*3),
		Scales:    make([]float32, count),
	}
	for i := range count {
		f.Positions[i*3+0] = (rng.Float32() - 0.5) * 2 * HalfExtent
		f.Positions[i*3+1] = rng.Float32() * MaxHeight
		f.Positions[i*3+2] = (rng.Float32() - 0.5) * 2 * HalfExtent
		f.Scales[i] = rng.Float32()
	}
	return f
}

// NewRand returns a generator seeded from system entropy, so every run differs.
func NewRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// InstanceStride is the byte size of one particle in the interleaved instance buffer.
const InstanceStride = 16

// Interleave packs the field as (x, y, z, scale) per particle for a GPU instance buffer.
//
// Returns:
//   - []float32: 4 floats per particle
func (f *Field) Interleave() []float32 {
	out := make([]float32, 0, f.Count()*4)
	for i := range f.Count() {
		out = append(out, f.Positions[i*3], f.Positions[i*3+1], f.Positions[i*3+2], f.Scales[i])
	}
	return out
}
