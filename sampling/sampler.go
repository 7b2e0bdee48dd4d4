package sampling

import (
	"math/rand"

	"github.com/achilleasa/lighter/types"
	"github.com/chewxy/math32"
)

// Sampler provides uniform random samples in [0, 1).
type Sampler interface {
	Get1D() float32
	Get2D() types.Vec2
}

// RandomSampler wraps a math/rand generator. It is not safe for
// concurrent use.
type RandomSampler struct {
	random *rand.Rand
}

// Create a sampler seeded with seed.
func NewRandomSampler(seed int64) *RandomSampler {
	return &RandomSampler{random: rand.New(rand.NewSource(seed))}
}

// Get1D returns a random value in [0, 1).
func (s *RandomSampler) Get1D() float32 {
	return s.random.Float32()
}

// Get2D returns two random values in [0, 1).
func (s *RandomSampler) Get2D() types.Vec2 {
	return types.Vec2{s.random.Float32(), s.random.Float32()}
}

// Intn returns a random integer in [0, n).
func (s *RandomSampler) Intn(n int) int {
	return s.random.Intn(n)
}

// Radical inverse of index in the given base.
func radicalInverse(index uint32, base uint32) float32 {
	invBase := 1 / float32(base)
	f := invBase
	var r float32
	for index > 0 {
		r += f * float32(index%base)
		index /= base
		f *= invBase
	}
	return r
}

// Get the index-th point of the 2D Halton sequence (bases 2 and 3).
func Halton2D(index uint32) types.Vec2 {
	return types.Vec2{radicalInverse(index, 2), radicalInverse(index, 3)}
}

// Get the index-th Halton point shifted by offset and wrapped back into the
// unit square. A random offset per sequence decorrelates sequences that
// share indices.
func RotatedHalton2D(index uint32, offset types.Vec2) types.Vec2 {
	u := Halton2D(index).Add(offset)
	u[0] -= math32.Floor(u[0])
	u[1] -= math32.Floor(u[1])
	return u
}

// Get n jittered sub-sample offsets inside a unit square centered at the
// origin. Offsets are stratified over a 2x2 grid (n <= 4) and jittered
// within each cell by up to jitter times the cell size.
func JitteredOffsets(s Sampler, n int, jitter float32, out []types.Vec2) []types.Vec2 {
	out = out[:0]
	cells := [4]types.Vec2{{-0.25, -0.25}, {0.25, -0.25}, {-0.25, 0.25}, {0.25, 0.25}}
	if n == 1 {
		return append(out, types.Vec2{})
	}
	for i := 0; i < n && i < len(cells); i++ {
		off := cells[i]
		if jitter > 0 && s != nil {
			u := s.Get2D()
			off = off.Add(types.Vec2{(u[0] - 0.5) * 0.5 * jitter, (u[1] - 0.5) * 0.5 * jitter})
		}
		out = append(out, off)
	}
	return out
}
