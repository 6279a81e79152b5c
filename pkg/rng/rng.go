// Package rng provides the seeded random stream shared by frame rotation
// and noise injection. Equal seeds always yield equal sequences.
package rng

import "math/rand/v2"

// Rand is a deterministic uniform generator. It is not safe for concurrent
// use; each driver owns its own.
type Rand struct {
	src *rand.PCG
	r   *rand.Rand
}

// New returns a generator seeded with seed.
func New(seed uint64) *Rand {
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	return &Rand{src: src, r: rand.New(src)}
}

// Seed restarts the sequence from seed.
func (r *Rand) Seed(seed uint64) {
	r.src.Seed(seed, seed^0x9e3779b97f4a7c15)
}

// Next returns a value in [0, 1).
func (r *Rand) Next() float64 {
	return r.r.Float64()
}

// Range returns a value in [lo, hi). When hi <= lo it returns lo and still
// advances the stream, so callers see the same sequence either way.
func (r *Rand) Range(lo, hi float64) float64 {
	v := r.Next()
	if hi <= lo {
		return lo
	}
	return lo + v*(hi-lo)
}
