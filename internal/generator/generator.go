// Package generator produces random variates for path simulation.
package generator

import (
	"math"
	"math/rand/v2"
	"time"
)

// Uniform is a source of uniform variates in [0, 1).
type Uniform interface {
	Float64() float64
}

// Gaussian draws standard-normal variates with the Box-Muller transform.
// It keeps no state besides its uniform source, so one Gaussian per goroutine
// (each with its own source) is safe for parallel use.
type Gaussian struct {
	src Uniform
}

// NewGaussian returns a Gaussian sampler reading from src.
func NewGaussian(src Uniform) *Gaussian {
	return &Gaussian{src: src}
}

// Sample returns one standard-normal draw. The sine half of the pair is discarded.
func (g *Gaussian) Sample() float64 {
	u1 := g.src.Float64()
	for u1 == 0 {
		u1 = g.src.Float64()
	}
	u2 := g.src.Float64()
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

// NewStream returns a PCG-backed generator for one (seed, stream) pair.
// Distinct streams under the same seed are independent.
func NewStream(seed, stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, stream))
}

// NewSeed returns a seed derived from the current time.
func NewSeed() uint64 {
	return mix(uint64(time.Now().UnixNano()))
}

// mix is the splitmix64 finalizer; it spreads nearby inputs across the whole range.
func mix(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	z ^= z >> 31
	if z == 0 {
		return 1
	}
	return z
}
