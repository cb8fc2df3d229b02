// Package noise provides seeded scalar fields used by terrain generation.
package noise

import (
	"fmt"

	perlin "github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"
)

// Backend names accepted by New.
const (
	BackendPerlin  = "perlin"
	BackendSimplex = "simplex"
)

// Field is a deterministic 2D scalar field with values in [0,1].
type Field interface {
	Sample(x, y float64) float64
}

// New returns the field for the named backend.
func New(backend string, seed int64) (Field, error) {
	switch backend {
	case BackendPerlin, "":
		return NewPerlin(seed), nil
	case BackendSimplex:
		return NewSimplex(seed), nil
	default:
		return nil, fmt.Errorf("unknown noise backend %q", backend)
	}
}

// Perlin is a seeded three-octave Perlin field.
type Perlin struct {
	p *perlin.Perlin
}

// NewPerlin creates a Perlin field from a seed.
func NewPerlin(seed int64) *Perlin {
	return &Perlin{p: perlin.NewPerlin(2, 2, 3, seed)}
}

// Sample maps raw Perlin output from roughly [-1,1] into [0,1].
func (f *Perlin) Sample(x, y float64) float64 {
	return clamp01(f.p.Noise2D(x, y)*0.5 + 0.5)
}

// Simplex is a seeded OpenSimplex field.
type Simplex struct {
	n opensimplex.Noise
}

// NewSimplex creates a simplex field from a seed.
func NewSimplex(seed int64) *Simplex {
	return &Simplex{n: opensimplex.NewNormalized(seed)}
}

// Sample returns simplex noise in [0,1].
func (f *Simplex) Sample(x, y float64) float64 {
	return clamp01(f.n.Eval2(x, y))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
