package noise

import (
	"fmt"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Uniform is uniform noise: each of its components is drawn independently
// from a uniform distribution on its own [min, max) interval.
type Uniform struct {
	// dists stores per-component uniform distributions
	dists []distuv.Uniform
	// min stores lower bounds of the noise components
	min []float64
	// max stores upper bounds of the noise components
	max []float64
	// src is random source; nil means time seeded
	src rand.Source
}

// NewUniform creates new Uniform noise with per-component bounds min and max.
// If src is nil the noise is seeded from the current time, otherwise src is used
// to draw the samples, which makes the noise reproducible.
// It returns error if the bounds are empty, have different lengths or min[i] > max[i].
func NewUniform(min, max []float64, src rand.Source) (*Uniform, error) {
	if len(min) == 0 || len(min) != len(max) {
		return nil, fmt.Errorf("invalid uniform noise bounds: %v, %v", min, max)
	}

	for i := range min {
		if min[i] > max[i] {
			return nil, fmt.Errorf("invalid uniform noise bounds [%d]: %g > %g", i, min[i], max[i])
		}
	}

	u := &Uniform{
		min: append([]float64(nil), min...),
		max: append([]float64(nil), max...),
		src: src,
	}
	u.dists = newUniformDists(u.min, u.max, src)

	return u, nil
}

// NewSymUniform creates new zero mean Uniform noise bounded by [-bounds[i], bounds[i]).
func NewSymUniform(bounds []float64, src rand.Source) (*Uniform, error) {
	min := make([]float64, len(bounds))
	for i := range bounds {
		min[i] = -bounds[i]
	}

	return NewUniform(min, bounds, src)
}

// Sample generates a sample from Uniform noise and returns it.
func (u *Uniform) Sample() mat.Vector {
	s := make([]float64, len(u.dists))
	for i := range u.dists {
		s[i] = u.dists[i].Rand()
	}

	return mat.NewVecDense(len(s), s)
}

// Cov returns covariance matrix of Uniform noise: diag((max-min)^2/12).
func (u *Uniform) Cov() mat.Symmetric {
	cov := mat.NewSymDense(len(u.dists), nil)
	for i := range u.dists {
		cov.SetSym(i, i, u.dists[i].Variance())
	}

	return cov
}

// Mean returns Uniform mean.
func (u *Uniform) Mean() []float64 {
	mean := make([]float64, len(u.dists))
	for i := range u.dists {
		mean[i] = u.dists[i].Mean()
	}

	return mean
}

// Reset resets Uniform noise.
// Time seeded noise is reseeded; noise created with explicit source keeps drawing from it.
func (u *Uniform) Reset() error {
	u.dists = newUniformDists(u.min, u.max, u.src)

	return nil
}

func newUniformDists(min, max []float64, src rand.Source) []distuv.Uniform {
	src = source(src)

	dists := make([]distuv.Uniform, len(min))
	for i := range min {
		dists[i] = distuv.Uniform{Min: min[i], Max: max[i], Src: src}
	}

	return dists
}

// String implements the Stringer interface.
func (u *Uniform) String() string {
	return fmt.Sprintf("Uniform{\nMin=%v\nMax=%v\n}", u.min, u.max)
}
