package noise

import (
	"fmt"

	filter "github.com/milosgajdos/go-ukf"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

// Gaussian is multivariate normal noise
type Gaussian struct {
	dist *distmv.Normal
	mean []float64
	cov  *mat.SymDense
	// src is kept so that Reset can tell seeded noise from time seeded noise
	src rand.Source
}

// NewGaussian creates new Gaussian noise with the given mean and covariance.
// If src is nil the noise is seeded from the current time.
// It returns error if mean and cov dimensions differ or if cov is not positive definite.
func NewGaussian(mean []float64, cov mat.Symmetric, src rand.Source) (*Gaussian, error) {
	if cov == nil || len(mean) == 0 {
		return nil, fmt.Errorf("%w: gaussian noise requires mean and covariance", filter.ErrInvalidParam)
	}

	if n := cov.SymmetricDim(); n != len(mean) {
		return nil, fmt.Errorf("%w: gaussian mean length %d != covariance dimension %d", filter.ErrDimMismatch, len(mean), n)
	}

	g := &Gaussian{
		mean: append([]float64(nil), mean...),
		cov:  symCopy(cov),
		src:  src,
	}

	if err := g.Reset(); err != nil {
		return nil, err
	}

	return g, nil
}

// Sample draws a sample of the noise.
func (g *Gaussian) Sample() mat.Vector {
	return mat.NewVecDense(len(g.mean), g.dist.Rand(nil))
}

// Cov returns a copy of the noise covariance.
func (g *Gaussian) Cov() mat.Symmetric {
	return symCopy(g.cov)
}

// Mean returns a copy of the noise mean.
func (g *Gaussian) Mean() []float64 {
	return append([]float64(nil), g.mean...)
}

// Reset rebuilds the underlying distribution.
// Time seeded noise gets a fresh seed; noise created with a source keeps drawing from it.
func (g *Gaussian) Reset() error {
	dist, ok := distmv.NewNormal(g.mean, g.cov, rand.New(source(g.src)))
	if !ok {
		return fmt.Errorf("%w: gaussian covariance is not positive definite", filter.ErrNumerical)
	}
	g.dist = dist

	return nil
}

// String implements the Stringer interface.
func (g *Gaussian) String() string {
	return fmt.Sprintf("Gaussian{Mean=%v Cov=%v}", g.mean, mat.Formatted(g.cov, mat.FormatMATLAB()))
}
