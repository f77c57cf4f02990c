package noise

import (
	"fmt"

	filter "github.com/milosgajdos/go-ukf"
	"gonum.org/v1/gonum/mat"
)

// Zero is noise which is always zero.
// Filters use it in place of noise models that were not supplied.
type Zero struct {
	dim int
}

// NewZero creates new zero noise of dimension dim.
// It returns error if dim is not positive.
func NewZero(dim int) (*Zero, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: zero noise dimension: %d", filter.ErrInvalidParam, dim)
	}

	return &Zero{dim: dim}, nil
}

// Sample returns zero vector.
func (z *Zero) Sample() mat.Vector { return mat.NewVecDense(z.dim, nil) }

// Cov returns zero covariance.
func (z *Zero) Cov() mat.Symmetric { return mat.NewSymDense(z.dim, nil) }

// Mean returns zero mean.
func (z *Zero) Mean() []float64 { return make([]float64, z.dim) }

// Reset is a no-op.
func (z *Zero) Reset() error { return nil }

// String implements the Stringer interface.
func (z *Zero) String() string {
	return fmt.Sprintf("Zero{Dim=%d}", z.dim)
}
