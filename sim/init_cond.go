package sim

import (
	"fmt"

	filter "github.com/milosgajdos/go-ukf"
	"gonum.org/v1/gonum/mat"
)

// InitCond is filter initial condition: the initial state and its covariance.
// It implements filter.InitCond.
type InitCond struct {
	state *mat.VecDense
	cov   *mat.SymDense
}

// NewInitCond creates new initial condition from copies of state and cov.
// It returns error if either is missing or their dimensions differ.
func NewInitCond(state mat.Vector, cov mat.Symmetric) (*InitCond, error) {
	if state == nil || cov == nil || state.Len() == 0 {
		return nil, fmt.Errorf("%w: initial state and covariance must be defined", filter.ErrInvalidParam)
	}

	if n := cov.SymmetricDim(); n != state.Len() {
		return nil, fmt.Errorf("%w: initial state length %d != covariance dimension %d", filter.ErrDimMismatch, state.Len(), n)
	}

	ic := &InitCond{
		state: mat.VecDenseCopyOf(state),
		cov:   mat.NewSymDense(cov.SymmetricDim(), nil),
	}
	ic.cov.CopySym(cov)

	return ic, nil
}

// State returns a copy of the initial state
func (c *InitCond) State() mat.Vector {
	return mat.VecDenseCopyOf(c.state)
}

// Cov returns a copy of the initial covariance
func (c *InitCond) Cov() mat.Symmetric {
	cov := mat.NewSymDense(c.cov.SymmetricDim(), nil)
	cov.CopySym(c.cov)

	return cov
}
