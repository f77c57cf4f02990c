package sim

import (
	"time"

	filter "github.com/milosgajdos/go-ukf"
	"gonum.org/v1/gonum/mat"
)

// Discrete is a linear discrete-time model
//
//	x[k+1] = A*x[k] + B*u[k] + wd[k]
//	y[k]   = C*x[k] + D*u[k]
type Discrete struct {
	System
}

// NewDiscrete creates new discrete-time model from copies of the supplied matrices.
// It returns error if A is missing or the matrix dimensions are inconsistent.
func NewDiscrete(A, B, C, D, E *mat.Dense) (*Discrete, error) {
	sys, err := newSystem(A, B, C, D, E)
	if err != nil {
		return nil, err
	}

	return &Discrete{System: sys}, nil
}

// Propagate advances state x by one step given input u and process noise wd.
// Nil u skips the control term and wd is added only when it has the state length.
func (d *Discrete) Propagate(x, u, wd mat.Vector) (mat.Vector, error) {
	if err := d.checkInputs(x, u); err != nil {
		return nil, err
	}

	return affine(d.A, x, orNil(d.B), u, wd), nil
}

// Dynamics returns filter dynamics function which advances the model by one step.
// The step is fixed by the model so dt is ignored.
func (d *Discrete) Dynamics() filter.DynamicsFunc {
	return func(x, u mat.Vector, _ time.Duration) (mat.Vector, error) {
		return d.Propagate(x, u, nil)
	}
}
