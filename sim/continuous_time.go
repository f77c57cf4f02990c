package sim

import (
	"fmt"
	"time"

	filter "github.com/milosgajdos/go-ukf"
	"github.com/milosgajdos/matrix"
	"gonum.org/v1/gonum/mat"
)

// intervals is the number of trapezoids used to integrate exp(A*t) when A is singular
const intervals = 100

// Continuous is a linear continuous-time model
//
//	dx/dt = A*x + B*u + wd
//	y     = C*x + D*u
type Continuous struct {
	System
}

// NewContinuous creates new continuous-time model from copies of the supplied matrices.
// It returns error if A is missing or the matrix dimensions are inconsistent.
func NewContinuous(A, B, C, D, E *mat.Dense) (*Continuous, error) {
	sys, err := newSystem(A, B, C, D, E)
	if err != nil {
		return nil, err
	}

	return &Continuous{System: sys}, nil
}

// ToDiscrete returns the zero-order hold discretization of the model with sampling period ts seconds.
//
//	Ad = exp(A*ts)
//	Bd = integral(exp(A*t), 0, ts) * B
//
// The integral has the closed form inv(A)*(Ad - I) when A is invertible;
// otherwise it is evaluated with the trapezoidal rule.
func (c *Continuous) ToDiscrete(ts float64) (*Discrete, error) {
	if ts <= 0 {
		return nil, fmt.Errorf("%w: invalid sampling time: %g", filter.ErrInvalidParam, ts)
	}

	at := &mat.Dense{}
	at.Scale(ts, c.A)
	ad := &mat.Dense{}
	ad.Exp(at)

	var bd *mat.Dense
	if c.B != nil {
		integral, err := c.expIntegral(ad, ts)
		if err != nil {
			return nil, err
		}
		bd = &mat.Dense{}
		bd.Mul(integral, c.B)
	}

	return NewDiscrete(ad, bd, c.C, c.D, c.E)
}

// expIntegral returns integral(exp(A*t), 0, ts) given ad = exp(A*ts).
func (c *Continuous) expIntegral(ad *mat.Dense, ts float64) (*mat.Dense, error) {
	nx, _ := c.A.Dims()

	eye, err := matrix.NewDenseValIdentity(nx, 1.0)
	if err != nil {
		return nil, fmt.Errorf("failed to create identity matrix: %w", err)
	}

	var inv mat.Dense
	if err := inv.Inverse(c.A); err == nil {
		diff := &mat.Dense{}
		diff.Sub(ad, eye)

		integral := &mat.Dense{}
		integral.Mul(&inv, diff)

		return integral, nil
	}

	h := ts / intervals
	// end points exp(0) = I and exp(A*ts) = ad carry half weight
	sum := &mat.Dense{}
	sum.Add(eye, ad)
	sum.Scale(0.5, sum)

	at, e := &mat.Dense{}, &mat.Dense{}
	for i := 1; i < intervals; i++ {
		at.Scale(h*float64(i), c.A)
		e.Exp(at)
		sum.Add(sum, e)
	}
	sum.Scale(h, sum)

	return sum, nil
}

// Propagate advances state x by dt seconds given input u and process noise wd using a single Euler step.
func (c *Continuous) Propagate(x, u, wd mat.Vector, dt float64) (mat.Vector, error) {
	if err := c.checkInputs(x, u); err != nil {
		return nil, err
	}

	dx := affine(c.A, x, orNil(c.B), u, wd)

	out := mat.VecDenseCopyOf(x)
	out.AddScaledVec(out, dt, dx)

	return out, nil
}

// Dynamics returns filter dynamics function which discretizes the model with the supplied
// time step and advances the state through the discrete model.
// The last discretization is reused while the time step does not change.
func (c *Continuous) Dynamics() filter.DynamicsFunc {
	var (
		step time.Duration
		disc *Discrete
	)

	return func(x, u mat.Vector, dt time.Duration) (mat.Vector, error) {
		if disc == nil || dt != step {
			d, err := c.ToDiscrete(dt.Seconds())
			if err != nil {
				return nil, err
			}
			disc, step = d, dt
		}

		return disc.Propagate(x, u, nil)
	}
}
