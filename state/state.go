package state

import (
	"fmt"
	"time"

	filter "github.com/milosgajdos/go-ukf"
	"gonum.org/v1/gonum/mat"
)

// Base is a timestamped state vector.
// It implements filter.State and is meant to be embedded in custom state types.
type Base struct {
	// x is state vector
	x *mat.VecDense
	// t is state timestamp
	t time.Time
}

// New creates new state from vector x timestamped at epoch and returns it.
// It returns error if x is nil or empty.
func New(x mat.Vector, epoch time.Time) (*Base, error) {
	if x == nil || x.Len() == 0 {
		return nil, fmt.Errorf("%w: empty state vector", filter.ErrDimMismatch)
	}

	v := &mat.VecDense{}
	v.CloneFromVec(x)

	return &Base{
		x: v,
		t: epoch,
	}, nil
}

// State returns a copy of the state vector
func (b *Base) State() mat.Vector {
	v := &mat.VecDense{}
	v.CloneFromVec(b.x)

	return v
}

// SetState overwrites state vector with a copy of x
func (b *Base) SetState(x mat.Vector) {
	v := &mat.VecDense{}
	v.CloneFromVec(x)
	b.x = v
}

// Epoch returns state timestamp
func (b *Base) Epoch() time.Time {
	return b.t
}

// SetEpoch overwrites state timestamp
func (b *Base) SetEpoch(epoch time.Time) {
	b.t = epoch
}

// Propagate advances the state through dynamics f by dt given exogenous input u.
// It overwrites the state vector with the result of f and moves the epoch forward by dt.
// It returns error if f fails, in which case the state is left unchanged.
func (b *Base) Propagate(f filter.DynamicsFunc, dt time.Duration, u mat.Vector) error {
	x, err := f(b.x, u, dt)
	if err != nil {
		return fmt.Errorf("failed to propagate state: %w", err)
	}

	if x == nil {
		return fmt.Errorf("%w: dynamics returned nil state", filter.ErrDimMismatch)
	}

	if x.Len() != b.x.Len() {
		return fmt.Errorf("%w: propagated state length %d != %d", filter.ErrDimMismatch, x.Len(), b.x.Len())
	}

	b.SetState(x)
	b.t = b.t.Add(dt)

	return nil
}

// String implements the Stringer interface.
func (b *Base) String() string {
	return fmt.Sprintf("State{\nEpoch=%s\nX=%v\n}", b.t.Format(time.RFC3339Nano), mat.Formatted(b.x.T(), mat.Squeeze()))
}
