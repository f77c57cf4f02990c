package estimate

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"
)

// Base is base estimate
type Base struct {
	// val is estimated value
	val *mat.VecDense
	// cov is estimated covariance
	cov *mat.SymDense
	// epoch is estimate timestamp
	epoch time.Time
}

// NewBase returns base estimate given val
func NewBase(val mat.Vector) (*Base, error) {
	v := cloneVec(val)

	c := &mat.SymDense{}
	if v.Len() > 0 {
		c = mat.NewSymDense(v.Len(), nil)
	}

	return &Base{
		val: v,
		cov: c,
	}, nil
}

// NewBaseWithCov returns base estimate given value and covariance
func NewBaseWithCov(val mat.Vector, cov mat.Symmetric) (*Base, error) {
	return NewBaseAt(val, cov, time.Time{})
}

// NewBaseAt returns base estimate given value and covariance timestamped at epoch.
// It returns error if the value and covariance dimensions do not match.
func NewBaseAt(val mat.Vector, cov mat.Symmetric, epoch time.Time) (*Base, error) {
	if val == nil || cov == nil {
		return nil, fmt.Errorf("invalid estimate: val and cov must be defined")
	}

	rv, _ := val.Dims()
	rc := cov.SymmetricDim()

	if rv != rc {
		return nil, fmt.Errorf("invalid dimensions. Val: %d, Cov: %d x %d", rv, rc, rc)
	}

	v := cloneVec(val)

	c := &mat.SymDense{}
	if rc > 0 {
		c = mat.NewSymDense(rc, nil)
		c.CopySym(cov)
	}

	return &Base{
		val:   v,
		cov:   c,
		epoch: epoch,
	}, nil
}

// Val returns estimated value
func (b *Base) Val() mat.Vector {
	return cloneVec(b.val)
}

// Cov returns covariance estimate
func (b *Base) Cov() mat.Symmetric {
	cov := &mat.SymDense{}
	if n := b.cov.SymmetricDim(); n > 0 {
		cov = mat.NewSymDense(n, nil)
		cov.CopySym(b.cov)
	}

	return cov
}

// Epoch returns estimate timestamp
func (b *Base) Epoch() time.Time {
	return b.epoch
}

// String implements the Stringer interface.
func (b *Base) String() string {
	if b.val.Len() == 0 {
		return fmt.Sprintf("Estimate{\nEpoch=%s\nVal=[]\nCov=[]\n}", b.epoch.Format(time.RFC3339Nano))
	}

	return fmt.Sprintf("Estimate{\nEpoch=%s\nVal=%v\nCov=%v\n}",
		b.epoch.Format(time.RFC3339Nano),
		mat.Formatted(b.val.T(), mat.Squeeze()),
		mat.Formatted(b.cov, mat.Prefix("    "), mat.Squeeze()))
}

// cloneVec copies v; nil and empty vectors yield an empty vector.
func cloneVec(v mat.Vector) *mat.VecDense {
	c := &mat.VecDense{}
	if v == nil || v.Len() == 0 {
		return c
	}
	c.CloneFromVec(v)

	return c
}
