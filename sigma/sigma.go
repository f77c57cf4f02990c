// Package sigma implements deterministic sigma point sampling strategies
// used by the unscented transform.
package sigma

import (
	"fmt"
	"math"

	filter "github.com/milosgajdos/go-ukf"
	"gonum.org/v1/gonum/mat"
)

const (
	// DefaultBeta is the optimal beta for Gaussian distributions
	DefaultBeta = 2.0
	// DefaultKappa is the default secondary scaling parameter
	DefaultKappa = 0.0
	// eigTol is relative tolerance of negative eigenvalues accepted by EigenSqrt
	eigTol = 1e-12
)

// SqrtFunc computes a matrix square root S of cov such that S*S' = cov.
type SqrtFunc func(cov mat.Symmetric) (*mat.Dense, error)

// CholeskySqrt returns the lower triangular Cholesky factor of cov.
// It returns error if cov is not positive definite.
func CholeskySqrt(cov mat.Symmetric) (*mat.Dense, error) {
	var chol mat.Cholesky
	if ok := chol.Factorize(cov); !ok {
		return nil, fmt.Errorf("%w: cholesky factorization failed: covariance is not positive definite", filter.ErrNumerical)
	}

	var l mat.TriDense
	chol.LTo(&l)

	return mat.DenseCopyOf(&l), nil
}

// EigenSqrt returns V*sqrt(D) where V and D are eigenvectors and eigenvalues of cov.
// Unlike CholeskySqrt it accepts singular positive semi-definite matrices.
// It returns error if the factorization fails or cov has negative eigenvalues.
func EigenSqrt(cov mat.Symmetric) (*mat.Dense, error) {
	var eig mat.EigenSym
	if ok := eig.Factorize(cov, true); !ok {
		return nil, fmt.Errorf("%w: eigen decomposition failed", filter.ErrNumerical)
	}

	vals := eig.Values(nil)
	maxAbs := 1.0
	for _, v := range vals {
		maxAbs = math.Max(maxAbs, math.Abs(v))
	}

	for i, v := range vals {
		if v < -eigTol*maxAbs || math.IsNaN(v) {
			return nil, fmt.Errorf("%w: covariance is not positive semi-definite: eigenvalue %g", filter.ErrNumerical, v)
		}
		vals[i] = math.Sqrt(math.Max(v, 0))
	}

	var sqrt mat.Dense
	eig.VectorsTo(&sqrt)
	sqrt.Mul(&sqrt, mat.NewDiagDense(len(vals), vals))

	return &sqrt, nil
}

// Option configures sigma point samplers
type Option func(*options)

type options struct {
	beta  float64
	kappa float64
	sqrt  SqrtFunc
}

func newOptions(opts ...Option) options {
	o := options{
		beta:  DefaultBeta,
		kappa: DefaultKappa,
		sqrt:  CholeskySqrt,
	}
	for _, apply := range opts {
		apply(&o)
	}

	return o
}

// WithBeta sets beta parameter of the symmetric sampler.
// Beta incorporates prior knowledge of the distribution: 2 is optimal for Gaussians.
func WithBeta(beta float64) Option {
	return func(o *options) {
		o.beta = beta
	}
}

// WithKappa sets kappa (secondary scaling) parameter of the symmetric sampler.
func WithKappa(kappa float64) Option {
	return func(o *options) {
		o.kappa = kappa
	}
}

// WithSqrt sets the matrix square root used to spread the covariance.
func WithSqrt(f SqrtFunc) Option {
	return func(o *options) {
		if f != nil {
			o.sqrt = f
		}
	}
}

// checkInput validates dimensions of mean x and covariance cov against n.
func checkInput(n int, x mat.Vector, cov mat.Symmetric) error {
	if x == nil || cov == nil {
		return fmt.Errorf("%w: nil mean or covariance", filter.ErrDimMismatch)
	}

	if x.Len() != n {
		return fmt.Errorf("%w: mean length %d != %d", filter.ErrDimMismatch, x.Len(), n)
	}

	if cov.SymmetricDim() != n {
		return fmt.Errorf("%w: covariance dims [%d x %d] != %d", filter.ErrDimMismatch, cov.SymmetricDim(), cov.SymmetricDim(), n)
	}

	return nil
}

// spread returns sigma points x + sqrt*z[:,i] stored in columns.
func spread(x mat.Vector, sqrt *mat.Dense, z *mat.Dense) *mat.Dense {
	n, cols := z.Dims()

	pts := mat.NewDense(n, cols, nil)
	pts.Mul(sqrt, z)
	for c := 0; c < cols; c++ {
		col := pts.ColView(c).(*mat.VecDense)
		col.AddVec(col, x)
	}

	return pts
}

func isFinite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}

	return true
}
