package sigma

import (
	"fmt"
	"math"

	filter "github.com/milosgajdos/go-ukf"
	"gonum.org/v1/gonum/mat"
)

// Symmetric generates 2n+1 symmetrically distributed sigma points:
// the mean itself and a pair of points offset by +/- columns of sqrt((n+lambda)*P).
type Symmetric struct {
	// n is dimension of the sampled distribution
	n int
	// alpha controls the spread of sigma points around the mean
	alpha float64
	// beta incorporates prior knowledge of the distribution
	beta float64
	// kappa is secondary scaling parameter
	kappa float64
	// lambda is derived scaling parameter: alpha^2*(n+kappa)-n
	lambda float64
	// gamma is the square root covariance scaling factor: sqrt(n+lambda)
	gamma float64
	// wm stores mean weights
	wm []float64
	// wc stores covariance weights
	wc []float64
	// z stores unit sigma points in columns
	z *mat.Dense
	// sqrt computes covariance square root
	sqrt SqrtFunc
}

// NewSymmetric creates new symmetric sigma point sampler for n-dimensional distributions and returns it.
// It accepts the following arguments:
//   - n:      dimension of the sampled distribution
//   - alpha:  spread of the sigma points around the mean (small positive number, e.g. 1e-3)
//   - opts:   optional beta (default 2), kappa (default 0) and square root function
//
// It returns error if either of the following conditions is met:
//   - n is not a positive integer
//   - any of the parameters is not finite or alpha is not positive
//   - n+lambda is not positive, which makes the covariance square root undefined
func NewSymmetric(n int, alpha float64, opts ...Option) (*Symmetric, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: invalid dimension: %d", filter.ErrInvalidParam, n)
	}

	o := newOptions(opts...)

	if !isFinite(alpha, o.beta, o.kappa) || alpha <= 0 {
		return nil, fmt.Errorf("%w: alpha=%g beta=%g kappa=%g", filter.ErrInvalidParam, alpha, o.beta, o.kappa)
	}

	nf := float64(n)
	lambda := alpha*alpha*(nf+o.kappa) - nf
	scale := nf + lambda
	if scale <= 0 || !isFinite(scale) {
		return nil, fmt.Errorf("%w: n+lambda=%g must be positive", filter.ErrInvalidParam, scale)
	}

	count := 2*n + 1
	wm := make([]float64, count)
	wc := make([]float64, count)

	wm[0] = lambda / scale
	wc[0] = wm[0] + (1 - alpha*alpha + o.beta)
	for i := 1; i < count; i++ {
		wm[i] = 1 / (2 * scale)
		wc[i] = wm[i]
	}

	// unit sigma points: 0, +e_i, -e_i
	z := mat.NewDense(n, count, nil)
	for i := 0; i < n; i++ {
		z.Set(i, 1+i, 1)
		z.Set(i, 1+n+i, -1)
	}

	return &Symmetric{
		n:      n,
		alpha:  alpha,
		beta:   o.beta,
		kappa:  o.kappa,
		lambda: lambda,
		gamma:  math.Sqrt(scale),
		wm:     wm,
		wc:     wc,
		z:      z,
		sqrt:   o.sqrt,
	}, nil
}

// Dim returns dimension of the sampled distribution
func (s *Symmetric) Dim() int {
	return s.n
}

// Count returns the number of sigma points: 2n+1
func (s *Symmetric) Count() int {
	return 2*s.n + 1
}

// Lambda returns derived scaling parameter
func (s *Symmetric) Lambda() float64 {
	return s.lambda
}

// Sample generates sigma points around mean x with covariance cov and returns them.
// It returns error if x or cov have invalid dimensions or if the covariance square root fails.
func (s *Symmetric) Sample(x mat.Vector, cov mat.Symmetric) (*filter.SigmaPoints, error) {
	if err := checkInput(s.n, x, cov); err != nil {
		return nil, err
	}

	sqrt, err := s.sqrt(cov)
	if err != nil {
		return nil, err
	}
	// sqrt((n+lambda)*P) = sqrt(n+lambda)*sqrt(P)
	sqrt.Scale(s.gamma, sqrt)

	return &filter.SigmaPoints{
		X:  spread(x, sqrt, s.z),
		Wm: append([]float64(nil), s.wm...),
		Wc: append([]float64(nil), s.wc...),
	}, nil
}

// String implements the Stringer interface.
func (s *Symmetric) String() string {
	return fmt.Sprintf("Symmetric{N=%d Alpha=%g Beta=%g Kappa=%g Lambda=%g}", s.n, s.alpha, s.beta, s.kappa, s.lambda)
}
