package sigma

import (
	"fmt"
	"math"

	filter "github.com/milosgajdos/go-ukf"
	"gonum.org/v1/gonum/mat"
)

// Simplex generates n+2 minimal skew simplex sigma points.
// The points are placed so that the third order moments (skew) of the set are minimised
// while its first two moments match the sampled distribution.
// See: S. J. Julier, "The spherical simplex unscented transformation", ACC 2003 and
// S. J. Julier, J. K. Uhlmann, "Reduced sigma point filters for the propagation of
// means and covariances through nonlinear transformations", ACC 2002.
type Simplex struct {
	// n is dimension of the sampled distribution
	n int
	// w0 is the weight of the mean sigma point
	w0 float64
	// w stores sigma point weights
	w []float64
	// z stores unit sigma points in columns
	z *mat.Dense
	// sqrt computes covariance square root
	sqrt SqrtFunc
}

// NewSimplex creates new minimal skew simplex sigma point sampler for n-dimensional distributions and returns it.
// w0 is the weight of the first sigma point and must lie in the open interval (0,1).
// Only WithSqrt option applies to Simplex; beta and kappa are ignored.
// It returns error if n is not positive or w0 is outside (0,1).
func NewSimplex(n int, w0 float64, opts ...Option) (*Simplex, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: invalid dimension: %d", filter.ErrInvalidParam, n)
	}

	if !(w0 > 0 && w0 < 1) {
		return nil, fmt.Errorf("%w: w0=%g must be in (0,1)", filter.ErrInvalidParam, w0)
	}

	o := newOptions(opts...)

	count := n + 2
	w := make([]float64, count)
	w[0] = w0
	w[1] = (1 - w0) / math.Pow(2, float64(n))
	w[2] = w[1]
	for i := 3; i < count; i++ {
		w[i] = math.Pow(2, float64(i-2)) * w[1]
	}

	// The unit points are built one dimension at a time. When dimension j is added
	// the points 1..j move to -1/sqrt(2w[j+1]) along it and point j+1 is placed at
	// +1/sqrt(2w[j+1]); since w[1]+...+w[j] == w[j+1] this keeps zero mean and unit variance.
	z := mat.NewDense(n, count, nil)
	for j := 1; j <= n; j++ {
		a := 1 / math.Sqrt(2*w[j+1])
		for i := 1; i <= j; i++ {
			z.Set(j-1, i, -a)
		}
		z.Set(j-1, j+1, a)
	}

	return &Simplex{
		n:    n,
		w0:   w0,
		w:    w,
		z:    z,
		sqrt: o.sqrt,
	}, nil
}

// Dim returns dimension of the sampled distribution
func (s *Simplex) Dim() int {
	return s.n
}

// Count returns the number of sigma points: n+2
func (s *Simplex) Count() int {
	return s.n + 2
}

// Sample generates sigma points around mean x with covariance cov and returns them.
// Mean and covariance weights of simplex sigma points are the same.
// It returns error if x or cov have invalid dimensions or if the covariance square root fails.
func (s *Simplex) Sample(x mat.Vector, cov mat.Symmetric) (*filter.SigmaPoints, error) {
	if err := checkInput(s.n, x, cov); err != nil {
		return nil, err
	}

	sqrt, err := s.sqrt(cov)
	if err != nil {
		return nil, err
	}

	return &filter.SigmaPoints{
		X:  spread(x, sqrt, s.z),
		Wm: append([]float64(nil), s.w...),
		Wc: append([]float64(nil), s.w...),
	}, nil
}

// String implements the Stringer interface.
func (s *Simplex) String() string {
	return fmt.Sprintf("Simplex{N=%d W0=%g}", s.n, s.w0)
}
