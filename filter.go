package filter

import (
	"time"

	"gonum.org/v1/gonum/mat"
)

// DynamicsFunc propagates state x driven by exogenous input u over the time step dt.
// It returns the next state.
type DynamicsFunc func(x, u mat.Vector, dt time.Duration) (mat.Vector, error)

// MeasurementFunc maps state x to the measurement space.
type MeasurementFunc func(x mat.Vector) (mat.Vector, error)

// State is a timestamped state of a dynamical system
type State interface {
	// State returns state vector
	State() mat.Vector
	// SetState overwrites state vector
	SetState(mat.Vector)
	// Epoch returns state timestamp
	Epoch() time.Time
	// SetEpoch overwrites state timestamp
	SetEpoch(time.Time)
	// Propagate advances the state through dynamics f by dt
	Propagate(f DynamicsFunc, dt time.Duration, u mat.Vector) error
}

// SigmaPoints is a weighted set of sigma points
type SigmaPoints struct {
	// X stores sigma point vectors in columns
	X *mat.Dense
	// Wm stores sigma point mean weights
	Wm []float64
	// Wc stores sigma point covariance weights
	Wc []float64
}

// Count returns the number of sigma points
func (s *SigmaPoints) Count() int {
	return len(s.Wm)
}

// Sampler generates sigma points which capture the mean and covariance of a Gaussian
type Sampler interface {
	// Dim returns dimension of the sampled distribution
	Dim() int
	// Count returns the number of generated sigma points
	Count() int
	// Sample generates sigma points around mean x with covariance cov
	Sample(x mat.Vector, cov mat.Symmetric) (*SigmaPoints, error)
}

// Filter is a dynamical system filter.
type Filter interface {
	// FeedAndUpdate corrects filter estimate using measurement y taken at epoch
	FeedAndUpdate(y mat.Vector, epoch time.Time, u mat.Vector) error
	// CurrentEstimate returns the current filter estimate
	CurrentEstimate() Estimate
}

// Propagator propagates internal state of the system to the next step
type Propagator interface {
	// Propagate propagates internal state of the system to the next step
	Propagate(x, u, q mat.Vector) (mat.Vector, error)
}

// Observer observes external state (output) of the system
type Observer interface {
	// Observe observes external state of the system
	Observe(x, u, r mat.Vector) (mat.Vector, error)
}

// Model is a model of a dynamical system
type Model interface {
	// Propagator is system propagator
	Propagator
	// Observer is system observer
	Observer
	// SystemDims returns state, input, output and disturbance dimensions
	SystemDims() (nx, nu, ny, nz int)
}

// DiscreteControlSystem is a linear discrete-time dynamical system
// whose state is driven by static propagation and observation matrices
type DiscreteControlSystem interface {
	// Model is a model of a dynamical system
	Model
	// SystemMatrix returns state propagation matrix
	SystemMatrix() mat.Matrix
	// ControlMatrix returns state propagation control matrix
	ControlMatrix() mat.Matrix
	// OutputMatrix returns observation matrix
	OutputMatrix() mat.Matrix
	// FeedForwardMatrix returns observation control matrix
	FeedForwardMatrix() mat.Matrix
}

// InitCond is initial state condition of the filter
type InitCond interface {
	// State returns initial filter state
	State() mat.Vector
	// Cov returns initial state covariance
	Cov() mat.Symmetric
}

// Estimate is dynamical system filter estimate
type Estimate interface {
	// Val returns estimate value
	Val() mat.Vector
	// Cov returns estimate covariance
	Cov() mat.Symmetric
	// Epoch returns estimate timestamp
	Epoch() time.Time
}

// Noise is dynamical system noise
type Noise interface {
	// Mean returns noise mean
	Mean() []float64
	// Cov returns covariance matrix of the noise
	Cov() mat.Symmetric
	// Sample returns a sample of the noise
	Sample() mat.Vector
	// Reset resets the noise
	Reset() error
}
