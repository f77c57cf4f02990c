package ukf

import (
	"errors"
	"fmt"
	"math"
	"time"

	filter "github.com/milosgajdos/go-ukf"
	"github.com/milosgajdos/go-ukf/estimate"
	"github.com/milosgajdos/go-ukf/kalman"
	"github.com/milosgajdos/go-ukf/matrix"
	"github.com/milosgajdos/go-ukf/state"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

// UKF is Unscented (aka Sigma Point) Kalman Filter
type UKF struct {
	// dyn propagates sigma points to the next step
	dyn filter.DynamicsFunc
	// meas maps sigma points to measurement space
	meas filter.MeasurementFunc
	// sampler generates sigma points
	sampler filter.Sampler
	// x is the current state estimate
	x *state.Base
	// p is the UKF covariance matrix
	p *mat.SymDense
	// q is process noise covariance
	q *mat.SymDense
	// r is measurement noise covariance
	r *mat.SymDense
	// inn is innovation vector
	inn *mat.VecDense
	// k is Kalman gain
	k *mat.Dense
	// est is the snapshot of the committed estimate
	est *estimate.Base
	// log is UKF logger
	log logrus.FieldLogger
}

var _ kalman.Kalman = (*UKF)(nil)

// Option configures UKF
type Option func(*UKF)

// WithLogger sets UKF logger
func WithLogger(l logrus.FieldLogger) Option {
	return func(k *UKF) {
		k.log = l
	}
}

// prediction is a-priori estimate produced by the time update
type prediction struct {
	x  *mat.VecDense
	p  *mat.SymDense
	dt time.Duration
}

// correction is a-posteriori estimate produced by the measurement update
type correction struct {
	x    *mat.VecDense
	p    *mat.SymDense
	inn  *mat.VecDense
	gain *mat.Dense
}

// New creates new UKF and returns it.
// It accepts the following arguments:
//   - dyn:      system dynamics
//   - meas:     measurement model
//   - sampler:  sigma point sampler
//   - init:     initial state; UKF keeps its own copy
//   - p0:       initial state covariance
//   - q:        process noise covariance
//   - r:        measurement noise covariance; its dimension defines measurement length
//
// It returns error if any argument is nil or if the state, sampler and covariance dimensions don't match.
func New(dyn filter.DynamicsFunc, meas filter.MeasurementFunc, sampler filter.Sampler, init filter.State,
	p0, q, r mat.Symmetric, opts ...Option) (*UKF, error) {
	if dyn == nil || meas == nil {
		return nil, fmt.Errorf("%w: dynamics and measurement functions must be defined", filter.ErrInvalidParam)
	}

	if sampler == nil || init == nil {
		return nil, fmt.Errorf("%w: sampler and initial state must be defined", filter.ErrInvalidParam)
	}

	if p0 == nil || q == nil || r == nil {
		return nil, fmt.Errorf("%w: covariance matrices must be defined", filter.ErrInvalidParam)
	}

	x, err := state.New(init.State(), init.Epoch())
	if err != nil {
		return nil, err
	}

	n := x.State().Len()
	if sampler.Dim() != n {
		return nil, fmt.Errorf("%w: sampler dimension %d != state dimension %d", filter.ErrDimMismatch, sampler.Dim(), n)
	}

	if p0.SymmetricDim() != n {
		return nil, fmt.Errorf("%w: initial covariance dimension %d != %d", filter.ErrDimMismatch, p0.SymmetricDim(), n)
	}

	if q.SymmetricDim() != n {
		return nil, fmt.Errorf("%w: process noise dimension %d != %d", filter.ErrDimMismatch, q.SymmetricDim(), n)
	}

	m := r.SymmetricDim()
	if m == 0 {
		return nil, fmt.Errorf("%w: empty measurement noise", filter.ErrDimMismatch)
	}

	k := &UKF{
		dyn:     dyn,
		meas:    meas,
		sampler: sampler,
		x:       x,
		p:       mat.NewSymDense(n, nil),
		q:       mat.NewSymDense(n, nil),
		r:       mat.NewSymDense(m, nil),
		inn:     mat.NewVecDense(m, nil),
		k:       mat.NewDense(n, m, nil),
		log:     logrus.StandardLogger(),
	}
	k.p.CopySym(p0)
	k.q.CopySym(q)
	k.r.CopySym(r)

	if k.est, err = estimate.NewBaseAt(x.State(), k.p, x.Epoch()); err != nil {
		return nil, err
	}

	for _, apply := range opts {
		apply(k)
	}

	return k, nil
}

// predict runs the time update from the current estimate to epoch.
func (k *UKF) predict(epoch time.Time, u mat.Vector) (*prediction, error) {
	last := k.x.Epoch()
	if !epoch.After(last) {
		return nil, fmt.Errorf("%w: epoch %s not after %s", filter.ErrOutOfOrder,
			epoch.Format(time.RFC3339Nano), last.Format(time.RFC3339Nano))
	}
	dt := epoch.Sub(last)

	sp, err := k.sampler.Sample(k.x.State(), k.p)
	if err != nil {
		return nil, fmt.Errorf("failed to sample sigma points: %w", err)
	}

	n := k.p.SymmetricDim()
	x := mat.NewDense(n, sp.Count(), nil)
	for c := 0; c < sp.Count(); c++ {
		next, err := k.dyn(sp.X.ColView(c), u, dt)
		if err != nil {
			return nil, fmt.Errorf("failed to propagate sigma point %d: %w", c, err)
		}

		if next == nil || next.Len() != n {
			return nil, fmt.Errorf("%w: invalid propagated sigma point %d", filter.ErrDimMismatch, c)
		}
		x.SetCol(c, mat.Col(nil, 0, next))
	}

	xMean := matrix.WeightedMean(x, sp.Wm)
	p := matrix.WeightedCov(x, xMean, sp.Wc)
	p.AddSym(p, k.q)

	return &prediction{
		x:  xMean,
		p:  p,
		dt: dt,
	}, nil
}

// update runs the measurement update of the a-priori estimate pred with measurement y.
func (k *UKF) update(pred *prediction, y mat.Vector) (*correction, error) {
	sp, err := k.sampler.Sample(pred.x, pred.p)
	if err != nil {
		return nil, fmt.Errorf("failed to sample sigma points: %w", err)
	}

	m := k.r.SymmetricDim()
	ys := mat.NewDense(m, sp.Count(), nil)
	for c := 0; c < sp.Count(); c++ {
		out, err := k.meas(sp.X.ColView(c))
		if err != nil {
			return nil, fmt.Errorf("failed to observe sigma point %d: %w", c, err)
		}

		if out == nil || out.Len() != m {
			return nil, fmt.Errorf("%w: invalid sigma point %d measurement", filter.ErrDimMismatch, c)
		}
		ys.SetCol(c, mat.Col(nil, 0, out))
	}

	yMean := matrix.WeightedMean(ys, sp.Wm)
	pyy := matrix.WeightedCov(ys, yMean, sp.Wc)
	pyy.AddSym(pyy, k.r)
	pxy := matrix.WeightedCrossCov(sp.X, pred.x, ys, yMean, sp.Wc)

	// K*Pyy = Pxy is solved as Pyy*K' = Pxy'
	var chol mat.Cholesky
	if ok := chol.Factorize(pyy); !ok {
		return nil, fmt.Errorf("%w: innovation covariance not positive definite", filter.ErrNumerical)
	}

	gainT := &mat.Dense{}
	if err := chol.SolveTo(gainT, pxy.T()); err != nil {
		return nil, fmt.Errorf("%w: failed to solve for gain: %v", filter.ErrNumerical, err)
	}
	gain := mat.DenseCopyOf(gainT.T())

	inn := &mat.VecDense{}
	inn.SubVec(y, yMean)

	x := &mat.VecDense{}
	x.MulVec(gain, inn)
	x.AddVec(pred.x, x)

	// P = P- - K*Pyy*K'
	kp := &mat.Dense{}
	kp.Mul(gain, pyy)
	kpk := &mat.Dense{}
	kpk.Mul(kp, gain.T())

	pCorr := mat.DenseCopyOf(pred.p)
	pCorr.Sub(pCorr, kpk)
	p := matrix.Symmetrize(pCorr)

	if !isFinite(x.RawVector().Data) || !isFinite(p.RawSymmetric().Data) {
		return nil, fmt.Errorf("%w: corrected estimate is not finite", filter.ErrNumerical)
	}

	return &correction{
		x:    x,
		p:    p,
		inn:  inn,
		gain: gain,
	}, nil
}

// Predict propagates the current estimate to epoch given input u and returns the a-priori estimate.
// It does not modify the filter.
// It returns error if epoch is not after the current estimate epoch or if the sigma points fail to be propagated.
func (k *UKF) Predict(epoch time.Time, u mat.Vector) (filter.Estimate, error) {
	pred, err := k.predict(epoch, u)
	if err != nil {
		return nil, err
	}

	return estimate.NewBaseAt(pred.x, pred.p, epoch)
}

// FeedAndUpdate runs one predict/update cycle with measurement y taken at epoch and input u.
// The filter is modified only if the whole cycle succeeds.
// It returns error if:
//   - epoch is not strictly after the current estimate epoch
//   - y does not match the measurement noise dimension
//   - sigma points or Kalman gain fail to be computed
//   - dynamics or measurement functions fail
func (k *UKF) FeedAndUpdate(y mat.Vector, epoch time.Time, u mat.Vector) error {
	log := k.log.WithFields(logrus.Fields{
		"epoch": epoch,
	})

	if y == nil || y.Len() != k.r.SymmetricDim() {
		return fmt.Errorf("%w: invalid measurement length, expected %d", filter.ErrDimMismatch, k.r.SymmetricDim())
	}

	pred, err := k.predict(epoch, u)
	if err != nil {
		k.logFailure(log, "predict", err)
		return err
	}

	corr, err := k.update(pred, y)
	if err != nil {
		k.logFailure(log, "update", err)
		return err
	}

	est, err := estimate.NewBaseAt(corr.x, corr.p, epoch)
	if err != nil {
		k.logFailure(log, "update", err)
		return err
	}

	k.est = est
	k.x.SetState(corr.x)
	k.x.SetEpoch(epoch)
	k.p.CopySym(corr.p)
	k.inn.CopyVec(corr.inn)
	k.k.Copy(corr.gain)

	log.WithFields(logrus.Fields{
		"dt":         pred.dt,
		"state":      mat.Formatted(corr.x.T(), mat.Squeeze()),
		"innovation": mat.Formatted(corr.inn.T(), mat.Squeeze()),
		"trace":      mat.Trace(corr.p),
	}).Debug("filter updated")

	return nil
}

func (k *UKF) logFailure(log logrus.FieldLogger, phase string, err error) {
	if errors.Is(err, filter.ErrNumerical) {
		log.WithFields(logrus.Fields{
			"phase": phase,
		}).Warnf("numerical failure: %v", err)
		return
	}
	log.WithFields(logrus.Fields{
		"phase": phase,
	}).Debugf("cycle rejected: %v", err)
}

// CurrentEstimate returns a snapshot of the current state estimate, its covariance and epoch
func (k *UKF) CurrentEstimate() filter.Estimate {
	return k.est
}

// Cov returns UKF covariance
func (k *UKF) Cov() mat.Symmetric {
	cov := mat.NewSymDense(k.p.SymmetricDim(), nil)
	cov.CopySym(k.p)

	return cov
}

// Gain returns Kalman gain of the last successful update
func (k *UKF) Gain() mat.Matrix {
	gain := &mat.Dense{}
	gain.CloneFrom(k.k)

	return gain
}

// Innovation returns innovation vector of the last successful update
func (k *UKF) Innovation() mat.Vector {
	inn := &mat.VecDense{}
	inn.CloneFromVec(k.inn)

	return inn
}

// Sampler returns UKF sigma point sampler
func (k *UKF) Sampler() filter.Sampler {
	return k.sampler
}

func isFinite(data []float64) bool {
	for _, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}

	return true
}
