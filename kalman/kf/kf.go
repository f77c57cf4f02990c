package kf

import (
	"fmt"

	filter "github.com/milosgajdos/go-ukf"
	"github.com/milosgajdos/go-ukf/estimate"
	"github.com/milosgajdos/go-ukf/matrix"
	"github.com/milosgajdos/go-ukf/noise"
	"gonum.org/v1/gonum/mat"
)

// KF is Kalman Filter
type KF struct {
	// m is KF system model
	m filter.DiscreteControlSystem
	// q is state noise a.k.a. process noise
	q filter.Noise
	// r is output noise a.k.a. measurement noise
	r filter.Noise
	// p is the KF covariance matrix
	p *mat.SymDense
	// pNext is the KF predicted covariance matrix
	pNext *mat.SymDense
	// inn is innovation vector
	inn *mat.VecDense
	// k is Kalman gain
	k *mat.Dense
}

// New creates new KF and returns it.
// It accepts the following parameters:
//   - m:      dynamical system model
//   - init:   initial condition of the filter
//   - q:      state noise a.k.a. process noise
//   - r:      output noise a.k.a. measurement noise
//
// It returns error if either of the following conditions is met:
//   - invalid model is given: model dimensions must be positive integers
//   - invalid state or output noise is given: noise covariance must either be nil or match the model dimensions;
//     nil noise is replaced by zero noise
//   - initial condition does not match the model dimensions
func New(m filter.DiscreteControlSystem, init filter.InitCond, q, r filter.Noise) (*KF, error) {
	// size of the input and output vectors
	nx, nu, ny, _ := m.SystemDims()
	if nx <= 0 || ny <= 0 {
		return nil, fmt.Errorf("%w: invalid model dimensions: [%d x %d]", filter.ErrDimMismatch, nx, ny)
	}

	if q != nil {
		if q.Cov().SymmetricDim() != nx {
			return nil, fmt.Errorf("%w: invalid state noise dimension: %d != %d", filter.ErrDimMismatch, q.Cov().SymmetricDim(), nx)
		}
	} else {
		q, _ = noise.NewZero(nx)
	}

	if r != nil {
		if r.Cov().SymmetricDim() != ny {
			return nil, fmt.Errorf("%w: invalid output noise dimension: %d != %d", filter.ErrDimMismatch, r.Cov().SymmetricDim(), ny)
		}
	} else {
		r, _ = noise.NewZero(ny)
	}

	rows, cols := m.SystemMatrix().Dims()
	if rows != nx || cols != nx {
		return nil, fmt.Errorf("%w: invalid propagation matrix dimensions: [%d x %d]", filter.ErrDimMismatch, rows, cols)
	}

	if B := m.ControlMatrix(); B != nil {
		rows, cols := B.Dims()
		if rows != nx || cols != nu {
			return nil, fmt.Errorf("%w: invalid ctl propagation matrix dimensions: [%d x %d]", filter.ErrDimMismatch, rows, cols)
		}
	}

	C := m.OutputMatrix()
	if C == nil {
		return nil, fmt.Errorf("%w: missing observation matrix", filter.ErrDimMismatch)
	}

	rows, cols = C.Dims()
	if rows != ny || cols != nx {
		return nil, fmt.Errorf("%w: invalid observation matrix dimensions: [%d x %d]", filter.ErrDimMismatch, rows, cols)
	}

	if init.State().Len() != nx || init.Cov().SymmetricDim() != nx {
		return nil, fmt.Errorf("%w: invalid initial condition: %d, %d != %d",
			filter.ErrDimMismatch, init.State().Len(), init.Cov().SymmetricDim(), nx)
	}

	// initialize covariance matrix to initial condition covariance
	p := mat.NewSymDense(nx, nil)
	p.CopySym(init.Cov())

	// predicted covariance starts from initial covariance so Update can run first
	pNext := mat.NewSymDense(nx, nil)
	pNext.CopySym(p)

	return &KF{
		m:     m,
		q:     q,
		r:     r,
		p:     p,
		pNext: pNext,
		inn:   mat.NewVecDense(ny, nil),
		k:     mat.NewDense(nx, ny, nil),
	}, nil
}

// Predict calculates the next system state given the state x and input u and returns its estimate.
// The state is propagated through the noiseless model and the covariance through A*P*A' + Q.
// It returns error if it fails to propagate x to the next step.
func (k *KF) Predict(x, u mat.Vector) (filter.Estimate, error) {
	// propagate input state to the next step
	xNext, err := k.m.Propagate(x, u, nil)
	if err != nil {
		return nil, fmt.Errorf("system state propagation failed: %w", err)
	}

	A := k.m.SystemMatrix()

	cov := &mat.Dense{}
	cov.Mul(A, k.p)
	cov.Mul(cov, A.T())
	cov.Add(cov, k.q.Cov())

	// update KF predicted covariance matrix
	k.pNext.CopySym(matrix.Symmetrize(cov))

	return estimate.NewBaseWithCov(xNext, k.pNext)
}

// Update corrects state x using the measurement ym, given control intput u and returns corrected estimate.
// It uses the covariance computed by the last call to Predict.
// It returns error if either invalid state was supplied or if it fails to calculate system output estimate
// or the innovation covariance is not positive definite.
func (k *KF) Update(x, u, ym mat.Vector) (filter.Estimate, error) {
	nx, _, ny, _ := k.m.SystemDims()

	if ym.Len() != ny {
		return nil, fmt.Errorf("%w: invalid measurement supplied: %d != %d", filter.ErrDimMismatch, ym.Len(), ny)
	}

	// observe system output in the next step
	yNext, err := k.m.Observe(x, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to observe system output: %w", err)
	}

	H := k.m.OutputMatrix()

	// P*H'
	pxy := mat.NewDense(nx, ny, nil)
	pxy.Mul(k.pNext, H.T())

	// H*P*H' + R
	hph := mat.NewDense(ny, ny, nil)
	hph.Mul(H, pxy)
	hph.Add(hph, k.r.Cov())
	pyy := matrix.Symmetrize(hph)

	// K' = inv(Pyy) * Pxy'
	var chol mat.Cholesky
	if ok := chol.Factorize(pyy); !ok {
		return nil, fmt.Errorf("%w: innovation covariance not positive definite", filter.ErrNumerical)
	}
	gainT := &mat.Dense{}
	if err := chol.SolveTo(gainT, pxy.T()); err != nil {
		return nil, fmt.Errorf("%w: failed to solve for gain: %v", filter.ErrNumerical, err)
	}
	gain := mat.DenseCopyOf(gainT.T())

	// innovation vector
	inn := &mat.VecDense{}
	inn.SubVec(ym, yNext)

	// update state x
	corr := &mat.VecDense{}
	corr.MulVec(gain, inn)
	xCorr := &mat.VecDense{}
	xCorr.AddVec(x, corr)

	// Joseph form update: (I - K*H)*P*(I - K*H)' + K*R*K'
	a := &mat.Dense{}
	a.Mul(gain, H)
	a.Scale(-1, a)
	for i := 0; i < nx; i++ {
		a.Set(i, i, 1+a.At(i, i))
	}

	apa := &mat.Dense{}
	apa.Mul(a, k.pNext)
	apa.Mul(apa, a.T())

	kr := &mat.Dense{}
	kr.Mul(gain, k.r.Cov())
	krk := &mat.Dense{}
	krk.Mul(kr, gain.T())
	apa.Add(apa, krk)

	// update KF innovation vector, gain and covariance matrix
	k.inn.CopyVec(inn)
	k.k.Copy(gain)
	k.p.CopySym(matrix.Symmetrize(apa))

	return estimate.NewBaseWithCov(xCorr, k.p)
}

// Run runs one step of KF for given state x, input u and measurement z.
// It corrects system state x using measurement z and returns new system estimate.
// It returns error if it either fails to propagate or correct state x.
func (k *KF) Run(x, u, z mat.Vector) (filter.Estimate, error) {
	pred, err := k.Predict(x, u)
	if err != nil {
		return nil, err
	}

	est, err := k.Update(pred.Val(), u, z)
	if err != nil {
		return nil, err
	}

	return est, nil
}

// Model returns KF models
func (k *KF) Model() filter.DiscreteControlSystem {
	return k.m
}

// StateNoise retruns state noise
func (k *KF) StateNoise() filter.Noise {
	return k.q
}

// OutputNoise retruns output noise
func (k *KF) OutputNoise() filter.Noise {
	return k.r
}

// Cov returns KF covariance
func (k *KF) Cov() mat.Symmetric {
	cov := mat.NewSymDense(k.p.SymmetricDim(), nil)
	cov.CopySym(k.p)

	return cov
}

// SetCov sets KF covariance matrix to cov.
// It returns error if either cov is nil or its dimensions are not the same as KF covariance dimensions.
func (k *KF) SetCov(cov mat.Symmetric) error {
	if cov == nil {
		return fmt.Errorf("%w: invalid covariance matrix: %v", filter.ErrInvalidParam, cov)
	}

	if cov.SymmetricDim() != k.p.SymmetricDim() {
		return fmt.Errorf("%w: invalid covariance matrix dims: [%d x %d]", filter.ErrDimMismatch, cov.SymmetricDim(), cov.SymmetricDim())
	}

	k.p.CopySym(cov)

	return nil
}

// Innovation returns the innovation of the last update
func (k *KF) Innovation() mat.Vector {
	inn := &mat.VecDense{}
	inn.CloneFromVec(k.inn)

	return inn
}

// Gain returns Kalman gain
func (k *KF) Gain() mat.Matrix {
	gain := &mat.Dense{}
	gain.CloneFrom(k.k)

	return gain
}
