package kf

import (
	"errors"
	"os"
	"testing"

	filter "github.com/milosgajdos/go-ukf"
	"github.com/milosgajdos/go-ukf/noise"
	"github.com/milosgajdos/go-ukf/sim"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

type invalidModel struct {
	filter.DiscreteControlSystem
	nx int
	nu int
	ny int
}

func (m *invalidModel) SystemDims() (nx, nu, ny, nz int) {
	return m.nx, m.nu, m.ny, 0
}

var (
	okModel  *sim.Discrete
	badModel *invalidModel
	ic       *sim.InitCond
	q        filter.Noise
	r        filter.Noise
	u        *mat.VecDense
	z        *mat.VecDense
)

func setup() {
	u = mat.NewVecDense(1, []float64{-1.0})
	z = mat.NewVecDense(1, []float64{-1.5})

	// initial condition
	initState := mat.NewVecDense(2, []float64{1.0, 3.0})
	initCov := mat.NewSymDense(2, []float64{0.25, 0, 0, 0.25})
	ic, _ = sim.NewInitCond(initState, initCov)

	// state and output noise
	q, _ = noise.NewGaussian([]float64{0, 0}, initCov, nil)
	r, _ = noise.NewGaussian([]float64{0}, mat.NewSymDense(1, []float64{0.25}), nil)

	A := mat.NewDense(2, 2, []float64{1.0, 1.0, 0.0, 1.0})
	B := mat.NewDense(2, 1, []float64{0.5, 1.0})
	C := mat.NewDense(1, 2, []float64{1.0, 0.0})
	D := mat.NewDense(1, 1, []float64{0.0})

	okModel, _ = sim.NewDiscrete(A, B, C, D, nil)
	badModel = &invalidModel{DiscreteControlSystem: okModel, nx: 10, ny: 10}
}

func TestMain(m *testing.M) {
	// set up tests
	setup()
	// run the tests
	retCode := m.Run()
	// call with result of m.Run()
	os.Exit(retCode)
}

func TestKFNew(t *testing.T) {
	assert := assert.New(t)

	f, err := New(okModel, ic, q, r)
	assert.NoError(err)
	assert.NotNil(f)

	// invalid model: negative dimensions
	badModel.nx, badModel.ny = -10, 20
	f, err = New(badModel, ic, q, r)
	assert.Nil(f)
	assert.Error(err)

	// invalid state noise dimension
	_q := q
	q, _ = noise.NewZero(20)
	f, err = New(okModel, ic, q, r)
	assert.Nil(f)
	assert.Error(err)
	q = _q

	// invalid output noise dimension
	_r := r
	r, _ = noise.NewZero(20)
	f, err = New(okModel, ic, q, r)
	assert.Nil(f)
	assert.Error(err)
	r = _r

	// zero [state and output] noise
	f, err = New(okModel, ic, nil, nil)
	assert.NotNil(f)
	assert.NoError(err)
}

func TestKFNewInitCond(t *testing.T) {
	assert := assert.New(t)

	_ic, err := sim.NewInitCond(mat.NewVecDense(3, nil), mat.NewSymDense(3, nil))
	assert.NoError(err)

	f, err := New(okModel, _ic, q, r)
	assert.Nil(f)
	assert.True(errors.Is(err, filter.ErrDimMismatch))
}

func TestKFPredict(t *testing.T) {
	assert := assert.New(t)

	f, err := New(okModel, ic, q, r)
	assert.NotNil(f)
	assert.NoError(err)

	x := mat.VecDenseCopyOf(ic.State())
	est, err := f.Predict(x, u)
	assert.NotNil(est)
	assert.NoError(err)

	// invalid input vector
	_u := mat.NewVecDense(3, nil)
	est, err = f.Predict(x, _u)
	assert.Nil(est)
	assert.Error(err)
}

func TestKFUpdate(t *testing.T) {
	assert := assert.New(t)

	f, err := New(okModel, ic, q, r)
	assert.NotNil(f)
	assert.NoError(err)

	x := mat.VecDenseCopyOf(ic.State())
	est, err := f.Update(x, u, z)
	assert.NotNil(est)
	assert.NoError(err)

	// invalid input vector
	_u := mat.NewVecDense(3, nil)
	est, err = f.Update(x, _u, z)
	assert.Nil(est)
	assert.Error(err)

	// invalid measurement vector
	_z := mat.NewVecDense(3, nil)
	est, err = f.Update(x, u, _z)
	assert.Nil(est)
	assert.Error(err)
}

func TestKFRun(t *testing.T) {
	assert := assert.New(t)

	f, err := New(okModel, ic, q, r)
	assert.NotNil(f)
	assert.NoError(err)

	x := mat.VecDenseCopyOf(ic.State())
	est, err := f.Run(x, u, z)
	assert.NotNil(est)
	assert.NoError(err)

	// invalid input vector
	_u := mat.NewVecDense(3, nil)
	est, err = f.Run(x, _u, z)
	assert.Nil(est)
	assert.Error(err)

	// invalid measurement vector
	_z := mat.NewVecDense(3, nil)
	est, err = f.Run(x, u, _z)
	assert.Nil(est)
	assert.Error(err)
}

func TestKFModel(t *testing.T) {
	assert := assert.New(t)

	f, err := New(okModel, ic, q, r)
	assert.NotNil(f)
	assert.NoError(err)

	m := f.Model()
	assert.NotNil(m)
}

func TestKFNoise(t *testing.T) {
	assert := assert.New(t)

	f, err := New(okModel, ic, q, r)
	assert.NotNil(f)
	assert.NoError(err)

	sn := f.StateNoise()
	assert.NotNil(sn)

	on := f.OutputNoise()
	assert.NotNil(on)

	// missing noise is replaced by zero noise of the model dimensions
	f, err = New(okModel, ic, nil, nil)
	assert.NoError(err)
	assert.IsType(&noise.Zero{}, f.StateNoise())
	assert.Equal(2, f.StateNoise().Cov().SymmetricDim())
	assert.IsType(&noise.Zero{}, f.OutputNoise())
	assert.Equal(1, f.OutputNoise().Cov().SymmetricDim())
}
func TestKFCov(t *testing.T) {
	assert := assert.New(t)

	f, err := New(okModel, ic, q, r)
	assert.NotNil(f)
	assert.NoError(err)

	cov := f.Cov()
	assert.NotNil(cov)

	err = f.SetCov(nil)
	assert.Error(err)

	err = f.SetCov(mat.NewSymDense(30, nil))
	assert.Error(err)

	err = f.SetCov(mat.NewSymDense(f.p.SymmetricDim(), nil))
	assert.NoError(err)
}

func TestKFGain(t *testing.T) {
	assert := assert.New(t)

	f, err := New(okModel, ic, q, r)
	assert.NotNil(f)
	assert.NoError(err)

	gain := f.Gain()
	assert.NotNil(gain)
}

func TestKFDeterministic(t *testing.T) {
	assert := assert.New(t)

	x := mat.VecDenseCopyOf(ic.State())

	var vals [2]mat.Vector
	var covs [2]mat.Symmetric
	for i := range vals {
		f, err := New(okModel, ic, q, r)
		assert.NoError(err)

		est, err := f.Run(x, u, z)
		assert.NoError(err)
		vals[i], covs[i] = est.Val(), est.Cov()
	}

	assert.True(mat.Equal(vals[0], vals[1]))
	assert.True(mat.Equal(covs[0], covs[1]))
}

func TestKFPredictCov(t *testing.T) {
	assert := assert.New(t)

	f, err := New(okModel, ic, q, r)
	assert.NoError(err)

	x := mat.VecDenseCopyOf(ic.State())
	est, err := f.Predict(x, u)
	assert.NoError(err)

	// x = A*x + B*u
	assert.InDeltaSlice([]float64{3.5, 2.0}, mat.Col(nil, 0, est.Val()), 1e-12)

	// P = A*P0*A' + Q
	exp := mat.NewSymDense(2, []float64{0.75, 0.25, 0.25, 0.5})
	assert.True(mat.EqualApprox(exp, est.Cov(), 1e-12))
}

func TestKFUpdateGain(t *testing.T) {
	assert := assert.New(t)

	f, err := New(okModel, ic, q, r)
	assert.NoError(err)

	x := mat.VecDenseCopyOf(ic.State())
	est, err := f.Update(x, nil, z)
	assert.NoError(err)

	// P0 = 0.25*I, H = [1 0], R = 0.25: K = [0.5 0]'
	gain := f.Gain()
	assert.InDelta(0.5, gain.At(0, 0), 1e-12)
	assert.InDelta(0.0, gain.At(1, 0), 1e-12)

	// innovation = z - H*x
	assert.InDelta(-2.5, f.Innovation().AtVec(0), 1e-12)
	assert.InDelta(-0.25, est.Val().AtVec(0), 1e-12)
	assert.InDelta(3.0, est.Val().AtVec(1), 1e-12)

	// Joseph form: 0.5*0.25*0.5 + 0.5*0.25*0.5
	assert.InDelta(0.125, est.Cov().At(0, 0), 1e-12)
	assert.InDelta(0.25, est.Cov().At(1, 1), 1e-12)
	// input state is not modified
	assert.Equal(1.0, x.AtVec(0))
}

func TestKFUpdateNumerical(t *testing.T) {
	assert := assert.New(t)

	zeroIC, err := sim.NewInitCond(ic.State(), mat.NewSymDense(2, nil))
	assert.NoError(err)

	f, err := New(okModel, zeroIC, nil, nil)
	assert.NoError(err)

	est, err := f.Update(ic.State(), u, z)
	assert.Nil(est)
	assert.True(errors.Is(err, filter.ErrNumerical))
}
