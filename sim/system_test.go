package sim

import (
	"errors"
	"os"
	"testing"

	filter "github.com/milosgajdos/go-ukf"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

var (
	x, u          *mat.VecDense
	A, B, C, D, E *mat.Dense
)

func setup() {
	x = mat.NewVecDense(2, []float64{0.5, 0.6})
	u = mat.NewVecDense(1, []float64{-1.0})

	A = mat.NewDense(2, 2, []float64{1.0, 1.0, 0.0, 1.0})
	B = mat.NewDense(2, 1, []float64{0.5, 1.0})
	C = mat.NewDense(1, 2, []float64{1.0, 0.0})
	D = mat.NewDense(1, 1, []float64{2.0})
	E = mat.NewDense(2, 1, []float64{1.0, 0})
}

func TestMain(m *testing.M) {
	// set up tests
	setup()
	// run the tests
	retCode := m.Run()
	// call with result of m.Run()
	os.Exit(retCode)
}

func TestNewSystem(t *testing.T) {
	assert := assert.New(t)

	sys, err := newSystem(A, B, C, D, E)
	assert.NoError(err)

	nx, nu, ny, nz := sys.SystemDims()
	assert.Equal([]int{2, 1, 1, 1}, []int{nx, nu, ny, nz})

	// matrices are copied
	sys.A.Set(0, 0, 100)
	assert.Equal(1.0, A.At(0, 0))

	testCases := []struct {
		name          string
		A, B, C, D, E *mat.Dense
		err           error
	}{
		{"missing A", nil, B, C, D, E, filter.ErrInvalidParam},
		{"non-square A", mat.NewDense(2, 3, nil), nil, nil, nil, nil, filter.ErrDimMismatch},
		{"B rows", A, mat.NewDense(3, 1, nil), C, D, E, filter.ErrDimMismatch},
		{"C cols", A, B, mat.NewDense(1, 3, nil), D, E, filter.ErrDimMismatch},
		{"D dims", A, B, C, mat.NewDense(2, 1, nil), E, filter.ErrDimMismatch},
		{"D without C", A, B, nil, D, E, filter.ErrDimMismatch},
		{"E rows", A, B, C, D, mat.NewDense(3, 1, nil), filter.ErrDimMismatch},
	}

	for _, tc := range testCases {
		_, err := newSystem(tc.A, tc.B, tc.C, tc.D, tc.E)
		assert.True(errors.Is(err, tc.err), tc.name)
	}
}

func TestSystemMatrices(t *testing.T) {
	assert := assert.New(t)

	sys, err := newSystem(A, B, C, D, E)
	assert.NoError(err)

	assert.True(mat.Equal(A, sys.SystemMatrix()))
	assert.True(mat.Equal(B, sys.ControlMatrix()))
	assert.True(mat.Equal(C, sys.OutputMatrix()))
	assert.True(mat.Equal(D, sys.FeedForwardMatrix()))

	// missing matrices are reported as untyped nil
	sys, err = newSystem(A, nil, nil, nil, nil)
	assert.NoError(err)
	assert.Nil(sys.ControlMatrix())
	assert.Nil(sys.OutputMatrix())
	assert.Nil(sys.FeedForwardMatrix())
}

func TestSystemObserve(t *testing.T) {
	assert := assert.New(t)

	sys, err := newSystem(A, B, C, D, E)
	assert.NoError(err)

	// C*x + D*u
	y, err := sys.Observe(x, u, nil)
	assert.NoError(err)
	assert.InDeltaSlice([]float64{-1.5}, mat.Col(nil, 0, y), 1e-12)

	// noise is added when it has the output length
	y, err = sys.Observe(x, u, mat.NewVecDense(1, []float64{0.5}))
	assert.NoError(err)
	assert.InDelta(-1.0, y.AtVec(0), 1e-12)

	y, err = sys.Observe(x, nil, nil)
	assert.NoError(err)
	assert.InDelta(0.5, y.AtVec(0), 1e-12)

	for _, in := range [][2]mat.Vector{
		{mat.NewVecDense(3, nil), u},
		{x, mat.NewVecDense(3, nil)},
		{nil, u},
	} {
		y, err := sys.Observe(in[0], in[1], nil)
		assert.Nil(y)
		assert.True(errors.Is(err, filter.ErrDimMismatch))
	}

	sys, err = newSystem(A, nil, nil, nil, nil)
	assert.NoError(err)
	_, err = sys.Observe(x, nil, nil)
	assert.True(errors.Is(err, filter.ErrInvalidParam))
}

func TestSystemMeasurement(t *testing.T) {
	assert := assert.New(t)

	sys, err := newSystem(A, B, C, D, E)
	assert.NoError(err)

	meas := sys.Measurement()
	y, err := meas(x)
	assert.NoError(err)
	assert.Equal(1, y.Len())
	assert.Equal(0.5, y.AtVec(0))

	_, err = meas(mat.NewVecDense(3, nil))
	assert.True(errors.Is(err, filter.ErrDimMismatch))
}
