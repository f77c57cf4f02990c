package sim

import (
	"errors"
	"testing"
	"time"

	filter "github.com/milosgajdos/go-ukf"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestNewDiscrete(t *testing.T) {
	assert := assert.New(t)

	d, err := NewDiscrete(A, B, C, D, E)
	assert.NotNil(d)
	assert.NoError(err)

	d, err = NewDiscrete(nil, B, C, D, E)
	assert.Nil(d)
	assert.True(errors.Is(err, filter.ErrInvalidParam))

	d, err = NewDiscrete(A, mat.NewDense(3, 1, nil), C, D, E)
	assert.Nil(d)
	assert.True(errors.Is(err, filter.ErrDimMismatch))
}

func TestDiscretePropagate(t *testing.T) {
	assert := assert.New(t)

	d, err := NewDiscrete(A, B, C, D, E)
	assert.NoError(err)

	// A*x + B*u
	next, err := d.Propagate(x, u, nil)
	assert.NoError(err)
	assert.InDeltaSlice([]float64{0.6, -0.4}, mat.Col(nil, 0, next), 1e-12)

	// process noise is added when it has the state length
	next, err = d.Propagate(x, nil, mat.NewVecDense(2, []float64{1, 1}))
	assert.NoError(err)
	assert.InDeltaSlice([]float64{2.1, 1.6}, mat.Col(nil, 0, next), 1e-12)

	next, err = d.Propagate(x, nil, mat.NewVecDense(3, []float64{1, 1, 1}))
	assert.NoError(err)
	assert.InDeltaSlice([]float64{1.1, 0.6}, mat.Col(nil, 0, next), 1e-12)

	// input is not modified
	assert.Equal(0.5, x.AtVec(0))

	for _, in := range [][2]mat.Vector{
		{mat.NewVecDense(10, nil), u},
		{x, mat.NewVecDense(10, nil)},
	} {
		next, err := d.Propagate(in[0], in[1], nil)
		assert.Nil(next)
		assert.True(errors.Is(err, filter.ErrDimMismatch))
	}
}

func TestDiscreteDynamics(t *testing.T) {
	assert := assert.New(t)

	d, err := NewDiscrete(A, B, C, nil, nil)
	assert.NoError(err)

	f := d.Dynamics()
	// the step is fixed by the model
	for _, dt := range []time.Duration{time.Second, 42 * time.Hour} {
		next, err := f(x, u, dt)
		assert.NoError(err)
		assert.InDeltaSlice([]float64{0.6, -0.4}, mat.Col(nil, 0, next), 1e-12)
	}
}
