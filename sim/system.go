package sim

import (
	"fmt"

	filter "github.com/milosgajdos/go-ukf"
	"gonum.org/v1/gonum/mat"
)

// System holds the matrices of a linear state space model:
//
//	state:  A*x + B*u + E*z
//	output: C*x + D*u
//
// Only A is mandatory. Missing B, C, D or E mean the model has no such term.
type System struct {
	// A maps state to state
	A *mat.Dense
	// B maps input to state
	B *mat.Dense
	// C maps state to output
	C *mat.Dense
	// D maps input to output
	D *mat.Dense
	// E maps disturbance to state
	E *mat.Dense
}

// newSystem copies the supplied matrices into a new System.
// It returns error if A is missing or the matrix dimensions are not consistent with A.
func newSystem(A, B, C, D, E *mat.Dense) (System, error) {
	if A == nil {
		return System{}, fmt.Errorf("%w: missing system matrix", filter.ErrInvalidParam)
	}

	nx, cols := A.Dims()
	if nx != cols {
		return System{}, fmt.Errorf("%w: system matrix must be square: [%d x %d]", filter.ErrDimMismatch, nx, cols)
	}

	sys := System{A: mat.DenseCopyOf(A)}

	var nu, ny int
	if B != nil {
		r, c := B.Dims()
		if r != nx {
			return System{}, fmt.Errorf("%w: control matrix rows %d != %d", filter.ErrDimMismatch, r, nx)
		}
		nu = c
		sys.B = mat.DenseCopyOf(B)
	}

	if C != nil {
		r, c := C.Dims()
		if c != nx {
			return System{}, fmt.Errorf("%w: output matrix cols %d != %d", filter.ErrDimMismatch, c, nx)
		}
		ny = r
		sys.C = mat.DenseCopyOf(C)
	}

	if D != nil {
		r, c := D.Dims()
		if r != ny || c != nu {
			return System{}, fmt.Errorf("%w: feedthrough matrix [%d x %d] != [%d x %d]", filter.ErrDimMismatch, r, c, ny, nu)
		}
		sys.D = mat.DenseCopyOf(D)
	}

	if E != nil {
		if r, _ := E.Dims(); r != nx {
			return System{}, fmt.Errorf("%w: disturbance matrix rows %d != %d", filter.ErrDimMismatch, r, nx)
		}
		sys.E = mat.DenseCopyOf(E)
	}

	return sys, nil
}

// SystemDims returns state (nx), input (nu), output (ny) and disturbance (nz) lengths.
func (s System) SystemDims() (nx, nu, ny, nz int) {
	nx, _ = s.A.Dims()
	if s.B != nil {
		_, nu = s.B.Dims()
	}
	if s.C != nil {
		ny, _ = s.C.Dims()
	}
	if s.E != nil {
		_, nz = s.E.Dims()
	}

	return nx, nu, ny, nz
}

// SystemMatrix returns A
func (s System) SystemMatrix() mat.Matrix { return s.A }

// ControlMatrix returns B or nil
func (s System) ControlMatrix() mat.Matrix { return orNil(s.B) }

// OutputMatrix returns C or nil
func (s System) OutputMatrix() mat.Matrix { return orNil(s.C) }

// FeedForwardMatrix returns D or nil
func (s System) FeedForwardMatrix() mat.Matrix { return orNil(s.D) }

// orNil keeps a nil *mat.Dense from turning into a non-nil mat.Matrix.
func orNil(m *mat.Dense) mat.Matrix {
	if m == nil {
		return nil
	}

	return m
}

// Observe returns the system output C*x + D*u + wn.
// Nil u skips the feedthrough term and wn is added only when it has the output length.
func (s System) Observe(x, u, wn mat.Vector) (mat.Vector, error) {
	if s.C == nil {
		return nil, fmt.Errorf("%w: output matrix not defined", filter.ErrInvalidParam)
	}

	if err := s.checkInputs(x, u); err != nil {
		return nil, err
	}

	return affine(s.C, x, orNil(s.D), u, wn), nil
}

// Measurement returns filter measurement function which observes the system output without input and noise.
func (s System) Measurement() filter.MeasurementFunc {
	return func(x mat.Vector) (mat.Vector, error) {
		return s.Observe(x, nil, nil)
	}
}

// checkInputs validates state x and optional input u against the system dimensions.
func (s System) checkInputs(x, u mat.Vector) error {
	nx, nu, _, _ := s.SystemDims()
	if x == nil || x.Len() != nx {
		return fmt.Errorf("%w: invalid state vector, expected length %d", filter.ErrDimMismatch, nx)
	}

	if u != nil && u.Len() != nu {
		return fmt.Errorf("%w: invalid input vector, expected length %d", filter.ErrDimMismatch, nu)
	}

	return nil
}

// affine returns M*v + N*w + c.
// N*w is skipped when either N or w is nil; c is skipped unless it matches the result length.
func affine(M mat.Matrix, v mat.Vector, N mat.Matrix, w, c mat.Vector) *mat.VecDense {
	rows, _ := M.Dims()

	out := mat.NewVecDense(rows, nil)
	out.MulVec(M, v)

	if N != nil && w != nil {
		nw := mat.NewVecDense(rows, nil)
		nw.MulVec(N, w)
		out.AddVec(out, nw)
	}

	if c != nil && c.Len() == rows {
		out.AddVec(out, c)
	}

	return out
}
