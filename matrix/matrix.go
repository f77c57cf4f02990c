package matrix

import (
	"gonum.org/v1/gonum/mat"
)

// WeightedMean returns a weighted sum of the columns of m: sum_i w[i]*m[:,i].
// It panics if the length of w differs from the number of columns of m.
func WeightedMean(m *mat.Dense, w []float64) *mat.VecDense {
	rows, cols := m.Dims()
	if len(w) != cols {
		panic(mat.ErrShape)
	}

	mean := mat.NewVecDense(rows, nil)
	for c := 0; c < cols; c++ {
		mean.AddScaledVec(mean, w[c], m.ColView(c))
	}

	return mean
}

// WeightedCov returns a weighted covariance of the columns of m around mean:
// sum_i w[i]*(m[:,i]-mean)*(m[:,i]-mean)'.
// It panics if the length of w differs from the number of columns of m.
func WeightedCov(m *mat.Dense, mean mat.Vector, w []float64) *mat.SymDense {
	rows, cols := m.Dims()
	if len(w) != cols {
		panic(mat.ErrShape)
	}

	cov := mat.NewSymDense(rows, nil)
	diff := mat.NewVecDense(rows, nil)
	for c := 0; c < cols; c++ {
		diff.SubVec(m.ColView(c), mean)
		cov.SymRankOne(cov, w[c], diff)
	}

	return cov
}

// WeightedCrossCov returns a weighted cross-covariance of the columns of x and y
// around their means: sum_i w[i]*(x[:,i]-xMean)*(y[:,i]-yMean)'.
// It panics if x and y have different number of columns or if it differs from the length of w.
func WeightedCrossCov(x *mat.Dense, xMean mat.Vector, y *mat.Dense, yMean mat.Vector, w []float64) *mat.Dense {
	rx, cx := x.Dims()
	ry, cy := y.Dims()
	if cx != cy || len(w) != cx {
		panic(mat.ErrShape)
	}

	cov := mat.NewDense(rx, ry, nil)
	dx := mat.NewVecDense(rx, nil)
	dy := mat.NewVecDense(ry, nil)
	for c := 0; c < cx; c++ {
		dx.SubVec(x.ColView(c), xMean)
		dy.SubVec(y.ColView(c), yMean)
		cov.RankOne(cov, w[c], dx, dy)
	}

	return cov
}

// Symmetrize returns the symmetric part of a square matrix m: (m+m')/2.
// It panics if m is not square.
func Symmetrize(m mat.Matrix) *mat.SymDense {
	rows, cols := m.Dims()
	if rows != cols {
		panic(mat.ErrSquare)
	}

	sym := mat.NewSymDense(rows, nil)
	for i := 0; i < rows; i++ {
		for j := i; j < cols; j++ {
			sym.SetSym(i, j, (m.At(i, j)+m.At(j, i))/2)
		}
	}

	return sym
}
