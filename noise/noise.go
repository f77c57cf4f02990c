// Package noise provides sampled noise sources used to simulate
// dynamical systems and to describe filter noise models.
package noise

import (
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// source returns src, or a source seeded from the current time if src is nil.
func source(src rand.Source) rand.Source {
	if src != nil {
		return src
	}

	return rand.NewSource(uint64(time.Now().UnixNano()))
}

// symCopy returns a copy of cov which does not share storage with it.
func symCopy(cov mat.Symmetric) *mat.SymDense {
	n := cov.SymmetricDim()
	c := mat.NewSymDense(n, nil)
	c.CopySym(cov)

	return c
}
