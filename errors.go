package filter

import "errors"

var (
	// ErrInvalidParam is returned when a filter or sampler is configured with invalid parameters
	ErrInvalidParam = errors.New("invalid parameter")
	// ErrNumerical is returned when a matrix decomposition fails,
	// e.g. a covariance matrix is not positive definite or the gain solve is singular
	ErrNumerical = errors.New("numerical failure")
	// ErrDimMismatch is returned when vector or matrix dimensions do not agree
	ErrDimMismatch = errors.New("dimension mismatch")
	// ErrOutOfOrder is returned when a measurement is not strictly newer than the current estimate
	ErrOutOfOrder = errors.New("measurement out of order")
)
