package embedding

import "errors"

var (
	// ErrInvalidDimension indicates a vector was built with the wrong number of components
	ErrInvalidDimension = errors.New("invalid embedding dimension")

	// ErrInvalidComponent indicates a component is NaN or infinite
	ErrInvalidComponent = errors.New("invalid embedding component")

	// ErrDimensionMismatch indicates an operation between vectors of different dimensions
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
