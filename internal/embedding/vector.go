// Package embedding holds the fixed-length facial embedding vector used by the
// verification pipeline.
package embedding

import (
	"fmt"
	"math"
)

// Vector is an immutable embedding of exactly Dim() finite components.
// The zero value has dimension 0 and is never returned by New.
type Vector struct {
	values []float64
}

// New validates values against dim and returns a Vector holding a private copy.
func New(values []float64, dim int) (Vector, error) {
	if dim <= 0 || len(values) != dim {
		return Vector{}, fmt.Errorf("%w: got %d, want %d", ErrInvalidDimension, len(values), dim)
	}

	copied := make([]float64, len(values))
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Vector{}, fmt.Errorf("%w: index %d is %v", ErrInvalidComponent, i, v)
		}
		copied[i] = v
	}

	return Vector{values: copied}, nil
}

// Dim returns the number of components.
func (v Vector) Dim() int {
	return len(v.values)
}

// Values returns a copy of the components.
func (v Vector) Values() []float64 {
	out := make([]float64, len(v.values))
	copy(out, v.values)
	return out
}

// Dot returns the dot product of v and other.
func (v Vector) Dot(other Vector) (float64, error) {
	if len(v.values) != len(other.values) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(v.values), len(other.values))
	}

	var sum float64
	for i := range v.values {
		sum += v.values[i] * other.values[i]
	}
	return sum, nil
}

// Norm returns the Euclidean length of v.
func (v Vector) Norm() float64 {
	var sum float64
	for _, x := range v.values {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// IsZero reports whether every component is exactly zero.
func (v Vector) IsZero() bool {
	for _, x := range v.values {
		if x != 0 {
			return false
		}
	}
	return true
}
