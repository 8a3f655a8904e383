// Package similarity scores pairs of embeddings.
package similarity

import (
	"errors"
	"fmt"

	"github.com/saturnino-fabrica-de-software/facematch/internal/embedding"
)

var (
	// ErrDegenerateVector indicates one of the inputs has zero norm
	ErrDegenerateVector = errors.New("degenerate embedding vector")

	// ErrDimensionMismatch is returned when the inputs differ in dimension
	ErrDimensionMismatch = embedding.ErrDimensionMismatch
)

// Score is a cosine similarity in [-1.0, 1.0].
type Score float64

// Scorer computes a bounded similarity between two embeddings.
type Scorer interface {
	Score(a, b embedding.Vector) (Score, error)
}

// CosineScorer implements Scorer with Cosine.
type CosineScorer struct{}

// Score returns Cosine(a, b).
func (CosineScorer) Score(a, b embedding.Vector) (Score, error) {
	return Cosine(a, b)
}

// Cosine returns dot(a,b) / (norm(a) * norm(b)).
// A zero norm on either side fails with ErrDegenerateVector instead of yielding NaN.
func Cosine(a, b embedding.Vector) (Score, error) {
	dot, err := a.Dot(b)
	if err != nil {
		return 0, fmt.Errorf("cosine similarity: %w", err)
	}

	normA := a.Norm()
	normB := b.Norm()
	if normA == 0 || normB == 0 {
		return 0, ErrDegenerateVector
	}

	s := dot / (normA * normB)

	// rounding can push |s| slightly past 1 for parallel vectors
	if s > 1 {
		s = 1
	} else if s < -1 {
		s = -1
	}

	return Score(s), nil
}
