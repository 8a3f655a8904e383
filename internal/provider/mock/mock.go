// Package mock provides a deterministic extractor for development and tests.
package mock

import (
	"context"
	"crypto/sha256"
	"fmt"
	"math"

	"github.com/saturnino-fabrica-de-software/facematch/internal/provider"
)

// DefaultDimension matches Facenet512
const DefaultDimension = 512

// minImageSize mirrors the smallest payload a real detector accepts
const minImageSize = 100

// Provider derives one embedding per image from the SHA-256 of its bytes.
// Identical images therefore always verify as a match.
type Provider struct {
	dimension int
}

// New creates a mock extractor. A non-positive dimension falls back to DefaultDimension.
func New(dimension int) *Provider {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &Provider{dimension: dimension}
}

// Extract returns a single face with a deterministic embedding
func (p *Provider) Extract(ctx context.Context, image provider.Image) (*provider.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", provider.ErrExtractorUnavailable, err)
	}
	if len(image.Data) < minImageSize {
		return nil, fmt.Errorf("%w: image too small (%d bytes)", provider.ErrExtractorError, len(image.Data))
	}

	return &provider.Detection{
		Faces: []provider.Face{
			{
				Embedding:  generateEmbedding(image.Data, p.dimension),
				Confidence: 0.99,
				BoundingBox: provider.BoundingBox{
					X:      0.1 * float64(image.Width),
					Y:      0.1 * float64(image.Height),
					Width:  0.8 * float64(image.Width),
					Height: 0.8 * float64(image.Height),
				},
			},
		},
	}, nil
}

// Dimension returns the embedding length
func (p *Provider) Dimension() int {
	return p.dimension
}

// generateEmbedding builds a unit vector from the image hash
func generateEmbedding(image []byte, dimension int) []float64 {
	hash := sha256.Sum256(image)
	embedding := make([]float64, dimension)
	hashLen := len(hash)

	for i := 0; i < dimension; i++ {
		idx := i % hashLen
		embedding[i] = (float64(hash[idx])/255.0)*2 - 1
	}

	norm := 0.0
	for _, v := range embedding {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	if norm == 0 {
		return embedding
	}
	for i := range embedding {
		embedding[i] /= norm
	}

	return embedding
}

var _ provider.Extractor = (*Provider)(nil)
