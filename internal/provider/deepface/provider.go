package deepface

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/saturnino-fabrica-de-software/facematch/internal/provider"
)

const (
	// minFaceArea is the minimum face area (in pixels²) for reliable detection
	minFaceArea = 2500 // 50x50 pixels
	// maxFaceArea is used for confidence scaling
	maxFaceArea = 250000 // 500x500 pixels
)

// Provider implements provider.Extractor using DeepFace API
type Provider struct {
	client    *Client
	dimension int
}

// NewProvider creates a new DeepFace provider. dimension overrides the
// model's known embedding length when positive.
func NewProvider(config Config, dimension int) (*Provider, error) {
	known, ok := ModelDimension(config.Model)
	switch {
	case dimension <= 0 && !ok:
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, config.Model)
	case dimension <= 0:
		dimension = known
	case ok && dimension != known:
		return nil, fmt.Errorf("%w: %s produces %d, configured %d", ErrDimensionConflict, config.Model, known, dimension)
	}

	return &Provider{
		client:    NewClient(config),
		dimension: dimension,
	}, nil
}

// Warmup blocks until the DeepFace API answers. Suitable as a provider.InitFunc body.
func (p *Provider) Warmup(ctx context.Context) error {
	if err := p.client.Ping(ctx); err != nil {
		return fmt.Errorf("warmup: %w", err)
	}
	return nil
}

// Dimension returns the embedding length of the configured model
func (p *Provider) Dimension() int {
	return p.dimension
}

// Extract detects faces and computes one embedding per face
func (p *Provider) Extract(ctx context.Context, image provider.Image) (*provider.Detection, error) {
	resp, err := p.client.Represent(ctx, dataURI(image))
	if err != nil {
		if isNoFaceError(err) {
			return &provider.Detection{}, nil
		}
		return nil, classify(err)
	}

	faces := make([]provider.Face, 0, len(resp.Results))
	for _, result := range resp.Results {
		faceArea := float64(result.FacialArea.W * result.FacialArea.H)

		confidence := result.FaceConfidence
		if confidence <= 0 {
			confidence = calculateConfidence(faceArea)
		}

		faces = append(faces, provider.Face{
			Embedding:  result.Embedding,
			Confidence: confidence,
			BoundingBox: provider.BoundingBox{
				X:      float64(result.FacialArea.X),
				Y:      float64(result.FacialArea.Y),
				Width:  float64(result.FacialArea.W),
				Height: float64(result.FacialArea.H),
			},
		})
	}

	return &provider.Detection{Faces: faces}, nil
}

// classify maps client failures onto the extractor error kinds
func classify(err error) error {
	switch {
	case errors.Is(err, ErrDeepFaceUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %w", provider.ErrExtractorUnavailable, err)
	default:
		return fmt.Errorf("%w: %w", provider.ErrExtractorError, err)
	}
}

func isNoFaceError(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) &&
		statusErr.StatusCode >= 400 && statusErr.StatusCode < 500 &&
		strings.Contains(statusErr.Body, noFaceMessage)
}

func dataURI(image provider.Image) string {
	format := image.Format
	if format == "" {
		format = "jpeg"
	}
	return "data:image/" + format + ";base64," + base64.StdEncoding.EncodeToString(image.Data)
}

// calculateConfidence estimates confidence based on face area
// Detectors such as opencv report no confidence, so larger faces score higher
func calculateConfidence(faceArea float64) float64 {
	if faceArea < minFaceArea {
		return 0.5 // Low confidence for very small faces
	}
	// Scale from 0.7 to 0.99 based on face area
	normalized := math.Min(1.0, (faceArea-minFaceArea)/(maxFaceArea-minFaceArea))
	return 0.7 + (normalized * 0.29)
}

var _ provider.Extractor = (*Provider)(nil)
