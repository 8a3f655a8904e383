// Package face wires the configured embedding extractor and liveness checker.
package face

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/saturnino-fabrica-de-software/facematch/internal/config"
	"github.com/saturnino-fabrica-de-software/facematch/internal/provider"
	"github.com/saturnino-fabrica-de-software/facematch/internal/provider/deepface"
	"github.com/saturnino-fabrica-de-software/facematch/internal/provider/mock"
	"github.com/saturnino-fabrica-de-software/facematch/internal/provider/rekognition"
)

// ProviderType defines supported embedding extractors
type ProviderType string

const (
	// ProviderTypeDeepFace calls a DeepFace HTTP API
	ProviderTypeDeepFace ProviderType = config.ProviderDeepFace
	// ProviderTypeMock derives embeddings from image bytes, for dev/test
	ProviderTypeMock ProviderType = config.ProviderMock
)

// warmupRetryInterval spaces warmup attempts while the DeepFace API is still starting
var warmupRetryInterval = 2 * time.Second

// NewExtractor returns a lazily initialised extractor for the configured provider.
// Call Start on the result to begin loading; Extract fails with
// provider.ErrExtractorUnavailable until loading completes.
//
// Environment variables:
//   - PROVIDER_TYPE: "deepface" or "mock" (default: "deepface")
//   - DEEPFACE_URL, DEEPFACE_MODEL, DEEPFACE_DETECTOR, DEEPFACE_TIMEOUT, DEEPFACE_RETRY_COUNT
//   - EMBEDDING_DIMENSION: expected embedding length (0 = model default)
func NewExtractor(cfg *config.Config, logger *slog.Logger) (*provider.Lazy, error) {
	logger = logger.With("component", "extractor", "provider", cfg.ProviderType)

	switch ProviderType(cfg.ProviderType) {
	case ProviderTypeDeepFace, "":
		return newDeepFaceExtractor(cfg, logger)

	case ProviderTypeMock:
		dim := cfg.EmbeddingDimension
		if dim <= 0 {
			dim = mock.DefaultDimension
		}
		return provider.NewLazy(dim, func(ctx context.Context) (provider.Extractor, error) {
			logger.Warn("using mock extractor, verification results are not meaningful")
			return mock.New(dim), nil
		}), nil

	default:
		return nil, fmt.Errorf("unknown provider type: %s (supported: %s, %s)",
			cfg.ProviderType, ProviderTypeDeepFace, ProviderTypeMock)
	}
}

func newDeepFaceExtractor(cfg *config.Config, logger *slog.Logger) (*provider.Lazy, error) {
	dfConfig := deepface.DefaultConfig()
	if cfg.DeepFaceURL != "" {
		dfConfig.BaseURL = cfg.DeepFaceURL
	}
	if cfg.DeepFaceModel != "" {
		dfConfig.Model = cfg.DeepFaceModel
	}
	if cfg.DeepFaceDetector != "" {
		dfConfig.Detector = cfg.DeepFaceDetector
	}
	if cfg.DeepFaceTimeout > 0 {
		dfConfig.Timeout = cfg.DeepFaceTimeout
	}
	dfConfig.RetryCount = cfg.DeepFaceRetryCount

	prov, err := deepface.NewProvider(dfConfig, cfg.EmbeddingDimension)
	if err != nil {
		return nil, fmt.Errorf("create deepface provider: %w", err)
	}

	init := func(ctx context.Context) (provider.Extractor, error) {
		for attempt := 1; ; attempt++ {
			err := prov.Warmup(ctx)
			if err == nil {
				logger.Info("extractor ready",
					"model", dfConfig.Model,
					"detector", dfConfig.Detector,
					"dimension", prov.Dimension(),
					"attempts", attempt,
				)
				return prov, nil
			}

			logger.Warn("deepface not reachable yet", "attempt", attempt, "error", err)

			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("deepface warmup: %w", ctx.Err())
			case <-time.After(warmupRetryInterval):
			}
		}
	}

	return provider.NewLazy(prov.Dimension(), init), nil
}

// NewLivenessChecker returns the Rekognition liveness gate, or nil when LIVENESS_ENABLED is false.
// Credentials come from the AWS SDK default chain.
func NewLivenessChecker(ctx context.Context, cfg *config.Config) (provider.LivenessChecker, error) {
	if !cfg.LivenessEnabled {
		return nil, nil
	}

	rekogConfig := rekognition.DefaultConfig()
	if cfg.AWSRegion != "" {
		rekogConfig.Region = cfg.AWSRegion
	}

	checker, err := rekognition.NewLivenessChecker(ctx, rekogConfig)
	if err != nil {
		return nil, fmt.Errorf("create rekognition liveness checker: %w", err)
	}

	return checker, nil
}
