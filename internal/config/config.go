package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	ProviderDeepFace = "deepface"
	ProviderMock     = "mock"
)

// LivenessMaxImageSize is the largest image Rekognition DetectFaces accepts as raw bytes
const LivenessMaxImageSize = 5 * 1024 * 1024

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"3000"`
	Environment string `envconfig:"ENV" default:"development"`

	// Database, optional: the verification audit trail is disabled when empty
	DatabaseURL        string        `envconfig:"DATABASE_URL"`
	AuditRetention     time.Duration `envconfig:"AUDIT_RETENTION" default:"720h"`
	AuditPruneInterval time.Duration `envconfig:"AUDIT_PRUNE_INTERVAL" default:"1h"`

	// Provider
	ProviderType       string        `envconfig:"PROVIDER_TYPE" default:"deepface"`
	DeepFaceURL        string        `envconfig:"DEEPFACE_URL" default:"http://localhost:5005"`
	DeepFaceModel      string        `envconfig:"DEEPFACE_MODEL" default:"Facenet512"`
	DeepFaceDetector   string        `envconfig:"DEEPFACE_DETECTOR" default:"retinaface"`
	DeepFaceTimeout    time.Duration `envconfig:"DEEPFACE_TIMEOUT" default:"30s"`
	DeepFaceRetryCount int           `envconfig:"DEEPFACE_RETRY_COUNT" default:"3"`
	EmbeddingDimension int           `envconfig:"EMBEDDING_DIMENSION" default:"0"`
	ExtractionTimeout  time.Duration `envconfig:"EXTRACTION_TIMEOUT" default:"0s"`

	// Liveness
	LivenessEnabled   bool    `envconfig:"LIVENESS_ENABLED" default:"false"`
	LivenessThreshold float64 `envconfig:"LIVENESS_THRESHOLD" default:"0.9"`
	AWSRegion         string  `envconfig:"AWS_REGION" default:"us-east-1"`

	// Limits
	RateLimitMax    int           `envconfig:"RATE_LIMIT_MAX" default:"60"`
	RateLimitWindow time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
	MaxImageSize    int           `envconfig:"MAX_IMAGE_SIZE" default:"10485760"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

// Validate rejects combinations envconfig cannot express
func (c *Config) Validate() error {
	switch c.ProviderType {
	case ProviderDeepFace, ProviderMock:
	default:
		return fmt.Errorf("%w: unknown PROVIDER_TYPE %q", ErrInvalidConfig, c.ProviderType)
	}

	if c.EmbeddingDimension < 0 {
		return fmt.Errorf("%w: EMBEDDING_DIMENSION must not be negative", ErrInvalidConfig)
	}
	if c.ExtractionTimeout < 0 {
		return fmt.Errorf("%w: EXTRACTION_TIMEOUT must not be negative", ErrInvalidConfig)
	}
	if c.LivenessEnabled && (c.LivenessThreshold <= 0 || c.LivenessThreshold > 1) {
		return fmt.Errorf("%w: LIVENESS_THRESHOLD must be in (0, 1]", ErrInvalidConfig)
	}
	if c.RateLimitMax <= 0 || c.RateLimitWindow <= 0 {
		return fmt.Errorf("%w: rate limit must be positive", ErrInvalidConfig)
	}
	if c.AuditRetention <= 0 || c.AuditPruneInterval <= 0 {
		return fmt.Errorf("%w: audit retention and prune interval must be positive", ErrInvalidConfig)
	}
	if c.MaxImageSize <= 0 {
		return fmt.Errorf("%w: MAX_IMAGE_SIZE must be positive", ErrInvalidConfig)
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// EffectiveMaxImageSize is the per-image upload limit. With the liveness gate on it never exceeds
// what Rekognition accepts, so an oversized candidate is rejected as 413 instead of failing upstream.
func (c *Config) EffectiveMaxImageSize() int {
	if c.LivenessEnabled && c.MaxImageSize > LivenessMaxImageSize {
		return LivenessMaxImageSize
	}
	return c.MaxImageSize
}

// PersistenceEnabled reports whether verification records are written to Postgres
func (c *Config) PersistenceEnabled() bool {
	return c.DatabaseURL != ""
}
