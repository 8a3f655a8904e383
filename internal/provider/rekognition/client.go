package rekognition

import (
	"context"
	"errors"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/smithy-go"

	"github.com/saturnino-fabrica-de-software/facematch/internal/provider"
)

const (
	errCodeAccessDenied       = "AccessDeniedException"
	errCodeInvalidParameter   = "InvalidParameterException"
	errCodeInvalidImageFormat = "InvalidImageFormatException"
	errCodeImageTooLarge      = "ImageTooLargeException"
	errCodeThrottling         = "ThrottlingException"
	errCodeThroughput         = "ProvisionedThroughputExceededException"
)

// RekognitionAPI is the subset of the Rekognition client used here
type RekognitionAPI interface {
	DetectFaces(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error)
}

// Client wraps the AWS Rekognition client
type Client struct {
	rekognition RekognitionAPI
	config      Config
}

// NewClient creates a new Rekognition client with the provided configuration
// It uses the AWS default credential chain to authenticate
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Client{
		rekognition: rekognition.NewFromConfig(awsCfg),
		config:      cfg,
	}, nil
}

// NewClientWithAPI builds a Client around an existing API implementation
func NewClientWithAPI(api RekognitionAPI, cfg Config) *Client {
	return &Client{
		rekognition: api,
		config:      cfg,
	}
}

// classifyError maps AWS errors onto the extractor error kinds.
// Errors without an API error code come from the transport and count as unavailability.
func classifyError(err error) error {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %w", provider.ErrExtractorUnavailable, err)
	}

	switch apiErr.ErrorCode() {
	case errCodeAccessDenied:
		return fmt.Errorf("%w: %w", provider.ErrExtractorUnavailable, ErrInvalidCredentials)
	case errCodeThrottling, errCodeThroughput:
		return fmt.Errorf("%w: %w", provider.ErrExtractorUnavailable, ErrThrottled)
	case errCodeInvalidParameter, errCodeInvalidImageFormat, errCodeImageTooLarge:
		return fmt.Errorf("%w: %w: %s", provider.ErrExtractorError, ErrInvalidImage, apiErr.ErrorMessage())
	default:
		return fmt.Errorf("%w: %w", provider.ErrExtractorError, err)
	}
}
