package rekognition

import (
	"context"
	"fmt"
	"math"

	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/saturnino-fabrica-de-software/facematch/internal/provider"
)

const (
	// maxImageSize is the maximum image size supported by AWS Rekognition (5MB)
	maxImageSize = 5 * 1024 * 1024
	// minImageSize is the minimum image size for valid processing
	minImageSize = 100
)

// LivenessChecker implements provider.LivenessChecker with the DetectFaces API.
// It is a passive check: one frontal face, eyes open, acceptable quality.
type LivenessChecker struct {
	client *Client
}

// NewLivenessChecker creates a checker backed by the AWS default credential chain
func NewLivenessChecker(ctx context.Context, cfg Config) (*LivenessChecker, error) {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create rekognition client: %w", err)
	}
	return &LivenessChecker{client: client}, nil
}

// NewLivenessCheckerWithClient creates a checker around an existing client
func NewLivenessCheckerWithClient(client *Client) *LivenessChecker {
	return &LivenessChecker{client: client}
}

// validateImage checks if image data is valid for Rekognition processing
func validateImage(image []byte) error {
	if len(image) < minImageSize {
		return fmt.Errorf("%w: image too small (%d bytes, minimum %d)", ErrInvalidImage, len(image), minImageSize)
	}
	if len(image) > maxImageSize {
		return fmt.Errorf("%w: image too large (%d bytes, maximum %d)", ErrInvalidImage, len(image), maxImageSize)
	}
	return nil
}

// CheckLiveness scores the image and reports whether it looks like a live capture
func (l *LivenessChecker) CheckLiveness(ctx context.Context, image provider.Image, threshold float64) (*provider.LivenessResult, error) {
	if err := validateImage(image.Data); err != nil {
		return nil, fmt.Errorf("%w: %w", provider.ErrExtractorError, err)
	}

	output, err := l.client.rekognition.DetectFaces(ctx, &rekognition.DetectFacesInput{
		Image: &types.Image{
			Bytes: image.Data,
		},
		Attributes: []types.Attribute{types.AttributeAll},
	})
	if err != nil {
		return nil, fmt.Errorf("check liveness: %w", classifyError(err))
	}

	return l.evaluate(output.FaceDetails, threshold), nil
}

func (l *LivenessChecker) evaluate(details []types.FaceDetail, threshold float64) *provider.LivenessResult {
	result := &provider.LivenessResult{}
	result.Checks.SingleFace = len(details) == 1

	if len(details) == 0 {
		result.Reasons = append(result.Reasons, "no face detected")
		return result
	}
	if len(details) > 1 {
		result.Reasons = append(result.Reasons, "multiple faces detected")
	}

	detail := details[0]
	result.Checks.EyesOpen = detail.EyesOpen != nil && detail.EyesOpen.Value
	result.Checks.FacingCamera = l.facingCamera(detail.Pose)

	quality := calculateQualityScore(detail.Quality)
	result.Checks.QualityOK = quality >= l.client.config.MinQuality

	faceConfidence := 0.0
	if detail.Confidence != nil {
		faceConfidence = float64(*detail.Confidence) / 100.0
	}
	result.Confidence = faceConfidence * quality

	if !result.Checks.EyesOpen {
		result.Reasons = append(result.Reasons, "eyes closed")
	}
	if !result.Checks.FacingCamera {
		result.Reasons = append(result.Reasons, "face not facing camera")
	}
	if !result.Checks.QualityOK {
		result.Reasons = append(result.Reasons, "image quality too low")
	}
	if result.Confidence < threshold {
		result.Reasons = append(result.Reasons, "confidence below threshold")
	}

	result.IsLive = len(result.Reasons) == 0
	return result
}

func (l *LivenessChecker) facingCamera(pose *types.Pose) bool {
	if pose == nil || pose.Yaw == nil || pose.Pitch == nil {
		return false
	}
	limit := l.client.config.MaxPoseAngle
	return math.Abs(float64(*pose.Yaw)) <= limit && math.Abs(float64(*pose.Pitch)) <= limit
}

// calculateQualityScore computes an overall quality score from Rekognition quality metrics
// Returns a score between 0.0 (poor quality) and 1.0 (excellent quality)
func calculateQualityScore(quality *types.ImageQuality) float64 {
	if quality == nil {
		return 0.0
	}

	brightness := 0.0
	sharpness := 0.0

	if quality.Brightness != nil {
		brightness = float64(*quality.Brightness) / 100.0
	}

	if quality.Sharpness != nil {
		sharpness = float64(*quality.Sharpness) / 100.0
	}

	// Weight sharpness more heavily as it's critical for face recognition
	return brightness*0.3 + sharpness*0.7
}

var _ provider.LivenessChecker = (*LivenessChecker)(nil)
