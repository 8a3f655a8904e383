package rekognition

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/facematch/internal/provider"
)

func validImage() provider.Image {
	return provider.Image{Data: bytes.Repeat([]byte{0xFF}, 1024), Format: "jpeg"}
}

func liveFace() types.FaceDetail {
	return types.FaceDetail{
		Confidence: aws.Float32(99.5),
		EyesOpen:   &types.EyeOpen{Value: true, Confidence: aws.Float32(98)},
		Pose:       &types.Pose{Yaw: aws.Float32(5), Pitch: aws.Float32(-3), Roll: aws.Float32(1)},
		Quality:    &types.ImageQuality{Brightness: aws.Float32(90), Sharpness: aws.Float32(95)},
	}
}

func newChecker(api RekognitionAPI) *LivenessChecker {
	return NewLivenessCheckerWithClient(NewClientWithAPI(api, DefaultConfig()))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "us-east-1", cfg.Region)
	assert.Equal(t, 30.0, cfg.MaxPoseAngle)
	assert.Equal(t, 0.5, cfg.MinQuality)
}

func TestLivenessChecker_CheckLiveness(t *testing.T) {
	tests := []struct {
		name        string
		faces       []types.FaceDetail
		threshold   float64
		wantLive    bool
		wantReasons []string
	}{
		{
			name:      "live frontal face",
			faces:     []types.FaceDetail{liveFace()},
			threshold: 0.8,
			wantLive:  true,
		},
		{
			name:        "no face",
			faces:       nil,
			threshold:   0.8,
			wantReasons: []string{"no face detected"},
		},
		{
			name:        "multiple faces",
			faces:       []types.FaceDetail{liveFace(), liveFace()},
			threshold:   0.8,
			wantReasons: []string{"multiple faces detected"},
		},
		{
			name: "eyes closed",
			faces: func() []types.FaceDetail {
				f := liveFace()
				f.EyesOpen = &types.EyeOpen{Value: false}
				return []types.FaceDetail{f}
			}(),
			threshold:   0.8,
			wantReasons: []string{"eyes closed"},
		},
		{
			name: "looking away",
			faces: func() []types.FaceDetail {
				f := liveFace()
				f.Pose = &types.Pose{Yaw: aws.Float32(60), Pitch: aws.Float32(0)}
				return []types.FaceDetail{f}
			}(),
			threshold:   0.8,
			wantReasons: []string{"face not facing camera"},
		},
		{
			name: "blurry image",
			faces: func() []types.FaceDetail {
				f := liveFace()
				f.Quality = &types.ImageQuality{Brightness: aws.Float32(20), Sharpness: aws.Float32(10)}
				return []types.FaceDetail{f}
			}(),
			threshold:   0.05,
			wantReasons: []string{"image quality too low"},
		},
		{
			name:        "below threshold",
			faces:       []types.FaceDetail{liveFace()},
			threshold:   0.99,
			wantReasons: []string{"confidence below threshold"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &mockRekognitionAPI{
				detectFacesFunc: func(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error) {
					assert.Equal(t, []types.Attribute{types.AttributeAll}, params.Attributes)
					return &rekognition.DetectFacesOutput{FaceDetails: tt.faces}, nil
				},
			}

			result, err := newChecker(api).CheckLiveness(context.Background(), validImage(), tt.threshold)
			require.NoError(t, err)

			assert.Equal(t, tt.wantLive, result.IsLive)
			for _, reason := range tt.wantReasons {
				assert.Contains(t, result.Reasons, reason)
			}
			if tt.wantLive {
				assert.Empty(t, result.Reasons)
				assert.True(t, result.Checks.SingleFace)
				assert.True(t, result.Checks.EyesOpen)
				assert.True(t, result.Checks.FacingCamera)
				assert.True(t, result.Checks.QualityOK)
			}
		})
	}
}

func TestLivenessChecker_Errors(t *testing.T) {
	tests := []struct {
		name     string
		apiErr   error
		wantKind error
		wantErr  error
	}{
		{
			name:     "access denied",
			apiErr:   &smithy.GenericAPIError{Code: errCodeAccessDenied, Message: "denied"},
			wantKind: provider.ErrExtractorUnavailable,
			wantErr:  ErrInvalidCredentials,
		},
		{
			name:     "throttled",
			apiErr:   &smithy.GenericAPIError{Code: errCodeThrottling, Message: "slow down"},
			wantKind: provider.ErrExtractorUnavailable,
			wantErr:  ErrThrottled,
		},
		{
			name:     "bad image",
			apiErr:   &smithy.GenericAPIError{Code: errCodeInvalidImageFormat, Message: "bad"},
			wantKind: provider.ErrExtractorError,
			wantErr:  ErrInvalidImage,
		},
		{
			name:     "unknown api error",
			apiErr:   &smithy.GenericAPIError{Code: "InternalServerError", Message: "boom"},
			wantKind: provider.ErrExtractorError,
		},
		{
			name:     "transport failure",
			apiErr:   errors.New("dial tcp: connection refused"),
			wantKind: provider.ErrExtractorUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &mockRekognitionAPI{
				detectFacesFunc: func(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error) {
					return nil, tt.apiErr
				},
			}

			_, err := newChecker(api).CheckLiveness(context.Background(), validImage(), 0.5)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantKind)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestLivenessChecker_ValidatesImageSize(t *testing.T) {
	api := &mockRekognitionAPI{}
	checker := newChecker(api)

	_, err := checker.CheckLiveness(context.Background(), provider.Image{Data: []byte("tiny")}, 0.5)
	assert.ErrorIs(t, err, provider.ErrExtractorError)
	assert.ErrorIs(t, err, ErrInvalidImage)

	_, err = checker.CheckLiveness(context.Background(), provider.Image{Data: make([]byte, maxImageSize+1)}, 0.5)
	assert.ErrorIs(t, err, ErrInvalidImage)

	assert.Equal(t, 0, api.calls, "invalid images must not reach the API")
}

func TestCalculateQualityScore(t *testing.T) {
	assert.Equal(t, 0.0, calculateQualityScore(nil))
	assert.InDelta(t, 1.0, calculateQualityScore(&types.ImageQuality{
		Brightness: aws.Float32(100), Sharpness: aws.Float32(100),
	}), 1e-6)
	assert.InDelta(t, 0.7, calculateQualityScore(&types.ImageQuality{
		Sharpness: aws.Float32(100),
	}), 1e-6)
}
