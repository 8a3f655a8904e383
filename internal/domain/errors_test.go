package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "error without wrapped error",
			appErr:   ErrInvalidImage,
			expected: "Invalid image format or corrupted file",
		},
		{
			name: "error with wrapped error",
			appErr: &AppError{
				Code:       "TEST_ERROR",
				Message:    "Test message",
				StatusCode: 500,
				Err:        errors.New("underlying error"),
			},
			expected: "Test message: underlying error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appErr.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	appErr := &AppError{Code: "TEST", Message: "test", StatusCode: 500, Err: underlying}

	assert.Equal(t, underlying, appErr.Unwrap())
	assert.Nil(t, ErrInvalidThreshold.Unwrap())
}

func TestAppError_WithError(t *testing.T) {
	underlying := errors.New("deepface down")
	newErr := ErrExtractorUnavailable.WithError(underlying)

	assert.Equal(t, ErrExtractorUnavailable.Code, newErr.Code)
	assert.Equal(t, ErrExtractorUnavailable.StatusCode, newErr.StatusCode)
	assert.ErrorIs(t, newErr, underlying)
	assert.ErrorIs(t, newErr, ErrExtractorUnavailable)
	assert.NotErrorIs(t, newErr, ErrExtractorFailure)
	assert.Nil(t, ErrExtractorUnavailable.Err, "predefined error must not be mutated")
}

func TestAppError_WithMessage(t *testing.T) {
	newErr := ErrValidationFailed.WithMessage("reference image is required")

	assert.Equal(t, "VALIDATION_FAILED", newErr.Code)
	assert.Equal(t, 422, newErr.StatusCode)
	assert.Equal(t, "reference image is required", newErr.Message)
	assert.Equal(t, "Request validation failed", ErrValidationFailed.Message)
}

func TestAsAppError(t *testing.T) {
	t.Run("finds wrapped app error", func(t *testing.T) {
		err := fmt.Errorf("handler: %w", ErrInvalidImage.WithError(errors.New("truncated")))

		appErr := AsAppError(err)
		require.NotNil(t, appErr)
		assert.Equal(t, "INVALID_IMAGE", appErr.Code)
	})

	t.Run("falls back to internal error", func(t *testing.T) {
		plain := errors.New("boom")

		appErr := AsAppError(plain)
		assert.Equal(t, "INTERNAL_ERROR", appErr.Code)
		assert.Equal(t, 500, appErr.StatusCode)
		assert.ErrorIs(t, appErr, plain)
	})
}

func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		err        *AppError
		code       string
		statusCode int
	}{
		{ErrInternal, "INTERNAL_ERROR", 500},
		{ErrBadRequest, "BAD_REQUEST", 400},
		{ErrNotFound, "NOT_FOUND", 404},
		{ErrVerificationNotFound, "VERIFICATION_NOT_FOUND", 404},
		{ErrVerificationExists, "VERIFICATION_EXISTS", 409},
		{ErrPayloadTooLarge, "PAYLOAD_TOO_LARGE", 413},
		{ErrInvalidImage, "INVALID_IMAGE", 422},
		{ErrInvalidThreshold, "INVALID_THRESHOLD", 422},
		{ErrValidationFailed, "VALIDATION_FAILED", 422},
		{ErrRateLimitExceeded, "RATE_LIMIT_EXCEEDED", 429},
		{ErrExtractorFailure, "EXTRACTOR_ERROR", 502},
		{ErrExtractorUnavailable, "EXTRACTOR_UNAVAILABLE", 503},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.statusCode, tt.err.StatusCode)
		})
	}
}

func TestVerification_Matched(t *testing.T) {
	assert.True(t, (&Verification{Decision: "match"}).Matched())
	assert.False(t, (&Verification{Decision: "no_match"}).Matched())
	assert.False(t, (&Verification{Decision: "inconclusive"}).Matched())
}
