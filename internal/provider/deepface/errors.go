package deepface

import (
	"errors"
	"fmt"
)

var (
	ErrDeepFaceUnavailable = errors.New("deepface service unavailable")
	ErrInvalidResponse     = errors.New("invalid response from deepface")
	ErrUnknownModel        = errors.New("unknown deepface model")
	ErrDimensionConflict   = errors.New("embedding dimension does not match model")
)

// noFaceMessage is the error text DeepFace returns when enforce_detection finds no face
const noFaceMessage = "Face could not be detected"

// StatusError is a non-2xx response from DeepFace
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("deepface returned status %d: %s", e.StatusCode, e.Body)
}

// isClientError reports whether err is a 4xx response
func isClientError(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= 400 && statusErr.StatusCode < 500
	}
	return false
}
