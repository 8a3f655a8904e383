package rekognition

import "errors"

var (
	// ErrInvalidCredentials indicates that AWS credentials are invalid or missing
	ErrInvalidCredentials = errors.New("invalid or missing AWS credentials")

	// ErrThrottled indicates Rekognition rejected the call because of rate limits
	ErrThrottled = errors.New("rekognition request throttled")

	// ErrInvalidImage indicates Rekognition could not process the image bytes
	ErrInvalidImage = errors.New("invalid image for rekognition")
)
