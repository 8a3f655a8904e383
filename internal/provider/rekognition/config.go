package rekognition

// Config holds configuration for the AWS Rekognition liveness checker
type Config struct {
	// Region is the AWS region where Rekognition service will be used (e.g., "us-east-1")
	Region string

	// MaxPoseAngle is the largest absolute yaw or pitch, in degrees, still considered facing the camera
	MaxPoseAngle float64

	// MinQuality is the minimum combined brightness/sharpness score in [0,1]
	MinQuality float64
}

// DefaultConfig returns a Config with default values
func DefaultConfig() Config {
	return Config{
		Region:       "us-east-1",
		MaxPoseAngle: 30,
		MinQuality:   0.5,
	}
}
