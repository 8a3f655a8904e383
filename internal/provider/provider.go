package provider

import (
	"context"
	"errors"
)

var (
	// ErrExtractorUnavailable indicates the extractor is not loaded, not reachable or timed out
	ErrExtractorUnavailable = errors.New("embedding extractor unavailable")

	// ErrExtractorError indicates the extractor failed internally, e.g. on a corrupt image
	ErrExtractorError = errors.New("embedding extractor error")
)

// Extractor turns an image into zero or more facial embeddings.
// Implementations must be safe for concurrent use and idempotent for identical image contents.
type Extractor interface {
	// Extract detects faces in the image and returns one embedding per face.
	// Failures wrap ErrExtractorUnavailable or ErrExtractorError.
	Extract(ctx context.Context, image Image) (*Detection, error)

	// Dimension is the fixed length of every embedding this extractor produces.
	Dimension() int
}

// LivenessChecker performs passive liveness detection on a live-captured image.
type LivenessChecker interface {
	CheckLiveness(ctx context.Context, image Image, threshold float64) (*LivenessResult, error)
}

// Kind classifies a Detection by the number of faces found
type Kind int

const (
	NoFace Kind = iota
	SingleFace
	MultipleFaces
)

func (k Kind) String() string {
	switch k {
	case NoFace:
		return "no_face"
	case SingleFace:
		return "single_face"
	case MultipleFaces:
		return "multiple_faces"
	default:
		return "unknown"
	}
}

// Detection is the outcome of one extraction, in the order the extractor reported the faces
type Detection struct {
	Faces []Face
}

// Kind returns NoFace, SingleFace or MultipleFaces.
func (d *Detection) Kind() Kind {
	if d == nil {
		return NoFace
	}
	switch len(d.Faces) {
	case 0:
		return NoFace
	case 1:
		return SingleFace
	default:
		return MultipleFaces
	}
}

// Best returns the face with the highest detection confidence.
// The earliest face wins ties. ok is false when there are no faces.
func (d *Detection) Best() (face Face, index int, ok bool) {
	if d == nil || len(d.Faces) == 0 {
		return Face{}, -1, false
	}

	index = 0
	for i := 1; i < len(d.Faces); i++ {
		if d.Faces[i].Confidence > d.Faces[index].Confidence {
			index = i
		}
	}
	return d.Faces[index], index, true
}

// Face is one detected face with its embedding
type Face struct {
	Embedding   []float64   `json:"-"`
	Confidence  float64     `json:"confidence"`
	BoundingBox BoundingBox `json:"bounding_box"`
}

// BoundingBox represents the face area in the image
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Pose represents face orientation angles
type Pose struct {
	Pitch float64 `json:"pitch"` // up/down rotation
	Roll  float64 `json:"roll"`  // tilted rotation
	Yaw   float64 `json:"yaw"`   // left/right rotation
}

// LivenessResult represents the result of a liveness check
type LivenessResult struct {
	IsLive     bool           `json:"is_live"`
	Confidence float64        `json:"confidence"`
	Reasons    []string       `json:"reasons,omitempty"`
	Checks     LivenessChecks `json:"checks"`
}

// LivenessChecks contains individual liveness check results
type LivenessChecks struct {
	EyesOpen     bool `json:"eyes_open"`
	FacingCamera bool `json:"facing_camera"`
	QualityOK    bool `json:"quality_ok"`
	SingleFace   bool `json:"single_face"`
}
