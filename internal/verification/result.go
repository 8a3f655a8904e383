package verification

import (
	"errors"
	"fmt"

	"github.com/saturnino-fabrica-de-software/facematch/internal/provider"
	"github.com/saturnino-fabrica-de-software/facematch/internal/similarity"
)

// ErrInvalidThreshold indicates a threshold outside the open interval (0, 1)
var ErrInvalidThreshold = errors.New("threshold must be between 0 and 1 (exclusive)")

// ValidateThreshold accepts thresholds strictly between 0 and 1
func ValidateThreshold(threshold float64) error {
	if !(threshold > 0 && threshold < 1) {
		return fmt.Errorf("%w: got %v", ErrInvalidThreshold, threshold)
	}
	return nil
}

// Decision is the outcome of a verification
type Decision string

const (
	DecisionMatch        Decision = "match"
	DecisionNoMatch      Decision = "no_match"
	DecisionInconclusive Decision = "inconclusive"
)

// Reason explains a Decision
type Reason string

const (
	ReasonScoreAboveThreshold Reason = "score_above_threshold"
	ReasonScoreBelowThreshold Reason = "score_below_threshold"
	ReasonNoFaceDetected      Reason = "no_face_detected"
	ReasonScoringFailed       Reason = "scoring_failed"
	ReasonInvalidEmbedding    Reason = "invalid_embedding"
	ReasonLivenessFailed      Reason = "liveness_failed"
)

// ImageReport summarises what the extractor found in one image
type ImageReport struct {
	FacesDetected      int     `json:"faces_detected"`
	SelectedConfidence float64 `json:"selected_confidence,omitempty"`
}

// Result is the immutable outcome of one Verify call.
// Score is nil whenever Decision is DecisionInconclusive.
type Result struct {
	Score     *similarity.Score        `json:"score"`
	Decision  Decision                 `json:"decision"`
	Reason    Reason                   `json:"reason"`
	Threshold float64                  `json:"threshold"`
	Reference ImageReport              `json:"reference"`
	Candidate ImageReport              `json:"candidate"`
	Liveness  *provider.LivenessResult `json:"liveness,omitempty"`
}

// Matched reports whether the decision is DecisionMatch
func (r *Result) Matched() bool {
	return r != nil && r.Decision == DecisionMatch
}

// inconclusive marks r as undecided; the score stays nil
func (r *Result) inconclusive(reason Reason) *Result {
	r.Score = nil
	r.Decision = DecisionInconclusive
	r.Reason = reason
	return r
}
