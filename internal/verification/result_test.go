package verification

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/saturnino-fabrica-de-software/facematch/internal/similarity"
)

func TestResult_Inconclusive(t *testing.T) {
	score := similarity.Score(0.9)
	r := &Result{
		Score:     &score,
		Decision:  DecisionMatch,
		Threshold: 0.6,
		Reference: ImageReport{FacesDetected: 1, SelectedConfidence: 0.99},
		Candidate: ImageReport{FacesDetected: 2, SelectedConfidence: 0.97},
	}

	got := r.inconclusive(ReasonLivenessFailed)

	assert.Same(t, r, got)
	assert.Nil(t, got.Score)
	assert.Equal(t, DecisionInconclusive, got.Decision)
	assert.Equal(t, ReasonLivenessFailed, got.Reason)
	assert.False(t, got.Matched())
	assert.Equal(t, 0.6, got.Threshold)
	assert.Equal(t, 1, got.Reference.FacesDetected)
	assert.Equal(t, 2, got.Candidate.FacesDetected)
}
