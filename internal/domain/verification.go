package domain

import (
	"time"

	"github.com/google/uuid"
)

// Verification representa o registro de auditoria de uma verificação.
// Nunca carrega imagens nem embeddings.
type Verification struct {
	ID             uuid.UUID `json:"verification_id"`
	Decision       string    `json:"decision"`
	Reason         string    `json:"reason"`
	Score          *float64  `json:"score"`
	Threshold      float64   `json:"threshold"`
	ReferenceFaces int       `json:"reference_faces"`
	CandidateFaces int       `json:"candidate_faces"`
	LivenessPassed *bool     `json:"liveness_passed,omitempty"`
	LatencyMs      int64     `json:"latency_ms"`
	CreatedAt      time.Time `json:"created_at"`
}

// Matched reports whether the decision was a match
func (v *Verification) Matched() bool {
	return v.Decision == "match"
}
