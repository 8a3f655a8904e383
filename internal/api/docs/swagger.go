package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// VerifyResponse represents the outcome of a 1:1 verification.
// Score is null when the decision is inconclusive.
type VerifyResponse struct {
	VerificationID string   `json:"verification_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Decision       string   `json:"decision" example:"match"`
	Reason         string   `json:"reason" example:"score_above_threshold"`
	Score          *float64 `json:"score" example:"0.87"`
	Threshold      float64  `json:"threshold" example:"0.6"`
	ReferenceFaces int      `json:"reference_faces" example:"1"`
	CandidateFaces int      `json:"candidate_faces" example:"1"`
	LivenessPassed *bool    `json:"liveness_passed,omitempty" example:"true"`
	LatencyMs      int64    `json:"latency_ms" example:"182"`
	CreatedAt      string   `json:"created_at,omitempty" example:"2026-01-01T00:00:00Z"`
}

// StatsResponse represents decision counts over a trailing window
type StatsResponse struct {
	Since  string           `json:"since" example:"2026-01-01T00:00:00Z"`
	Counts map[string]int64 `json:"counts"`
	Total  int64            `json:"total" example:"120"`
}

// HealthResponse represents the liveness and readiness checks
type HealthResponse struct {
	Status  string            `json:"status" example:"ready"`
	Version string            `json:"version,omitempty" example:"0.1.0"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code      string `json:"code" example:"VALIDATION_FAILED"`
	Message   string `json:"message" example:"Request validation failed"`
	RequestID string `json:"request_id" example:"3f1c2a8e-5b7d-4e0a-9c61-2d8f0b4a7e19"`
}

// NewSwagger creates and configures the Swagger documentation
func NewSwagger(version string) *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "Facematch Verification API",
		Version:     version,
		Description: "1:1 face verification: compares a reference photo with a live capture and returns a cosine similarity score and decision",
		Host:        "localhost:3000",
		Path:        "/",
	})

	endpoints := []*endpoint.EndPoint{
		// POST /v1/verify - Verify (1:1)
		endpoint.New(
			endpoint.POST,
			"/v1/verify",
			endpoint.WithTags("Verification"),
			endpoint.WithSummary("Verify two photos depict the same person"),
			endpoint.WithDescription("Multipart form with files `reference` and `candidate` (JPEG, PNG or WebP) and field `threshold` in (0,1). "+
				"NoMatch and Inconclusive are successful outcomes; score is null when inconclusive."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(VerifyResponse{}, "200", "Verification completed"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "PAYLOAD_TOO_LARGE", Message: "Image exceeds the maximum allowed size"}, "413", "Payload Too Large"),
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "reference image is required"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "INVALID_THRESHOLD", Message: "Threshold must be between 0 and 1 (exclusive)"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "INVALID_IMAGE", Message: "Invalid image format or corrupted file"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "RATE_LIMIT_EXCEEDED", Message: "Rate limit exceeded, please try again later"}, "429", "Too Many Requests"),
				response.New(ErrorResponse{Code: "EXTRACTOR_ERROR", Message: "Face embedding extraction failed"}, "502", "Bad Gateway"),
				response.New(ErrorResponse{Code: "EXTRACTOR_UNAVAILABLE", Message: "Face embedding extractor is not available, try again later"}, "503", "Service Unavailable"),
			}),
		),

		// GET /v1/verifications/stats - Decision counts
		endpoint.New(
			endpoint.GET,
			"/v1/verifications/stats",
			endpoint.WithTags("Verification"),
			endpoint.WithSummary("Count verifications per decision"),
			endpoint.WithDescription("Available only when verification history is enabled (DATABASE_URL set)."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("since", parameter.Query, parameter.WithDescription("Trailing window as a Go duration (default: 24h)")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(StatsResponse{}, "200", "Counts retrieved"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "BAD_REQUEST", Message: "since must be a positive duration such as 24h"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "NOT_FOUND", Message: "Verification history is disabled"}, "404", "Not Found"),
			}),
		),

		// GET /v1/verifications/{id} - Fetch record
		endpoint.New(
			endpoint.GET,
			"/v1/verifications/{id}",
			endpoint.WithTags("Verification"),
			endpoint.WithSummary("Fetch a persisted verification"),
			endpoint.WithDescription("Records hold the decision, score and latency only. Images and embeddings are never stored."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("id", parameter.Path, parameter.WithDescription("Verification ID")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(VerifyResponse{}, "200", "Verification retrieved"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "BAD_REQUEST", Message: "Invalid verification id"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "VERIFICATION_NOT_FOUND", Message: "Verification not found"}, "404", "Not Found"),
			}),
		),

		// GET /health
		endpoint.New(
			endpoint.GET,
			"/health",
			endpoint.WithTags("Health"),
			endpoint.WithSummary("Liveness check"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HealthResponse{}, "200", "Process is up"),
			}),
		),

		// GET /ready
		endpoint.New(
			endpoint.GET,
			"/ready",
			endpoint.WithTags("Health"),
			endpoint.WithSummary("Readiness check"),
			endpoint.WithDescription("503 until the embedding extractor has loaded and, when configured, the database answers."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HealthResponse{}, "200", "Ready to serve"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(HealthResponse{Status: "not_ready"}, "503", "Service Unavailable"),
			}),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
