package handler

import (
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/facematch/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
	"github.com/saturnino-fabrica-de-software/facematch/internal/service"
)

const (
	// DefaultMaxImageSize applies when the handler is built with a non-positive limit
	DefaultMaxImageSize = 10 * 1024 * 1024 // 10MB

	defaultStatsWindow = 24 * time.Hour
)

// VerificationService is implemented by *service.VerificationService
type VerificationService interface {
	Verify(ctx context.Context, referenceBytes, candidateBytes []byte, threshold float64) (*domain.Verification, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Verification, error)
	Stats(ctx context.Context, since time.Time) (map[string]int64, error)
}

// VerifyHandler serves the 1:1 verification endpoints
type VerifyHandler struct {
	service      VerificationService
	maxImageSize int64
	logger       *slog.Logger
	now          func() time.Time
}

func NewVerifyHandler(svc VerificationService, maxImageSize int, logger *slog.Logger) *VerifyHandler {
	if maxImageSize <= 0 {
		maxImageSize = DefaultMaxImageSize
	}
	return &VerifyHandler{
		service:      svc,
		maxImageSize: int64(maxImageSize),
		logger:       logger.With("component", "verify_handler"),
		now:          time.Now,
	}
}

// VerifyResponse is the body of a completed verification.
// NoMatch and Inconclusive are successful outcomes and share this shape.
type VerifyResponse struct {
	VerificationID string   `json:"verification_id"`
	Decision       string   `json:"decision"`
	Reason         string   `json:"reason"`
	Score          *float64 `json:"score"`
	Threshold      float64  `json:"threshold"`
	ReferenceFaces int      `json:"reference_faces"`
	CandidateFaces int      `json:"candidate_faces"`
	LivenessPassed *bool    `json:"liveness_passed,omitempty"`
	LatencyMs      int64    `json:"latency_ms"`
	CreatedAt      string   `json:"created_at,omitempty"`
}

// StatsResponse counts persisted verifications per decision
type StatsResponse struct {
	Since  string           `json:"since"`
	Counts map[string]int64 `json:"counts"`
	Total  int64            `json:"total"`
}

// Verify POST /v1/verify - compare a reference photo against a candidate photo
func (h *VerifyHandler) Verify(c *fiber.Ctx) error {
	// 1. Threshold is mandatory, range is checked by the service
	raw := strings.TrimSpace(c.FormValue("threshold"))
	if raw == "" {
		return domain.ErrValidationFailed.WithMessage("threshold is required")
	}
	threshold, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return domain.ErrInvalidThreshold.WithError(err)
	}

	// 2. Both images
	reference, err := h.readImage(c, "reference")
	if err != nil {
		return err
	}
	candidate, err := h.readImage(c, "candidate")
	if err != nil {
		return err
	}

	// 3. Verify
	ctx := service.WithRequestMeta(c.UserContext(), service.RequestMeta{
		RequestID: middleware.RequestID(c),
		ClientIP:  c.IP(),
	})

	result, err := h.service.Verify(ctx, reference, candidate, threshold)
	if err != nil {
		return err
	}

	return c.JSON(toVerifyResponse(result))
}

// Get GET /v1/verifications/:id - fetch a persisted verification record
func (h *VerifyHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return domain.ErrBadRequest.WithMessage("Invalid verification id").WithError(err)
	}

	record, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return err
	}

	return c.JSON(toVerifyResponse(record))
}

// Stats GET /v1/verifications/stats?since=24h - decision counts over a trailing window
func (h *VerifyHandler) Stats(c *fiber.Ctx) error {
	window := defaultStatsWindow
	if raw := strings.TrimSpace(c.Query("since")); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			return domain.ErrBadRequest.WithMessage("since must be a positive duration such as 24h")
		}
		window = parsed
	}

	since := h.now().Add(-window).UTC()
	counts, err := h.service.Stats(c.UserContext(), since)
	if err != nil {
		return err
	}

	var total int64
	for _, n := range counts {
		total += n
	}

	return c.JSON(StatsResponse{
		Since:  since.Format(time.RFC3339),
		Counts: counts,
		Total:  total,
	})
}

// readImage reads one multipart file field, enforcing the size limit
func (h *VerifyHandler) readImage(c *fiber.Ctx, field string) ([]byte, error) {
	file, err := c.FormFile(field)
	if err != nil {
		return nil, domain.ErrValidationFailed.WithMessage(field + " image is required").WithError(err)
	}

	if file.Size > h.maxImageSize {
		return nil, domain.ErrPayloadTooLarge.WithMessage(field + " image exceeds the size limit")
	}
	if file.Size == 0 {
		return nil, domain.ErrInvalidImage.WithMessage(field + " image is empty")
	}

	return h.readFile(file)
}

func (h *VerifyHandler) readFile(file *multipart.FileHeader) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}
	defer func() {
		_ = f.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(f, h.maxImageSize+1))
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}
	if int64(len(data)) > h.maxImageSize {
		return nil, domain.ErrPayloadTooLarge
	}

	return data, nil
}

func toVerifyResponse(v *domain.Verification) VerifyResponse {
	resp := VerifyResponse{
		VerificationID: v.ID.String(),
		Decision:       v.Decision,
		Reason:         v.Reason,
		Score:          v.Score,
		Threshold:      v.Threshold,
		ReferenceFaces: v.ReferenceFaces,
		CandidateFaces: v.CandidateFaces,
		LivenessPassed: v.LivenessPassed,
		LatencyMs:      v.LatencyMs,
	}
	if !v.CreatedAt.IsZero() {
		resp.CreatedAt = v.CreatedAt.UTC().Format(time.RFC3339)
	}
	return resp
}
