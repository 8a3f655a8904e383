package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/facematch/internal/audit"
	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
	"github.com/saturnino-fabrica-de-software/facematch/internal/provider"
	"github.com/saturnino-fabrica-de-software/facematch/internal/verification"
)

const persistTimeout = 3 * time.Second

// Verifier is implemented by *verification.Engine
type Verifier interface {
	Verify(ctx context.Context, reference, candidate provider.Image, threshold float64) (*verification.Result, error)
}

type VerificationRepositoryInterface interface {
	Create(ctx context.Context, v *domain.Verification) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Verification, error)
	CountByDecision(ctx context.Context, since time.Time) (map[string]int64, error)
}

// MetricsRecorder is implemented by *metrics.Manager
type MetricsRecorder interface {
	RecordVerification(decision, reason string, score *float64, duration time.Duration)
	RecordRejected(code string)
	RecordExtractorError(kind string)
	RecordPersistError()
}

// RequestMeta identifies the caller of a verification for the audit trail
type RequestMeta struct {
	RequestID string
	ClientIP  string
}

type requestMetaKey struct{}

// WithRequestMeta attaches caller details to ctx
func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

func requestMetaFrom(ctx context.Context) RequestMeta {
	meta, _ := ctx.Value(requestMetaKey{}).(RequestMeta)
	return meta
}

type VerificationService struct {
	engine       Verifier
	repo         VerificationRepositoryInterface
	auditor      audit.Logger
	metrics      MetricsRecorder
	providerName string
	logger       *slog.Logger
	now          func() time.Time
}

func NewVerificationService(engine Verifier, auditor audit.Logger, logger *slog.Logger) *VerificationService {
	if auditor == nil {
		auditor = &audit.NoOpLogger{}
	}
	return &VerificationService{
		engine:  engine,
		auditor: auditor,
		metrics: noopMetrics{},
		logger:  logger.With("component", "verification_service"),
		now:     time.Now,
	}
}

// WithRepository enables the persisted audit trail
func (s *VerificationService) WithRepository(repo VerificationRepositoryInterface) *VerificationService {
	s.repo = repo
	return s
}

func (s *VerificationService) WithMetrics(m MetricsRecorder) *VerificationService {
	if m != nil {
		s.metrics = m
	}
	return s
}

// WithProviderName labels audit events with the extractor in use
func (s *VerificationService) WithProviderName(name string) *VerificationService {
	s.providerName = name
	return s
}

// Verify decodes both images, runs the engine and records the outcome.
// NoMatch and Inconclusive are returned as records, never as errors.
func (s *VerificationService) Verify(ctx context.Context, referenceBytes, candidateBytes []byte, threshold float64) (*domain.Verification, error) {
	id := uuid.New()
	start := s.now()

	if err := verification.ValidateThreshold(threshold); err != nil {
		return nil, s.reject(ctx, id, domain.ErrInvalidThreshold.WithError(err))
	}

	reference, err := provider.NewImage(referenceBytes)
	if err != nil {
		return nil, s.reject(ctx, id, domain.ErrInvalidImage.WithMessage("Reference image is not a supported image").WithError(err))
	}

	candidate, err := provider.NewImage(candidateBytes)
	if err != nil {
		return nil, s.reject(ctx, id, domain.ErrInvalidImage.WithMessage("Candidate image is not a supported image").WithError(err))
	}

	result, err := s.engine.Verify(ctx, reference, candidate, threshold)
	if err != nil {
		return nil, s.fail(ctx, id, err)
	}

	latency := s.now().Sub(start)
	record := toRecord(id, result, latency)

	s.metrics.RecordVerification(record.Decision, record.Reason, record.Score, latency)

	event := s.newEvent(ctx, id, audit.EventVerificationCompleted)
	event.Success = true
	event.Decision = record.Decision
	event.Reason = record.Reason
	event.Metadata = map[string]string{
		"threshold":       strconv.FormatFloat(threshold, 'f', -1, 64),
		"reference_faces": strconv.Itoa(record.ReferenceFaces),
		"candidate_faces": strconv.Itoa(record.CandidateFaces),
		"latency_ms":      strconv.FormatInt(record.LatencyMs, 10),
	}
	if record.Score != nil {
		event.Metadata["score"] = strconv.FormatFloat(*record.Score, 'f', 4, 64)
	}
	s.audit(ctx, event)

	s.persist(ctx, record)

	return record, nil
}

// Get returns a persisted verification record
func (s *VerificationService) Get(ctx context.Context, id uuid.UUID) (*domain.Verification, error) {
	if s.repo == nil {
		return nil, domain.ErrNotFound.WithMessage("Verification history is disabled")
	}
	return s.repo.GetByID(ctx, id)
}

// Stats counts persisted verifications per decision since the given time
func (s *VerificationService) Stats(ctx context.Context, since time.Time) (map[string]int64, error) {
	if s.repo == nil {
		return nil, domain.ErrNotFound.WithMessage("Verification history is disabled")
	}
	counts, err := s.repo.CountByDecision(ctx, since)
	if err != nil {
		return nil, domain.ErrInternal.WithError(err)
	}
	return counts, nil
}

func (s *VerificationService) reject(ctx context.Context, id uuid.UUID, appErr *domain.AppError) error {
	s.metrics.RecordRejected(appErr.Code)

	event := s.newEvent(ctx, id, audit.EventVerificationRejected)
	event.Error = appErr.Error()
	s.audit(ctx, event)

	return appErr
}

func (s *VerificationService) fail(ctx context.Context, id uuid.UUID, err error) error {
	var appErr *domain.AppError
	switch {
	case errors.Is(err, verification.ErrInvalidThreshold):
		return s.reject(ctx, id, domain.ErrInvalidThreshold.WithError(err))
	case errors.Is(err, provider.ErrExtractorUnavailable):
		s.metrics.RecordExtractorError("unavailable")
		appErr = domain.ErrExtractorUnavailable.WithError(err)
	case errors.Is(err, provider.ErrExtractorError):
		s.metrics.RecordExtractorError("error")
		appErr = domain.ErrExtractorFailure.WithError(err)
	default:
		appErr = domain.ErrInternal.WithError(err)
	}

	s.logger.ErrorContext(ctx, "verification failed",
		slog.String("verification_id", id.String()),
		slog.String("code", appErr.Code),
		slog.Any("error", err),
	)

	event := s.newEvent(ctx, id, audit.EventVerificationFailed)
	event.Error = err.Error()
	s.audit(ctx, event)

	return appErr
}

// persist writes the record without failing the request; a verification that was
// decided is still returned to the caller when the audit database is down
func (s *VerificationService) persist(ctx context.Context, record *domain.Verification) {
	if s.repo == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	if err := s.repo.Create(ctx, record); err != nil {
		s.metrics.RecordPersistError()
		s.logger.WarnContext(ctx, "failed to persist verification",
			slog.String("verification_id", record.ID.String()),
			slog.Any("error", err),
		)
	}
}

func (s *VerificationService) audit(ctx context.Context, event audit.Event) {
	if err := s.auditor.Log(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to write audit event", slog.Any("error", err))
	}
}

func (s *VerificationService) newEvent(ctx context.Context, id uuid.UUID, eventType audit.EventType) audit.Event {
	meta := requestMetaFrom(ctx)
	return audit.Event{
		VerificationID: id,
		EventType:      eventType,
		Provider:       s.providerName,
		RequestID:      meta.RequestID,
		IPAddress:      meta.ClientIP,
	}
}

func toRecord(id uuid.UUID, result *verification.Result, latency time.Duration) *domain.Verification {
	record := &domain.Verification{
		ID:             id,
		Decision:       string(result.Decision),
		Reason:         string(result.Reason),
		Threshold:      result.Threshold,
		ReferenceFaces: result.Reference.FacesDetected,
		CandidateFaces: result.Candidate.FacesDetected,
		LatencyMs:      latency.Milliseconds(),
	}

	if result.Score != nil {
		score := float64(*result.Score)
		record.Score = &score
	}
	if result.Liveness != nil {
		live := result.Liveness.IsLive
		record.LivenessPassed = &live
	}

	return record
}

type noopMetrics struct{}

func (noopMetrics) RecordVerification(string, string, *float64, time.Duration) {}
func (noopMetrics) RecordRejected(string)                                      {}
func (noopMetrics) RecordExtractorError(string)                                {}
func (noopMetrics) RecordPersistError()                                        {}
