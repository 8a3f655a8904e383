// Package verification decides whether two photographs show the same person.
package verification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/saturnino-fabrica-de-software/facematch/internal/embedding"
	"github.com/saturnino-fabrica-de-software/facematch/internal/provider"
	"github.com/saturnino-fabrica-de-software/facematch/internal/similarity"
)

// Engine orchestrates extraction, scoring and classification for one request at a time.
// It holds no per-request state and is safe for concurrent use.
type Engine struct {
	extractor         provider.Extractor
	scorer            similarity.Scorer
	liveness          provider.LivenessChecker
	livenessThreshold float64
	extractionTimeout time.Duration
	logger            *slog.Logger
}

// Option defines optional configuration for Engine
type Option func(*Engine)

// WithScorer replaces the default cosine scorer
func WithScorer(scorer similarity.Scorer) Option {
	return func(e *Engine) {
		e.scorer = scorer
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithExtractionTimeout bounds each extraction call. A timeout surfaces as
// provider.ErrExtractorUnavailable for that image.
func WithExtractionTimeout(timeout time.Duration) Option {
	return func(e *Engine) {
		e.extractionTimeout = timeout
	}
}

// WithLivenessChecker enables a passive liveness check on the candidate image
func WithLivenessChecker(checker provider.LivenessChecker, threshold float64) Option {
	return func(e *Engine) {
		e.liveness = checker
		e.livenessThreshold = threshold
	}
}

// NewEngine creates an Engine around a shared extractor
func NewEngine(extractor provider.Extractor, opts ...Option) *Engine {
	e := &Engine{
		extractor: extractor,
		scorer:    similarity.CosineScorer{},
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(e)
	}

	e.logger = e.logger.With("component", "verification")
	return e
}

// Verify compares the reference and candidate images.
//
// NoMatch and Inconclusive are results, not errors. An error is returned only for an
// invalid threshold or when the extractor (or liveness checker) fails; those errors wrap
// provider.ErrExtractorUnavailable or provider.ErrExtractorError.
func (e *Engine) Verify(ctx context.Context, reference, candidate provider.Image, threshold float64) (*Result, error) {
	if err := ValidateThreshold(threshold); err != nil {
		return nil, err
	}

	var (
		refDetection  *provider.Detection
		candDetection *provider.Detection
		liveness      *provider.LivenessResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, err := e.extract(gctx, "reference", reference)
		refDetection = d
		return err
	})
	g.Go(func() error {
		d, err := e.extract(gctx, "candidate", candidate)
		candDetection = d
		return err
	})
	if e.liveness != nil {
		g.Go(func() error {
			l, err := e.checkLiveness(gctx, candidate)
			liveness = l
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	result, refVec, candVec := e.resolve(refDetection, candDetection, threshold)
	result.Liveness = liveness
	if result.Decision == DecisionInconclusive {
		return result, nil
	}

	if liveness != nil && !liveness.IsLive {
		e.logger.InfoContext(ctx, "candidate failed liveness check",
			slog.Float64("confidence", liveness.Confidence),
			slog.Any("reasons", liveness.Reasons),
		)
		return result.inconclusive(ReasonLivenessFailed), nil
	}

	score, err := e.scorer.Score(refVec, candVec)
	if err != nil {
		if errors.Is(err, similarity.ErrDegenerateVector) {
			e.logger.WarnContext(ctx, "extractor returned a zero-norm embedding",
				slog.Int("dimension", refVec.Dim()),
				slog.Bool("reference_zero", refVec.IsZero()),
				slog.Bool("candidate_zero", candVec.IsZero()),
			)
		} else {
			e.logger.WarnContext(ctx, "scoring failed", slog.Any("error", err))
		}
		return result.inconclusive(ReasonScoringFailed), nil
	}

	result.Score = &score
	if float64(score) >= threshold {
		result.Decision = DecisionMatch
		result.Reason = ReasonScoreAboveThreshold
	} else {
		result.Decision = DecisionNoMatch
		result.Reason = ReasonScoreBelowThreshold
	}

	e.logger.DebugContext(ctx, "verification decided",
		slog.String("decision", string(result.Decision)),
		slog.Float64("score", float64(score)),
		slog.Float64("threshold", threshold),
	)

	return result, nil
}

// resolve applies the face selection policy and builds the two embeddings.
// The returned result is Inconclusive when no pair of vectors could be built.
func (e *Engine) resolve(ref, cand *provider.Detection, threshold float64) (*Result, embedding.Vector, embedding.Vector) {
	result := &Result{
		Threshold: threshold,
		Reference: ImageReport{FacesDetected: len(ref.Faces)},
		Candidate: ImageReport{FacesDetected: len(cand.Faces)},
	}

	refFace, refOK := e.selectFace("reference", ref)
	candFace, candOK := e.selectFace("candidate", cand)
	if !refOK || !candOK {
		return result.inconclusive(ReasonNoFaceDetected), embedding.Vector{}, embedding.Vector{}
	}
	result.Reference.SelectedConfidence = refFace.Confidence
	result.Candidate.SelectedConfidence = candFace.Confidence

	dim := e.extractor.Dimension()

	refVec, err := embedding.New(refFace.Embedding, dim)
	if err != nil {
		e.logger.Warn("invalid reference embedding", slog.Any("error", err))
		return result.inconclusive(ReasonInvalidEmbedding), embedding.Vector{}, embedding.Vector{}
	}

	candVec, err := embedding.New(candFace.Embedding, dim)
	if err != nil {
		e.logger.Warn("invalid candidate embedding", slog.Any("error", err))
		return result.inconclusive(ReasonInvalidEmbedding), embedding.Vector{}, embedding.Vector{}
	}

	return result, refVec, candVec
}

// selectFace returns the highest-confidence face. Identity documents often
// carry incidental background faces, so multiple faces are not an error.
func (e *Engine) selectFace(role string, detection *provider.Detection) (provider.Face, bool) {
	face, index, ok := detection.Best()
	if !ok {
		return provider.Face{}, false
	}

	if detection.Kind() == provider.MultipleFaces {
		e.logger.Debug("multiple faces detected, using highest confidence",
			slog.String("image", role),
			slog.Int("faces", len(detection.Faces)),
			slog.Int("selected_index", index),
			slog.Float64("selected_confidence", face.Confidence),
		)
	}

	return face, true
}

func (e *Engine) extract(ctx context.Context, role string, image provider.Image) (*provider.Detection, error) {
	if e.extractionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.extractionTimeout)
		defer cancel()
	}

	detection, err := e.extractor.Extract(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("%s image: %w", role, classifyExtractorError(ctx, err))
	}
	if detection == nil {
		detection = &provider.Detection{}
	}
	return detection, nil
}

func (e *Engine) checkLiveness(ctx context.Context, image provider.Image) (*provider.LivenessResult, error) {
	if e.extractionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.extractionTimeout)
		defer cancel()
	}

	result, err := e.liveness.CheckLiveness(ctx, image, e.livenessThreshold)
	if err != nil {
		return nil, fmt.Errorf("candidate liveness: %w", classifyExtractorError(ctx, err))
	}
	return result, nil
}

// classifyExtractorError guarantees the returned error carries one of the two extractor kinds
func classifyExtractorError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, provider.ErrExtractorUnavailable),
		errors.Is(err, provider.ErrExtractorError):
		return err
	case ctx.Err() != nil:
		return fmt.Errorf("%w: %w", provider.ErrExtractorUnavailable, err)
	default:
		return fmt.Errorf("%w: %w", provider.ErrExtractorError, err)
	}
}
