package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
)

type VerificationRepository struct {
	pool PgxPool
}

func NewVerificationRepository(pool PgxPool) *VerificationRepository {
	return &VerificationRepository{pool: pool}
}

var _ VerificationRepositoryInterface = (*VerificationRepository)(nil)

func (r *VerificationRepository) Create(ctx context.Context, v *domain.Verification) error {
	query := `
		INSERT INTO verifications (id, decision, reason, score, threshold, reference_faces, candidate_faces, liveness_passed, latency_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING created_at
	`

	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}

	err := r.pool.QueryRow(ctx, query,
		v.ID,
		v.Decision,
		v.Reason,
		v.Score,
		v.Threshold,
		v.ReferenceFaces,
		v.CandidateFaces,
		v.LivenessPassed,
		v.LatencyMs,
	).Scan(&v.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrVerificationExists.WithError(err)
		}
		return fmt.Errorf("create verification: %w", err)
	}

	return nil
}

func (r *VerificationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Verification, error) {
	query := `
		SELECT id, decision, reason, score, threshold, reference_faces, candidate_faces, liveness_passed, latency_ms, created_at
		FROM verifications
		WHERE id = $1
	`

	var v domain.Verification
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&v.ID,
		&v.Decision,
		&v.Reason,
		&v.Score,
		&v.Threshold,
		&v.ReferenceFaces,
		&v.CandidateFaces,
		&v.LivenessPassed,
		&v.LatencyMs,
		&v.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrVerificationNotFound
		}
		return nil, fmt.Errorf("get verification: %w", err)
	}

	return &v, nil
}

// CountByDecision returns how many verifications ended in each decision since the given time
func (r *VerificationRepository) CountByDecision(ctx context.Context, since time.Time) (map[string]int64, error) {
	query := `
		SELECT decision, COUNT(*)
		FROM verifications
		WHERE created_at >= $1
		GROUP BY decision
	`

	rows, err := r.pool.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("count verifications: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var decision string
		var count int64
		if err := rows.Scan(&decision, &count); err != nil {
			return nil, fmt.Errorf("scan verification count: %w", err)
		}
		counts[decision] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verification counts: %w", err)
	}

	return counts, nil
}

// DeleteOlderThan removes audit records created before the cutoff
func (r *VerificationRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM verifications WHERE created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("delete old verifications: %w", err)
	}
	return result.RowsAffected(), nil
}
