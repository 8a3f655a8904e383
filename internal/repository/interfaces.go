package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
)

// PgxPool is the subset of *pgxpool.Pool the repositories use.
// pgxmock.PgxPoolIface satisfies it in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// VerificationRepositoryInterface defines operations for the verification audit trail
type VerificationRepositoryInterface interface {
	Create(ctx context.Context, v *domain.Verification) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Verification, error)
	CountByDecision(ctx context.Context, since time.Time) (map[string]int64, error)
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}
