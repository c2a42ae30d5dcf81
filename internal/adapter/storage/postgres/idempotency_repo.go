package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wallet-transaction-service/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

const idempotencyColumns = `scope, key, request_hash, status, response_status, response_body, created_at, expires_at`

// IdempotencyRepo implements ports.IdempotencyRepository. The primary key on
// (scope, key) is the collision point for concurrent duplicate submissions:
// exactly one caller wins the INSERT, everyone else reads the winner's record.
type IdempotencyRepo struct {
	pool Pool
}

// NewIdempotencyRepo creates a new IdempotencyRepo.
func NewIdempotencyRepo(pool Pool) *IdempotencyRepo {
	return &IdempotencyRepo{pool: pool}
}

// Begin reserves (scope, key) with an IN_PROGRESS record. A FAILED record is
// re-reserved in place only when the retry carries the same request hash, so
// a retry after failure can run again but a different body under the same key
// still reads as a conflict. An expired record is re-reserved unconditionally.
// When the pair is already held, the existing record is returned with
// created=false.
func (r *IdempotencyRepo) Begin(ctx context.Context, rec *domain.IdempotencyRecord) (*domain.IdempotencyRecord, bool, error) {
	query := `INSERT INTO idempotency_keys (` + idempotencyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (scope, key) DO UPDATE
		SET request_hash = EXCLUDED.request_hash, status = EXCLUDED.status,
			response_status = 0, response_body = NULL,
			created_at = EXCLUDED.created_at, expires_at = EXCLUDED.expires_at
		WHERE (idempotency_keys.status = 'FAILED' AND idempotency_keys.request_hash = EXCLUDED.request_hash)
			OR idempotency_keys.expires_at <= EXCLUDED.created_at
		RETURNING ` + idempotencyColumns

	row := r.pool.QueryRow(ctx, query,
		rec.Scope, rec.Key, rec.RequestHash, rec.Status,
		rec.ResponseStatus, rec.ResponseBody, rec.CreatedAt, rec.ExpiresAt,
	)
	got, err := scanIdempotencyRecord(row)
	if err != nil {
		return nil, false, fmt.Errorf("reserve idempotency key: %w", err)
	}
	if got != nil {
		return got, true, nil
	}

	// The insert lost the conflict and the guard refused the update: a live
	// record holds the pair. Read it.
	existing, err := r.get(ctx, rec.Scope, rec.Key)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		// Deleted between the insert and the read; treat as contention.
		return nil, false, fmt.Errorf("idempotency key %s/%s: concurrent delete during reservation", rec.Scope, rec.Key)
	}
	return existing, false, nil
}

// Complete marks the record COMPLETED with the stored response.
func (r *IdempotencyRepo) Complete(ctx context.Context, scope domain.IdempotencyScope, key string, responseStatus int, responseBody []byte) error {
	query := `UPDATE idempotency_keys SET status = $1, response_status = $2, response_body = $3
		WHERE scope = $4 AND key = $5`

	tag, err := r.pool.Exec(ctx, query, domain.IdempotencyCompleted, responseStatus, responseBody, scope, key)
	if err != nil {
		return fmt.Errorf("complete idempotency key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("idempotency key not found: %s/%s", scope, key)
	}
	return nil
}

// Fail marks the record FAILED so a later retry can re-reserve it.
func (r *IdempotencyRepo) Fail(ctx context.Context, scope domain.IdempotencyScope, key string) error {
	query := `UPDATE idempotency_keys SET status = $1 WHERE scope = $2 AND key = $3`

	tag, err := r.pool.Exec(ctx, query, domain.IdempotencyFailed, scope, key)
	if err != nil {
		return fmt.Errorf("fail idempotency key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("idempotency key not found: %s/%s", scope, key)
	}
	return nil
}

// DeleteExpired removes records past their retention window.
func (r *IdempotencyRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired idempotency keys: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *IdempotencyRepo) get(ctx context.Context, scope domain.IdempotencyScope, key string) (*domain.IdempotencyRecord, error) {
	query := `SELECT ` + idempotencyColumns + ` FROM idempotency_keys WHERE scope = $1 AND key = $2`

	rec, err := scanIdempotencyRecord(r.pool.QueryRow(ctx, query, scope, key))
	if err != nil {
		return nil, fmt.Errorf("get idempotency key: %w", err)
	}
	return rec, nil
}

func scanIdempotencyRecord(row pgx.Row) (*domain.IdempotencyRecord, error) {
	rec := &domain.IdempotencyRecord{}
	err := row.Scan(
		&rec.Scope, &rec.Key, &rec.RequestHash, &rec.Status,
		&rec.ResponseStatus, &rec.ResponseBody, &rec.CreatedAt, &rec.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}
