package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"wallet-transaction-service/internal/core/domain"
	"wallet-transaction-service/internal/core/ports"
	"wallet-transaction-service/pkg/apperror"

	"github.com/rs/zerolog"
)

// cachedOutcome is the redis fast-path envelope. It carries the request hash
// so a replay with a different body still surfaces as a conflict.
type cachedOutcome struct {
	RequestHash string          `json:"request_hash"`
	Status      int             `json:"status"`
	Body        json.RawMessage `json:"body"`
}

// IdempotencyStoreImpl implements ports.IdempotencyStore with a durable
// postgres record fronted by a best-effort redis cache.
type IdempotencyStoreImpl struct {
	repo      ports.IdempotencyRepository
	cache     ports.IdempotencyCache
	retention time.Duration
	log       zerolog.Logger
}

// NewIdempotencyStore creates a new IdempotencyStoreImpl.
func NewIdempotencyStore(
	repo ports.IdempotencyRepository,
	cache ports.IdempotencyCache,
	retention time.Duration,
	log zerolog.Logger,
) *IdempotencyStoreImpl {
	return &IdempotencyStoreImpl{
		repo:      repo,
		cache:     cache,
		retention: retention,
		log:       log,
	}
}

// Begin reserves (scope, key) for execution. Outcomes:
//   - fresh reservation: (nil, nil), caller proceeds with side effects;
//   - completed record, same hash: the stored response is replayed;
//   - any record, different hash: conflict;
//   - in-progress record, same hash: "already processing" error.
//
// A FAILED record is re-reserved only when the retry carries the same body;
// a different body under the same key is a conflict. An expired record is
// re-reserved unconditionally.
func (s *IdempotencyStoreImpl) Begin(ctx context.Context, scope domain.IdempotencyScope, key, requestHash string) (*ports.StoredResponse, error) {
	cacheKey := domain.BuildIdempotencyCacheKey(scope, key)

	// Layer 1: redis fast path for completed outcomes.
	cached, err := s.cache.Get(ctx, cacheKey)
	if err != nil {
		s.log.Warn().Err(err).Str("key", cacheKey).Msg("redis idempotency check failed, falling through to DB")
	}
	if cached != nil {
		var out cachedOutcome
		if err := json.Unmarshal(cached, &out); err == nil {
			if out.RequestHash != requestHash {
				return nil, apperror.ErrIdempotencyConflict()
			}
			return &ports.StoredResponse{Status: out.Status, Body: out.Body}, nil
		}
		s.log.Warn().Str("key", cacheKey).Msg("corrupt idempotency cache entry, falling through to DB")
	}

	// Layer 2: durable reservation. The unique (scope, key) constraint is the
	// collision point for concurrent duplicate submissions.
	now := time.Now().UTC()
	rec := &domain.IdempotencyRecord{
		Scope:       scope,
		Key:         key,
		RequestHash: requestHash,
		Status:      domain.IdempotencyInProgress,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.retention),
	}
	existing, created, err := s.repo.Begin(ctx, rec)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("idempotency begin: %w", err))
	}
	if created {
		return nil, nil
	}

	if existing.RequestHash != requestHash {
		return nil, apperror.ErrIdempotencyConflict()
	}
	if existing.Status == domain.IdempotencyCompleted {
		return &ports.StoredResponse{Status: existing.ResponseStatus, Body: existing.ResponseBody}, nil
	}
	return nil, apperror.ErrRequestInProgress()
}

// Complete closes out the record with the response to replay on retries.
func (s *IdempotencyStoreImpl) Complete(ctx context.Context, scope domain.IdempotencyScope, key, requestHash string, responseStatus int, responseBody []byte) error {
	if err := s.repo.Complete(ctx, scope, key, responseStatus, responseBody); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("idempotency complete: %w", err))
	}

	// Post-process: cache in redis (best-effort).
	out, err := json.Marshal(cachedOutcome{RequestHash: requestHash, Status: responseStatus, Body: responseBody})
	if err == nil {
		cacheKey := domain.BuildIdempotencyCacheKey(scope, key)
		if err := s.cache.Set(ctx, cacheKey, out, s.retention); err != nil {
			s.log.Warn().Err(err).Str("key", cacheKey).Msg("failed to cache idempotency outcome in redis")
		}
	}
	return nil
}

// Fail marks the record FAILED so the caller may retry with the same key.
func (s *IdempotencyStoreImpl) Fail(ctx context.Context, scope domain.IdempotencyScope, key string) error {
	if err := s.repo.Fail(ctx, scope, key); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("idempotency fail: %w", err))
	}
	return nil
}
