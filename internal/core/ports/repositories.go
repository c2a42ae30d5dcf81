package ports

import (
	"context"
	"time"

	"wallet-transaction-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TransactionRepository defines persistence operations for transactions.
// Methods accepting pgx.Tx run inside transaction blocks started by DBTransactor.
type TransactionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	GetByRef(ctx context.Context, ref string) ([]domain.Transaction, error)
	GetByIdempotencyKey(ctx context.Context, scope domain.IdempotencyScope, key string) (*domain.Transaction, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.TransactionStatus, failureReason *string, at time.Time) error
	List(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
}

// TransactionListParams holds filter + pagination for listing transactions.
type TransactionListParams struct {
	UserID   uuid.UUID
	Status   *domain.TransactionStatus
	Type     *domain.TransactionType
	From     *int64 // Unix timestamp
	To       *int64 // Unix timestamp
	Page     int
	PageSize int
}

// LedgerRepository defines persistence for the append-only transaction ledger.
type LedgerRepository interface {
	Create(ctx context.Context, tx pgx.Tx, entry *domain.LedgerEntry) error
	ListByWallet(ctx context.Context, walletID uuid.UUID, page, pageSize int) ([]domain.LedgerEntry, int64, error)
}

// IdempotencyRepository defines durable (scope, key) -> outcome storage.
// Begin reserves the pair atomically; the unique constraint on (scope, key)
// is the collision point for concurrent duplicate submissions.
type IdempotencyRepository interface {
	// Begin inserts an IN_PROGRESS reservation. If the pair already exists,
	// it returns the existing record and created=false.
	Begin(ctx context.Context, rec *domain.IdempotencyRecord) (existing *domain.IdempotencyRecord, created bool, err error)
	Complete(ctx context.Context, scope domain.IdempotencyScope, key string, responseStatus int, responseBody []byte) error
	Fail(ctx context.Context, scope domain.IdempotencyScope, key string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// ContactRepository maintains quick-contact usage counters.
type ContactRepository interface {
	RecordTransfer(ctx context.Context, tx pgx.Tx, contact *domain.Contact) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Contact, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// IdempotencyCache is the Redis-layer fast path for completed idempotency
// outcomes. Best-effort: errors fall through to the durable store.
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // Returns cached response JSON or nil
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
