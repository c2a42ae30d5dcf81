package ports

import (
	"context"

	"wallet-transaction-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- Service Ports (Business Logic) ---

// TransferService is the caller-facing surface of the money-movement core.
// All mutating operations require a caller-supplied idempotency key.
type TransferService interface {
	InquireRecipient(ctx context.Context, req InquireRequest) (*RecipientInfo, error)
	InitiateTransfer(ctx context.Context, req InitiateTransferRequest) (*domain.Transaction, error)
	ConfirmTransfer(ctx context.Context, req ConfirmTransferRequest) (*domain.Transaction, error)
	InitiateInternalTransfer(ctx context.Context, req InitiateInternalTransferRequest) (*domain.Transaction, error)
}

// InquireRequest resolves a phone number to a recipient before a transfer.
type InquireRequest struct {
	Phone string
	Token string
}

// RecipientInfo is the inquiry result: profile plus default wallet.
type RecipientInfo struct {
	Profile UserProfile   `json:"profile"`
	Wallet  WalletSummary `json:"wallet"`
}

// InitiateTransferRequest holds validated input for an external transfer.
type InitiateTransferRequest struct {
	IdempotencyKey       string
	RequestHash          string
	UserID               uuid.UUID
	WalletID             uuid.UUID
	CounterpartyUserID   uuid.UUID
	CounterpartyWalletID uuid.UUID
	Amount               decimal.Decimal
	Currency             string
	Description          string
	SplitBillID          *uuid.UUID
	SplitBillMemberID    *uuid.UUID
	Token                string
}

// ConfirmTransferRequest carries the second factor that releases the saga.
type ConfirmTransferRequest struct {
	TransactionID uuid.UUID
	UserID        uuid.UUID
	PIN           string
	Token         string
}

// InitiateInternalTransferRequest moves money between two wallets of one user.
type InitiateInternalTransferRequest struct {
	IdempotencyKey      string
	RequestHash         string
	UserID              uuid.UUID
	SourceWalletID      uuid.UUID
	DestinationWalletID uuid.UUID
	Amount              decimal.Decimal
	Currency            string
	Description         string
	Token               string
}

// IdempotencyStore is the reusable request-dedup primitive for mutating,
// client-retryable operations.
type IdempotencyStore interface {
	// Begin reserves (scope, key). It returns (nil, nil) when the caller owns
	// a fresh reservation, (stored, nil) when a completed outcome should be
	// replayed, and an error on hash conflict or concurrent execution.
	Begin(ctx context.Context, scope domain.IdempotencyScope, key, requestHash string) (*StoredResponse, error)
	Complete(ctx context.Context, scope domain.IdempotencyScope, key, requestHash string, responseStatus int, responseBody []byte) error
	Fail(ctx context.Context, scope domain.IdempotencyScope, key string) error
}

// StoredResponse is a replayed idempotent outcome.
type StoredResponse struct {
	Status int
	Body   []byte
}

// HistoryService exposes the permanent transaction record for reads.
type HistoryService interface {
	ListTransactions(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
	GetTransaction(ctx context.Context, userID, id uuid.UUID) (*domain.Transaction, error)
	ListLedger(ctx context.Context, walletID uuid.UUID, page, pageSize int) ([]domain.LedgerEntry, int64, error)
	ListContacts(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Contact, error)
}

// TokenService extracts claims from the gateway-forwarded bearer token.
type TokenService interface {
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	UserID uuid.UUID
}
