package ports

import (
	"context"

	"wallet-transaction-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WalletAction is the direction of a balance check or mutation.
type WalletAction string

const (
	WalletActionDebit  WalletAction = "DEBIT"
	WalletActionCredit WalletAction = "CREDIT"
)

// DenyCode is the closed set of precondition-denial outcomes a wallet-service
// call can produce. Raw reason strings from the wire are translated into this
// enum once, at the client boundary, and never pattern-matched deeper in the
// call stack.
type DenyCode string

const (
	DenyNone                DenyCode = ""
	DenyInsufficientBalance DenyCode = "INSUFFICIENT_BALANCE"
	DenyLimitExceeded       DenyCode = "LIMIT_EXCEEDED"
	DenyRoleNotPermitted    DenyCode = "ROLE_NOT_PERMITTED"
	DenyWalletInactive      DenyCode = "WALLET_INACTIVE"
	DenyUnknown             DenyCode = "UNKNOWN"
)

// RoleCheck is the outcome of a wallet role/permission validation.
type RoleCheck struct {
	Allowed       bool
	Reason        DenyCode
	EffectiveRole string
	Extras        map[string]string
}

// BalanceCheck is the outcome of an available-balance validation.
type BalanceCheck struct {
	Allowed bool
	Reason  DenyCode
	Balance decimal.Decimal
}

// OwnershipCheck is the outcome of a wallet ownership validation.
type OwnershipCheck struct {
	IsOwner     bool
	WalletNames map[uuid.UUID]string
}

// BalanceUpdateRequest mutates a wallet balance by a signed delta. The wallet
// service deduplicates on ReferenceID, which makes retried legs safe.
type BalanceUpdateRequest struct {
	WalletID     uuid.UUID
	Delta        decimal.Decimal // negative = debit, positive = credit
	ReferenceID  string
	Reason       string
	ActorUserID  uuid.UUID
	TransferType domain.TransactionType
}

// BalanceUpdate is the wallet service's report of an applied mutation. The
// balances here are ground truth for ledger entries.
type BalanceUpdate struct {
	PreviousBalance decimal.Decimal
	NewBalance      decimal.Decimal
}

// WalletSummary describes a wallet for recipient inquiry.
type WalletSummary struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Name     string
	Currency string
}

// WalletClient consumes the wallet service's balance and role APIs.
type WalletClient interface {
	ValidateRole(ctx context.Context, walletID, userID uuid.UUID, action WalletAction, amount decimal.Decimal, transferType domain.TransactionType) (*RoleCheck, error)
	ValidateBalance(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal, action WalletAction, actorUserID uuid.UUID) (*BalanceCheck, error)
	UpdateBalance(ctx context.Context, req BalanceUpdateRequest) (*BalanceUpdate, error)
	ValidateOwnership(ctx context.Context, userID uuid.UUID, walletIDs []uuid.UUID) (*OwnershipCheck, error)
	FindDefaultWallet(ctx context.Context, userID uuid.UUID) (*WalletSummary, error)
}

// UserProfile is the user service's view of a platform user.
type UserProfile struct {
	ID              uuid.UUID
	Name            string
	PhoneNumber     string
	ProfileImageURL string
}

// UnknownProfile is the placeholder used when the receiver's rich profile is
// temporarily unavailable; the transfer can still proceed to the wallet.
func UnknownProfile(id uuid.UUID) *UserProfile {
	return &UserProfile{ID: id, Name: "Unknown"}
}

// UserClient consumes the user service's profile lookups. The bearer token of
// the calling user is forwarded on every call.
type UserClient interface {
	FindProfileByID(ctx context.Context, userID uuid.UUID, token string) (*UserProfile, error)
	FindProfileByPhone(ctx context.Context, phone string, token string) (*UserProfile, error)
}

// AuthClient consumes the auth service's second-factor verification.
type AuthClient interface {
	VerifyPIN(ctx context.Context, pin string, token string) (bool, error)
}

// PaymentStatus values for split-bill derived events.
type PaymentStatus string

const (
	PaymentStatusCaptured PaymentStatus = "CAPTURED"
	PaymentStatusFailed   PaymentStatus = "FAILED"
)

// PaymentStatusEvent notifies the bill-splitting domain about a linked payment.
type PaymentStatusEvent struct {
	SplitBillID       uuid.UUID
	SplitBillMemberID uuid.UUID
	TransactionRef    string
	Status            PaymentStatus
}

// EventPublisher emits domain events consumed by the notification worker and
// the bill-splitting domain. Publication is best-effort: failures must be
// logged by the caller, never propagated to the transfer outcome.
type EventPublisher interface {
	TransactionCompleted(ctx context.Context, t *domain.Transaction) error
	TransactionFailed(ctx context.Context, t *domain.Transaction) error
	PaymentStatusUpdated(ctx context.Context, ev PaymentStatusEvent) error
}
