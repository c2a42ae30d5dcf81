package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType represents the kind of money movement.
type TransactionType string

const (
	TransactionTypeTransferOut         TransactionType = "TRANSFER_OUT"
	TransactionTypeTransferIn          TransactionType = "TRANSFER_IN"
	TransactionTypeInternalTransferOut TransactionType = "INTERNAL_TRANSFER_OUT"
	TransactionTypeInternalTransferIn  TransactionType = "INTERNAL_TRANSFER_IN"
	TransactionTypeTopup               TransactionType = "TOP_UP"
)

// IsInternal reports whether the type moves money between wallets of one user.
func (t TransactionType) IsInternal() bool {
	return t == TransactionTypeInternalTransferOut || t == TransactionTypeInternalTransferIn
}

// MirrorType returns the receiver-leg type for a sender-leg type.
func (t TransactionType) MirrorType() TransactionType {
	switch t {
	case TransactionTypeTransferOut:
		return TransactionTypeTransferIn
	case TransactionTypeInternalTransferOut:
		return TransactionTypeInternalTransferIn
	default:
		return t
	}
}

// TransactionStatus represents the lifecycle state of a transaction.
// Transitions are monotonic: PENDING -> PROCESSING -> SUCCESS | FAILED.
type TransactionStatus string

const (
	TransactionStatusPending    TransactionStatus = "PENDING"
	TransactionStatusProcessing TransactionStatus = "PROCESSING"
	TransactionStatusSuccess    TransactionStatus = "SUCCESS"
	TransactionStatusFailed     TransactionStatus = "FAILED"
)

// ErrStatusConflict reports that a guarded status write found the row in a
// state other than the expected one, usually because a concurrent confirm
// already moved it.
var ErrStatusConflict = errors.New("transaction status changed concurrently")

// Transaction is one leg of a transfer: the permanent financial record of a
// single user's side of a money movement. It carries denormalized
// counterparty display fields so history stays readable even when the user
// service is unreachable.
type Transaction struct {
	ID                   uuid.UUID         `json:"id"`
	TransactionRef       string            `json:"transaction_ref"`
	IdempotencyKey       string            `json:"idempotency_key"`
	Type                 TransactionType   `json:"type"`
	Status               TransactionStatus `json:"status"`
	Amount               decimal.Decimal   `json:"amount"`
	Fee                  decimal.Decimal   `json:"fee"`
	TotalAmount          decimal.Decimal   `json:"total_amount"`
	Currency             string            `json:"currency"`
	UserID               uuid.UUID         `json:"user_id"`
	WalletID             uuid.UUID         `json:"wallet_id"`
	CounterpartyUserID   uuid.UUID         `json:"counterparty_user_id"`
	CounterpartyWalletID uuid.UUID         `json:"counterparty_wallet_id"`
	CounterpartyName     string            `json:"counterparty_name"`
	CounterpartyPhone    string            `json:"counterparty_phone"`
	SplitBillID          *uuid.UUID        `json:"split_bill_id,omitempty"`
	SplitBillMemberID    *uuid.UUID        `json:"split_bill_member_id,omitempty"`
	FailureReason        *string           `json:"failure_reason,omitempty"`
	Metadata             map[string]string `json:"metadata,omitempty"`
	CreatedAt            time.Time         `json:"created_at"`
	CompletedAt          *time.Time        `json:"completed_at,omitempty"`
	FailedAt             *time.Time        `json:"failed_at,omitempty"`
}

// IsTerminal returns true if the transaction is in a final state.
func (t *Transaction) IsTerminal() bool {
	return t.Status == TransactionStatusSuccess || t.Status == TransactionStatusFailed
}

// MarkProcessing moves PENDING -> PROCESSING.
func (t *Transaction) MarkProcessing() error {
	if t.Status != TransactionStatusPending {
		return fmt.Errorf("illegal transition %s -> PROCESSING", t.Status)
	}
	t.Status = TransactionStatusProcessing
	return nil
}

// MarkSuccess moves PROCESSING -> SUCCESS and stamps completion time.
func (t *Transaction) MarkSuccess(at time.Time) error {
	if t.Status != TransactionStatusProcessing {
		return fmt.Errorf("illegal transition %s -> SUCCESS", t.Status)
	}
	t.Status = TransactionStatusSuccess
	t.CompletedAt = &at
	return nil
}

// MarkFailed moves PENDING or PROCESSING -> FAILED with a reason.
func (t *Transaction) MarkFailed(at time.Time, reason string) error {
	if t.IsTerminal() {
		return fmt.Errorf("illegal transition %s -> FAILED", t.Status)
	}
	t.Status = TransactionStatusFailed
	t.FailedAt = &at
	t.FailureReason = &reason
	return nil
}

// MirrorForReceiver builds the receiver-leg row of a successful transfer.
// The two rows share one TransactionRef; roles are swapped and the receiver
// leg carries no fee (the sender pays it).
func (t *Transaction) MirrorForReceiver(senderName, senderPhone string, at time.Time) *Transaction {
	return &Transaction{
		ID:                   uuid.New(),
		TransactionRef:       t.TransactionRef,
		IdempotencyKey:       t.IdempotencyKey + "-receiver",
		Type:                 t.Type.MirrorType(),
		Status:               TransactionStatusSuccess,
		Amount:               t.Amount,
		Fee:                  decimal.Zero,
		TotalAmount:          t.Amount,
		Currency:             t.Currency,
		UserID:               t.CounterpartyUserID,
		WalletID:             t.CounterpartyWalletID,
		CounterpartyUserID:   t.UserID,
		CounterpartyWalletID: t.WalletID,
		CounterpartyName:     senderName,
		CounterpartyPhone:    senderPhone,
		SplitBillID:          t.SplitBillID,
		SplitBillMemberID:    t.SplitBillMemberID,
		CreatedAt:            at,
		CompletedAt:          &at,
	}
}

// NewTransactionRef generates a human-facing, collision-resistant reference.
// Global uniqueness is enforced by the storage layer's unique constraint.
func NewTransactionRef(now time.Time) string {
	frag := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:10]
	return fmt.Sprintf("TRF-%d-%s", now.UnixMilli(), frag)
}
