package dto

import (
	"wallet-transaction-service/internal/core/domain"
	"wallet-transaction-service/internal/core/ports"

	"github.com/google/uuid"
)

// TransferRequest is the request body for an external transfer initiation.
// Amount travels as a string so precision survives the wire untouched.
type TransferRequest struct {
	WalletID             uuid.UUID  `json:"wallet_id" binding:"required"`
	CounterpartyUserID   uuid.UUID  `json:"counterparty_user_id" binding:"required"`
	CounterpartyWalletID uuid.UUID  `json:"counterparty_wallet_id" binding:"required"`
	Amount               string     `json:"amount" binding:"required"`
	Currency             string     `json:"currency" binding:"omitempty,len=3"`
	Description          string     `json:"description" binding:"max=255"`
	SplitBillID          *uuid.UUID `json:"split_bill_id,omitempty"`
	SplitBillMemberID    *uuid.UUID `json:"split_bill_member_id,omitempty"`
}

// InternalTransferRequest moves money between two wallets of the caller.
type InternalTransferRequest struct {
	SourceWalletID      uuid.UUID `json:"source_wallet_id" binding:"required"`
	DestinationWalletID uuid.UUID `json:"destination_wallet_id" binding:"required"`
	Amount              string    `json:"amount" binding:"required"`
	Currency            string    `json:"currency" binding:"omitempty,len=3"`
	Description         string    `json:"description" binding:"max=255"`
}

// ConfirmRequest carries the second factor releasing a pending transfer.
type ConfirmRequest struct {
	PIN string `json:"pin" binding:"required,min=4,max=8,numeric"`
}

// TransactionResponse is the caller-facing view of one transaction leg.
type TransactionResponse struct {
	ID                string  `json:"id"`
	TransactionRef    string  `json:"transaction_ref"`
	Type              string  `json:"type"`
	Status            string  `json:"status"`
	Amount            string  `json:"amount"`
	Fee               string  `json:"fee"`
	TotalAmount       string  `json:"total_amount"`
	Currency          string  `json:"currency"`
	CounterpartyName  string  `json:"counterparty_name"`
	CounterpartyPhone string  `json:"counterparty_phone"`
	Description       string  `json:"description,omitempty"`
	FailureReason     *string `json:"failure_reason,omitempty"`
	CreatedAt         string  `json:"created_at"`
	CompletedAt       *string `json:"completed_at,omitempty"`
	FailedAt          *string `json:"failed_at,omitempty"`
}

// RecipientResponse is the inquiry result.
type RecipientResponse struct {
	UserID          string `json:"user_id"`
	Name            string `json:"name"`
	PhoneNumber     string `json:"phone_number"`
	ProfileImageURL string `json:"profile_image_url,omitempty"`
	WalletID        string `json:"wallet_id"`
	WalletName      string `json:"wallet_name"`
	Currency        string `json:"currency"`
}

// LedgerEntryResponse is the caller-facing view of one ledger entry.
type LedgerEntryResponse struct {
	ID             string `json:"id"`
	TransactionRef string `json:"transaction_ref"`
	EntryType      string `json:"entry_type"`
	Amount         string `json:"amount"`
	BalanceBefore  string `json:"balance_before"`
	BalanceAfter   string `json:"balance_after"`
	Description    string `json:"description"`
	CreatedAt      string `json:"created_at"`
}

// ContactResponse is one quick-contact row.
type ContactResponse struct {
	ContactUserID  string `json:"contact_user_id"`
	WalletID       string `json:"wallet_id"`
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	TransferCount  int64  `json:"transfer_count"`
	LastTransferAt string `json:"last_transfer_at"`
}

// PageResponse wraps a paginated list.
type PageResponse[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// NewPageResponse computes total pages for a result page.
func NewPageResponse[T any](items []T, total int64, page, pageSize int) PageResponse[T] {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return PageResponse[T]{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}

const timeFormat = "2006-01-02T15:04:05Z07:00"

// FromTransaction converts a domain transaction to its DTO.
func FromTransaction(t *domain.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:                t.ID.String(),
		TransactionRef:    t.TransactionRef,
		Type:              string(t.Type),
		Status:            string(t.Status),
		Amount:            t.Amount.String(),
		Fee:               t.Fee.String(),
		TotalAmount:       t.TotalAmount.String(),
		Currency:          t.Currency,
		CounterpartyName:  t.CounterpartyName,
		CounterpartyPhone: t.CounterpartyPhone,
		Description:       t.Metadata["description"],
		FailureReason:     t.FailureReason,
		CreatedAt:         t.CreatedAt.Format(timeFormat),
	}
	if t.CompletedAt != nil {
		s := t.CompletedAt.Format(timeFormat)
		resp.CompletedAt = &s
	}
	if t.FailedAt != nil {
		s := t.FailedAt.Format(timeFormat)
		resp.FailedAt = &s
	}
	return resp
}

// FromRecipient converts an inquiry result to its DTO.
func FromRecipient(r *ports.RecipientInfo) RecipientResponse {
	return RecipientResponse{
		UserID:          r.Profile.ID.String(),
		Name:            r.Profile.Name,
		PhoneNumber:     r.Profile.PhoneNumber,
		ProfileImageURL: r.Profile.ProfileImageURL,
		WalletID:        r.Wallet.ID.String(),
		WalletName:      r.Wallet.Name,
		Currency:        r.Wallet.Currency,
	}
}

// FromLedgerEntry converts a domain ledger entry to its DTO.
func FromLedgerEntry(e *domain.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:             e.ID.String(),
		TransactionRef: e.TransactionRef,
		EntryType:      string(e.EntryType),
		Amount:         e.Amount.String(),
		BalanceBefore:  e.BalanceBefore.String(),
		BalanceAfter:   e.BalanceAfter.String(),
		Description:    e.Description,
		CreatedAt:      e.CreatedAt.Format(timeFormat),
	}
}

// FromContact converts a domain contact to its DTO.
func FromContact(c *domain.Contact) ContactResponse {
	return ContactResponse{
		ContactUserID:  c.ContactUserID.String(),
		WalletID:       c.WalletID.String(),
		Name:           c.Name,
		Phone:          c.Phone,
		TransferCount:  c.TransferCount,
		LastTransferAt: c.LastTransferAt.Format(timeFormat),
	}
}
