package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerEntryType distinguishes the direction of a balance mutation.
type LedgerEntryType string

const (
	LedgerEntryDebit  LedgerEntryType = "DEBIT"
	LedgerEntryCredit LedgerEntryType = "CREDIT"
)

// LedgerEntry is the immutable record of one balance mutation. Before/after
// balances are the ones reported by the wallet service's balance call, never
// recomputed locally. Reversal is a new entry, never an edit.
type LedgerEntry struct {
	ID                uuid.UUID       `json:"id"`
	TransactionID     uuid.UUID       `json:"transaction_id"`
	TransactionRef    string          `json:"transaction_ref"`
	WalletID          uuid.UUID       `json:"wallet_id"`
	UserID            uuid.UUID       `json:"user_id"`
	PerformedByUserID *uuid.UUID      `json:"performed_by_user_id,omitempty"` // nil for the passive counterparty
	EntryType         LedgerEntryType `json:"entry_type"`
	Amount            decimal.Decimal `json:"amount"`
	BalanceBefore     decimal.Decimal `json:"balance_before"`
	BalanceAfter      decimal.Decimal `json:"balance_after"`
	Description       string          `json:"description"`
	CreatedAt         time.Time       `json:"created_at"`
}

// Validate checks the arithmetic invariant of the entry:
// DEBIT: after = before - amount; CREDIT: after = before + amount.
func (e *LedgerEntry) Validate() error {
	var want decimal.Decimal
	switch e.EntryType {
	case LedgerEntryDebit:
		want = e.BalanceBefore.Sub(e.Amount)
	case LedgerEntryCredit:
		want = e.BalanceBefore.Add(e.Amount)
	default:
		return fmt.Errorf("unknown ledger entry type %q", e.EntryType)
	}
	if !e.BalanceAfter.Equal(want) {
		return fmt.Errorf("ledger entry %s: balance_after %s does not match %s %s %s",
			e.ID, e.BalanceAfter, e.BalanceBefore, e.EntryType, e.Amount)
	}
	return nil
}
