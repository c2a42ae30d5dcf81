package domain

import (
	"time"

	"github.com/google/uuid"
)

// Contact tracks how often a user transfers to a counterparty, powering the
// quick-contact list. Updated as a side effect of successful transfers.
type Contact struct {
	UserID         uuid.UUID `json:"user_id"`
	ContactUserID  uuid.UUID `json:"contact_user_id"`
	WalletID       uuid.UUID `json:"wallet_id"`
	Name           string    `json:"name"`
	Phone          string    `json:"phone"`
	TransferCount  int64     `json:"transfer_count"`
	LastTransferAt time.Time `json:"last_transfer_at"`
}
