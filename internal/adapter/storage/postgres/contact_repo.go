package postgres

import (
	"context"
	"fmt"

	"wallet-transaction-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ContactRepo implements ports.ContactRepository.
type ContactRepo struct {
	pool Pool
}

// NewContactRepo creates a new ContactRepo.
func NewContactRepo(pool Pool) *ContactRepo {
	return &ContactRepo{pool: pool}
}

// RecordTransfer upserts the quick-contact row for a counterparty, bumping the
// transfer counter. Runs inside the finalization database transaction.
func (r *ContactRepo) RecordTransfer(ctx context.Context, tx pgx.Tx, contact *domain.Contact) error {
	query := `INSERT INTO contacts (user_id, contact_user_id, wallet_id, name, phone, transfer_count, last_transfer_at)
		VALUES ($1, $2, $3, $4, $5, 1, $6)
		ON CONFLICT (user_id, contact_user_id) DO UPDATE
		SET wallet_id = EXCLUDED.wallet_id, name = EXCLUDED.name, phone = EXCLUDED.phone,
			transfer_count = contacts.transfer_count + 1, last_transfer_at = EXCLUDED.last_transfer_at`

	_, err := tx.Exec(ctx, query,
		contact.UserID, contact.ContactUserID, contact.WalletID,
		contact.Name, contact.Phone, contact.LastTransferAt,
	)
	if err != nil {
		return fmt.Errorf("upsert contact: %w", err)
	}
	return nil
}

// ListByUser fetches a user's quick contacts, most frequent first.
func (r *ContactRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Contact, error) {
	query := `SELECT user_id, contact_user_id, wallet_id, name, phone, transfer_count, last_transfer_at
		FROM contacts WHERE user_id = $1
		ORDER BY transfer_count DESC, last_transfer_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	var contacts []domain.Contact
	for rows.Next() {
		c := domain.Contact{}
		err := rows.Scan(&c.UserID, &c.ContactUserID, &c.WalletID, &c.Name, &c.Phone, &c.TransferCount, &c.LastTransferAt)
		if err != nil {
			return nil, fmt.Errorf("scan contact row: %w", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contact rows: %w", err)
	}
	return contacts, nil
}
