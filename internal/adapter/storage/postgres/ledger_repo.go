package postgres

import (
	"context"
	"fmt"

	"wallet-transaction-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const ledgerColumns = `id, transaction_id, transaction_ref, wallet_id, user_id, performed_by_user_id,
	entry_type, amount, balance_before, balance_after, description, created_at`

// LedgerRepo implements ports.LedgerRepository. The ledger is append-only:
// there is no update or delete path.
type LedgerRepo struct {
	pool Pool
}

// NewLedgerRepo creates a new LedgerRepo.
func NewLedgerRepo(pool Pool) *LedgerRepo {
	return &LedgerRepo{pool: pool}
}

// Create appends a ledger entry within a database transaction.
func (r *LedgerRepo) Create(ctx context.Context, tx pgx.Tx, entry *domain.LedgerEntry) error {
	query := `INSERT INTO ledger_entries (` + ledgerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := tx.Exec(ctx, query,
		entry.ID, entry.TransactionID, entry.TransactionRef,
		entry.WalletID, entry.UserID, entry.PerformedByUserID,
		entry.EntryType, entry.Amount, entry.BalanceBefore, entry.BalanceAfter,
		entry.Description, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

// ListByWallet fetches ledger entries for a wallet, newest first.
func (r *LedgerRepo) ListByWallet(ctx context.Context, walletID uuid.UUID, page, pageSize int) ([]domain.LedgerEntry, int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM ledger_entries WHERE wallet_id = $1`, walletID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count ledger entries: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `SELECT ` + ledgerColumns + ` FROM ledger_entries
		WHERE wallet_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, walletID, pageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		e := domain.LedgerEntry{}
		err := rows.Scan(
			&e.ID, &e.TransactionID, &e.TransactionRef,
			&e.WalletID, &e.UserID, &e.PerformedByUserID,
			&e.EntryType, &e.Amount, &e.BalanceBefore, &e.BalanceAfter,
			&e.Description, &e.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan ledger row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate ledger rows: %w", err)
	}
	return entries, total, nil
}
