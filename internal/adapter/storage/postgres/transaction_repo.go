package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wallet-transaction-service/internal/core/domain"
	"wallet-transaction-service/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const transactionColumns = `id, transaction_ref, idempotency_key, type, status, amount, fee, total_amount, currency,
	user_id, wallet_id, counterparty_user_id, counterparty_wallet_id, counterparty_name, counterparty_phone,
	split_bill_id, split_bill_member_id, failure_reason, metadata, created_at, completed_at, failed_at`

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// Create inserts a new transaction within a database transaction.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	query := `INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`

	_, err := tx.Exec(ctx, query,
		t.ID, t.TransactionRef, t.IdempotencyKey, t.Type, t.Status,
		t.Amount, t.Fee, t.TotalAmount, t.Currency,
		t.UserID, t.WalletID, t.CounterpartyUserID, t.CounterpartyWalletID,
		t.CounterpartyName, t.CounterpartyPhone,
		t.SplitBillID, t.SplitBillMemberID, t.FailureReason, t.Metadata,
		t.CreatedAt, t.CompletedAt, t.FailedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// GetByID fetches a transaction by UUID. Returns nil when not found.
func (r *TransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	return r.scanTransaction(r.pool.QueryRow(ctx, query, id))
}

// GetByRef fetches all legs sharing a transaction reference, sender leg first.
func (r *TransactionRepo) GetByRef(ctx context.Context, ref string) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE transaction_ref = $1 ORDER BY created_at ASC, type ASC`

	rows, err := r.pool.Query(ctx, query, ref)
	if err != nil {
		return nil, fmt.Errorf("get transactions by ref: %w", err)
	}
	defer rows.Close()

	return r.collectTransactions(rows)
}

// GetByIdempotencyKey fetches the transaction created under an idempotency
// key, scoped by operation so the same key never crosses scopes. Returns nil
// when not found.
func (r *TransactionRepo) GetByIdempotencyKey(ctx context.Context, scope domain.IdempotencyScope, key string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE idempotency_key = $1 AND type = ANY($2)`

	return r.scanTransaction(r.pool.QueryRow(ctx, query, key, scopeTypes(scope)))
}

// scopeTypes maps an idempotency scope to the sender-leg types it creates.
func scopeTypes(scope domain.IdempotencyScope) []string {
	switch scope {
	case domain.ScopeInternalTransfer:
		return []string{string(domain.TransactionTypeInternalTransferOut)}
	default:
		return []string{string(domain.TransactionTypeTransferOut)}
	}
}

// UpdateStatus moves a transaction's status within a database transaction.
// The completion or failure timestamp follows the target status. Each write
// is guarded by the expected prior status, so the monotonic lifecycle holds
// at the row even when two confirms race: the loser's write matches zero
// rows and surfaces domain.ErrStatusConflict instead of rolling the row
// backwards.
func (r *TransactionRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.TransactionStatus, failureReason *string, at time.Time) error {
	var query string
	var args []any
	switch status {
	case domain.TransactionStatusSuccess:
		query = `UPDATE transactions SET status = $1, completed_at = $2 WHERE id = $3 AND status = 'PROCESSING'`
		args = []any{status, at, id}
	case domain.TransactionStatusFailed:
		query = `UPDATE transactions SET status = $1, failure_reason = $2, failed_at = $3 WHERE id = $4 AND status IN ('PENDING', 'PROCESSING')`
		args = []any{status, failureReason, at, id}
	default:
		query = `UPDATE transactions SET status = $1 WHERE id = $2 AND status = 'PENDING'`
		args = []any{status, id}
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update transaction status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction %s to %s: %w", id, status, domain.ErrStatusConflict)
	}
	return nil
}

// List fetches a user's transactions with filtering and pagination.
func (r *TransactionRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	var conditions []string
	var args []any
	argIdx := 1

	conditions = append(conditions, fmt.Sprintf("user_id = $%d", argIdx))
	args = append(args, params.UserID)
	argIdx++

	if params.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *params.Status)
		argIdx++
	}
	if params.Type != nil {
		conditions = append(conditions, fmt.Sprintf("type = $%d", argIdx))
		args = append(args, *params.Type)
		argIdx++
	}
	if params.From != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= to_timestamp($%d)", argIdx))
		args = append(args, *params.From)
		argIdx++
	}
	if params.To != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= to_timestamp($%d)", argIdx))
		args = append(args, *params.To)
		argIdx++
	}

	where := "WHERE " + strings.Join(conditions, " AND ")

	// Count total
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM transactions %s", where)
	var total int64
	err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	// Fetch page
	offset := (params.Page - 1) * params.PageSize
	dataQuery := fmt.Sprintf(`SELECT `+transactionColumns+`
		FROM transactions %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, where, argIdx, argIdx+1)
	args = append(args, params.PageSize, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	txns, err := r.collectTransactions(rows)
	if err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

func (r *TransactionRepo) collectTransactions(rows pgx.Rows) ([]domain.Transaction, error) {
	var txns []domain.Transaction
	for rows.Next() {
		t := domain.Transaction{}
		err := rows.Scan(
			&t.ID, &t.TransactionRef, &t.IdempotencyKey, &t.Type, &t.Status,
			&t.Amount, &t.Fee, &t.TotalAmount, &t.Currency,
			&t.UserID, &t.WalletID, &t.CounterpartyUserID, &t.CounterpartyWalletID,
			&t.CounterpartyName, &t.CounterpartyPhone,
			&t.SplitBillID, &t.SplitBillMemberID, &t.FailureReason, &t.Metadata,
			&t.CreatedAt, &t.CompletedAt, &t.FailedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}
	return txns, nil
}

// scanTransaction is a helper to scan a single row into a Transaction.
func (r *TransactionRepo) scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	err := row.Scan(
		&t.ID, &t.TransactionRef, &t.IdempotencyKey, &t.Type, &t.Status,
		&t.Amount, &t.Fee, &t.TotalAmount, &t.Currency,
		&t.UserID, &t.WalletID, &t.CounterpartyUserID, &t.CounterpartyWalletID,
		&t.CounterpartyName, &t.CounterpartyPhone,
		&t.SplitBillID, &t.SplitBillMemberID, &t.FailureReason, &t.Metadata,
		&t.CreatedAt, &t.CompletedAt, &t.FailedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}
	return t, nil
}
