package postgres

import (
	"context"
	"testing"
	"time"

	"wallet-transaction-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLedgerEntry(walletID uuid.UUID) *domain.LedgerEntry {
	actor := uuid.New()
	return &domain.LedgerEntry{
		ID:                uuid.New(),
		TransactionID:     uuid.New(),
		TransactionRef:    "TRF-1700000000000-AB12CD34EF",
		WalletID:          walletID,
		UserID:            actor,
		PerformedByUserID: &actor,
		EntryType:         domain.LedgerEntryDebit,
		Amount:            decimal.NewFromInt(50000),
		BalanceBefore:     decimal.NewFromInt(200000),
		BalanceAfter:      decimal.NewFromInt(150000),
		Description:       "Transfer to Budi",
		CreatedAt:         time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestLedgerRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLedgerRepo(mock)
	entry := newTestLedgerEntry(uuid.New())

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO ledger_entries").
		WithArgs(
			entry.ID, entry.TransactionID, entry.TransactionRef,
			entry.WalletID, entry.UserID, entry.PerformedByUserID,
			entry.EntryType, entry.Amount, entry.BalanceBefore, entry.BalanceAfter,
			entry.Description, entry.CreatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	dbTx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), dbTx, entry)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepo_ListByWallet(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLedgerRepo(mock)
	walletID := uuid.New()
	entry := newTestLedgerEntry(walletID)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs(walletID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery("SELECT .+ FROM ledger_entries").
		WithArgs(walletID, 20, 0).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "transaction_id", "transaction_ref", "wallet_id", "user_id", "performed_by_user_id",
			"entry_type", "amount", "balance_before", "balance_after", "description", "created_at",
		}).AddRow(
			entry.ID, entry.TransactionID, entry.TransactionRef,
			entry.WalletID, entry.UserID, entry.PerformedByUserID,
			entry.EntryType, entry.Amount, entry.BalanceBefore, entry.BalanceAfter,
			entry.Description, entry.CreatedAt,
		))

	entries, total, err := repo.ListByWallet(context.Background(), walletID, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, entries, 1)
	assert.Equal(t, entry.ID, entries[0].ID)
	assert.True(t, entry.BalanceAfter.Equal(entries[0].BalanceAfter))
	assert.NoError(t, mock.ExpectationsWereMet())
}
