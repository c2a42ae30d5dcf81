package service

import (
	"context"
	"testing"

	"wallet-transaction-service/internal/core/domain"
	"wallet-transaction-service/internal/core/ports"
	"wallet-transaction-service/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type historyTestDeps struct {
	svc         *HistoryServiceImpl
	txRepo      *mocks.MockTransactionRepository
	ledgerRepo  *mocks.MockLedgerRepository
	contactRepo *mocks.MockContactRepository
	ctrl        *gomock.Controller
}

func setupHistoryService(t *testing.T) *historyTestDeps {
	ctrl := gomock.NewController(t)
	d := &historyTestDeps{
		txRepo:      mocks.NewMockTransactionRepository(ctrl),
		ledgerRepo:  mocks.NewMockLedgerRepository(ctrl),
		contactRepo: mocks.NewMockContactRepository(ctrl),
		ctrl:        ctrl,
	}
	d.svc = NewHistoryService(d.txRepo, d.ledgerRepo, d.contactRepo)
	return d
}

func TestHistoryService_ListTransactions_ClampsPagination(t *testing.T) {
	d := setupHistoryService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()

	d.txRepo.EXPECT().List(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
			assert.Equal(t, 1, params.Page)
			assert.Equal(t, defaultPageSize, params.PageSize)
			return []domain.Transaction{}, 0, nil
		})

	_, _, err := d.svc.ListTransactions(ctx, ports.TransactionListParams{UserID: userID, Page: 0, PageSize: 0})
	require.NoError(t, err)

	d.txRepo.EXPECT().List(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
			assert.Equal(t, maxPageSize, params.PageSize)
			return []domain.Transaction{}, 0, nil
		})

	_, _, err = d.svc.ListTransactions(ctx, ports.TransactionListParams{UserID: userID, Page: 1, PageSize: 500})
	require.NoError(t, err)
}

func TestHistoryService_GetTransaction(t *testing.T) {
	d := setupHistoryService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	txn := newPendingTransfer()

	t.Run("owner sees the transaction", func(t *testing.T) {
		d.txRepo.EXPECT().GetByID(ctx, txn.ID).Return(txn, nil)
		got, err := d.svc.GetTransaction(ctx, txn.UserID, txn.ID)
		require.NoError(t, err)
		assert.Equal(t, txn.ID, got.ID)
	})

	t.Run("another user gets not found", func(t *testing.T) {
		d.txRepo.EXPECT().GetByID(ctx, txn.ID).Return(txn, nil)
		_, err := d.svc.GetTransaction(ctx, uuid.New(), txn.ID)
		assertAppError(t, err, "TRF_006")
	})

	t.Run("missing row gets not found", func(t *testing.T) {
		id := uuid.New()
		d.txRepo.EXPECT().GetByID(ctx, id).Return(nil, nil)
		_, err := d.svc.GetTransaction(ctx, txn.UserID, id)
		assertAppError(t, err, "TRF_006")
	})
}

func TestHistoryService_ListLedger(t *testing.T) {
	d := setupHistoryService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	walletID := uuid.New()

	d.ledgerRepo.EXPECT().ListByWallet(ctx, walletID, 1, defaultPageSize).
		Return([]domain.LedgerEntry{{ID: uuid.New(), WalletID: walletID}}, int64(1), nil)

	entries, total, err := d.svc.ListLedger(ctx, walletID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, entries, 1)
	assert.Equal(t, walletID, entries[0].WalletID)
}

func TestHistoryService_ListContacts_ClampsLimit(t *testing.T) {
	d := setupHistoryService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()

	d.contactRepo.EXPECT().ListByUser(ctx, userID, defaultPageSize).
		Return([]domain.Contact{{UserID: userID, Name: "Budi"}}, nil)

	contacts, err := d.svc.ListContacts(ctx, userID, 0)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "Budi", contacts[0].Name)

	d.contactRepo.EXPECT().ListByUser(ctx, userID, 5).Return([]domain.Contact{}, nil)
	_, err = d.svc.ListContacts(ctx, userID, 5)
	require.NoError(t, err)
}
