package service

import (
	"context"
	"fmt"

	"wallet-transaction-service/internal/core/domain"
	"wallet-transaction-service/internal/core/ports"
	"wallet-transaction-service/pkg/apperror"

	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// HistoryServiceImpl implements ports.HistoryService. The denormalized
// counterparty fields on each row keep history readable without calling the
// user service.
type HistoryServiceImpl struct {
	txRepo      ports.TransactionRepository
	ledgerRepo  ports.LedgerRepository
	contactRepo ports.ContactRepository
}

// NewHistoryService creates a new HistoryServiceImpl.
func NewHistoryService(txRepo ports.TransactionRepository, ledgerRepo ports.LedgerRepository, contactRepo ports.ContactRepository) *HistoryServiceImpl {
	return &HistoryServiceImpl{txRepo: txRepo, ledgerRepo: ledgerRepo, contactRepo: contactRepo}
}

// ListTransactions lists a user's transaction legs with filters + pagination.
func (s *HistoryServiceImpl) ListTransactions(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	params.Page, params.PageSize = clampPage(params.Page, params.PageSize)
	txns, total, err := s.txRepo.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.InternalError(fmt.Errorf("list transactions: %w", err))
	}
	return txns, total, nil
}

// GetTransaction fetches one leg visible to the requesting user.
func (s *HistoryServiceImpl) GetTransaction(ctx context.Context, userID, id uuid.UUID) (*domain.Transaction, error) {
	txn, err := s.txRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get transaction: %w", err))
	}
	if txn == nil || txn.UserID != userID {
		return nil, apperror.ErrNotFound("transaction")
	}
	return txn, nil
}

// ListLedger lists a wallet's ledger entries, newest first.
func (s *HistoryServiceImpl) ListLedger(ctx context.Context, walletID uuid.UUID, page, pageSize int) ([]domain.LedgerEntry, int64, error) {
	page, pageSize = clampPage(page, pageSize)
	entries, total, err := s.ledgerRepo.ListByWallet(ctx, walletID, page, pageSize)
	if err != nil {
		return nil, 0, apperror.InternalError(fmt.Errorf("list ledger: %w", err))
	}
	return entries, total, nil
}

// ListContacts lists a user's quick contacts, most frequent first.
func (s *HistoryServiceImpl) ListContacts(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Contact, error) {
	if limit < 1 || limit > maxPageSize {
		limit = defaultPageSize
	}
	contacts, err := s.contactRepo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list contacts: %w", err))
	}
	return contacts, nil
}

func clampPage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}
