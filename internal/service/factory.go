package service

import (
	"context"
	"fmt"
	"time"

	"wallet-transaction-service/internal/core/domain"
	"wallet-transaction-service/internal/core/ports"
	"wallet-transaction-service/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Metadata keys for the sender's own display fields, captured at creation so
// the receiver-leg mirror can be built at finalize without a profile lookup.
const (
	metaSenderName  = "sender_name"
	metaSenderPhone = "sender_phone"
	metaDescription = "description"
)

// TransactionFactory builds and persists PENDING transactions from validated
// requests plus the validator's enrichment data.
type TransactionFactory struct {
	txRepo     ports.TransactionRepository
	transactor ports.DBTransactor
	currency   string
	log        zerolog.Logger
}

// NewTransactionFactory creates a new TransactionFactory.
func NewTransactionFactory(
	txRepo ports.TransactionRepository,
	transactor ports.DBTransactor,
	currency string,
	log zerolog.Logger,
) *TransactionFactory {
	return &TransactionFactory{
		txRepo:     txRepo,
		transactor: transactor,
		currency:   currency,
		log:        log,
	}
}

// CreateExternal persists the PENDING sender leg of an external transfer.
func (f *TransactionFactory) CreateExternal(ctx context.Context, req ports.InitiateTransferRequest, vr *ValidationResult) (*domain.Transaction, error) {
	now := time.Now().UTC()
	currency := req.Currency
	if currency == "" {
		currency = f.currency
	}

	txn := &domain.Transaction{
		ID:                   uuid.New(),
		TransactionRef:       domain.NewTransactionRef(now),
		IdempotencyKey:       req.IdempotencyKey,
		Type:                 domain.TransactionTypeTransferOut,
		Status:               domain.TransactionStatusPending,
		Amount:               req.Amount,
		Fee:                  vr.Fee,
		TotalAmount:          vr.TotalAmount,
		Currency:             currency,
		UserID:               req.UserID,
		WalletID:             req.WalletID,
		CounterpartyUserID:   req.CounterpartyUserID,
		CounterpartyWalletID: req.CounterpartyWalletID,
		CounterpartyName:     vr.ReceiverProfile.Name,
		CounterpartyPhone:    vr.ReceiverProfile.PhoneNumber,
		SplitBillID:          req.SplitBillID,
		SplitBillMemberID:    req.SplitBillMemberID,
		Metadata: map[string]string{
			metaSenderName:  vr.SenderProfile.Name,
			metaSenderPhone: vr.SenderProfile.PhoneNumber,
			metaDescription: req.Description,
		},
		CreatedAt: now,
	}

	if err := f.persist(ctx, txn); err != nil {
		return nil, err
	}

	f.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("tx_ref", txn.TransactionRef).
		Str("total", txn.TotalAmount.String()).
		Msg("pending transfer created")

	return txn, nil
}

// CreateInternal persists the PENDING sender leg of a same-user two-wallet
// transfer. The counterparty is the user's own destination wallet.
func (f *TransactionFactory) CreateInternal(ctx context.Context, req ports.InitiateInternalTransferRequest, vr *ValidationResult) (*domain.Transaction, error) {
	now := time.Now().UTC()
	currency := req.Currency
	if currency == "" {
		currency = f.currency
	}

	txn := &domain.Transaction{
		ID:                   uuid.New(),
		TransactionRef:       domain.NewTransactionRef(now),
		IdempotencyKey:       req.IdempotencyKey,
		Type:                 domain.TransactionTypeInternalTransferOut,
		Status:               domain.TransactionStatusPending,
		Amount:               req.Amount,
		Fee:                  vr.Fee,
		TotalAmount:          vr.TotalAmount,
		Currency:             currency,
		UserID:               req.UserID,
		WalletID:             req.SourceWalletID,
		CounterpartyUserID:   req.UserID,
		CounterpartyWalletID: req.DestinationWalletID,
		CounterpartyName:     vr.WalletNames[req.DestinationWalletID],
		Metadata: map[string]string{
			metaSenderName:  vr.WalletNames[req.SourceWalletID],
			metaDescription: req.Description,
		},
		CreatedAt: now,
	}

	if err := f.persist(ctx, txn); err != nil {
		return nil, err
	}

	f.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("tx_ref", txn.TransactionRef).
		Msg("pending internal transfer created")

	return txn, nil
}

func (f *TransactionFactory) persist(ctx context.Context, txn *domain.Transaction) error {
	dbTx, err := f.transactor.Begin(ctx)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := f.txRepo.Create(ctx, dbTx, txn); err != nil {
		return apperror.InternalError(fmt.Errorf("create transaction: %w", err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}
	return nil
}
