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

// Finalizer settles a saga outcome: on success it writes the ledger entries
// and the mirrored receiver row in one database transaction and emits
// completion events; on failure it records the reason and emits failure
// events. Event publication is best-effort and never affects the outcome.
type Finalizer struct {
	txRepo      ports.TransactionRepository
	ledgerRepo  ports.LedgerRepository
	contactRepo ports.ContactRepository
	transactor  ports.DBTransactor
	publisher   ports.EventPublisher
	log         zerolog.Logger
}

// NewFinalizer creates a new Finalizer.
func NewFinalizer(
	txRepo ports.TransactionRepository,
	ledgerRepo ports.LedgerRepository,
	contactRepo ports.ContactRepository,
	transactor ports.DBTransactor,
	publisher ports.EventPublisher,
	log zerolog.Logger,
) *Finalizer {
	return &Finalizer{
		txRepo:      txRepo,
		ledgerRepo:  ledgerRepo,
		contactRepo: contactRepo,
		transactor:  transactor,
		publisher:   publisher,
		log:         log,
	}
}

// Complete settles a transfer whose debit and credit legs both succeeded.
// Ledger balances come from the wallet service's responses, never local
// arithmetic, so entries reflect ground truth under concurrent transfers.
func (f *Finalizer) Complete(ctx context.Context, txn *domain.Transaction, debit, credit *ports.BalanceUpdate) (*domain.Transaction, error) {
	now := time.Now().UTC()
	if err := txn.MarkSuccess(now); err != nil {
		return nil, apperror.InternalError(err)
	}

	receiver := txn.MirrorForReceiver(txn.Metadata[metaSenderName], txn.Metadata[metaSenderPhone], now)

	performedBy := txn.UserID
	debitEntry := &domain.LedgerEntry{
		ID:                uuid.New(),
		TransactionID:     txn.ID,
		TransactionRef:    txn.TransactionRef,
		WalletID:          txn.WalletID,
		UserID:            txn.UserID,
		PerformedByUserID: &performedBy,
		EntryType:         domain.LedgerEntryDebit,
		Amount:            txn.TotalAmount,
		BalanceBefore:     debit.PreviousBalance,
		BalanceAfter:      debit.NewBalance,
		Description:       "transfer " + txn.TransactionRef + " to " + txn.CounterpartyName,
		CreatedAt:         now,
	}

	creditEntry := &domain.LedgerEntry{
		ID:             uuid.New(),
		TransactionID:  receiver.ID,
		TransactionRef: txn.TransactionRef,
		WalletID:       receiver.WalletID,
		UserID:         receiver.UserID,
		EntryType:      domain.LedgerEntryCredit,
		Amount:         txn.Amount,
		BalanceBefore:  credit.PreviousBalance,
		BalanceAfter:   credit.NewBalance,
		Description:    "transfer " + txn.TransactionRef + " from " + receiver.CounterpartyName,
		CreatedAt:      now,
	}
	if txn.Type.IsInternal() {
		// Same owner on both legs; the credited wallet is not a passive party.
		creditEntry.PerformedByUserID = &performedBy
	}

	if err := debitEntry.Validate(); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("debit ledger invariant: %w", err))
	}
	if err := creditEntry.Validate(); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("credit ledger invariant: %w", err))
	}

	dbTx, err := f.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := f.txRepo.UpdateStatus(ctx, dbTx, txn.ID, domain.TransactionStatusSuccess, nil, now); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("mark success: %w", err))
	}
	if err := f.txRepo.Create(ctx, dbTx, receiver); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create receiver leg: %w", err))
	}
	if err := f.ledgerRepo.Create(ctx, dbTx, debitEntry); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("write debit entry: %w", err))
	}
	if err := f.ledgerRepo.Create(ctx, dbTx, creditEntry); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("write credit entry: %w", err))
	}
	if !txn.Type.IsInternal() {
		contact := &domain.Contact{
			UserID:         txn.UserID,
			ContactUserID:  txn.CounterpartyUserID,
			WalletID:       txn.CounterpartyWalletID,
			Name:           txn.CounterpartyName,
			Phone:          txn.CounterpartyPhone,
			LastTransferAt: now,
		}
		if err := f.contactRepo.RecordTransfer(ctx, dbTx, contact); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("record contact: %w", err))
		}
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	f.publishCompleted(ctx, txn)
	f.publishCompleted(ctx, receiver)
	if txn.SplitBillID != nil && txn.SplitBillMemberID != nil {
		f.publishPaymentStatus(ctx, txn, ports.PaymentStatusCaptured)
	}

	f.log.Info().
		Str("tx_ref", txn.TransactionRef).
		Str("amount", txn.Amount.String()).
		Str("fee", txn.Fee.String()).
		Msg("transfer settled")

	return txn, nil
}

// Fail records the terminal failure of a transfer.
func (f *Finalizer) Fail(ctx context.Context, txn *domain.Transaction, reason string) (*domain.Transaction, error) {
	now := time.Now().UTC()
	if err := txn.MarkFailed(now, reason); err != nil {
		return nil, apperror.InternalError(err)
	}

	dbTx, err := f.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := f.txRepo.UpdateStatus(ctx, dbTx, txn.ID, domain.TransactionStatusFailed, &reason, now); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("mark failed: %w", err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	if err := f.publisher.TransactionFailed(ctx, txn); err != nil {
		f.log.Warn().Err(err).Str("tx_ref", txn.TransactionRef).Msg("failed to publish transaction-failed event")
	}
	if txn.SplitBillID != nil && txn.SplitBillMemberID != nil {
		f.publishPaymentStatus(ctx, txn, ports.PaymentStatusFailed)
	}

	f.log.Info().
		Str("tx_ref", txn.TransactionRef).
		Str("reason", reason).
		Msg("transfer failed")

	return txn, nil
}

func (f *Finalizer) publishCompleted(ctx context.Context, txn *domain.Transaction) {
	if err := f.publisher.TransactionCompleted(ctx, txn); err != nil {
		f.log.Warn().Err(err).Str("tx_ref", txn.TransactionRef).Msg("failed to publish transaction-completed event")
	}
}

func (f *Finalizer) publishPaymentStatus(ctx context.Context, txn *domain.Transaction, status ports.PaymentStatus) {
	ev := ports.PaymentStatusEvent{
		SplitBillID:       *txn.SplitBillID,
		SplitBillMemberID: *txn.SplitBillMemberID,
		TransactionRef:    txn.TransactionRef,
		Status:            status,
	}
	if err := f.publisher.PaymentStatusUpdated(ctx, ev); err != nil {
		f.log.Warn().Err(err).Str("tx_ref", txn.TransactionRef).Msg("failed to publish payment-status event")
	}
}
