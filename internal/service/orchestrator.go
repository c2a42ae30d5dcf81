package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wallet-transaction-service/internal/core/domain"
	"wallet-transaction-service/internal/core/ports"
	"wallet-transaction-service/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Reference-id suffixes for the saga legs. The wallet service deduplicates
// balance updates on these, which makes retried legs safe.
const (
	refSuffixSender         = "-sender"
	refSuffixReceiver       = "-receiver"
	refSuffixSenderReversal = "-sender-reversal"
)

// SagaOrchestrator executes the two-sided balance update of a confirmed
// transfer against the remote wallet service, with ordered compensation on
// partial failure:
//
//	PROCESSING --debit ok--> (debited) --credit ok--> SUCCESS
//	PROCESSING --debit fails--> FAILED
//	(debited) --credit fails--> compensate debit --> FAILED
//
// Debit always precedes credit: a stuck debit can be reversed, a phantom
// credit cannot be reliably clawed back.
type SagaOrchestrator struct {
	txRepo              ports.TransactionRepository
	transactor          ports.DBTransactor
	walletClient        ports.WalletClient
	finalizer           *Finalizer
	reversalMaxAttempts int
	reversalBackoff     time.Duration
	log                 zerolog.Logger
}

// NewSagaOrchestrator creates a new SagaOrchestrator. reversalMaxAttempts is
// the number of automatic retries after the first reversal attempt fails;
// zero means escalate immediately.
func NewSagaOrchestrator(
	txRepo ports.TransactionRepository,
	transactor ports.DBTransactor,
	walletClient ports.WalletClient,
	finalizer *Finalizer,
	reversalMaxAttempts int,
	reversalBackoff time.Duration,
	log zerolog.Logger,
) *SagaOrchestrator {
	return &SagaOrchestrator{
		txRepo:              txRepo,
		transactor:          transactor,
		walletClient:        walletClient,
		finalizer:           finalizer,
		reversalMaxAttempts: reversalMaxAttempts,
		reversalBackoff:     reversalBackoff,
		log:                 log,
	}
}

// Execute runs the saga for a PENDING transaction whose caller has presented
// the second factor. The returned transaction is terminal (SUCCESS or
// FAILED); saga-level failures are reported through the transaction state,
// not as an error.
func (o *SagaOrchestrator) Execute(ctx context.Context, txn *domain.Transaction) (*domain.Transaction, error) {
	if err := txn.MarkProcessing(); err != nil {
		return nil, apperror.ErrTransactionNotConfirmable(string(txn.Status))
	}
	if err := o.persistStatus(ctx, txn); err != nil {
		if errors.Is(err, domain.ErrStatusConflict) {
			return o.loadConcurrentOutcome(ctx, txn.ID)
		}
		return nil, err
	}

	// Leg 1: debit the sender for amount + fee. Failure here is terminal and
	// needs no compensation: nothing has happened yet.
	debit, err := o.walletClient.UpdateBalance(ctx, ports.BalanceUpdateRequest{
		WalletID:     txn.WalletID,
		Delta:        txn.TotalAmount.Neg(),
		ReferenceID:  txn.IdempotencyKey + refSuffixSender,
		Reason:       "transfer " + txn.TransactionRef + " debit",
		ActorUserID:  txn.UserID,
		TransferType: txn.Type,
	})
	if err != nil {
		o.log.Warn().Err(err).
			Str("tx_ref", txn.TransactionRef).
			Str("wallet_id", txn.WalletID.String()).
			Msg("debit leg failed")
		return o.finalizer.Fail(ctx, txn, fmt.Sprintf("debit failed: %v", err))
	}

	// Leg 2: credit the counterparty for the amount (fee stays with the
	// platform). A failure here leaves money already gone from the sender.
	credit, err := o.walletClient.UpdateBalance(ctx, ports.BalanceUpdateRequest{
		WalletID:     txn.CounterpartyWalletID,
		Delta:        txn.Amount,
		ReferenceID:  txn.IdempotencyKey + refSuffixReceiver,
		Reason:       "transfer " + txn.TransactionRef + " credit",
		ActorUserID:  txn.UserID,
		TransferType: txn.Type.MirrorType(),
	})
	if err != nil {
		o.log.Warn().Err(err).
			Str("tx_ref", txn.TransactionRef).
			Str("wallet_id", txn.CounterpartyWalletID.String()).
			Msg("credit leg failed, compensating debit")
		o.compensateDebit(ctx, txn)
		return o.finalizer.Fail(ctx, txn, fmt.Sprintf("credit failed: %v", err))
	}

	result, err := o.finalizer.Complete(ctx, txn, debit, credit)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// compensateDebit issues the reversal credit that undoes the sender debit.
// If every attempt fails the condition is escalated for manual
// reconciliation rather than retried indefinitely: an invisible retry loop
// on a financial reversal is worse than a visible stuck state.
func (o *SagaOrchestrator) compensateDebit(ctx context.Context, txn *domain.Transaction) {
	req := ports.BalanceUpdateRequest{
		WalletID:     txn.WalletID,
		Delta:        txn.TotalAmount,
		ReferenceID:  txn.IdempotencyKey + refSuffixSenderReversal,
		Reason:       "transfer " + txn.TransactionRef + " reversal",
		ActorUserID:  txn.UserID,
		TransferType: txn.Type,
	}

	attempts := 1 + o.reversalMaxAttempts
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			time.Sleep(o.reversalBackoff)
		}
		_, err := o.walletClient.UpdateBalance(ctx, req)
		if err == nil {
			o.log.Info().
				Str("tx_ref", txn.TransactionRef).
				Int("attempt", attempt).
				Msg("debit reversal applied")
			return
		}
		o.log.Warn().Err(err).
			Str("tx_ref", txn.TransactionRef).
			Int("attempt", attempt).
			Msg("debit reversal attempt failed")
	}

	o.log.Error().
		Str("tx_ref", txn.TransactionRef).
		Str("wallet_id", txn.WalletID.String()).
		Str("amount", txn.TotalAmount.String()).
		Str("reference_id", req.ReferenceID).
		Msg("CRITICAL: debit reversal exhausted, manual reconciliation required")
}

// loadConcurrentOutcome resolves a lost PROCESSING race: another confirm
// already claimed the row. A settled row is returned as this confirm's
// outcome; a row still mid-saga is reported as not confirmable.
func (o *SagaOrchestrator) loadConcurrentOutcome(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	stored, err := o.txRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("load transaction after status conflict: %w", err))
	}
	if stored == nil {
		return nil, apperror.ErrNotFound("transaction")
	}
	if stored.IsTerminal() {
		o.log.Info().
			Str("tx_ref", stored.TransactionRef).
			Str("status", string(stored.Status)).
			Msg("duplicate confirm, returning settled transaction")
		return stored, nil
	}
	return nil, apperror.ErrTransactionNotConfirmable(string(stored.Status))
}

func (o *SagaOrchestrator) persistStatus(ctx context.Context, txn *domain.Transaction) error {
	dbTx, err := o.transactor.Begin(ctx)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := o.txRepo.UpdateStatus(ctx, dbTx, txn.ID, txn.Status, nil, time.Now().UTC()); err != nil {
		return apperror.InternalError(fmt.Errorf("persist %s: %w", txn.Status, err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}
	return nil
}
