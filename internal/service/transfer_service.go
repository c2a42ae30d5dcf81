package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"wallet-transaction-service/internal/core/domain"
	"wallet-transaction-service/internal/core/ports"
	"wallet-transaction-service/pkg/apperror"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// TransferServiceImpl implements ports.TransferService by composing the
// validator, factory, orchestrator and idempotency store.
type TransferServiceImpl struct {
	validator    *TransferValidator
	factory      *TransactionFactory
	orchestrator *SagaOrchestrator
	idemStore    ports.IdempotencyStore
	txRepo       ports.TransactionRepository
	walletClient ports.WalletClient
	userClient   ports.UserClient
	authClient   ports.AuthClient
	log          zerolog.Logger
}

// NewTransferService creates a new TransferServiceImpl.
func NewTransferService(
	validator *TransferValidator,
	factory *TransactionFactory,
	orchestrator *SagaOrchestrator,
	idemStore ports.IdempotencyStore,
	txRepo ports.TransactionRepository,
	walletClient ports.WalletClient,
	userClient ports.UserClient,
	authClient ports.AuthClient,
	log zerolog.Logger,
) *TransferServiceImpl {
	return &TransferServiceImpl{
		validator:    validator,
		factory:      factory,
		orchestrator: orchestrator,
		idemStore:    idemStore,
		txRepo:       txRepo,
		walletClient: walletClient,
		userClient:   userClient,
		authClient:   authClient,
		log:          log,
	}
}

// InquireRecipient resolves a phone number to a profile and default wallet.
func (s *TransferServiceImpl) InquireRecipient(ctx context.Context, req ports.InquireRequest) (*ports.RecipientInfo, error) {
	profile, err := s.userClient.FindProfileByPhone(ctx, req.Phone, req.Token)
	if err != nil {
		return nil, apperror.ErrUpstreamUnavailable("user", err)
	}
	if profile == nil {
		return nil, apperror.ErrNotFound("recipient")
	}

	wallet, err := s.walletClient.FindDefaultWallet(ctx, profile.ID)
	if err != nil {
		return nil, apperror.ErrUpstreamUnavailable("wallet", err)
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("recipient wallet")
	}

	return &ports.RecipientInfo{Profile: *profile, Wallet: *wallet}, nil
}

// InitiateTransfer validates an external transfer and creates its PENDING
// transaction. Replays with the same idempotency key and body return the
// original transaction; a different body is a conflict.
func (s *TransferServiceImpl) InitiateTransfer(ctx context.Context, req ports.InitiateTransferRequest) (*domain.Transaction, error) {
	return s.initiate(ctx, domain.ScopeTransfer, req.IdempotencyKey, req.RequestHash, func() (*domain.Transaction, error) {
		vr, err := s.validator.ValidateTransfer(ctx, req)
		if err != nil {
			return nil, err
		}
		return s.factory.CreateExternal(ctx, req, vr)
	})
}

// InitiateInternalTransfer validates a same-user two-wallet move and creates
// its PENDING transaction.
func (s *TransferServiceImpl) InitiateInternalTransfer(ctx context.Context, req ports.InitiateInternalTransferRequest) (*domain.Transaction, error) {
	return s.initiate(ctx, domain.ScopeInternalTransfer, req.IdempotencyKey, req.RequestHash, func() (*domain.Transaction, error) {
		vr, err := s.validator.ValidateInternal(ctx, req)
		if err != nil {
			return nil, err
		}
		return s.factory.CreateInternal(ctx, req, vr)
	})
}

// initiate wraps a create function in the idempotency protocol shared by all
// mutating, client-retryable operations.
func (s *TransferServiceImpl) initiate(ctx context.Context, scope domain.IdempotencyScope, key, requestHash string, create func() (*domain.Transaction, error)) (*domain.Transaction, error) {
	stored, err := s.idemStore.Begin(ctx, scope, key, requestHash)
	if err != nil {
		return nil, err
	}
	if stored != nil {
		return unmarshalStoredTransaction(stored.Body)
	}

	// Reservation owned, but a crash between transaction creation and
	// idempotency completion may have left an orphaned row: return it
	// instead of executing twice.
	if existing, err := s.txRepo.GetByIdempotencyKey(ctx, scope, key); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("duplicate check: %w", err))
	} else if existing != nil {
		s.completeIdempotency(ctx, scope, key, requestHash, existing)
		return existing, nil
	}

	txn, err := create()
	if err != nil {
		if failErr := s.idemStore.Fail(ctx, scope, key); failErr != nil {
			s.log.Warn().Err(failErr).Str("key", key).Msg("failed to mark idempotency record failed")
		}
		return nil, err
	}

	s.completeIdempotency(ctx, scope, key, requestHash, txn)
	return txn, nil
}

func (s *TransferServiceImpl) completeIdempotency(ctx context.Context, scope domain.IdempotencyScope, key, requestHash string, txn *domain.Transaction) {
	body, err := json.Marshal(txn)
	if err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("failed to marshal transaction for idempotency record")
		return
	}
	if err := s.idemStore.Complete(ctx, scope, key, requestHash, http.StatusCreated, body); err != nil {
		// The record stays IN_PROGRESS; retries surface as "already
		// processing" until the retention sweep clears it.
		s.log.Error().Err(err).Str("key", key).Msg("failed to complete idempotency record")
	}
}

// ConfirmTransfer verifies the second factor and executes the saga. PIN
// verification and the transaction lookup are independent remote calls and
// run concurrently; both are awaited before acting on either result.
func (s *TransferServiceImpl) ConfirmTransfer(ctx context.Context, req ports.ConfirmTransferRequest) (*domain.Transaction, error) {
	var (
		pinOK bool
		txn   *domain.Transaction
	)

	var g errgroup.Group
	g.Go(func() error {
		ok, err := s.authClient.VerifyPIN(ctx, req.PIN, req.Token)
		if err != nil {
			return apperror.ErrUpstreamUnavailable("auth", err)
		}
		pinOK = ok
		return nil
	})
	g.Go(func() error {
		t, err := s.txRepo.GetByID(ctx, req.TransactionID)
		if err != nil {
			return apperror.InternalError(fmt.Errorf("load transaction: %w", err))
		}
		txn = t
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if !pinOK {
		return nil, apperror.ErrInvalidPin()
	}
	if txn == nil || txn.UserID != req.UserID {
		return nil, apperror.ErrNotFound("transaction")
	}
	if txn.Status != domain.TransactionStatusPending {
		return nil, apperror.ErrTransactionNotConfirmable(string(txn.Status))
	}

	return s.orchestrator.Execute(ctx, txn)
}

func unmarshalStoredTransaction(data []byte) (*domain.Transaction, error) {
	txn := &domain.Transaction{}
	if err := json.Unmarshal(data, txn); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("unmarshal stored transaction: %w", err))
	}
	return txn, nil
}
