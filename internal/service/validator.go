package service

import (
	"context"
	"fmt"

	"wallet-transaction-service/config"
	"wallet-transaction-service/internal/core/domain"
	"wallet-transaction-service/internal/core/ports"
	"wallet-transaction-service/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// ValidationResult carries the enrichment gathered while proving a request
// admissible: profiles, the computed fee/total, and the available balance.
type ValidationResult struct {
	SenderProfile    *ports.UserProfile
	ReceiverProfile  *ports.UserProfile
	AvailableBalance decimal.Decimal
	Fee              decimal.Decimal
	TotalAmount      decimal.Decimal
	WalletNames      map[uuid.UUID]string
}

// TransferValidator proves, before any money moves, that a transfer request
// is admissible. Remote checks with no data dependency run concurrently and
// are all awaited, so no issued call is abandoned mid-flight.
type TransferValidator struct {
	walletClient ports.WalletClient
	userClient   ports.UserClient
	minAmount    decimal.Decimal
	maxAmount    decimal.Decimal
	flatFee      decimal.Decimal
	log          zerolog.Logger
}

// NewTransferValidator creates a validator with limits parsed from config.
func NewTransferValidator(
	walletClient ports.WalletClient,
	userClient ports.UserClient,
	cfg config.TransferConfig,
	log zerolog.Logger,
) (*TransferValidator, error) {
	minAmount, err := cfg.MinAmountDecimal()
	if err != nil {
		return nil, fmt.Errorf("parse min amount: %w", err)
	}
	maxAmount, err := cfg.MaxAmountDecimal()
	if err != nil {
		return nil, fmt.Errorf("parse max amount: %w", err)
	}
	flatFee, err := cfg.FlatFeeDecimal()
	if err != nil {
		return nil, fmt.Errorf("parse flat fee: %w", err)
	}
	return &TransferValidator{
		walletClient: walletClient,
		userClient:   userClient,
		minAmount:    minAmount,
		maxAmount:    maxAmount,
		flatFee:      flatFee,
		log:          log,
	}, nil
}

// ValidateTransfer runs the precondition checks for an external transfer.
func (v *TransferValidator) ValidateTransfer(ctx context.Context, req ports.InitiateTransferRequest) (*ValidationResult, error) {
	if err := v.checkAmount(req.Amount); err != nil {
		return nil, err
	}
	if req.UserID == req.CounterpartyUserID {
		return nil, apperror.ErrSelfTransfer()
	}

	fee := v.flatFee
	total := req.Amount.Add(fee)

	result := &ValidationResult{Fee: fee, TotalAmount: total}

	// Fan-out: independent remote checks issued concurrently. A plain Group
	// (no shared cancellation) so every issued call runs to completion even
	// when a sibling fails; Wait surfaces the first failure.
	var g errgroup.Group

	g.Go(func() error {
		role, err := v.walletClient.ValidateRole(ctx, req.WalletID, req.UserID, ports.WalletActionDebit, total, domain.TransactionTypeTransferOut)
		if err != nil {
			return apperror.ErrUpstreamUnavailable("wallet", err)
		}
		if !role.Allowed {
			return denyToError(role.Reason)
		}
		return nil
	})

	g.Go(func() error {
		bal, err := v.walletClient.ValidateBalance(ctx, req.WalletID, total, ports.WalletActionDebit, req.UserID)
		if err != nil {
			return apperror.ErrUpstreamUnavailable("wallet", err)
		}
		if !bal.Allowed {
			return denyToError(bal.Reason)
		}
		result.AvailableBalance = bal.Balance
		return nil
	})

	g.Go(func() error {
		// Receiver profile is display enrichment only: a lookup failure must
		// not block the transfer, so it degrades to a placeholder.
		profile, err := v.userClient.FindProfileByID(ctx, req.CounterpartyUserID, req.Token)
		if err != nil || profile == nil {
			v.log.Warn().Err(err).Str("user_id", req.CounterpartyUserID.String()).Msg("receiver profile lookup failed, using placeholder")
			result.ReceiverProfile = ports.UnknownProfile(req.CounterpartyUserID)
			return nil
		}
		result.ReceiverProfile = profile
		return nil
	})

	g.Go(func() error {
		profile, err := v.userClient.FindProfileByID(ctx, req.UserID, req.Token)
		if err != nil {
			return apperror.ErrSenderProfileUnavailable(err)
		}
		if profile == nil {
			return apperror.ErrSenderProfileUnavailable(fmt.Errorf("sender %s not found", req.UserID))
		}
		result.SenderProfile = profile
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// ValidateInternal runs the precondition checks for a same-user two-wallet
// transfer, including proof that both wallets belong to the initiating user.
func (v *TransferValidator) ValidateInternal(ctx context.Context, req ports.InitiateInternalTransferRequest) (*ValidationResult, error) {
	if err := v.checkAmount(req.Amount); err != nil {
		return nil, err
	}
	if req.SourceWalletID == req.DestinationWalletID {
		return nil, apperror.ErrSameWallet()
	}

	// Internal moves carry no fee: the money never leaves the user.
	result := &ValidationResult{Fee: decimal.Zero, TotalAmount: req.Amount}

	var g errgroup.Group

	g.Go(func() error {
		ownership, err := v.walletClient.ValidateOwnership(ctx, req.UserID, []uuid.UUID{req.SourceWalletID, req.DestinationWalletID})
		if err != nil {
			return apperror.ErrUpstreamUnavailable("wallet", err)
		}
		if !ownership.IsOwner {
			return apperror.ErrWalletNotOwned()
		}
		result.WalletNames = ownership.WalletNames
		return nil
	})

	g.Go(func() error {
		role, err := v.walletClient.ValidateRole(ctx, req.SourceWalletID, req.UserID, ports.WalletActionDebit, req.Amount, domain.TransactionTypeInternalTransferOut)
		if err != nil {
			return apperror.ErrUpstreamUnavailable("wallet", err)
		}
		if !role.Allowed {
			return denyToError(role.Reason)
		}
		return nil
	})

	g.Go(func() error {
		bal, err := v.walletClient.ValidateBalance(ctx, req.SourceWalletID, req.Amount, ports.WalletActionDebit, req.UserID)
		if err != nil {
			return apperror.ErrUpstreamUnavailable("wallet", err)
		}
		if !bal.Allowed {
			return denyToError(bal.Reason)
		}
		result.AvailableBalance = bal.Balance
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

func (v *TransferValidator) checkAmount(amount decimal.Decimal) error {
	if amount.IsZero() || amount.IsNegative() {
		return apperror.ErrInvalidAmount()
	}
	if amount.LessThan(v.minAmount) || amount.GreaterThan(v.maxAmount) {
		return apperror.ErrAmountOutOfRange(v.minAmount.String(), v.maxAmount.String())
	}
	return nil
}

// denyToError translates the wallet service's closed denial enum into the
// domain error taxonomy. This is the single translation point.
func denyToError(code ports.DenyCode) *apperror.AppError {
	switch code {
	case ports.DenyInsufficientBalance:
		return apperror.ErrInsufficientBalance()
	case ports.DenyLimitExceeded:
		return apperror.ErrTransferLimitExceeded()
	case ports.DenyRoleNotPermitted:
		return apperror.ErrRoleNotPermitted()
	case ports.DenyWalletInactive:
		return apperror.ErrWalletInactive()
	default:
		return apperror.ErrPreconditionDenied()
	}
}
