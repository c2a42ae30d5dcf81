package service

import (
	"context"
	"errors"
	"testing"

	"wallet-transaction-service/config"
	"wallet-transaction-service/internal/core/domain"
	"wallet-transaction-service/internal/core/ports"
	"wallet-transaction-service/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type validatorTestDeps struct {
	validator *TransferValidator
	wallet    *mocks.MockWalletClient
	user      *mocks.MockUserClient
	ctrl      *gomock.Controller
}

func setupValidator(t *testing.T) *validatorTestDeps {
	ctrl := gomock.NewController(t)
	d := &validatorTestDeps{
		wallet: mocks.NewMockWalletClient(ctrl),
		user:   mocks.NewMockUserClient(ctrl),
		ctrl:   ctrl,
	}
	cfg := config.TransferConfig{
		MinAmount: "10000",
		MaxAmount: "25000000",
		FlatFee:   "1000",
	}
	v, err := NewTransferValidator(d.wallet, d.user, cfg, zerolog.Nop())
	require.NoError(t, err)
	d.validator = v
	return d
}

func externalRequest() ports.InitiateTransferRequest {
	return ports.InitiateTransferRequest{
		IdempotencyKey:       "key-1",
		UserID:               uuid.New(),
		WalletID:             uuid.New(),
		CounterpartyUserID:   uuid.New(),
		CounterpartyWalletID: uuid.New(),
		Amount:               decimal.NewFromInt(50000),
		Token:                "bearer-token",
	}
}

func TestTransferValidator_ValidateTransfer_AmountChecks(t *testing.T) {
	d := setupValidator(t)
	defer d.ctrl.Finish()

	tests := []struct {
		name     string
		amount   decimal.Decimal
		wantCode string
	}{
		{"zero", decimal.Zero, "VAL_001"},
		{"negative", decimal.NewFromInt(-5000), "VAL_001"},
		{"below minimum", decimal.NewFromInt(9999), "VAL_002"},
		{"above maximum", decimal.NewFromInt(25000001), "VAL_002"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := externalRequest()
			req.Amount = tt.amount
			_, err := d.validator.ValidateTransfer(context.Background(), req)
			assertAppError(t, err, tt.wantCode)
		})
	}
}

func TestTransferValidator_ValidateTransfer_SelfTransfer(t *testing.T) {
	d := setupValidator(t)
	defer d.ctrl.Finish()

	req := externalRequest()
	req.CounterpartyUserID = req.UserID

	_, err := d.validator.ValidateTransfer(context.Background(), req)
	assertAppError(t, err, "VAL_003")
}

func TestTransferValidator_ValidateTransfer_Success(t *testing.T) {
	d := setupValidator(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	req := externalRequest()
	total := decimal.NewFromInt(51000)

	d.wallet.EXPECT().
		ValidateRole(ctx, req.WalletID, req.UserID, ports.WalletActionDebit, gomock.Any(), domain.TransactionTypeTransferOut).
		Return(&ports.RoleCheck{Allowed: true}, nil)
	d.wallet.EXPECT().
		ValidateBalance(ctx, req.WalletID, gomock.Any(), ports.WalletActionDebit, req.UserID).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, amount decimal.Decimal, _ ports.WalletAction, _ uuid.UUID) (*ports.BalanceCheck, error) {
			// The fee is part of the checked amount
			assert.True(t, amount.Equal(total))
			return &ports.BalanceCheck{Allowed: true, Balance: decimal.NewFromInt(200000)}, nil
		})
	d.user.EXPECT().
		FindProfileByID(ctx, req.CounterpartyUserID, req.Token).
		Return(&ports.UserProfile{ID: req.CounterpartyUserID, Name: "Budi", PhoneNumber: "+628123456789"}, nil)
	d.user.EXPECT().
		FindProfileByID(ctx, req.UserID, req.Token).
		Return(&ports.UserProfile{ID: req.UserID, Name: "Ani", PhoneNumber: "+628111222333"}, nil)

	result, err := d.validator.ValidateTransfer(ctx, req)
	require.NoError(t, err)
	assert.True(t, result.Fee.Equal(decimal.NewFromInt(1000)))
	assert.True(t, result.TotalAmount.Equal(total))
	assert.True(t, result.AvailableBalance.Equal(decimal.NewFromInt(200000)))
	assert.Equal(t, "Budi", result.ReceiverProfile.Name)
	assert.Equal(t, "Ani", result.SenderProfile.Name)
}

func TestTransferValidator_ValidateTransfer_InsufficientBalance(t *testing.T) {
	d := setupValidator(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	req := externalRequest()

	// All four checks are issued even when one denies.
	d.wallet.EXPECT().
		ValidateRole(ctx, req.WalletID, req.UserID, ports.WalletActionDebit, gomock.Any(), domain.TransactionTypeTransferOut).
		Return(&ports.RoleCheck{Allowed: true}, nil)
	d.wallet.EXPECT().
		ValidateBalance(ctx, req.WalletID, gomock.Any(), ports.WalletActionDebit, req.UserID).
		Return(&ports.BalanceCheck{Allowed: false, Reason: ports.DenyInsufficientBalance}, nil)
	d.user.EXPECT().
		FindProfileByID(ctx, req.CounterpartyUserID, req.Token).
		Return(&ports.UserProfile{ID: req.CounterpartyUserID, Name: "Budi"}, nil)
	d.user.EXPECT().
		FindProfileByID(ctx, req.UserID, req.Token).
		Return(&ports.UserProfile{ID: req.UserID, Name: "Ani"}, nil)

	_, err := d.validator.ValidateTransfer(ctx, req)
	assertAppError(t, err, "TRF_001")
}

func TestTransferValidator_ValidateTransfer_RoleDenied(t *testing.T) {
	d := setupValidator(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	req := externalRequest()

	d.wallet.EXPECT().
		ValidateRole(ctx, req.WalletID, req.UserID, ports.WalletActionDebit, gomock.Any(), domain.TransactionTypeTransferOut).
		Return(&ports.RoleCheck{Allowed: false, Reason: ports.DenyRoleNotPermitted}, nil)
	d.wallet.EXPECT().
		ValidateBalance(ctx, req.WalletID, gomock.Any(), ports.WalletActionDebit, req.UserID).
		Return(&ports.BalanceCheck{Allowed: true, Balance: decimal.NewFromInt(200000)}, nil)
	d.user.EXPECT().
		FindProfileByID(ctx, req.CounterpartyUserID, req.Token).
		Return(&ports.UserProfile{ID: req.CounterpartyUserID, Name: "Budi"}, nil)
	d.user.EXPECT().
		FindProfileByID(ctx, req.UserID, req.Token).
		Return(&ports.UserProfile{ID: req.UserID, Name: "Ani"}, nil)

	_, err := d.validator.ValidateTransfer(ctx, req)
	assertAppError(t, err, "TRF_002")
}

func TestTransferValidator_ValidateTransfer_ReceiverProfileFallback(t *testing.T) {
	d := setupValidator(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	req := externalRequest()

	d.wallet.EXPECT().
		ValidateRole(ctx, req.WalletID, req.UserID, ports.WalletActionDebit, gomock.Any(), domain.TransactionTypeTransferOut).
		Return(&ports.RoleCheck{Allowed: true}, nil)
	d.wallet.EXPECT().
		ValidateBalance(ctx, req.WalletID, gomock.Any(), ports.WalletActionDebit, req.UserID).
		Return(&ports.BalanceCheck{Allowed: true, Balance: decimal.NewFromInt(200000)}, nil)
	// Receiver lookup fails; the transfer must still proceed
	d.user.EXPECT().
		FindProfileByID(ctx, req.CounterpartyUserID, req.Token).
		Return(nil, errors.New("user service timeout"))
	d.user.EXPECT().
		FindProfileByID(ctx, req.UserID, req.Token).
		Return(&ports.UserProfile{ID: req.UserID, Name: "Ani"}, nil)

	result, err := d.validator.ValidateTransfer(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, req.CounterpartyUserID, result.ReceiverProfile.ID)
	assert.Equal(t, "Unknown", result.ReceiverProfile.Name)
}

func TestTransferValidator_ValidateTransfer_SenderProfileFatal(t *testing.T) {
	d := setupValidator(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	req := externalRequest()

	d.wallet.EXPECT().
		ValidateRole(ctx, req.WalletID, req.UserID, ports.WalletActionDebit, gomock.Any(), domain.TransactionTypeTransferOut).
		Return(&ports.RoleCheck{Allowed: true}, nil)
	d.wallet.EXPECT().
		ValidateBalance(ctx, req.WalletID, gomock.Any(), ports.WalletActionDebit, req.UserID).
		Return(&ports.BalanceCheck{Allowed: true, Balance: decimal.NewFromInt(200000)}, nil)
	d.user.EXPECT().
		FindProfileByID(ctx, req.CounterpartyUserID, req.Token).
		Return(&ports.UserProfile{ID: req.CounterpartyUserID, Name: "Budi"}, nil)
	// Sender identity feeds the receiver-leg record; no placeholder here
	d.user.EXPECT().
		FindProfileByID(ctx, req.UserID, req.Token).
		Return(nil, errors.New("user service timeout"))

	_, err := d.validator.ValidateTransfer(ctx, req)
	assertAppError(t, err, "TRF_007")
}

func TestTransferValidator_ValidateTransfer_WalletUnavailable(t *testing.T) {
	d := setupValidator(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	req := externalRequest()

	d.wallet.EXPECT().
		ValidateRole(ctx, req.WalletID, req.UserID, ports.WalletActionDebit, gomock.Any(), domain.TransactionTypeTransferOut).
		Return(nil, errors.New("connection refused"))
	d.wallet.EXPECT().
		ValidateBalance(ctx, req.WalletID, gomock.Any(), ports.WalletActionDebit, req.UserID).
		Return(&ports.BalanceCheck{Allowed: true, Balance: decimal.NewFromInt(200000)}, nil)
	d.user.EXPECT().
		FindProfileByID(ctx, req.CounterpartyUserID, req.Token).
		Return(&ports.UserProfile{ID: req.CounterpartyUserID, Name: "Budi"}, nil)
	d.user.EXPECT().
		FindProfileByID(ctx, req.UserID, req.Token).
		Return(&ports.UserProfile{ID: req.UserID, Name: "Ani"}, nil)

	_, err := d.validator.ValidateTransfer(ctx, req)
	assertAppError(t, err, "SYS_002")
}

func internalRequest() ports.InitiateInternalTransferRequest {
	return ports.InitiateInternalTransferRequest{
		IdempotencyKey:      "key-2",
		UserID:              uuid.New(),
		SourceWalletID:      uuid.New(),
		DestinationWalletID: uuid.New(),
		Amount:              decimal.NewFromInt(50000),
		Token:               "bearer-token",
	}
}

func TestTransferValidator_ValidateInternal_Success(t *testing.T) {
	d := setupValidator(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	req := internalRequest()

	d.wallet.EXPECT().
		ValidateOwnership(ctx, req.UserID, []uuid.UUID{req.SourceWalletID, req.DestinationWalletID}).
		Return(&ports.OwnershipCheck{IsOwner: true, WalletNames: map[uuid.UUID]string{
			req.SourceWalletID:      "Daily",
			req.DestinationWalletID: "Savings",
		}}, nil)
	d.wallet.EXPECT().
		ValidateRole(ctx, req.SourceWalletID, req.UserID, ports.WalletActionDebit, gomock.Any(), domain.TransactionTypeInternalTransferOut).
		Return(&ports.RoleCheck{Allowed: true}, nil)
	d.wallet.EXPECT().
		ValidateBalance(ctx, req.SourceWalletID, gomock.Any(), ports.WalletActionDebit, req.UserID).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, amount decimal.Decimal, _ ports.WalletAction, _ uuid.UUID) (*ports.BalanceCheck, error) {
			// No fee on internal moves
			assert.True(t, amount.Equal(req.Amount))
			return &ports.BalanceCheck{Allowed: true, Balance: decimal.NewFromInt(200000)}, nil
		})

	result, err := d.validator.ValidateInternal(ctx, req)
	require.NoError(t, err)
	assert.True(t, result.Fee.IsZero())
	assert.True(t, result.TotalAmount.Equal(req.Amount))
	assert.Equal(t, "Savings", result.WalletNames[req.DestinationWalletID])
}

func TestTransferValidator_ValidateInternal_SameWallet(t *testing.T) {
	d := setupValidator(t)
	defer d.ctrl.Finish()

	req := internalRequest()
	req.DestinationWalletID = req.SourceWalletID

	_, err := d.validator.ValidateInternal(context.Background(), req)
	assertAppError(t, err, "VAL_004")
}

func TestTransferValidator_ValidateInternal_NotOwned(t *testing.T) {
	d := setupValidator(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	req := internalRequest()

	d.wallet.EXPECT().
		ValidateOwnership(ctx, req.UserID, gomock.Any()).
		Return(&ports.OwnershipCheck{IsOwner: false}, nil)
	d.wallet.EXPECT().
		ValidateRole(ctx, req.SourceWalletID, req.UserID, ports.WalletActionDebit, gomock.Any(), domain.TransactionTypeInternalTransferOut).
		Return(&ports.RoleCheck{Allowed: true}, nil)
	d.wallet.EXPECT().
		ValidateBalance(ctx, req.SourceWalletID, gomock.Any(), ports.WalletActionDebit, req.UserID).
		Return(&ports.BalanceCheck{Allowed: true, Balance: decimal.NewFromInt(200000)}, nil)

	_, err := d.validator.ValidateInternal(ctx, req)
	assertAppError(t, err, "TRF_005")
}

func TestDenyToError(t *testing.T) {
	tests := []struct {
		code     ports.DenyCode
		wantCode string
	}{
		{ports.DenyInsufficientBalance, "TRF_001"},
		{ports.DenyRoleNotPermitted, "TRF_002"},
		{ports.DenyLimitExceeded, "TRF_003"},
		{ports.DenyWalletInactive, "TRF_004"},
		{ports.DenyUnknown, "TRF_010"},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.wantCode, denyToError(tt.code).Code)
		})
	}
}
