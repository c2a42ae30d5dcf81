package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"wallet-transaction-service/internal/core/domain"
	"wallet-transaction-service/internal/core/ports"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envelope(data any) []byte {
	raw, _ := json.Marshal(data)
	out, _ := json.Marshal(map[string]any{"success": true, "data": json.RawMessage(raw)})
	return out
}

func TestWalletClient_ValidateRole(t *testing.T) {
	walletID := uuid.New()
	userID := uuid.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/internal/wallets/"+walletID.String()+"/validate-role", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, userID.String(), req["user_id"])
		assert.Equal(t, "DEBIT", req["action"])
		assert.Equal(t, "TRANSFER_OUT", req["transfer_type"])

		w.Write(envelope(map[string]any{"allowed": true, "effective_role": "owner"}))
	}))
	defer srv.Close()

	c := NewWalletClient(srv.Client(), srv.URL)
	check, err := c.ValidateRole(context.Background(), walletID, userID, ports.WalletActionDebit,
		decimal.NewFromInt(51000), domain.TransactionTypeTransferOut)
	require.NoError(t, err)
	assert.True(t, check.Allowed)
	assert.Equal(t, ports.DenyNone, check.Reason)
	assert.Equal(t, "owner", check.EffectiveRole)
}

func TestWalletClient_ValidateBalance_DenyTranslation(t *testing.T) {
	tests := []struct {
		wire string
		want ports.DenyCode
	}{
		{"INSUFFICIENT_BALANCE", ports.DenyInsufficientBalance},
		{"balance_too_low", ports.DenyInsufficientBalance},
		{"DAILY_LIMIT_EXCEEDED", ports.DenyLimitExceeded},
		{"PERMISSION_DENIED", ports.DenyRoleNotPermitted},
		{"WALLET_FROZEN", ports.DenyWalletInactive},
		{"SOMETHING_NEW", ports.DenyUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.wire, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write(envelope(map[string]any{"allowed": false, "reason": tt.wire, "balance": "200000"}))
			}))
			defer srv.Close()

			c := NewWalletClient(srv.Client(), srv.URL)
			check, err := c.ValidateBalance(context.Background(), uuid.New(), decimal.NewFromInt(51000),
				ports.WalletActionDebit, uuid.New())
			require.NoError(t, err)
			assert.False(t, check.Allowed)
			assert.Equal(t, tt.want, check.Reason)
		})
	}
}

func TestWalletClient_UpdateBalance(t *testing.T) {
	walletID := uuid.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/internal/wallets/"+walletID.String()+"/balance", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "key-1-sender", req["reference_id"])
		assert.Equal(t, "-51000", req["delta"])

		w.Write(envelope(map[string]any{"previous_balance": "200000", "new_balance": "149000"}))
	}))
	defer srv.Close()

	c := NewWalletClient(srv.Client(), srv.URL)
	update, err := c.UpdateBalance(context.Background(), ports.BalanceUpdateRequest{
		WalletID:     walletID,
		Delta:        decimal.NewFromInt(-51000),
		ReferenceID:  "key-1-sender",
		Reason:       "transfer TRF-1-AB debit",
		ActorUserID:  uuid.New(),
		TransferType: domain.TransactionTypeTransferOut,
	})
	require.NoError(t, err)
	assert.True(t, update.PreviousBalance.Equal(decimal.NewFromInt(200000)))
	assert.True(t, update.NewBalance.Equal(decimal.NewFromInt(149000)))
}

func TestWalletClient_UpdateBalance_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"success":false}`, http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := NewWalletClient(srv.Client(), srv.URL)
	_, err := c.UpdateBalance(context.Background(), ports.BalanceUpdateRequest{
		WalletID: uuid.New(),
		Delta:    decimal.NewFromInt(-51000),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
}

func TestWalletClient_ValidateOwnership(t *testing.T) {
	userID := uuid.New()
	src := uuid.New()
	dst := uuid.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/internal/wallets/validate-ownership", r.URL.Path)
		w.Write(envelope(map[string]any{
			"is_owner": true,
			"wallet_names": map[string]string{
				src.String(): "Daily",
				dst.String(): "Savings",
			},
		}))
	}))
	defer srv.Close()

	c := NewWalletClient(srv.Client(), srv.URL)
	check, err := c.ValidateOwnership(context.Background(), userID, []uuid.UUID{src, dst})
	require.NoError(t, err)
	assert.True(t, check.IsOwner)
	assert.Equal(t, "Savings", check.WalletNames[dst])
}

func TestWalletClient_FindDefaultWallet_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewWalletClient(srv.Client(), srv.URL)
	wallet, err := c.FindDefaultWallet(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, wallet)
}

func TestWalletClient_FindDefaultWallet(t *testing.T) {
	userID := uuid.New()
	walletID := uuid.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/internal/users/"+userID.String()+"/wallets/default", r.URL.Path)
		w.Write(envelope(map[string]any{
			"id": walletID.String(), "user_id": userID.String(), "name": "Daily", "currency": "IDR",
		}))
	}))
	defer srv.Close()

	c := NewWalletClient(srv.Client(), srv.URL)
	wallet, err := c.FindDefaultWallet(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, wallet)
	assert.Equal(t, walletID, wallet.ID)
	assert.Equal(t, "Daily", wallet.Name)
}
