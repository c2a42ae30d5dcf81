package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"wallet-transaction-service/internal/core/domain"
	"wallet-transaction-service/internal/core/ports"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WalletClient implements ports.WalletClient against the wallet service's
// internal API.
type WalletClient struct {
	baseClient
}

// NewWalletClient creates a new WalletClient.
func NewWalletClient(httpClient *http.Client, baseURL string) *WalletClient {
	return &WalletClient{baseClient: newBaseClient(httpClient, baseURL)}
}

type validateRoleRequest struct {
	UserID       uuid.UUID       `json:"user_id"`
	Action       string          `json:"action"`
	Amount       decimal.Decimal `json:"amount"`
	TransferType string          `json:"transfer_type"`
}

type validateRoleResponse struct {
	Allowed       bool              `json:"allowed"`
	Reason        string            `json:"reason"`
	EffectiveRole string            `json:"effective_role"`
	Extras        map[string]string `json:"extras"`
}

// ValidateRole asks whether the user may perform the action on the wallet.
func (c *WalletClient) ValidateRole(ctx context.Context, walletID, userID uuid.UUID, action ports.WalletAction, amount decimal.Decimal, transferType domain.TransactionType) (*ports.RoleCheck, error) {
	var resp validateRoleResponse
	err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/internal/wallets/%s/validate-role", walletID), "",
		validateRoleRequest{
			UserID:       userID,
			Action:       string(action),
			Amount:       amount,
			TransferType: string(transferType),
		}, &resp)
	if err != nil {
		return nil, err
	}
	return &ports.RoleCheck{
		Allowed:       resp.Allowed,
		Reason:        translateDenyReason(resp.Reason),
		EffectiveRole: resp.EffectiveRole,
		Extras:        resp.Extras,
	}, nil
}

type validateBalanceRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Action      string          `json:"action"`
	ActorUserID uuid.UUID       `json:"actor_user_id"`
}

type validateBalanceResponse struct {
	Allowed bool            `json:"allowed"`
	Reason  string          `json:"reason"`
	Balance decimal.Decimal `json:"balance"`
}

// ValidateBalance asks whether the wallet can cover the amount.
func (c *WalletClient) ValidateBalance(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal, action ports.WalletAction, actorUserID uuid.UUID) (*ports.BalanceCheck, error) {
	var resp validateBalanceResponse
	err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/internal/wallets/%s/validate-balance", walletID), "",
		validateBalanceRequest{Amount: amount, Action: string(action), ActorUserID: actorUserID}, &resp)
	if err != nil {
		return nil, err
	}
	return &ports.BalanceCheck{
		Allowed: resp.Allowed,
		Reason:  translateDenyReason(resp.Reason),
		Balance: resp.Balance,
	}, nil
}

type balanceUpdateRequest struct {
	Delta        decimal.Decimal `json:"delta"`
	ReferenceID  string          `json:"reference_id"`
	Reason       string          `json:"reason"`
	ActorUserID  uuid.UUID       `json:"actor_user_id"`
	TransferType string          `json:"transfer_type"`
}

type balanceUpdateResponse struct {
	PreviousBalance decimal.Decimal `json:"previous_balance"`
	NewBalance      decimal.Decimal `json:"new_balance"`
}

// UpdateBalance applies a signed delta to the wallet. The wallet service
// deduplicates on ReferenceID, so a retried call is harmless.
func (c *WalletClient) UpdateBalance(ctx context.Context, req ports.BalanceUpdateRequest) (*ports.BalanceUpdate, error) {
	var resp balanceUpdateResponse
	err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/internal/wallets/%s/balance", req.WalletID), "",
		balanceUpdateRequest{
			Delta:        req.Delta,
			ReferenceID:  req.ReferenceID,
			Reason:       req.Reason,
			ActorUserID:  req.ActorUserID,
			TransferType: string(req.TransferType),
		}, &resp)
	if err != nil {
		return nil, err
	}
	return &ports.BalanceUpdate{
		PreviousBalance: resp.PreviousBalance,
		NewBalance:      resp.NewBalance,
	}, nil
}

type validateOwnershipRequest struct {
	UserID    uuid.UUID   `json:"user_id"`
	WalletIDs []uuid.UUID `json:"wallet_ids"`
}

type validateOwnershipResponse struct {
	IsOwner     bool                 `json:"is_owner"`
	WalletNames map[uuid.UUID]string `json:"wallet_names"`
}

// ValidateOwnership checks that every wallet in the list belongs to the user.
func (c *WalletClient) ValidateOwnership(ctx context.Context, userID uuid.UUID, walletIDs []uuid.UUID) (*ports.OwnershipCheck, error) {
	var resp validateOwnershipResponse
	err := c.doJSON(ctx, http.MethodPost, "/internal/wallets/validate-ownership", "",
		validateOwnershipRequest{UserID: userID, WalletIDs: walletIDs}, &resp)
	if err != nil {
		return nil, err
	}
	return &ports.OwnershipCheck{IsOwner: resp.IsOwner, WalletNames: resp.WalletNames}, nil
}

type walletSummaryResponse struct {
	ID       uuid.UUID `json:"id"`
	UserID   uuid.UUID `json:"user_id"`
	Name     string    `json:"name"`
	Currency string    `json:"currency"`
}

// FindDefaultWallet resolves a user's default wallet. Returns nil when the
// user has no wallet.
func (c *WalletClient) FindDefaultWallet(ctx context.Context, userID uuid.UUID) (*ports.WalletSummary, error) {
	var resp walletSummaryResponse
	err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/internal/users/%s/wallets/default", userID), "", nil, &resp)
	if err != nil {
		var he *httpError
		if errors.As(err, &he) && he.status == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &ports.WalletSummary{
		ID:       resp.ID,
		UserID:   resp.UserID,
		Name:     resp.Name,
		Currency: resp.Currency,
	}, nil
}
