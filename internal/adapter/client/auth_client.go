package client

import (
	"context"
	"errors"
	"net/http"
)

// AuthClient implements ports.AuthClient against the auth service's internal
// API.
type AuthClient struct {
	baseClient
}

// NewAuthClient creates a new AuthClient.
func NewAuthClient(httpClient *http.Client, baseURL string) *AuthClient {
	return &AuthClient{baseClient: newBaseClient(httpClient, baseURL)}
}

type verifyPINRequest struct {
	PIN string `json:"pin"`
}

type verifyPINResponse struct {
	Valid bool `json:"valid"`
}

// VerifyPIN checks the caller's transaction PIN. A wrong PIN is a normal
// outcome (false, nil); only transport or server failures return an error.
func (c *AuthClient) VerifyPIN(ctx context.Context, pin string, token string) (bool, error) {
	var resp verifyPINResponse
	err := c.doJSON(ctx, http.MethodPost, "/internal/auth/verify-pin", token, verifyPINRequest{PIN: pin}, &resp)
	if err != nil {
		var he *httpError
		if errors.As(err, &he) && (he.status == http.StatusUnauthorized || he.status == http.StatusForbidden) {
			return false, nil
		}
		return false, err
	}
	return resp.Valid, nil
}
