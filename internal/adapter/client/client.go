package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"wallet-transaction-service/internal/core/ports"
)

// apiEnvelope is the response wrapper every platform service uses.
type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *apiError       `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// httpError carries a non-2xx upstream status for callers that branch on it.
type httpError struct {
	status int
	body   string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("upstream returned %d: %s", e.status, e.body)
}

// baseClient holds the pieces shared by the wallet, user and auth clients.
type baseClient struct {
	httpClient *http.Client
	baseURL    string
}

func newBaseClient(httpClient *http.Client, baseURL string) baseClient {
	return baseClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// doJSON performs a request with JSON body and decodes the envelope's data
// field into out. The bearer token is forwarded when non-empty. A non-2xx
// status returns *httpError so callers can map 404 and 422 distinctly.
func (c *baseClient) doJSON(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &httpError{status: resp.StatusCode, body: strings.TrimSpace(string(raw))}
	}

	if out == nil {
		return nil
	}
	var envelope apiEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("decode response envelope: %w", err)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

// translateDenyReason maps wire-level denial reasons to the closed DenyCode
// set. This is the only place raw reason strings are interpreted.
func translateDenyReason(reason string) ports.DenyCode {
	switch strings.ToUpper(strings.TrimSpace(reason)) {
	case "":
		return ports.DenyNone
	case "INSUFFICIENT_BALANCE", "BALANCE_TOO_LOW":
		return ports.DenyInsufficientBalance
	case "LIMIT_EXCEEDED", "TRANSFER_LIMIT_EXCEEDED", "DAILY_LIMIT_EXCEEDED":
		return ports.DenyLimitExceeded
	case "ROLE_NOT_PERMITTED", "PERMISSION_DENIED", "FORBIDDEN_ROLE":
		return ports.DenyRoleNotPermitted
	case "WALLET_INACTIVE", "WALLET_FROZEN", "WALLET_CLOSED":
		return ports.DenyWalletInactive
	default:
		return ports.DenyUnknown
	}
}
