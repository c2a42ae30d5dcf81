package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthClient_VerifyPIN_Valid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/internal/auth/verify-pin", r.URL.Path)
		assert.Equal(t, "Bearer caller-token", r.Header.Get("Authorization"))

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "123456", req["pin"])

		w.Write(envelope(map[string]bool{"valid": true}))
	}))
	defer srv.Close()

	c := NewAuthClient(srv.Client(), srv.URL)
	ok, err := c.VerifyPIN(context.Background(), "123456", "caller-token")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAuthClient_VerifyPIN_Invalid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(envelope(map[string]bool{"valid": false}))
	}))
	defer srv.Close()

	c := NewAuthClient(srv.Client(), srv.URL)
	ok, err := c.VerifyPIN(context.Background(), "000000", "tok")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAuthClient_VerifyPIN_Unauthorized(t *testing.T) {
	// 401 means a wrong PIN, not an infrastructure failure
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"success":false}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewAuthClient(srv.Client(), srv.URL)
	ok, err := c.VerifyPIN(context.Background(), "000000", "tok")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAuthClient_VerifyPIN_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewAuthClient(srv.Client(), srv.URL)
	_, err := c.VerifyPIN(context.Background(), "123456", "tok")
	assert.Error(t, err)
}

func TestTranslateDenyReason_Empty(t *testing.T) {
	assert.Equal(t, "", string(translateDenyReason("")))
	assert.Equal(t, "", string(translateDenyReason("  ")))
}
