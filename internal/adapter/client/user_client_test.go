package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserClient_FindProfileByID(t *testing.T) {
	userID := uuid.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/internal/users/"+userID.String(), r.URL.Path)
		assert.Equal(t, "Bearer caller-token", r.Header.Get("Authorization"))
		w.Write(envelope(map[string]any{
			"id":           userID.String(),
			"name":         "Budi",
			"phone_number": "+628123456789",
		}))
	}))
	defer srv.Close()

	c := NewUserClient(srv.Client(), srv.URL)
	profile, err := c.FindProfileByID(context.Background(), userID, "caller-token")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, userID, profile.ID)
	assert.Equal(t, "Budi", profile.Name)
	assert.Equal(t, "+628123456789", profile.PhoneNumber)
}

func TestUserClient_FindProfileByPhone_EscapesPath(t *testing.T) {
	userID := uuid.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The leading + must survive the round trip
		assert.Equal(t, "/internal/users/phone/+628123456789", r.URL.Path)
		w.Write(envelope(map[string]any{"id": userID.String(), "name": "Budi"}))
	}))
	defer srv.Close()

	c := NewUserClient(srv.Client(), srv.URL)
	profile, err := c.FindProfileByPhone(context.Background(), "+628123456789", "tok")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, userID, profile.ID)
}

func TestUserClient_FindProfileByID_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewUserClient(srv.Client(), srv.URL)
	profile, err := c.FindProfileByID(context.Background(), uuid.New(), "tok")
	require.NoError(t, err)
	assert.Nil(t, profile)
}

func TestUserClient_FindProfileByID_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewUserClient(srv.Client(), srv.URL)
	_, err := c.FindProfileByID(context.Background(), uuid.New(), "tok")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}
