package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"wallet-transaction-service/internal/core/ports"

	"github.com/google/uuid"
)

// UserClient implements ports.UserClient against the user service's internal
// API. The caller's bearer token is forwarded on every call.
type UserClient struct {
	baseClient
}

// NewUserClient creates a new UserClient.
func NewUserClient(httpClient *http.Client, baseURL string) *UserClient {
	return &UserClient{baseClient: newBaseClient(httpClient, baseURL)}
}

type userProfileResponse struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	PhoneNumber     string    `json:"phone_number"`
	ProfileImageURL string    `json:"profile_image_url"`
}

// FindProfileByID fetches a profile by user id. Returns nil when not found.
func (c *UserClient) FindProfileByID(ctx context.Context, userID uuid.UUID, token string) (*ports.UserProfile, error) {
	return c.fetchProfile(ctx, fmt.Sprintf("/internal/users/%s", userID), token)
}

// FindProfileByPhone fetches a profile by phone number. Returns nil when not
// found.
func (c *UserClient) FindProfileByPhone(ctx context.Context, phone string, token string) (*ports.UserProfile, error) {
	return c.fetchProfile(ctx, "/internal/users/phone/"+url.PathEscape(phone), token)
}

func (c *UserClient) fetchProfile(ctx context.Context, path, token string) (*ports.UserProfile, error) {
	var resp userProfileResponse
	err := c.doJSON(ctx, http.MethodGet, path, token, nil, &resp)
	if err != nil {
		var he *httpError
		if errors.As(err, &he) && he.status == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &ports.UserProfile{
		ID:              resp.ID,
		Name:            resp.Name,
		PhoneNumber:     resp.PhoneNumber,
		ProfileImageURL: resp.ProfileImageURL,
	}, nil
}
