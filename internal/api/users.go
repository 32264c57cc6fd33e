package api

import (
	"context"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

const (
	userService = "user"
	mePath      = "users/me"
)

type UserClient struct {
	c *Client
}

func NewUserClient(c *Client) *UserClient {
	return &UserClient{c: c}
}

func (u *UserClient) Me(ctx context.Context) (*domain.UserProfile, error) {
	var profile domain.UserProfile
	if err := u.c.do(ctx, call{service: userService, method: http.MethodGet, path: mePath}, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// ProfileUpdate holds the fields a user may change about themselves.
type ProfileUpdate struct {
	Email     string `json:"email,omitempty" validate:"omitempty,email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

func (u *UserClient) UpdateMe(ctx context.Context, update ProfileUpdate) (*domain.UserProfile, error) {
	var profile domain.UserProfile
	if err := u.c.do(ctx, call{service: userService, method: http.MethodPut, path: mePath, body: update}, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}
