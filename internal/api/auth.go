package api

import (
	"context"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

const (
	authService = "auth"

	registerPath = "auth/register"
	loginPath    = "auth/login"
)

type AuthClient struct {
	c *Client
}

func NewAuthClient(c *Client) *AuthClient {
	return &AuthClient{c: c}
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Login exchanges a username and password for a credential bundle.
func (a *AuthClient) Login(ctx context.Context, username, password string) (domain.Credentials, error) {
	var creds domain.Credentials
	err := a.c.do(ctx, call{
		service: authService,
		method:  http.MethodPost,
		path:    loginPath,
		body:    loginRequest{Username: username, Password: password},
	}, &creds)
	if err != nil {
		return domain.Credentials{}, err
	}
	return creds, nil
}

// Register creates an account and returns the service's confirmation text.
func (a *AuthClient) Register(ctx context.Context, username, email, password string) (string, error) {
	var resp messageResponse
	err := a.c.do(ctx, call{
		service: authService,
		method:  http.MethodPost,
		path:    registerPath,
		body:    registerRequest{Username: username, Email: email, Password: password},
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}
