package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/notify"
	"github.com/fjod/go_cart/storefront/internal/session"
)

const MsgLoggedOut = "You have been logged out."

type IdentitySource interface {
	Current() *domain.Identity
	Resolved() bool
}

type SessionService interface {
	IdentitySource
	Login(ctx context.Context, username, password string) (domain.Identity, error)
	Logout(ctx context.Context)
	Register(ctx context.Context, username, email, password string) (string, error)
}

type SessionHandler struct {
	session  SessionService
	notifier notify.Notifier
	timeout  time.Duration
}

func NewSessionHandler(s SessionService, notifier notify.Notifier, timeout time.Duration) *SessionHandler {
	return &SessionHandler{
		session:  s,
		notifier: notifier,
		timeout:  timeout,
	}
}

type SessionResponse struct {
	Resolved bool             `json:"resolved"`
	Identity *domain.Identity `json:"identity"`
}

type LoginRequestDTO struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterRequestDTO struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, SessionResponse{
		Resolved: h.session.Resolved(),
		Identity: h.session.Current(),
	})
}

func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req LoginRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "username and password are required")
		return
	}

	identity, err := h.session.Login(ctx, req.Username, req.Password)
	if errors.Is(err, session.ErrInvalidCredentials) {
		respondError(w, http.StatusBadGateway, "invalid_response", "login failed: no access token received")
		return
	}
	if err != nil {
		handleAPIError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, SessionResponse{Resolved: true, Identity: &identity})
}

func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.session.Logout(r.Context())
	if h.notifier != nil {
		h.notifier.Notify(r.Context(), notify.Notification{Level: notify.LevelSuccess, Message: MsgLoggedOut})
	}
	respondJSON(w, http.StatusOK, SessionResponse{Resolved: true})
}

func (h *SessionHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req RegisterRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	msg, err := h.session.Register(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		handleAPIError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, MessageResponse{Message: msg})
}
