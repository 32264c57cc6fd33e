package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/domain"
)

type OrderHistory interface {
	List(ctx context.Context) ([]domain.Order, error)
}

type OrdersHandler struct {
	orders  OrderHistory
	timeout time.Duration
}

func NewOrdersHandler(orders OrderHistory, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{orders: orders, timeout: timeout}
}

// List returns the user's orders, newest first.
func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	res, err := h.orders.List(ctx)
	if err != nil {
		handleAPIError(w, err)
		return
	}
	if res == nil {
		res = []domain.Order{}
	}
	respondJSON(w, http.StatusOK, res)
}

type ProfileService interface {
	Me(ctx context.Context) (*domain.UserProfile, error)
	UpdateMe(ctx context.Context, update api.ProfileUpdate) (*domain.UserProfile, error)
}

type ProfileHandler struct {
	profiles ProfileService
	timeout  time.Duration
}

func NewProfileHandler(profiles ProfileService, timeout time.Duration) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, timeout: timeout}
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	res, err := h.profiles.Me(ctx)
	if err != nil {
		handleAPIError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req api.ProfileUpdate
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.profiles.UpdateMe(ctx, req)
	if err != nil {
		handleAPIError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}
