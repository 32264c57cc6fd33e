package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/domain"
)

type OrderPlacer interface {
	PlaceOrder(ctx context.Context, form checkout.Form) (domain.ID, error)
}

type CheckoutHandler struct {
	checkout OrderPlacer
	timeout  time.Duration
}

func NewCheckoutHandler(c OrderPlacer, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{checkout: c, timeout: timeout}
}

type CheckoutResponse struct {
	OrderID domain.ID `json:"orderId"`
}

func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var form checkout.Form
	if r.ContentLength != 0 {
		if !decodeJSON(w, r, &form) {
			return
		}
	}

	orderID, err := h.checkout.PlaceOrder(ctx, form)
	switch {
	case err == nil:
		respondJSON(w, http.StatusCreated, CheckoutResponse{OrderID: orderID})
	case errors.Is(err, checkout.ErrNotLoggedIn):
		respondError(w, http.StatusUnauthorized, "unauthenticated", err.Error())
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "empty_cart", "Your cart is empty. Please add products before checking out.")
	case errors.Is(err, checkout.ErrInvalidPaymentMethod):
		respondError(w, http.StatusBadRequest, "invalid_payment_method", err.Error())
	case errors.Is(err, checkout.ErrCheckoutInProgress):
		respondError(w, http.StatusConflict, "checkout_in_progress", err.Error())
	default:
		handleAPIError(w, err)
	}
}
