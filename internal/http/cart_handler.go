package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/notify"
	"github.com/go-chi/chi/v5"
)

type CartService interface {
	Snapshot() domain.Snapshot
	AddItem(ctx context.Context, p domain.Product, quantity int) domain.Snapshot
	RemoveItem(ctx context.Context, id domain.ID) domain.Snapshot
	UpdateQuantity(ctx context.Context, id domain.ID, quantity int) domain.Snapshot
	Clear(ctx context.Context) domain.Snapshot
}

// ProductReader looks up the product being added, so the cart always
// stores the catalog's name and price.
type ProductReader interface {
	Get(ctx context.Context, id domain.ID) (*domain.Product, error)
}

type CartHandler struct {
	cart     CartService
	products ProductReader
	notifier notify.Notifier
	timeout  time.Duration
}

func NewCartHandler(cart CartService, products ProductReader, notifier notify.Notifier, timeout time.Duration) *CartHandler {
	return &CartHandler{
		cart:     cart,
		products: products,
		notifier: notifier,
		timeout:  timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID domain.ID `json:"product_id"`
	Quantity  *int      `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity *int `json:"quantity"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.cart.Snapshot())
}

// AddItem adds quantity (default 1) of a product. A quantity below 1
// leaves the cart as it is.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.ProductID.String()) == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	product, err := h.products.Get(ctx, req.ProductID)
	if err != nil {
		handleAPIError(w, err)
		return
	}

	before := h.cart.Snapshot().Version
	snap := h.cart.AddItem(ctx, *product, quantity)
	if snap.Version != before {
		msg := fmt.Sprintf("%s added to cart!", product.Name)
		if quantity > 1 {
			msg = fmt.Sprintf("%dx %s added to cart!", quantity, product.Name)
		}
		h.notify(ctx, notify.LevelSuccess, msg)
	}

	respondJSON(w, http.StatusCreated, snap)
}

// UpdateQuantity sets a line's quantity; zero or less removes the line.
// The quantity must be given explicitly.
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	productID := domain.ID(chi.URLParam(r, "product_id"))

	var req UpdateQuantityRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Quantity == nil {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity is required")
		return
	}

	respondJSON(w, http.StatusOK, h.cart.UpdateQuantity(r.Context(), productID, *req.Quantity))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID := domain.ID(chi.URLParam(r, "product_id"))

	var name string
	for _, item := range h.cart.Snapshot().Items {
		if item.ProductID == productID {
			name = item.Name
			break
		}
	}

	snap := h.cart.RemoveItem(r.Context(), productID)
	if name != "" {
		h.notify(r.Context(), notify.LevelSuccess, fmt.Sprintf("%s removed from cart.", name))
	}
	respondJSON(w, http.StatusOK, snap)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.cart.Clear(r.Context()))
}

func (h *CartHandler) notify(ctx context.Context, level notify.Level, msg string) {
	if h.notifier != nil {
		h.notifier.Notify(ctx, notify.Notification{Level: level, Message: msg})
	}
}
