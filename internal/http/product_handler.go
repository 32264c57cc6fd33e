package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/notify"
	"github.com/go-chi/chi/v5"
)

type ProductCatalog interface {
	ProductReader
	List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)
	Categories(ctx context.Context) ([]string, error)
	Related(ctx context.Context, id domain.ID) ([]domain.Product, error)
	Create(ctx context.Context, product domain.Product) (*domain.Product, error)
	Update(ctx context.Context, id domain.ID, product domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id domain.ID) error
}

type ProductHandler struct {
	products ProductCatalog
	notifier notify.Notifier
	timeout  time.Duration
}

func NewProductHandler(products ProductCatalog, notifier notify.Notifier, timeout time.Duration) *ProductHandler {
	return &ProductHandler{
		products: products,
		notifier: notifier,
		timeout:  timeout,
	}
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	q := r.URL.Query()
	res, err := h.products.List(ctx, domain.ProductFilter{Search: q.Get("search"), Category: q.Get("category")})
	if err != nil {
		handleAPIError(w, err)
		return
	}
	if res == nil {
		res = []domain.Product{}
	}
	respondJSON(w, http.StatusOK, res)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	res, err := h.products.Get(ctx, domain.ID(chi.URLParam(r, "id")))
	if err != nil {
		handleAPIError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (h *ProductHandler) Categories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	res, err := h.products.Categories(ctx)
	if err != nil {
		handleAPIError(w, err)
		return
	}
	if res == nil {
		res = []string{}
	}
	respondJSON(w, http.StatusOK, res)
}

func (h *ProductHandler) Related(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	res, err := h.products.Related(ctx, domain.ID(chi.URLParam(r, "id")))
	if err != nil {
		handleAPIError(w, err)
		return
	}
	if res == nil {
		res = []domain.Product{}
	}
	respondJSON(w, http.StatusOK, res)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req domain.Product
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.products.Create(ctx, req)
	if err != nil {
		h.notify(ctx, notify.LevelError, "Failed to create product.")
		handleAPIError(w, err)
		return
	}
	h.notify(ctx, notify.LevelSuccess, fmt.Sprintf("%s created successfully!", res.Name))
	respondJSON(w, http.StatusCreated, res)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req domain.Product
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.products.Update(ctx, domain.ID(chi.URLParam(r, "id")), req)
	if err != nil {
		h.notify(ctx, notify.LevelError, "Failed to update product.")
		handleAPIError(w, err)
		return
	}
	h.notify(ctx, notify.LevelSuccess, fmt.Sprintf("%s updated successfully!", res.Name))
	respondJSON(w, http.StatusOK, res)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.products.Delete(ctx, domain.ID(chi.URLParam(r, "id"))); err != nil {
		h.notify(ctx, notify.LevelError, "Failed to delete product.")
		handleAPIError(w, err)
		return
	}
	h.notify(ctx, notify.LevelSuccess, "Product deleted successfully!")
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProductHandler) notify(ctx context.Context, level notify.Level, msg string) {
	if h.notifier != nil {
		h.notifier.Notify(ctx, notify.Notification{Level: level, Message: msg})
	}
}
