package http

import (
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/guard"
	"github.com/fjod/go_cart/storefront/internal/notify"
)

type GuardHandler struct {
	guard      *guard.Guard
	identities IdentitySource
}

func NewGuardHandler(g *guard.Guard, identities IdentitySource) *GuardHandler {
	return &GuardHandler{guard: g, identities: identities}
}

// Decide answers whether the view at ?path= may be shown. A denial is
// announced once per transition, not on every call.
func (h *GuardHandler) Decide(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "path is required")
		return
	}
	respondJSON(w, http.StatusOK, h.guard.Check(r.Context(), path, h.identities.Current(), h.identities.Resolved()))
}

// Leave tells the guard the view at ?path= is no longer shown.
func (h *GuardHandler) Leave(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "path is required")
		return
	}
	h.guard.Forget(path)
	w.WriteHeader(http.StatusNoContent)
}

type NotificationSource interface {
	Drain() []notify.Notification
}

type NotificationHandler struct {
	source NotificationSource
}

func NewNotificationHandler(source NotificationSource) *NotificationHandler {
	return &NotificationHandler{source: source}
}

func (h *NotificationHandler) Drain(w http.ResponseWriter, r *http.Request) {
	notes := h.source.Drain()
	if notes == nil {
		notes = []notify.Notification{}
	}
	respondJSON(w, http.StatusOK, notes)
}
