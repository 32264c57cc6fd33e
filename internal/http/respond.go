package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/api"
)

const maxRequestBodySize = 1 << 20 // 1MB

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}

// handleAPIError converts a remote service failure into an HTTP answer.
// The service's own message is passed through when it sent one.
func handleAPIError(w http.ResponseWriter, err error) {
	var apiErr *api.Error

	switch {
	case errors.As(err, &apiErr):
		status, code := apiErr.Status, "upstream_error"
		switch {
		case apiErr.Status == http.StatusBadRequest:
			code = "invalid_argument"
		case apiErr.Status == http.StatusUnauthorized:
			code = "unauthenticated"
		case apiErr.Status == http.StatusForbidden:
			code = "permission_denied"
		case apiErr.Status == http.StatusNotFound:
			code = "not_found"
		case apiErr.Status == http.StatusConflict:
			code = "already_exists"
		case apiErr.Status >= http.StatusInternalServerError:
			status = http.StatusBadGateway
		}
		respondError(w, status, code, apiErr.Message)
	case errors.Is(err, api.ErrInvalidRequest):
		respondError(w, http.StatusBadRequest, "invalid_argument", err.Error())
	case errors.Is(err, api.ErrCircuitOpen):
		respondError(w, http.StatusServiceUnavailable, "service_unavailable", api.UserMessage(err))
	case errors.Is(err, api.ErrInvalidResponse):
		respondError(w, http.StatusBadGateway, "invalid_response", "the service sent an unexpected response")
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "timeout", "the service did not answer in time")
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", api.UserMessage(err))
	}
}
