package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrCircuitOpen     = errors.New("service temporarily unavailable")
	ErrInvalidResponse = errors.New("invalid response from service")
	ErrInvalidRequest  = errors.New("invalid request")
)

// Error is a non-2xx answer from a remote service. Message is what the
// service said, suitable for showing to the user.
type Error struct {
	Service string
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s service returned %d: %s", e.Service, e.Status, e.Message)
}

// Temporary reports whether the failure is on the service side.
func (e *Error) Temporary() bool {
	return e.Status >= http.StatusInternalServerError
}

// UserMessage returns the text to show for err: the service's own message
// when there is one, a generic line otherwise.
func UserMessage(err error) string {
	var apiErr *Error
	switch {
	case err == nil:
		return ""
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.Is(err, ErrCircuitOpen):
		return "The service is temporarily unavailable. Please try again shortly."
	case errors.Is(err, ErrInvalidRequest):
		return err.Error()
	default:
		return "Request failed due to a server error."
	}
}
