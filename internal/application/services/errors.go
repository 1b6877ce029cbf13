package services

import (
	"errors"
	"net/http"

	"github.com/AtRiskMedia/storefront-go/internal/domain/shopper"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/backend"
)

// ErrLoginRequired means the shopper has no usable session for the vendor.
var ErrLoginRequired = errors.New("login required")

const (
	loginRequiredMessage = "Please log in to continue."
	genericActionMessage = "Something went wrong. Please try again."
)

// UserMessage is the inline text shown for a failed action.
func UserMessage(err error) string {
	var validationErr *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrLoginRequired):
		return loginRequiredMessage
	case errors.As(err, &validationErr):
		return validationErr.Error()
	}
	if apiErr, ok := backend.AsAPIError(err); ok {
		return apiErr.Message
	}
	return genericActionMessage
}

// StatusOf maps an action error to an HTTP status for the JSON API.
func StatusOf(err error) int {
	var validationErr *ValidationError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrLoginRequired):
		return http.StatusUnauthorized
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	}
	if apiErr, ok := backend.AsAPIError(err); ok {
		if apiErr.Status == 0 || apiErr.Status >= 500 {
			return http.StatusBadGateway
		}
		return apiErr.Status
	}
	return http.StatusInternalServerError
}

// ActionResult is the outcome of a cart action. A failed action carries the
// cart as it was before the action.
type ActionResult struct {
	Cart   *shopper.Cart `json:"cart"`
	Error  string        `json:"error,omitempty"`
	Status int           `json:"-"`
}

func NewActionResult(previous, next *shopper.Cart, err error) ActionResult {
	if err != nil {
		return ActionResult{Cart: previous, Error: UserMessage(err), Status: StatusOf(err)}
	}
	return ActionResult{Cart: next, Status: http.StatusOK}
}

// Failed reports whether the action failed.
func (r ActionResult) Failed() bool {
	return r.Error != ""
}
