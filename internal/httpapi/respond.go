// Package httpapi exposes the storefront components over a local chi-routed
// HTTP surface. It is a thin translation layer: decode the request, call the
// owning component, map sentinel errors to statuses.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/leon-morival/cynaMobile/internal/api"
	"github.com/leon-morival/cynaMobile/internal/assistant"
	"github.com/leon-morival/cynaMobile/internal/cart"
	"github.com/leon-morival/cynaMobile/internal/checkout"
	"github.com/leon-morival/cynaMobile/internal/domain"
)

type ErrorResponse struct {
	Error  string              `json:"error"`
	Code   string              `json:"code,omitempty"`
	Fields map[string][]string `json:"fields,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", slog.Any("error", err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// handleError maps component sentinels to HTTP statuses. Unknown errors are
// 500s with a generic body; the detail stays in the log, not the response.
func handleError(w http.ResponseWriter, err error) {
	var vErr *api.ValidationError
	if errors.As(err, &vErr) {
		respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:  vErr.Message,
			Code:   "validation_failed",
			Fields: vErr.Fields,
		})
		return
	}

	// Bodies stay canned per code; wrapped chains can carry upstream URLs
	// and hosts, and those belong in the log only.
	var httpStatus int
	var code, message string

	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		httpStatus = http.StatusUnauthorized
		code, message = "unauthenticated", "not logged in"
	case errors.Is(err, cart.ErrMutationInFlight):
		httpStatus = http.StatusConflict
		code, message = "mutation_in_flight", "another cart change is still running"
	case errors.Is(err, cart.ErrLineNotFound):
		httpStatus = http.StatusNotFound
		code, message = "not_found", "cart line not found"
	case errors.Is(err, cart.ErrIntervalNotOffered):
		httpStatus = http.StatusBadRequest
		code, message = "interval_not_offered", "product does not offer that billing interval"
	case errors.Is(err, cart.ErrSingleInterval):
		httpStatus = http.StatusBadRequest
		code, message = "single_interval", "product offers a single billing interval"
	case errors.Is(err, checkout.ErrEmptyCart):
		httpStatus = http.StatusConflict
		code, message = "empty_cart", "cart is empty"
	case errors.Is(err, checkout.ErrCheckoutInProgress):
		httpStatus = http.StatusConflict
		code, message = "checkout_in_progress", "a checkout is already running"
	case errors.Is(err, checkout.ErrPaymentSetup):
		httpStatus = http.StatusBadGateway
		code, message = "payment_setup_failed", "payment could not be set up"
	case errors.Is(err, checkout.ErrPaymentDeclined):
		httpStatus = http.StatusPaymentRequired
		code, message = "payment_declined", "payment was not completed"
	case errors.Is(err, checkout.ErrPartialActivation):
		httpStatus = http.StatusBadGateway
		code, message = "partial_activation", "payment succeeded but subscriptions were not activated"
	case errors.Is(err, assistant.ErrNotReady):
		httpStatus = http.StatusServiceUnavailable
		code, message = "assistant_not_ready", "assistant is not ready yet"
	case errors.Is(err, api.ErrNetwork):
		httpStatus = http.StatusBadGateway
		code, message = "backend_unavailable", "backend unavailable"
	default:
		slog.Error("unhandled error", slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	slog.Debug("request failed", slog.String("code", code), slog.Any("error", err))
	respondError(w, httpStatus, code, message)
}
