package httpapi

import (
	"context"
	"net/http"
	"time"
)

// CheckoutService runs the end-to-end paid flow.
type CheckoutService interface {
	Checkout(ctx context.Context) error
}

type CheckoutHandler struct {
	checkouts CheckoutService
	timeout   time.Duration
}

func NewCheckoutHandler(checkouts CheckoutService, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{checkouts: checkouts, timeout: timeout}
}

func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.checkouts.Checkout(ctx); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}
