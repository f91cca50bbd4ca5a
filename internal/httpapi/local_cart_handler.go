package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/leon-morival/cynaMobile/internal/domain"
)

// LocalCartService is the legacy device-persisted cart, served to sessions
// that have no backend cart available.
type LocalCartService interface {
	Snapshot() domain.Cart
	Add(ctx context.Context, product *domain.Product, interval domain.BillingInterval, quantity int) error
	SetQuantity(ctx context.Context, localID string, quantity int) error
	Remove(ctx context.Context, localID string) error
	ChangeInterval(ctx context.Context, localID string, product *domain.Product, interval domain.BillingInterval) error
	Clear(ctx context.Context) error
}

// ProductFinder resolves products for local-cart pricing.
type ProductFinder interface {
	FindProductByID(id int64) (*domain.Product, bool)
}

type LocalCartHandler struct {
	carts    LocalCartService
	products ProductFinder
	timeout  time.Duration
}

func NewLocalCartHandler(carts LocalCartService, products ProductFinder, timeout time.Duration) *LocalCartHandler {
	return &LocalCartHandler{carts: carts, products: products, timeout: timeout}
}

type LocalUpdateItemRequestDTO struct {
	Quantity         *int                    `json:"quantity,omitempty"`
	SubscriptionType *domain.BillingInterval `json:"subscription_type,omitempty"`
}

func (h *LocalCartHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.carts.Snapshot())
}

func (h *LocalCartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}
	product, ok := h.products.FindProductByID(req.ProductID)
	if !ok {
		respondError(w, http.StatusNotFound, "not_found", "unknown product")
		return
	}

	if err := h.carts.Add(ctx, product, req.SubscriptionType, req.Quantity); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, h.carts.Snapshot())
}

// UpdateItem changes quantity, interval, or both. A quantity of zero removes
// the line, mirroring the legacy device behavior.
func (h *LocalCartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	localID := chi.URLParam(r, "localID")

	var req LocalUpdateItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.SubscriptionType != nil {
		line, ok := h.findLine(localID)
		if !ok {
			respondError(w, http.StatusNotFound, "not_found", "unknown cart line")
			return
		}
		product, ok := h.products.FindProductByID(line.ProductID)
		if !ok {
			respondError(w, http.StatusNotFound, "not_found", "unknown product")
			return
		}
		if err := h.carts.ChangeInterval(ctx, localID, product, *req.SubscriptionType); err != nil {
			handleError(w, err)
			return
		}
	}
	if req.Quantity != nil {
		if err := h.carts.SetQuantity(ctx, localID, *req.Quantity); err != nil {
			handleError(w, err)
			return
		}
	}
	respondJSON(w, http.StatusOK, h.carts.Snapshot())
}

func (h *LocalCartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.carts.Remove(ctx, chi.URLParam(r, "localID")); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.carts.Snapshot())
}

func (h *LocalCartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.carts.Clear(ctx); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.carts.Snapshot())
}

func (h *LocalCartHandler) findLine(localID string) (domain.CartLine, bool) {
	snapshot := h.carts.Snapshot()
	for _, line := range snapshot.Lines {
		if line.LocalID == localID {
			return line, true
		}
	}
	return domain.CartLine{}, false
}
