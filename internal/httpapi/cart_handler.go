package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/leon-morival/cynaMobile/internal/cart"
	"github.com/leon-morival/cynaMobile/internal/domain"
)

// CartService is the slice of the cart synchronizer the handler drives.
type CartService interface {
	Refresh(ctx context.Context) error
	Snapshot() (cart.State, domain.Cart)
	AddProduct(ctx context.Context, productID int64, interval domain.BillingInterval, quantity int) error
	Remove(ctx context.Context, lineID int64) error
	ChangeBillingInterval(ctx context.Context, lineID int64, interval domain.BillingInterval) error
	AvailableIntervals(productID int64) []domain.BillingInterval
}

type CartHandler struct {
	carts   CartService
	timeout time.Duration
}

func NewCartHandler(carts CartService, timeout time.Duration) *CartHandler {
	return &CartHandler{carts: carts, timeout: timeout}
}

type CartResponseDTO struct {
	State cart.State  `json:"state"`
	Cart  domain.Cart `json:"cart"`
}

type AddItemRequestDTO struct {
	ProductID        int64                  `json:"product_id"`
	Quantity         int                    `json:"quantity"`
	SubscriptionType domain.BillingInterval `json:"subscription_type"`
}

type UpdateItemRequestDTO struct {
	SubscriptionType domain.BillingInterval `json:"subscription_type"`
}

func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	state, snapshot := h.carts.Snapshot()
	respondJSON(w, http.StatusOK, CartResponseDTO{State: state, Cart: snapshot})
}

func (h *CartHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.carts.Refresh(ctx); err != nil {
		handleError(w, err)
		return
	}
	state, snapshot := h.carts.Snapshot()
	respondJSON(w, http.StatusOK, CartResponseDTO{State: state, Cart: snapshot})
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}
	if !req.SubscriptionType.Valid() {
		respondError(w, http.StatusBadRequest, "invalid_subscription_type", "unknown subscription_type")
		return
	}

	if err := h.carts.AddProduct(ctx, req.ProductID, req.SubscriptionType, req.Quantity); err != nil {
		handleError(w, err)
		return
	}
	state, snapshot := h.carts.Snapshot()
	respondJSON(w, http.StatusCreated, CartResponseDTO{State: state, Cart: snapshot})
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	lineID, ok := h.lineID(w, r)
	if !ok {
		return
	}

	if err := h.carts.Remove(ctx, lineID); err != nil {
		handleError(w, err)
		return
	}
	state, snapshot := h.carts.Snapshot()
	respondJSON(w, http.StatusOK, CartResponseDTO{State: state, Cart: snapshot})
}

func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	lineID, ok := h.lineID(w, r)
	if !ok {
		return
	}

	var req UpdateItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if !req.SubscriptionType.Valid() {
		respondError(w, http.StatusBadRequest, "invalid_subscription_type", "unknown subscription_type")
		return
	}

	if err := h.carts.ChangeBillingInterval(ctx, lineID, req.SubscriptionType); err != nil {
		handleError(w, err)
		return
	}
	state, snapshot := h.carts.Snapshot()
	respondJSON(w, http.StatusOK, CartResponseDTO{State: state, Cart: snapshot})
}

func (h *CartHandler) lineID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_id", "cart item id must be a positive integer")
		return 0, false
	}
	return id, true
}
