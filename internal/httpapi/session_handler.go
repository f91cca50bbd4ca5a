package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/leon-morival/cynaMobile/internal/api"
	"github.com/leon-morival/cynaMobile/internal/domain"
)

// AuthBackend is the slice of the API client the session handler calls
// directly (everything token-issuing or account-scoped).
type AuthBackend interface {
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	Register(ctx context.Context, req api.RegisterRequest) error
	ChangePassword(ctx context.Context, token, current, updated string) error
	Subscriptions(ctx context.Context, token string) ([]domain.Subscription, error)
	SubscriptionInvoices(ctx context.Context, token string, subscriptionID int64) ([]domain.Invoice, error)
}

// Sessions is the slice of the session store the handler mutates.
type Sessions interface {
	Session() domain.Session
	SetToken(ctx context.Context, token *string) error
	SetUser(ctx context.Context, user *domain.User) error
}

// SessionCarts lets login/logout push the cart through a refresh so its state
// tracks the session.
type SessionCarts interface {
	Refresh(ctx context.Context) error
}

type SessionHandler struct {
	backend  AuthBackend
	sessions Sessions
	carts    SessionCarts
	timeout  time.Duration
}

func NewSessionHandler(backend AuthBackend, sessions Sessions, carts SessionCarts, timeout time.Duration) *SessionHandler {
	return &SessionHandler{
		backend:  backend,
		sessions: sessions,
		carts:    carts,
		timeout:  timeout,
	}
}

type LoginRequestDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SessionResponseDTO struct {
	Authenticated bool         `json:"authenticated"`
	User          *domain.User `json:"user,omitempty"`
}

func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req LoginRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "invalid_credentials", "email and password are required")
		return
	}

	token, user, err := h.backend.Login(ctx, req.Email, req.Password)
	if err != nil {
		handleError(w, err)
		return
	}

	if err := h.sessions.SetToken(ctx, &token); err != nil {
		handleError(w, err)
		return
	}
	if user != nil {
		if err := h.sessions.SetUser(ctx, user); err != nil {
			handleError(w, err)
			return
		}
	}

	// the server cart belongs to the account that just signed in
	_ = h.carts.Refresh(ctx)

	respondJSON(w, http.StatusOK, SessionResponseDTO{Authenticated: true, User: user})
}

func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.sessions.SetToken(ctx, nil); err != nil {
		handleError(w, err)
		return
	}
	_ = h.carts.Refresh(ctx)

	respondJSON(w, http.StatusOK, SessionResponseDTO{Authenticated: false})
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	session := h.sessions.Session()
	respondJSON(w, http.StatusOK, SessionResponseDTO{
		Authenticated: session.Authenticated(),
		User:          session.User,
	})
}

func (h *SessionHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req api.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "email and password are required")
		return
	}

	if err := h.backend.Register(ctx, req); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"status": "registered"})
}

type ChangePasswordRequestDTO struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *SessionHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	token, ok := h.requireToken(w)
	if !ok {
		return
	}

	var req ChangePasswordRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "current and new password are required")
		return
	}

	if err := h.backend.ChangePassword(ctx, token, req.CurrentPassword, req.NewPassword); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "password_changed"})
}

func (h *SessionHandler) Subscriptions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	token, ok := h.requireToken(w)
	if !ok {
		return
	}

	subs, err := h.backend.Subscriptions(ctx, token)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, subs)
}

func (h *SessionHandler) SubscriptionInvoices(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	token, ok := h.requireToken(w)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_id", "subscription id must be a positive integer")
		return
	}

	invoices, err := h.backend.SubscriptionInvoices(ctx, token, id)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, invoices)
}

func (h *SessionHandler) requireToken(w http.ResponseWriter) (string, bool) {
	session := h.sessions.Session()
	if !session.Authenticated() {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "no active session")
		return "", false
	}
	return *session.Token, true
}
