// Package cart owns the authoritative in-memory view of the shopping cart.
// Every mutation round-trips through the backend and is confirmed by
// re-fetching the full snapshot; the latest server response always wins over
// any local guess.
package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/leon-morival/cynaMobile/internal/domain"
	"github.com/leon-morival/cynaMobile/internal/metrics"
)

type State string

const (
	StateUninitialized State = "uninitialized"
	StateLoading       State = "loading"
	StateReady         State = "ready"
	StateEmpty         State = "empty" // no token, failed fetch, or cleared
)

var (
	// ErrMutationInFlight rejects a mutation issued before the previous
	// one's re-fetch completed. Nothing is queued; the caller re-issues.
	ErrMutationInFlight = errors.New("cart mutation already in flight")

	ErrLineNotFound       = errors.New("cart line not found")
	ErrIntervalNotOffered = errors.New("product does not offer this billing interval")
	ErrSingleInterval     = errors.New("product offers only one billing interval")
)

// Backend is the slice of the API client the synchronizer consumes.
type Backend interface {
	Cart(ctx context.Context, token string) (*domain.Cart, error)
	RemoveCartItem(ctx context.Context, token string, orderItemID int64) error
	UpdateCartItem(ctx context.Context, token string, orderItemID int64, interval domain.BillingInterval) error
	AddToCart(ctx context.Context, token string, productID int64, quantity int, interval domain.BillingInterval) error
}

// TokenSource is re-read at every call; the session may change between calls.
type TokenSource interface {
	Token() *string
}

// Catalog supplies product metadata for interval validation and display
// enrichment.
type Catalog interface {
	FindProductByID(id int64) (*domain.Product, bool)
}

type Synchronizer struct {
	mu       sync.Mutex
	state    State
	snapshot domain.Cart
	inFlight bool

	backend Backend
	tokens  TokenSource
	catalog Catalog
	log     *slog.Logger
}

func NewSynchronizer(backend Backend, tokens TokenSource, catalog Catalog, log *slog.Logger) *Synchronizer {
	return &Synchronizer{
		state:   StateUninitialized,
		backend: backend,
		tokens:  tokens,
		catalog: catalog,
		log:     log,
	}
}

// Refresh fetches the canonical snapshot. Callable by any layer (timer,
// manual pull, navigation event); external changes such as another device or
// a completed payment only become visible through it.
//
// No token and fetch failures both land in StateEmpty: stale data is never
// shown as authoritative.
func (s *Synchronizer) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.state = StateLoading
	s.mu.Unlock()

	token := s.tokens.Token()
	if token == nil || *token == "" {
		s.setEmpty()
		metrics.CartRefreshes.WithLabelValues("unauthenticated").Inc()
		return nil
	}

	snapshot, err := s.backend.Cart(ctx, *token)
	if err != nil {
		s.log.Warn("cart fetch failed, treating cart as absent", slog.Any("error", err))
		s.setEmpty()
		metrics.CartRefreshes.WithLabelValues("failure").Inc()
		return fmt.Errorf("fetch cart: %w", err)
	}

	s.mu.Lock()
	s.snapshot = *snapshot
	s.state = StateReady
	s.mu.Unlock()
	metrics.CartRefreshes.WithLabelValues("success").Inc()
	return nil
}

func (s *Synchronizer) setEmpty() {
	s.mu.Lock()
	s.snapshot = domain.Cart{TotalTTC: decimal.Zero, Pricing: domain.PricingServer}
	s.state = StateEmpty
	s.mu.Unlock()
}

func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot returns the current state and a copy of the cart.
func (s *Synchronizer) Snapshot() (State, domain.Cart) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := s.snapshot
	cp.Lines = make([]domain.CartLine, len(s.snapshot.Lines))
	copy(cp.Lines, s.snapshot.Lines)
	return s.state, cp
}

func (s *Synchronizer) TotalTTC() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot.TotalTTC
}

// Invalidate discards the snapshot and parks the synchronizer in Loading.
// The checkout orchestrator calls it after clearing the cart server-side.
func (s *Synchronizer) Invalidate() {
	s.mu.Lock()
	s.snapshot = domain.Cart{}
	s.state = StateLoading
	s.mu.Unlock()
}

// AvailableIntervals derives the per-line interval choice from which price
// tiers the product defines. Unknown products yield nil.
func (s *Synchronizer) AvailableIntervals(productID int64) []domain.BillingInterval {
	product, ok := s.catalog.FindProductByID(productID)
	if !ok {
		return nil
	}
	return product.Intervals()
}

// Remove deletes one line and re-fetches the canonical cart. On failure the
// prior snapshot is retained untouched and the error is returned for the
// caller to surface.
func (s *Synchronizer) Remove(ctx context.Context, lineID int64) error {
	return s.mutate(ctx, "remove", func(token string) error {
		s.mu.Lock()
		_, found := s.snapshot.Line(lineID)
		s.mu.Unlock()
		if !found {
			return ErrLineNotFound
		}
		return s.backend.RemoveCartItem(ctx, token, lineID)
	})
}

// ChangeBillingInterval switches a line to another of the product's offered
// intervals. Rejected before any network call when the product does not offer
// the target interval or offers only one.
func (s *Synchronizer) ChangeBillingInterval(ctx context.Context, lineID int64, interval domain.BillingInterval) error {
	return s.mutate(ctx, "change_interval", func(token string) error {
		if !interval.Valid() {
			return ErrIntervalNotOffered
		}

		s.mu.Lock()
		line, found := s.snapshot.Line(lineID)
		var productID int64
		if found {
			productID = line.ProductID
		}
		s.mu.Unlock()
		if !found {
			return ErrLineNotFound
		}

		product, ok := s.catalog.FindProductByID(productID)
		if !ok || !product.Offers(interval) {
			return ErrIntervalNotOffered
		}
		if len(product.Intervals()) < 2 {
			return ErrSingleInterval
		}

		return s.backend.UpdateCartItem(ctx, token, lineID, interval)
	})
}

// AddProduct puts a product in the cart under the given interval and
// re-fetches the snapshot.
func (s *Synchronizer) AddProduct(ctx context.Context, productID int64, interval domain.BillingInterval, quantity int) error {
	return s.mutate(ctx, "add", func(token string) error {
		if quantity < 1 {
			return errors.New("quantity must be >= 1")
		}
		product, ok := s.catalog.FindProductByID(productID)
		if !ok {
			return fmt.Errorf("unknown product %d", productID)
		}
		if !product.Offers(interval) {
			return ErrIntervalNotOffered
		}
		return s.backend.AddToCart(ctx, token, productID, quantity, interval)
	})
}

// mutate runs one guarded mutation: token present, no other mutation in
// flight, and on success the canonical snapshot is re-fetched. Failures keep
// the prior snapshot; dropping the mutation is deliberate policy, returning
// the error makes it observable.
func (s *Synchronizer) mutate(ctx context.Context, operation string, fn func(token string) error) error {
	token := s.tokens.Token()
	if token == nil || *token == "" {
		metrics.CartMutations.WithLabelValues(operation, "unauthenticated").Inc()
		return domain.ErrUnauthenticated
	}

	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		metrics.CartMutations.WithLabelValues(operation, "rejected_in_flight").Inc()
		return ErrMutationInFlight
	}
	s.inFlight = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}()

	if err := fn(*token); err != nil {
		s.log.Warn("cart mutation dropped",
			slog.String("operation", operation), slog.Any("error", err))
		metrics.CartMutations.WithLabelValues(operation, "failure").Inc()
		return err
	}

	metrics.CartMutations.WithLabelValues(operation, "success").Inc()
	return s.Refresh(ctx)
}
