// Package checkout drives the multi-step paid-checkout flow: payment-intent
// creation, payment-sheet confirmation, post-payment subscription activation
// and order recording, with partial-failure handling at each step.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/leon-morival/cynaMobile/internal/api"
	"github.com/leon-morival/cynaMobile/internal/cart"
	"github.com/leon-morival/cynaMobile/internal/domain"
	"github.com/leon-morival/cynaMobile/internal/metrics"
)

// PreTaxShare converts a tax-inclusive total to the pre-tax amount sent on
// the order record: a fixed 20% VAT assumption. Business constant pending
// product-owner confirmation; not a tax engine.
var PreTaxShare = decimal.RequireFromString("0.8")

// Backend is the slice of the API client the orchestrator consumes.
type Backend interface {
	PaymentIntent(ctx context.Context, token string) (string, error)
	CreateClientSubscriptions(ctx context.Context, token string, subs []api.ClientSubscription) error
	CreateOrder(ctx context.Context, token string, htPrice, ttcPrice decimal.Decimal) error
}

// Sheet is the external payment-sheet provider boundary.
type Sheet interface {
	Init(ctx context.Context, clientSecret, merchantName string) error
	Present(ctx context.Context) error
}

type TokenSource interface {
	Token() *string
}

// Catalog resolves cart lines to products so activation records can be
// priced from the product's tier for the line's interval.
type Catalog interface {
	FindProductByID(id int64) (*domain.Product, bool)
}

// Carts is the slice of the cart synchronizer the orchestrator drives.
type Carts interface {
	Snapshot() (cart.State, domain.Cart)
	Invalidate()
	Refresh(ctx context.Context) error
}

// attempt is ephemeral per-checkout state; never persisted.
type attempt struct {
	clientSecret string
	status       AttemptStatus
}

func (a *attempt) advance(to AttemptStatus) error {
	if !CanTransitionTo(a.status, to) {
		return fmt.Errorf("%w: %s -> %s", errIllegalTransition, a.status, to)
	}
	a.status = to
	return nil
}

type Orchestrator struct {
	mu     sync.Mutex
	paying bool // sole mutual exclusion: one checkout per user action

	backend  Backend
	sheet    Sheet
	tokens   TokenSource
	carts    Carts
	catalog  Catalog
	merchant string
	log      *slog.Logger
}

func NewOrchestrator(backend Backend, sheet Sheet, tokens TokenSource, carts Carts, catalog Catalog, merchant string, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		backend:  backend,
		sheet:    sheet,
		tokens:   tokens,
		carts:    carts,
		catalog:  catalog,
		merchant: merchant,
		log:      log,
	}
}

// Checkout runs the end-to-end paid flow against the current cart snapshot.
//
// Failure surface, in order: ErrUnauthenticated (no network call made),
// ErrEmptyCart, ErrPaymentSetup (intent or sheet init), ErrPaymentDeclined
// (sheet completion), ErrPartialActivation (paid but subscriptions not
// created; the cart is still cleared because money was captured). An order
// record that fails after successful activation is logged only. There is no
// cancellation once the sheet is presented.
func (o *Orchestrator) Checkout(ctx context.Context) error {
	o.mu.Lock()
	if o.paying {
		o.mu.Unlock()
		return ErrCheckoutInProgress
	}
	o.paying = true
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		o.paying = false
		o.mu.Unlock()
	}()

	err := o.checkout(ctx)
	metrics.CheckoutAttempts.WithLabelValues(resultLabel(err)).Inc()
	return err
}

func (o *Orchestrator) checkout(ctx context.Context) error {
	token := o.tokens.Token()
	if token == nil || *token == "" {
		return domain.ErrUnauthenticated
	}

	_, snapshot := o.carts.Snapshot()
	if snapshot.Empty() {
		return ErrEmptyCart
	}

	// Price every line up front: an unpriceable line must abort the
	// attempt before any money moves.
	subs, err := o.prepareSubscriptions(snapshot)
	if err != nil {
		o.log.Error("activation pricing failed", slog.Any("error", err))
		return fmt.Errorf("prepare activation records: %w", err)
	}

	att := &attempt{status: StatusInitiated}

	secret, err := o.backend.PaymentIntent(ctx, *token)
	if err != nil || secret == "" {
		o.log.Error("payment intent unavailable", slog.Any("error", err))
		return ErrPaymentSetup
	}
	att.clientSecret = secret
	if err := att.advance(StatusIntentCreated); err != nil {
		return err
	}

	if err := o.sheet.Init(ctx, att.clientSecret, o.merchant); err != nil {
		o.log.Error("payment sheet init failed", slog.Any("error", err))
		return ErrPaymentSetup
	}
	if err := o.sheet.Present(ctx); err != nil {
		o.log.Warn("payment sheet completion failed", slog.Any("error", err))
		return ErrPaymentDeclined
	}
	if err := att.advance(StatusPaymentCompleted); err != nil {
		return err
	}

	// Money has been captured; everything from here is best-effort with
	// user-visible degradation instead of rollback.
	activationErr := o.backend.CreateClientSubscriptions(ctx, *token, subs)
	if activationErr == nil {
		if err := att.advance(StatusActivated); err != nil {
			return err
		}
		o.recordOrder(ctx, *token, snapshot.TotalTTC)
	}

	o.clearCart(ctx)
	if err := att.advance(StatusCompleted); err != nil {
		return err
	}

	if activationErr != nil {
		return fmt.Errorf("%w: %v", ErrPartialActivation, activationErr)
	}
	return nil
}

// clearCart forces the synchronizer back through Loading so the now-empty
// (or server-updated) cart is reflected.
func (o *Orchestrator) clearCart(ctx context.Context) {
	o.carts.Invalidate()
	if err := o.carts.Refresh(ctx); err != nil {
		o.log.Warn("post-checkout cart refresh failed", slog.Any("error", err))
	}
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, ErrPaymentSetup):
		return "payment_setup_failed"
	case errors.Is(err, ErrPaymentDeclined):
		return "payment_declined"
	case errors.Is(err, ErrPartialActivation):
		return "partial_activation"
	default:
		return "failure"
	}
}
