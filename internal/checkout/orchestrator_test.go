package checkout

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leon-morival/cynaMobile/internal/api"
	"github.com/leon-morival/cynaMobile/internal/cart"
	"github.com/leon-morival/cynaMobile/internal/domain"
)

type mockBackend struct {
	secret    string
	secretErr error

	subsErr  error
	orderErr error

	intentCalls int
	subsSent    []api.ClientSubscription
	orderHT     *decimal.Decimal
	orderTTC    *decimal.Decimal
}

func (m *mockBackend) PaymentIntent(context.Context, string) (string, error) {
	m.intentCalls++
	return m.secret, m.secretErr
}

func (m *mockBackend) CreateClientSubscriptions(_ context.Context, _ string, subs []api.ClientSubscription) error {
	m.subsSent = subs
	return m.subsErr
}

func (m *mockBackend) CreateOrder(_ context.Context, _ string, ht, ttc decimal.Decimal) error {
	m.orderHT = &ht
	m.orderTTC = &ttc
	return m.orderErr
}

type mockSheet struct {
	initErr    error
	presentErr error

	initCalls    int
	presentCalls int
	gotSecret    string
	gotMerchant  string
}

func (m *mockSheet) Init(_ context.Context, secret, merchant string) error {
	m.initCalls++
	m.gotSecret = secret
	m.gotMerchant = merchant
	return m.initErr
}

func (m *mockSheet) Present(context.Context) error {
	m.presentCalls++
	return m.presentErr
}

type staticToken struct{ token *string }

func (s staticToken) Token() *string { return s.token }

type mockCarts struct {
	snapshot domain.Cart

	invalidated  bool
	refreshCalls int
	refreshErr   error
}

func (m *mockCarts) Snapshot() (cart.State, domain.Cart) {
	if m.snapshot.Empty() {
		return cart.StateEmpty, m.snapshot
	}
	return cart.StateReady, m.snapshot
}

func (m *mockCarts) Invalidate() { m.invalidated = true }

func (m *mockCarts) Refresh(context.Context) error {
	m.refreshCalls++
	return m.refreshErr
}

type mockCatalog struct {
	products []domain.Product
}

func (m *mockCatalog) FindProductByID(id int64) (*domain.Product, bool) {
	for i := range m.products {
		if m.products[i].ID == id {
			return &m.products[i], true
		}
	}
	return nil, false
}

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func tier(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func tok(v string) *string { return &v }

func testCart() domain.Cart {
	return domain.Cart{
		Lines: []domain.CartLine{
			{ID: 1, ProductID: 10, Interval: domain.IntervalMonthly, UnitPrice: dec("10"), TTCPrice: dec("12"), Quantity: 1},
			{ID: 2, ProductID: 11, Interval: domain.IntervalAnnual, UnitPrice: dec("20"), TTCPrice: dec("240"), Quantity: 1},
		},
		TotalTTC: dec("252"),
		Pricing:  domain.PricingServer,
	}
}

// testCatalog carries the products behind testCart's lines, with the price
// tiers the activation records must be derived from.
func testCatalog() *mockCatalog {
	return &mockCatalog{products: []domain.Product{
		{ID: 10, CategoryID: 1, MonthlyPrice: tier("10")},
		{ID: 11, CategoryID: 1, AnnualPrice: tier("20")},
	}}
}

func newTestOrchestrator(backend *mockBackend, sheet *mockSheet, token *string, carts *mockCarts) *Orchestrator {
	return NewOrchestrator(backend, sheet, staticToken{token: token}, carts, testCatalog(), "Cyna Store", slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCheckout_NoTokenShortCircuits(t *testing.T) {
	backend := &mockBackend{secret: "pi_1_secret_x"}
	sheet := &mockSheet{}
	carts := &mockCarts{snapshot: testCart()}
	o := newTestOrchestrator(backend, sheet, nil, carts)

	err := o.Checkout(context.Background())

	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	assert.Zero(t, backend.intentCalls, "payment provider must not be contacted")
	assert.Zero(t, sheet.initCalls)
}

func TestCheckout_EmptyCart(t *testing.T) {
	backend := &mockBackend{secret: "pi_1_secret_x"}
	o := newTestOrchestrator(backend, &mockSheet{}, tok("tok"), &mockCarts{})

	err := o.Checkout(context.Background())

	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Zero(t, backend.intentCalls)
}

func TestCheckout_NoUsableSecret(t *testing.T) {
	cases := []struct {
		name    string
		backend *mockBackend
	}{
		{"intent request fails", &mockBackend{secretErr: errors.New("http 500")}},
		{"empty secret", &mockBackend{secret: ""}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sheet := &mockSheet{}
			o := newTestOrchestrator(tc.backend, sheet, tok("tok"), &mockCarts{snapshot: testCart()})

			err := o.Checkout(context.Background())

			assert.ErrorIs(t, err, ErrPaymentSetup)
			assert.Zero(t, sheet.initCalls, "no payment UI without a secret")
		})
	}
}

func TestCheckout_SheetInitFailure(t *testing.T) {
	backend := &mockBackend{secret: "pi_1_secret_x"}
	sheet := &mockSheet{initErr: errors.New("sheet broken")}
	o := newTestOrchestrator(backend, sheet, tok("tok"), &mockCarts{snapshot: testCart()})

	err := o.Checkout(context.Background())

	assert.ErrorIs(t, err, ErrPaymentSetup)
	assert.Zero(t, sheet.presentCalls)
}

func TestCheckout_SheetDeclined(t *testing.T) {
	backend := &mockBackend{secret: "pi_1_secret_x"}
	sheet := &mockSheet{presentErr: errors.New("card declined")}
	carts := &mockCarts{snapshot: testCart()}
	o := newTestOrchestrator(backend, sheet, tok("tok"), carts)

	err := o.Checkout(context.Background())

	assert.ErrorIs(t, err, ErrPaymentDeclined)
	assert.Nil(t, backend.subsSent, "no activation without payment")
	assert.False(t, carts.invalidated, "cart untouched when nothing was paid")
}

func TestCheckout_FullSuccess(t *testing.T) {
	backend := &mockBackend{secret: "pi_1_secret_x"}
	sheet := &mockSheet{}
	carts := &mockCarts{snapshot: testCart()}
	o := newTestOrchestrator(backend, sheet, tok("tok"), carts)

	require.NoError(t, o.Checkout(context.Background()))

	assert.Equal(t, "pi_1_secret_x", sheet.gotSecret)
	assert.Equal(t, "Cyna Store", sheet.gotMerchant)

	// one activation record per line, intervals mapped to backend vocabulary
	require.Len(t, backend.subsSent, 2)
	assert.Equal(t, "mensual", backend.subsSent[0].BillingMethod)
	assert.True(t, backend.subsSent[0].Price.Equal(dec("10")))
	assert.Equal(t, "annual", backend.subsSent[1].BillingMethod)
	assert.True(t, backend.subsSent[1].Price.Equal(dec("200")), "annual submits unit x 10")

	// order record carries the fixed 20% VAT split
	require.NotNil(t, backend.orderTTC)
	assert.True(t, backend.orderTTC.Equal(dec("252")))
	assert.True(t, backend.orderHT.Equal(dec("201.6")))

	assert.True(t, carts.invalidated)
	assert.Equal(t, 1, carts.refreshCalls)
}

func TestCheckout_ActivationPricedFromCatalogTier(t *testing.T) {
	// Server cart lines carry only totals, no unit price: the activation
	// price must come from the product's tier, not from the line.
	backend := &mockBackend{secret: "pi_1_secret_x"}
	carts := &mockCarts{snapshot: domain.Cart{
		Lines: []domain.CartLine{
			{ID: 1, ProductID: 11, Interval: domain.IntervalAnnual, TTCPrice: dec("240"), Quantity: 1},
		},
		TotalTTC: dec("240"),
		Pricing:  domain.PricingServer,
	}}
	catalog := &mockCatalog{products: []domain.Product{
		{ID: 11, CategoryID: 1, AnnualPrice: tier("24")},
	}}
	o := NewOrchestrator(backend, &mockSheet{}, staticToken{token: tok("tok")}, carts, catalog,
		"Cyna Store", slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.NoError(t, o.Checkout(context.Background()))

	require.Len(t, backend.subsSent, 1)
	assert.Equal(t, "annual", backend.subsSent[0].BillingMethod)
	assert.True(t, backend.subsSent[0].Price.Equal(dec("240")), "annual tier x 10, never zero")
}

func TestCheckout_UnpriceableLineAbortsBeforePayment(t *testing.T) {
	backend := &mockBackend{secret: "pi_1_secret_x"}
	sheet := &mockSheet{}
	carts := &mockCarts{snapshot: domain.Cart{
		Lines: []domain.CartLine{
			{ID: 1, ProductID: 99, Interval: domain.IntervalMonthly, TTCPrice: dec("12"), Quantity: 1},
		},
		TotalTTC: dec("12"),
		Pricing:  domain.PricingServer,
	}}
	o := NewOrchestrator(backend, sheet, staticToken{token: tok("tok")}, carts, &mockCatalog{},
		"Cyna Store", slog.New(slog.NewTextHandler(io.Discard, nil)))

	err := o.Checkout(context.Background())

	require.Error(t, err)
	assert.Zero(t, backend.intentCalls, "no payment intent for a cart that cannot be priced")
	assert.Zero(t, sheet.initCalls)
	assert.Nil(t, backend.subsSent)
}

func TestCheckout_PartialActivation(t *testing.T) {
	backend := &mockBackend{secret: "pi_1_secret_x", subsErr: errors.New("http 500")}
	sheet := &mockSheet{}
	carts := &mockCarts{snapshot: testCart()}
	o := newTestOrchestrator(backend, sheet, tok("tok"), carts)

	err := o.Checkout(context.Background())

	// distinct "paid but not activated" outcome, never a generic failure
	assert.ErrorIs(t, err, ErrPartialActivation)
	assert.NotErrorIs(t, err, ErrPaymentDeclined)

	// money was captured: the cart is still cleared
	assert.True(t, carts.invalidated)
	assert.Equal(t, 1, carts.refreshCalls)

	// order bookkeeping is skipped when activation failed
	assert.Nil(t, backend.orderTTC)
}

func TestCheckout_OrderRecordFailureIsBestEffort(t *testing.T) {
	backend := &mockBackend{secret: "pi_1_secret_x", orderErr: errors.New("http 500")}
	sheet := &mockSheet{}
	carts := &mockCarts{snapshot: testCart()}
	o := newTestOrchestrator(backend, sheet, tok("tok"), carts)

	err := o.Checkout(context.Background())

	assert.NoError(t, err, "activation succeeded; order record is bookkeeping only")
	assert.True(t, carts.invalidated)
}

func TestCheckout_PayingGateRejectsDuplicate(t *testing.T) {
	backend := &mockBackend{secret: "pi_1_secret_x"}
	o := newTestOrchestrator(backend, &mockSheet{}, tok("tok"), &mockCarts{snapshot: testCart()})

	o.mu.Lock()
	o.paying = true
	o.mu.Unlock()

	err := o.Checkout(context.Background())
	assert.ErrorIs(t, err, ErrCheckoutInProgress)
	assert.Zero(t, backend.intentCalls)
}

func TestStatusTransitions(t *testing.T) {
	assert.True(t, CanTransitionTo(StatusInitiated, StatusIntentCreated))
	assert.True(t, CanTransitionTo(StatusPaymentCompleted, StatusCompleted))
	assert.False(t, CanTransitionTo(StatusCompleted, StatusInitiated))
	assert.False(t, CanTransitionTo(StatusInitiated, StatusPaymentCompleted))
	assert.True(t, StatusFailed.IsTerminal())
	assert.False(t, StatusIntentCreated.IsTerminal())
}
