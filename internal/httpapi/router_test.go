package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leon-morival/cynaMobile/internal/api"
	"github.com/leon-morival/cynaMobile/internal/assistant"
	"github.com/leon-morival/cynaMobile/internal/cart"
	"github.com/leon-morival/cynaMobile/internal/checkout"
	"github.com/leon-morival/cynaMobile/internal/domain"
)

type cartServiceMock struct {
	state      cart.State
	snapshot   domain.Cart
	refreshErr error
	mutateErr  error

	addCalls    int
	removeCalls int
	updateCalls int
}

func (m *cartServiceMock) Refresh(context.Context) error { return m.refreshErr }
func (m *cartServiceMock) Snapshot() (cart.State, domain.Cart) {
	return m.state, m.snapshot
}
func (m *cartServiceMock) AddProduct(context.Context, int64, domain.BillingInterval, int) error {
	m.addCalls++
	return m.mutateErr
}
func (m *cartServiceMock) Remove(context.Context, int64) error {
	m.removeCalls++
	return m.mutateErr
}
func (m *cartServiceMock) ChangeBillingInterval(context.Context, int64, domain.BillingInterval) error {
	m.updateCalls++
	return m.mutateErr
}
func (m *cartServiceMock) AvailableIntervals(int64) []domain.BillingInterval { return nil }

type checkoutServiceMock struct {
	err   error
	calls int
}

func (m *checkoutServiceMock) Checkout(context.Context) error {
	m.calls++
	return m.err
}

type assistantServiceMock struct {
	reply *assistant.Reply
	err   error
}

func (m *assistantServiceMock) Send(context.Context, string) (*assistant.Reply, error) {
	return m.reply, m.err
}

type authBackendMock struct {
	token    string
	user     *domain.User
	loginErr error

	subs     []domain.Subscription
	invoices []domain.Invoice
}

func (m *authBackendMock) Login(context.Context, string, string) (string, *domain.User, error) {
	return m.token, m.user, m.loginErr
}
func (m *authBackendMock) Register(context.Context, api.RegisterRequest) error { return nil }
func (m *authBackendMock) ChangePassword(context.Context, string, string, string) error {
	return nil
}
func (m *authBackendMock) Subscriptions(context.Context, string) ([]domain.Subscription, error) {
	return m.subs, nil
}
func (m *authBackendMock) SubscriptionInvoices(context.Context, string, int64) ([]domain.Invoice, error) {
	return m.invoices, nil
}

type sessionsMock struct {
	session   domain.Session
	setTokens []*string
}

func (m *sessionsMock) Session() domain.Session { return m.session }
func (m *sessionsMock) SetToken(_ context.Context, token *string) error {
	m.setTokens = append(m.setTokens, token)
	if token == nil {
		m.session = domain.Session{}
	} else {
		m.session = domain.Session{Token: token}
	}
	return nil
}
func (m *sessionsMock) SetUser(_ context.Context, user *domain.User) error {
	m.session.User = user
	return nil
}

type catalogReaderMock struct {
	products   []domain.Product
	categories []domain.Category
	refreshErr error
}

func (m *catalogReaderMock) Refresh(context.Context) error { return m.refreshErr }
func (m *catalogReaderMock) Categories() []domain.Category { return m.categories }
func (m *catalogReaderMock) Products() []domain.Product    { return m.products }
func (m *catalogReaderMock) SearchProducts(string, string) []domain.Product {
	return m.products
}
func (m *catalogReaderMock) ProductsByCategory(int64) []domain.Product { return m.products }
func (m *catalogReaderMock) FindProductByID(id int64) (*domain.Product, bool) {
	for i := range m.products {
		if m.products[i].ID == id {
			return &m.products[i], true
		}
	}
	return nil, false
}

type localCartMock struct {
	snapshot domain.Cart
	addErr   error
	added    []int64
}

func (m *localCartMock) Snapshot() domain.Cart { return m.snapshot }
func (m *localCartMock) Add(_ context.Context, product *domain.Product, _ domain.BillingInterval, _ int) error {
	m.added = append(m.added, product.ID)
	return m.addErr
}
func (m *localCartMock) SetQuantity(context.Context, string, int) error { return nil }
func (m *localCartMock) Remove(context.Context, string) error           { return nil }
func (m *localCartMock) ChangeInterval(context.Context, string, *domain.Product, domain.BillingInterval) error {
	return nil
}
func (m *localCartMock) Clear(context.Context) error { return nil }

type routerFixture struct {
	router    chi.Router
	carts     *cartServiceMock
	localCart *localCartMock
	checkouts *checkoutServiceMock
	assistant *assistantServiceMock
	backend   *authBackendMock
	sessions  *sessionsMock
	catalog   *catalogReaderMock
}

func newRouterFixture() *routerFixture {
	f := &routerFixture{
		carts:     &cartServiceMock{state: cart.StateReady},
		localCart: &localCartMock{},
		checkouts: &checkoutServiceMock{},
		assistant: &assistantServiceMock{reply: &assistant.Reply{Text: "hi"}},
		backend:   &authBackendMock{token: "tok-1"},
		sessions:  &sessionsMock{},
		catalog:   &catalogReaderMock{},
	}
	timeout := 5 * time.Second
	f.router = NewRouter(Handlers{
		Session:   NewSessionHandler(f.backend, f.sessions, f.carts, timeout),
		Catalog:   NewCatalogHandler(f.catalog, "en", timeout),
		Cart:      NewCartHandler(f.carts, timeout),
		LocalCart: NewLocalCartHandler(f.localCart, f.catalog, timeout),
		Checkout:  NewCheckoutHandler(f.checkouts, timeout),
		Assistant: NewAssistantHandler(f.assistant, timeout),
	}, timeout)
	return f
}

func (f *routerFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealthz(t *testing.T) {
	rec := newRouterFixture().do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetCart_ReturnsStateAndSnapshot(t *testing.T) {
	f := newRouterFixture()
	f.carts.state = cart.StateReady
	f.carts.snapshot = domain.Cart{
		Lines: []domain.CartLine{{
			ID: 1, ProductID: 10, Interval: domain.IntervalMonthly,
			UnitPrice: decimal.RequireFromString("10"), Quantity: 1,
		}},
		TotalTTC: decimal.RequireFromString("12"),
	}

	rec := f.do(t, http.MethodGet, "/api/v1/cart", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp CartResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, cart.StateReady, resp.State)
	require.Len(t, resp.Cart.Lines, 1)
	assert.True(t, resp.Cart.TotalTTC.Equal(decimal.RequireFromString("12")))
}

func TestAddItem_Validation(t *testing.T) {
	f := newRouterFixture()

	cases := []struct {
		name string
		body any
		code string
	}{
		{"bad product id", AddItemRequestDTO{ProductID: 0, SubscriptionType: domain.IntervalMonthly}, "invalid_product_id"},
		{"bad interval", AddItemRequestDTO{ProductID: 1, SubscriptionType: "weekly"}, "invalid_subscription_type"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/api/v1/cart/items", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tc.code, decodeError(t, rec).Code)
		})
	}
	assert.Zero(t, f.carts.addCalls, "invalid requests never reach the synchronizer")
}

func TestRemoveItem_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"unauthenticated", domain.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
		{"line missing", cart.ErrLineNotFound, http.StatusNotFound, "not_found"},
		{"mutation in flight", cart.ErrMutationInFlight, http.StatusConflict, "mutation_in_flight"},
		{"backend down", api.ErrNetwork, http.StatusBadGateway, "backend_unavailable"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newRouterFixture()
			f.carts.mutateErr = tc.err

			rec := f.do(t, http.MethodDelete, "/api/v1/cart/items/5", nil)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.code, decodeError(t, rec).Code)
		})
	}
}

func TestErrorBodies_DoNotLeakUpstreamDetail(t *testing.T) {
	f := newRouterFixture()
	f.carts.mutateErr = fmt.Errorf("GET http://backend.internal:8080/cart: connection refused: %w", api.ErrNetwork)

	rec := f.do(t, http.MethodDelete, "/api/v1/cart/items/5", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	resp := decodeError(t, rec)
	assert.Equal(t, "backend_unavailable", resp.Code)
	assert.Equal(t, "backend unavailable", resp.Error)
	assert.NotContains(t, rec.Body.String(), "backend.internal", "upstream detail stays in the log")
}

func TestUpdateItem_RejectsSingleTierProducts(t *testing.T) {
	f := newRouterFixture()
	f.carts.mutateErr = cart.ErrSingleInterval

	rec := f.do(t, http.MethodPut, "/api/v1/cart/items/5",
		UpdateItemRequestDTO{SubscriptionType: domain.IntervalAnnual})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "single_interval", decodeError(t, rec).Code)
}

func TestCheckout_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"success", nil, http.StatusOK, ""},
		{"empty cart", checkout.ErrEmptyCart, http.StatusConflict, "empty_cart"},
		{"declined", checkout.ErrPaymentDeclined, http.StatusPaymentRequired, "payment_declined"},
		{"partial activation", checkout.ErrPartialActivation, http.StatusBadGateway, "partial_activation"},
		{"already paying", checkout.ErrCheckoutInProgress, http.StatusConflict, "checkout_in_progress"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newRouterFixture()
			f.checkouts.err = tc.err

			rec := f.do(t, http.MethodPost, "/api/v1/checkout", nil)
			assert.Equal(t, tc.status, rec.Code)
			if tc.code != "" {
				assert.Equal(t, tc.code, decodeError(t, rec).Code)
			}
			assert.Equal(t, 1, f.checkouts.calls)
		})
	}
}

func TestLogin_SetsSessionAndRefreshesCart(t *testing.T) {
	f := newRouterFixture()
	f.backend.user = &domain.User{ID: 4, Email: "a@b.fr", Name: "Alice"}

	rec := f.do(t, http.MethodPost, "/api/v1/session/login",
		LoginRequestDTO{Email: "a@b.fr", Password: "secret"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SessionResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Authenticated)
	require.NotNil(t, resp.User)

	require.Len(t, f.sessions.setTokens, 1)
	require.NotNil(t, f.sessions.setTokens[0])
	assert.Equal(t, "tok-1", *f.sessions.setTokens[0])
}

func TestLogin_ValidationErrorPassedThrough(t *testing.T) {
	f := newRouterFixture()
	f.backend.loginErr = &api.ValidationError{
		Message: "invalid credentials",
		Fields:  map[string][]string{"email": {"unknown account"}},
	}

	rec := f.do(t, http.MethodPost, "/api/v1/session/login",
		LoginRequestDTO{Email: "a@b.fr", Password: "bad"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	resp := decodeError(t, rec)
	assert.Equal(t, "validation_failed", resp.Code)
	assert.Equal(t, []string{"unknown account"}, resp.Fields["email"])
}

func TestLogout_ClearsToken(t *testing.T) {
	f := newRouterFixture()
	token := "tok-1"
	f.sessions.session = domain.Session{Token: &token}

	rec := f.do(t, http.MethodPost, "/api/v1/session/logout", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, f.sessions.setTokens, 1)
	assert.Nil(t, f.sessions.setTokens[0])
}

func TestSubscriptions_RequiresSession(t *testing.T) {
	f := newRouterFixture()

	rec := f.do(t, http.MethodGet, "/api/v1/subscriptions", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSubscriptionInvoices_BadID(t *testing.T) {
	f := newRouterFixture()
	token := "tok-1"
	f.sessions.session = domain.Session{Token: &token}

	rec := f.do(t, http.MethodGet, "/api/v1/subscriptions/abc/invoices", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_id", decodeError(t, rec).Code)
}

func TestAssistant_NotReadyMapsTo503(t *testing.T) {
	f := newRouterFixture()
	f.assistant.err = assistant.ErrNotReady
	f.assistant.reply = nil

	rec := f.do(t, http.MethodPost, "/api/v1/assistant/messages",
		AssistantMessageRequestDTO{Text: "hello"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "assistant_not_ready", decodeError(t, rec).Code)
}

func TestAssistant_ReplyWithProductRefs(t *testing.T) {
	f := newRouterFixture()
	f.assistant.reply = &assistant.Reply{
		Text: "Try EDR Shield (ID: 7).",
		Refs: []assistant.ProductRef{{ProductID: 7, Label: "Try EDR Shield"}},
	}

	rec := f.do(t, http.MethodPost, "/api/v1/assistant/messages",
		AssistantMessageRequestDTO{Text: "what do you recommend?"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp AssistantReplyDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Products, 1)
	assert.Equal(t, int64(7), resp.Products[0].ProductID)
}

func TestLocalCart_AddUnknownProductIs404(t *testing.T) {
	f := newRouterFixture()

	rec := f.do(t, http.MethodPost, "/api/v1/cart/local/items",
		AddItemRequestDTO{ProductID: 99, SubscriptionType: domain.IntervalMonthly})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, f.localCart.added)
}

func TestLocalCart_AddResolvesProductFromCatalog(t *testing.T) {
	f := newRouterFixture()
	monthly := decimal.RequireFromString("10")
	f.catalog.products = []domain.Product{{
		ID: 7, CategoryID: 1, MonthlyPrice: &monthly,
		Translations: []domain.Translation{{Lang: "en", Name: "EDR Shield"}},
	}}

	rec := f.do(t, http.MethodPost, "/api/v1/cart/local/items",
		AddItemRequestDTO{ProductID: 7, SubscriptionType: domain.IntervalMonthly, Quantity: 2})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, []int64{7}, f.localCart.added)
}

func TestCatalogSearch_UsesQueryParam(t *testing.T) {
	f := newRouterFixture()
	monthly := decimal.RequireFromString("29.90")
	f.catalog.products = []domain.Product{{
		ID: 7, CategoryID: 1, MonthlyPrice: &monthly,
		Translations: []domain.Translation{{Lang: "en", Name: "EDR Shield"}},
	}}

	rec := f.do(t, http.MethodGet, "/api/v1/catalog/products/search?q=edr", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []ProductDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "EDR Shield", resp[0].Name)
	assert.Equal(t, []domain.BillingInterval{domain.IntervalMonthly}, resp[0].Intervals)
}
