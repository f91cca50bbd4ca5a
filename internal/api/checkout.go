package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/leon-morival/cynaMobile/internal/domain"
)

type paymentIntentResponse struct {
	ClientSecret      string `json:"clientSecret"`
	ClientSecretSnake string `json:"client_secret"`
}

// PaymentIntent asks the backend for a Stripe client secret. No amount is
// sent; the backend derives it from its own authoritative cart. The secret
// key differs between backend versions, so both spellings are accepted.
func (c *Client) PaymentIntent(ctx context.Context, token string) (string, error) {
	var resp paymentIntentResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/stripe/payment-intent",
		token:  token,
		body:   struct{}{},
	}, &resp)
	if err != nil {
		return "", err
	}
	if resp.ClientSecret != "" {
		return resp.ClientSecret, nil
	}
	return resp.ClientSecretSnake, nil
}

// ClientSubscription is one post-payment activation record.
type ClientSubscription struct {
	BillingMethod       string          `json:"billing_method"`
	SubscriptionOfferID int64           `json:"subscription_offer_id"`
	Price               decimal.Decimal `json:"price"`
}

// CreateClientSubscriptions activates the purchased subscriptions. The
// backend expects application/ld+json here.
func (c *Client) CreateClientSubscriptions(ctx context.Context, token string, subs []ClientSubscription) error {
	return c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/client-subscriptions",
		token:       token,
		contentType: contentTypeLDJSON,
		body:        subs,
	}, nil)
}

type orderRequest struct {
	HTPrice  decimal.Decimal `json:"ht_price"`
	TTCPrice decimal.Decimal `json:"ttc_price"`
}

// CreateOrder records the order with pre-tax and tax-inclusive totals.
func (c *Client) CreateOrder(ctx context.Context, token string, htPrice, ttcPrice decimal.Decimal) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/orders",
		token:  token,
		body:   orderRequest{HTPrice: htPrice, TTCPrice: ttcPrice},
	}, nil)
}

// Subscriptions lists the user's subscriptions.
func (c *Client) Subscriptions(ctx context.Context, token string) ([]domain.Subscription, error) {
	var out []domain.Subscription
	err := c.do(ctx, request{method: http.MethodGet, path: "/subscriptions", token: token}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SubscriptionInvoices lists the invoices of one subscription.
func (c *Client) SubscriptionInvoices(ctx context.Context, token string, subscriptionID int64) ([]domain.Invoice, error) {
	var out []domain.Invoice
	path := "/subscriptions/" + strconv.FormatInt(subscriptionID, 10) + "/invoices"
	err := c.do(ctx, request{method: http.MethodGet, path: path, token: token}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}
