package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/leon-morival/cynaMobile/internal/domain"
)

// Cart fetches the authoritative cart snapshot for the session.
func (c *Client) Cart(ctx context.Context, token string) (*domain.Cart, error) {
	var cart domain.Cart
	if err := c.do(ctx, request{method: http.MethodGet, path: "/cart", token: token}, &cart); err != nil {
		return nil, err
	}
	if err := cart.Validate(); err != nil {
		return nil, fmt.Errorf("invalid cart payload: %w", err)
	}
	cart.Pricing = domain.PricingServer
	return &cart, nil
}

type removeFromCartRequest struct {
	OrderItemID int64 `json:"order_item_id"`
}

func (c *Client) RemoveCartItem(ctx context.Context, token string, orderItemID int64) error {
	return c.do(ctx, request{
		method: http.MethodDelete,
		path:   "/remove-from-cart",
		token:  token,
		body:   removeFromCartRequest{OrderItemID: orderItemID},
	}, nil)
}

type updateCartItemRequest struct {
	OrderItemID      int64  `json:"order_item_id"`
	Quantity         int    `json:"quantity"`
	SubscriptionType string `json:"subscription_type"`
}

// UpdateCartItem switches a line to another billing interval. Quantity is
// pinned to 1 server-side, matching the backend contract.
func (c *Client) UpdateCartItem(ctx context.Context, token string, orderItemID int64, interval domain.BillingInterval) error {
	return c.do(ctx, request{
		method: http.MethodPut,
		path:   "/update-cart-item",
		token:  token,
		body: updateCartItemRequest{
			OrderItemID:      orderItemID,
			Quantity:         1,
			SubscriptionType: string(interval),
		},
	}, nil)
}

type addToCartRequest struct {
	ProductID        int64  `json:"product_id"`
	Quantity         int    `json:"quantity"`
	SubscriptionType string `json:"subscription_type"`
}

func (c *Client) AddToCart(ctx context.Context, token string, productID int64, quantity int, interval domain.BillingInterval) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/add-to-cart",
		token:  token,
		body: addToCartRequest{
			ProductID:        productID,
			Quantity:         quantity,
			SubscriptionType: string(interval),
		},
	}, nil)
}
