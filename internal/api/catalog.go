package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/leon-morival/cynaMobile/internal/domain"
)

// Categories fetches the catalog categories. Unauthenticated endpoint.
func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	if err := c.do(ctx, request{method: http.MethodGet, path: "/categories"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Products fetches the full product collection, rejecting malformed entries
// at the boundary rather than propagating them.
func (c *Client) Products(ctx context.Context) ([]domain.Product, error) {
	var out []domain.Product
	if err := c.do(ctx, request{method: http.MethodGet, path: "/products"}, &out); err != nil {
		return nil, err
	}
	for i := range out {
		if err := out[i].Validate(); err != nil {
			return nil, fmt.Errorf("invalid product payload: %w", err)
		}
	}
	return out, nil
}
