// Package catalog fetches and holds the read-only collection of categories
// and products. The cache is the sole owner of the in-memory collection;
// lookups return copies or read-only views.
package catalog

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/leon-morival/cynaMobile/internal/domain"
	"github.com/leon-morival/cynaMobile/internal/metrics"
)

// Backend is the slice of the API client the cache consumes.
type Backend interface {
	Categories(ctx context.Context) ([]domain.Category, error)
	Products(ctx context.Context) ([]domain.Product, error)
}

type Cache struct {
	mu         sync.RWMutex
	categories []domain.Category
	products   []domain.Product
	ready      bool
	err        error

	sfg     singleflight.Group // collapses concurrent refreshes
	backend Backend
	log     *slog.Logger
}

func NewCache(backend Backend, log *slog.Logger) *Cache {
	return &Cache{backend: backend, log: log}
}

// Refresh fetches categories and products. On any failure existing cached
// data is left intact (empty collections when there was none), the failure is
// recorded as a non-fatal error, and the cache still reports data-ready so
// dependents never block forever.
func (c *Cache) Refresh(ctx context.Context) error {
	_, err, _ := c.sfg.Do("refresh", func() (interface{}, error) {
		return nil, c.refresh(ctx)
	})
	return err
}

func (c *Cache) refresh(ctx context.Context) error {
	categories, err := c.backend.Categories(ctx)
	if err == nil {
		var products []domain.Product
		products, err = c.backend.Products(ctx)
		if err == nil {
			c.mu.Lock()
			c.categories = categories
			c.products = products
			c.ready = true
			c.err = nil
			c.mu.Unlock()
			metrics.CatalogRefreshes.WithLabelValues("success").Inc()
			return nil
		}
	}

	c.log.Error("catalog refresh failed", slog.Any("error", err))
	metrics.CatalogRefreshes.WithLabelValues("failure").Inc()
	c.mu.Lock()
	c.ready = true // failure still unblocks dependents
	c.err = err
	c.mu.Unlock()
	return err
}

// Ready reports whether at least one refresh has completed, successfully or
// not.
func (c *Cache) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

// Err returns the last refresh failure, nil after a successful refresh.
func (c *Cache) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

func (c *Cache) Categories() []domain.Category {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Category, len(c.categories))
	copy(out, c.categories)
	return out
}

func (c *Cache) Products() []domain.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Product, len(c.products))
	copy(out, c.products)
	return out
}

func (c *Cache) FindProductByID(id int64) (*domain.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := range c.products {
		if c.products[i].ID == id {
			p := c.products[i]
			return &p, true
		}
	}
	return nil, false
}

func (c *Cache) ProductsByCategory(categoryID int64) []domain.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []domain.Product
	for i := range c.products {
		if c.products[i].CategoryID == categoryID {
			out = append(out, c.products[i])
		}
	}
	return out
}

// SearchProducts matches the query case-insensitively against the translated
// name and description for the given language. A blank query returns the full
// collection unfiltered.
func (c *Cache) SearchProducts(query, lang string) []domain.Product {
	term := strings.ToLower(strings.TrimSpace(query))
	if term == "" {
		return c.Products()
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []domain.Product
	for i := range c.products {
		if productMatches(&c.products[i], term, lang) {
			out = append(out, c.products[i])
		}
	}
	return out
}

func productMatches(p *domain.Product, term, lang string) bool {
	for _, t := range p.Translations {
		if !strings.EqualFold(t.Lang, lang) {
			continue
		}
		if strings.Contains(strings.ToLower(t.Name), term) ||
			strings.Contains(strings.ToLower(t.Description), term) {
			return true
		}
	}
	return false
}
