package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Session   *SessionHandler
	Catalog   *CatalogHandler
	Cart      *CartHandler
	LocalCart *LocalCartHandler
	Checkout  *CheckoutHandler
	Assistant *AssistantHandler
}

// NewRouter wires the full local surface: health, metrics and the component
// routes under /api/v1.
func NewRouter(h Handlers, requestTimeout time.Duration) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/session", func(r chi.Router) {
			r.Get("/", h.Session.Get)
			r.Post("/login", h.Session.Login)
			r.Post("/logout", h.Session.Logout)
			r.Post("/register", h.Session.Register)
			r.Post("/password", h.Session.ChangePassword)
		})

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/products", h.Catalog.Products)
			r.Get("/products/search", h.Catalog.Search)
			r.Get("/categories", h.Catalog.Categories)
			r.Get("/categories/{id}/products", h.Catalog.ProductsByCategory)
			r.Post("/refresh", h.Catalog.Refresh)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.Cart.Get)
			r.Post("/refresh", h.Cart.Refresh)
			r.Post("/items", h.Cart.AddItem)
			r.Put("/items/{id}", h.Cart.UpdateItem)
			r.Delete("/items/{id}", h.Cart.RemoveItem)

			r.Route("/local", func(r chi.Router) {
				r.Get("/", h.LocalCart.Get)
				r.Delete("/", h.LocalCart.Clear)
				r.Post("/items", h.LocalCart.AddItem)
				r.Put("/items/{localID}", h.LocalCart.UpdateItem)
				r.Delete("/items/{localID}", h.LocalCart.RemoveItem)
			})
		})

		r.Post("/checkout", h.Checkout.Checkout)
		r.Post("/assistant/messages", h.Assistant.SendMessage)

		r.Get("/subscriptions", h.Session.Subscriptions)
		r.Get("/subscriptions/{id}/invoices", h.Session.SubscriptionInvoices)
	})

	return r
}
