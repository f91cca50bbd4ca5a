package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	CartMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cart_mutations_total",
			Help: "Cart mutations by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	CartRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cart_refreshes_total",
			Help: "Cart snapshot fetches by outcome",
		},
		[]string{"outcome"},
	)

	CheckoutAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_attempts_total",
			Help: "Checkout attempts by terminal result",
		},
		[]string{"result"},
	)

	CatalogRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_refreshes_total",
			Help: "Catalog refreshes by outcome",
		},
		[]string{"outcome"},
	)
)

func Register() {
	prometheus.MustRegister(CartMutations, CartRefreshes, CheckoutAttempts, CatalogRefreshes)
}
