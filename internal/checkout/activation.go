package checkout

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/leon-morival/cynaMobile/internal/api"
	"github.com/leon-morival/cynaMobile/internal/domain"
)

// prepareSubscriptions builds the activation records for every cart line.
// The unit price comes from the catalog tier for the line's interval — the
// server cart payload carries only line totals, not unit prices — falling
// back to the line's own unit price when the catalog cannot resolve it. The
// backend expects a pre-multiplied price, so annual lines submit unit x 10
// (the same documented constant the local cart pricing uses). A line that
// cannot be priced aborts the attempt; this runs before any money moves.
func (o *Orchestrator) prepareSubscriptions(snapshot domain.Cart) ([]api.ClientSubscription, error) {
	subs := make([]api.ClientSubscription, 0, len(snapshot.Lines))
	for _, line := range snapshot.Lines {
		unit := line.UnitPrice
		if product, ok := o.catalog.FindProductByID(line.ProductID); ok {
			if tier, ok := product.Price(line.Interval); ok {
				unit = tier
			}
		}
		if !unit.IsPositive() {
			return nil, fmt.Errorf("cart line %d: no unit price for product %d interval %s",
				line.ID, line.ProductID, line.Interval)
		}

		price := unit
		if line.Interval == domain.IntervalAnnual {
			price = price.Mul(decimal.NewFromInt(domain.AnnualPriceMultiplier))
		}
		subs = append(subs, api.ClientSubscription{
			BillingMethod:       line.Interval.BillingMethod(),
			SubscriptionOfferID: line.ProductID,
			Price:               price,
		})
	}
	return subs, nil
}

// recordOrder writes the order bookkeeping record. Best-effort: a failure
// here does not undo the activation and is only logged.
func (o *Orchestrator) recordOrder(ctx context.Context, token string, totalTTC decimal.Decimal) {
	htPrice := totalTTC.Mul(PreTaxShare)
	if err := o.backend.CreateOrder(ctx, token, htPrice, totalTTC); err != nil {
		o.log.Warn("order record creation failed", slog.Any("error", err))
	}
}
