package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// AnnualPriceMultiplier approximates annual billing as ten months of the
// monthly price. Business constant inherited from the pricing team, pending
// product-owner confirmation. Do not derive analytically.
const AnnualPriceMultiplier = 10

// PricingMode tags which rule priced a cart snapshot. A snapshot never mixes
// server-priced and locally recomputed lines.
type PricingMode string

const (
	PricingServer PricingMode = "server"
	PricingLocal  PricingMode = "local"
)

// CartLine is one purchasable entry in the cart. ID is server-assigned once
// synced; LocalID is a device-generated placeholder used only by the legacy
// local cart before any sync.
type CartLine struct {
	ID        int64           `json:"id"`
	LocalID   string          `json:"local_id,omitempty"`
	ProductID int64           `json:"product_id"`
	Interval  BillingInterval `json:"subscription_type"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	TTCPrice  decimal.Decimal `json:"ttc_price"`
	Quantity  int             `json:"quantity"`
}

func (l *CartLine) Validate() error {
	if l.ProductID <= 0 {
		return fmt.Errorf("cart line %d: product_id must be positive", l.ID)
	}
	if !l.Interval.Valid() {
		return fmt.Errorf("cart line %d: unknown subscription_type %q", l.ID, l.Interval)
	}
	if l.Quantity < 1 {
		return fmt.Errorf("cart line %d: quantity must be >= 1", l.ID)
	}
	return nil
}

// LocalTotal prices the line under the legacy local rule:
// unit x (annual ? 10 : 1) x quantity.
func (l *CartLine) LocalTotal() decimal.Decimal {
	mult := decimal.NewFromInt(1)
	if l.Interval == IntervalAnnual {
		mult = decimal.NewFromInt(AnnualPriceMultiplier)
	}
	return l.UnitPrice.Mul(mult).Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Cart struct {
	Lines    []CartLine      `json:"items"`
	TotalTTC decimal.Decimal `json:"ttc_price"`
	Pricing  PricingMode     `json:"-"`
}

func (c *Cart) Empty() bool {
	return len(c.Lines) == 0
}

// Validate checks line well-formedness and id uniqueness. The server total is
// taken verbatim and not recomputed; local totals are recomputed by the owner.
func (c *Cart) Validate() error {
	seen := make(map[int64]struct{}, len(c.Lines))
	for i := range c.Lines {
		l := &c.Lines[i]
		if err := l.Validate(); err != nil {
			return err
		}
		if l.ID != 0 {
			if _, dup := seen[l.ID]; dup {
				return fmt.Errorf("duplicate cart line id %d", l.ID)
			}
			seen[l.ID] = struct{}{}
		}
	}
	if c.TotalTTC.IsNegative() {
		return errors.New("ttc_price must not be negative")
	}
	return nil
}

// RecomputeLocalTotal repopulates TotalTTC under the local pricing rule and
// tags the snapshot accordingly.
func (c *Cart) RecomputeLocalTotal() {
	total := decimal.Zero
	for i := range c.Lines {
		total = total.Add(c.Lines[i].LocalTotal())
	}
	c.TotalTTC = total
	c.Pricing = PricingLocal
}

func (c *Cart) Line(lineID int64) (*CartLine, bool) {
	for i := range c.Lines {
		if c.Lines[i].ID == lineID {
			return &c.Lines[i], true
		}
	}
	return nil, false
}
