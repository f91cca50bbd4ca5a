package domain

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// BillingInterval selects which price tier of a product a cart line uses.
// The values are the backend's subscription_type vocabulary verbatim; the
// backend spells monthly as "mensual".
type BillingInterval string

const (
	IntervalMonthly  BillingInterval = "mensual"
	IntervalAnnual   BillingInterval = "annual"
	IntervalLifetime BillingInterval = "lifetime"
)

func (b BillingInterval) Valid() bool {
	switch b {
	case IntervalMonthly, IntervalAnnual, IntervalLifetime:
		return true
	}
	return false
}

// BillingMethod is the billing_method value sent on subscription activation.
// It shares the subscription_type vocabulary.
func (b BillingInterval) BillingMethod() string {
	return string(b)
}

type Translation struct {
	Lang        string `json:"lang"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type Category struct {
	ID           int64         `json:"id"`
	Translations []Translation `json:"translations"`
}

// Name returns the translated category name for lang, falling back to the
// first available translation.
func (c *Category) Name(lang string) string {
	return translatedName(c.Translations, lang)
}

var ErrNoPriceTier = errors.New("product defines no price tier")

// Product is read-only from the client's perspective. A product exposes a
// subset of the three price tiers; at least one must be set.
type Product struct {
	ID            int64            `json:"id"`
	CategoryID    int64            `json:"category_id"`
	Image         string           `json:"image,omitempty"`
	MonthlyPrice  *decimal.Decimal `json:"monthly_price,omitempty"`
	AnnualPrice   *decimal.Decimal `json:"annual_price,omitempty"`
	LifetimePrice *decimal.Decimal `json:"lifetime_price,omitempty"`
	Translations  []Translation    `json:"translations"`
}

func (p *Product) Validate() error {
	if p.ID <= 0 {
		return errors.New("product id must be positive")
	}
	if p.MonthlyPrice == nil && p.AnnualPrice == nil && p.LifetimePrice == nil {
		return ErrNoPriceTier
	}
	return nil
}

// Price returns the tier price for the given interval, or false when the
// product does not offer that interval.
func (p *Product) Price(interval BillingInterval) (decimal.Decimal, bool) {
	var tier *decimal.Decimal
	switch interval {
	case IntervalMonthly:
		tier = p.MonthlyPrice
	case IntervalAnnual:
		tier = p.AnnualPrice
	case IntervalLifetime:
		tier = p.LifetimePrice
	}
	if tier == nil {
		return decimal.Decimal{}, false
	}
	return *tier, true
}

// Intervals lists the billing intervals the product actually offers,
// derived from its non-nil price tiers.
func (p *Product) Intervals() []BillingInterval {
	var out []BillingInterval
	if p.MonthlyPrice != nil {
		out = append(out, IntervalMonthly)
	}
	if p.AnnualPrice != nil {
		out = append(out, IntervalAnnual)
	}
	if p.LifetimePrice != nil {
		out = append(out, IntervalLifetime)
	}
	return out
}

func (p *Product) Offers(interval BillingInterval) bool {
	_, ok := p.Price(interval)
	return ok
}

func (p *Product) Name(lang string) string {
	return translatedName(p.Translations, lang)
}

func (p *Product) Description(lang string) string {
	for _, t := range p.Translations {
		if strings.EqualFold(t.Lang, lang) {
			return t.Description
		}
	}
	if len(p.Translations) > 0 {
		return p.Translations[0].Description
	}
	return ""
}

func translatedName(translations []Translation, lang string) string {
	for _, t := range translations {
		if strings.EqualFold(t.Lang, lang) {
			return t.Name
		}
	}
	if len(translations) > 0 {
		return translations[0].Name
	}
	return ""
}
