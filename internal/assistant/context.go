package assistant

import (
	"fmt"
	"strings"

	"github.com/leon-morival/cynaMobile/internal/domain"
)

const (
	appName        = "Cyna"
	appVersion     = "1.0.0"
	appDescription = "Mobile e-commerce application offering a smooth, secure purchasing experience for cybersecurity subscriptions."

	returnsPolicy  = "Returns accepted within 30 days of receipt, provided the product is unused."
	shippingPolicy = "Licences are delivered electronically within minutes of a confirmed payment."

	descriptionLimit = 120
)

var appFeatures = []string{
	"Regularly updated product catalog",
	"Intuitive shopping cart with monthly, annual and lifetime billing",
	"Secure card payments",
	"Subscription and invoice tracking",
	"Built-in AI assistant for instant answers",
}

// buildContextDocument embeds the app description, feature list, policies and
// the full catalog (categories with product counts, products with id, name,
// category, price and truncated description) into one text document for the
// chat session.
func buildContextDocument(catalog Catalog, lang string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Information about the %s application (version %s):\n\n", appName, appVersion)
	fmt.Fprintf(&sb, "1. Description:\n  - %s\n\n", appDescription)

	sb.WriteString("2. Main features:\n")
	for _, feature := range appFeatures {
		fmt.Fprintf(&sb, "  - %s\n", feature)
	}

	fmt.Fprintf(&sb, "\n3. Return policy:\n  - %s\n", returnsPolicy)
	fmt.Fprintf(&sb, "\n4. Delivery:\n  - %s\n", shippingPolicy)

	categories := catalog.Categories()
	products := catalog.Products()

	counts := make(map[int64]int, len(categories))
	categoryNames := make(map[int64]string, len(categories))
	for _, c := range categories {
		categoryNames[c.ID] = c.Name(lang)
	}
	for _, p := range products {
		counts[p.CategoryID]++
	}

	sb.WriteString("\n5. Categories:\n")
	for _, c := range categories {
		fmt.Fprintf(&sb, "  - %s (%d products)\n", c.Name(lang), counts[c.ID])
	}

	sb.WriteString("\n6. Products:\n")
	for i := range products {
		p := &products[i]
		fmt.Fprintf(&sb, "  - ID %d: %s, category %s, %s, %s\n",
			p.ID, p.Name(lang), categoryNames[p.CategoryID],
			formatTiers(p), truncate(p.Description(lang), descriptionLimit))
	}

	sb.WriteString("\nWhen recommending a product, reference it as \"name (ID: <id>)\" so the app can link it.\n")
	sb.WriteString("Answer only from this context; for anything else suggest contacting support.\n")
	return sb.String()
}

func formatTiers(p *domain.Product) string {
	var tiers []string
	if p.MonthlyPrice != nil {
		tiers = append(tiers, fmt.Sprintf("%s EUR/month", p.MonthlyPrice.StringFixed(2)))
	}
	if p.AnnualPrice != nil {
		tiers = append(tiers, fmt.Sprintf("%s EUR/month billed annually", p.AnnualPrice.StringFixed(2)))
	}
	if p.LifetimePrice != nil {
		tiers = append(tiers, fmt.Sprintf("%s EUR lifetime", p.LifetimePrice.StringFixed(2)))
	}
	if len(tiers) == 0 {
		return "price on request"
	}
	return strings.Join(tiers, " / ")
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
