package pricing

import (
	"fmt"
	"math"
)

// freeShippingThreshold is the fixed subtotal at or above which
// shipping is waived.
const freeShippingThreshold = 50.0

// ProductPricing is the full charge breakdown for one order line. It is
// a pure value recomputed on demand; amounts are decimal currency units
// with no intermediate rounding (only final display rounds).
type ProductPricing struct {
	BasePrice    float64 `json:"base_price"`
	DropshipCost float64 `json:"dropship_cost"`
	PlatformFee  float64 `json:"platform_fee"`
	Markup       float64 `json:"markup"`
	Subtotal     float64 `json:"subtotal"`
	Tax          float64 `json:"tax"`
	Shipping     float64 `json:"shipping"`
	Processing   float64 `json:"processing"`
	Total        float64 `json:"total"`
	Profit       float64 `json:"profit"`
	Commission   float64 `json:"commission"`
}

// PriceProduct turns a base price and dropship cost into a full
// breakdown under the organization's tier. Negative inputs are caller
// contract violations and are rejected rather than coerced; incorrect
// pricing has direct financial consequences.
func (e *Engine) PriceProduct(basePrice, dropshipCost float64, tier Tier) (ProductPricing, error) {
	if basePrice < 0 {
		return ProductPricing{}, fmt.Errorf("negative base price %v", basePrice)
	}
	if dropshipCost < 0 {
		return ProductPricing{}, fmt.Errorf("negative dropship cost %v", dropshipCost)
	}
	cfg := e.Config()

	platformFee := basePrice * tier.PlatformFeePercentage / 100

	markup := dropshipCost * tier.DropshipMarkupPercentage / 100
	if markup < cfg.MinimumMarkup {
		markup = cfg.MinimumMarkup
	}
	if markup > cfg.MaximumMarkup {
		markup = cfg.MaximumMarkup
	}

	subtotal := basePrice + platformFee + markup
	tax := subtotal * cfg.TaxRate

	shipping := 0.0
	if subtotal < freeShippingThreshold {
		shipping = cfg.ShippingFee
	}

	// Processing applies to every order regardless of fulfillment
	// mode; see DESIGN.md for the digital/service question.
	processing := subtotal * cfg.ProcessingFeeRate

	return ProductPricing{
		BasePrice:    basePrice,
		DropshipCost: dropshipCost,
		PlatformFee:  platformFee,
		Markup:       markup,
		Subtotal:     subtotal,
		Tax:          tax,
		Shipping:     shipping,
		Processing:   processing,
		Total:        subtotal + tax + shipping + processing,
		Profit:       markup - platformFee,
		Commission:   platformFee,
	}, nil
}

// bulkDiscountRate returns the quantity discount applied to both base
// price and dropship cost before any fee or markup computation.
func bulkDiscountRate(quantity int) float64 {
	switch {
	case quantity >= 100:
		return 0.15
	case quantity >= 50:
		return 0.10
	case quantity >= 25:
		return 0.05
	default:
		return 0
	}
}

// PriceBulk applies the quantity discount to both base price and
// dropship cost, then delegates to PriceProduct so fees and markup are
// computed on the discounted values.
func (e *Engine) PriceBulk(basePrice, dropshipCost float64, quantity int, tier Tier) (ProductPricing, error) {
	if quantity < 1 {
		return ProductPricing{}, fmt.Errorf("invalid quantity %d", quantity)
	}
	discount := bulkDiscountRate(quantity)
	return e.PriceProduct(basePrice*(1-discount), dropshipCost*(1-discount), tier)
}

// BreakEvenQuantity computes how many units cover the given fixed
// costs from per-unit profit. ok is false when a single unit never
// turns a profit under the tier.
func (e *Engine) BreakEvenQuantity(basePrice, dropshipCost, fixedCosts float64, tier Tier) (quantity int, ok bool, err error) {
	if fixedCosts < 0 {
		return 0, false, fmt.Errorf("negative fixed costs %v", fixedCosts)
	}
	pp, err := e.PriceProduct(basePrice, dropshipCost, tier)
	if err != nil {
		return 0, false, err
	}
	if pp.Profit <= 0 {
		return 0, false, nil
	}
	return int(math.Ceil(fixedCosts / pp.Profit)), true, nil
}

// Breakdown aggregates many orders into a revenue view. It has no
// identity of its own; it is derived purely by summation.
type Breakdown struct {
	GrossRevenue   float64 `json:"gross_revenue"`
	PlatformFees   float64 `json:"platform_fees"`
	DropshipCosts  float64 `json:"dropship_costs"`
	ProcessingFees float64 `json:"processing_fees"`
	ShippingFees   float64 `json:"shipping_fees"`
	Taxes          float64 `json:"taxes"`
	NetRevenue     float64 `json:"net_revenue"`
	ProfitMargin   float64 `json:"profit_margin"`
}

// SummarizeRevenue sums the per-order breakdowns. An empty order set
// yields all zeroes with a zero profit margin; the gross-revenue guard
// is required, not an omission.
func SummarizeRevenue(orders []ProductPricing) Breakdown {
	var b Breakdown
	for _, o := range orders {
		b.GrossRevenue += o.Subtotal
		b.PlatformFees += o.PlatformFee
		b.DropshipCosts += o.DropshipCost
		b.ProcessingFees += o.Processing
		b.ShippingFees += o.Shipping
		b.Taxes += o.Tax
	}
	b.NetRevenue = b.GrossRevenue - b.PlatformFees - b.DropshipCosts - b.ProcessingFees - b.ShippingFees - b.Taxes
	if b.GrossRevenue > 0 {
		b.ProfitMargin = b.NetRevenue / b.GrossRevenue * 100
	}
	return b
}

// dropshipPartnerRates are the fixed per-partner commission rates,
// distinct from the platform commission.
var dropshipPartnerRates = map[string]float64{
	"printful": 0.10,
	"printify": 0.12,
	"gooten":   0.08,
}

// DropshipCommission multiplies the order value by the partner's fixed
// rate. An unknown partner is a caller contract violation and is
// rejected, never silently defaulted.
func DropshipCommission(orderValue float64, partner string) (float64, error) {
	if orderValue < 0 {
		return 0, fmt.Errorf("negative order value %v", orderValue)
	}
	rate, ok := dropshipPartnerRates[partner]
	if !ok {
		return 0, fmt.Errorf("unknown dropship partner %q", partner)
	}
	return orderValue * rate, nil
}
