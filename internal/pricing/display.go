package pricing

import "github.com/shopspring/decimal"

// round2 rounds to cents for display. The engine itself never rounds
// intermediate values; only amounts leaving the API do.
func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// ForDisplay returns a copy of the breakdown with every amount rounded
// to two decimal places.
func (p ProductPricing) ForDisplay() ProductPricing {
	return ProductPricing{
		BasePrice:    round2(p.BasePrice),
		DropshipCost: round2(p.DropshipCost),
		PlatformFee:  round2(p.PlatformFee),
		Markup:       round2(p.Markup),
		Subtotal:     round2(p.Subtotal),
		Tax:          round2(p.Tax),
		Shipping:     round2(p.Shipping),
		Processing:   round2(p.Processing),
		Total:        round2(p.Total),
		Profit:       round2(p.Profit),
		Commission:   round2(p.Commission),
	}
}

// ForDisplay rounds every aggregate to cents; the margin keeps two
// decimal places of percentage.
func (b Breakdown) ForDisplay() Breakdown {
	return Breakdown{
		GrossRevenue:   round2(b.GrossRevenue),
		PlatformFees:   round2(b.PlatformFees),
		DropshipCosts:  round2(b.DropshipCosts),
		ProcessingFees: round2(b.ProcessingFees),
		ShippingFees:   round2(b.ShippingFees),
		Taxes:          round2(b.Taxes),
		NetRevenue:     round2(b.NetRevenue),
		ProfitMargin:   round2(b.ProfitMargin),
	}
}
