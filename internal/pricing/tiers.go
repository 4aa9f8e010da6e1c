package pricing

// TierName identifies a commission tier.
type TierName string

const (
	TierStarter    TierName = "starter"
	TierGrowth     TierName = "growth"
	TierEnterprise TierName = "enterprise"
)

// Tier is an organization's fee and markup schedule, selected by its
// trailing monthly revenue. MaxMonthlyRevenue is exclusive; nil means
// unbounded (the top tier).
type Tier struct {
	Name                     TierName `json:"name"`
	PlatformFeePercentage    float64  `json:"platform_fee_percentage"`
	DropshipMarkupPercentage float64  `json:"dropship_markup_percentage"`
	MinMonthlyRevenue        float64  `json:"min_monthly_revenue"`
	MaxMonthlyRevenue        *float64 `json:"max_monthly_revenue,omitempty"`
	Features                 []string `json:"features"`
}

func bound(v float64) *float64 { return &v }

// commissionTiers is the ordered tier table. Intervals are half-open
// [min, max), contiguous over [0, inf), and the last tier is unbounded.
var commissionTiers = []Tier{
	{
		Name:                     TierStarter,
		PlatformFeePercentage:    7,
		DropshipMarkupPercentage: 20,
		MinMonthlyRevenue:        0,
		MaxMonthlyRevenue:        bound(1000),
		Features: []string{
			"storefront",
			"email attribution",
			"standard support",
		},
	},
	{
		Name:                     TierGrowth,
		PlatformFeePercentage:    5,
		DropshipMarkupPercentage: 18,
		MinMonthlyRevenue:        1000,
		MaxMonthlyRevenue:        bound(10000),
		Features: []string{
			"storefront",
			"email attribution",
			"bulk discounts",
			"priority support",
		},
	},
	{
		Name:                     TierEnterprise,
		PlatformFeePercentage:    3,
		DropshipMarkupPercentage: 15,
		MinMonthlyRevenue:        10000,
		MaxMonthlyRevenue:        nil,
		Features: []string{
			"storefront",
			"email attribution",
			"bulk discounts",
			"custom commission schedules",
			"dedicated support",
		},
	},
}

// Tiers returns the ordered commission tier table.
func Tiers() []Tier {
	out := make([]Tier, len(commissionTiers))
	copy(out, commissionTiers)
	return out
}

// TierForRevenue returns the first tier whose [min, max) interval
// contains the trailing monthly revenue. The table is contiguous so a
// miss should not occur, but the lowest tier is returned rather than
// failing if it ever does.
func TierForRevenue(monthlyRevenue float64) Tier {
	for _, t := range commissionTiers {
		if monthlyRevenue < t.MinMonthlyRevenue {
			continue
		}
		if t.MaxMonthlyRevenue == nil || monthlyRevenue < *t.MaxMonthlyRevenue {
			return t
		}
	}
	return commissionTiers[0]
}
