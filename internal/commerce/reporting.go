package commerce

import (
	"context"
	"fmt"

	"github.com/nmbrhq/commerce-engine/internal/pricing"
	"github.com/nmbrhq/commerce-engine/internal/storage"
)

// ReportingService aggregates recorded orders into revenue views.
type ReportingService struct {
	orders storage.OrderStore
}

// NewReportingService creates a reporting service over the order store.
func NewReportingService(orders storage.OrderStore) *ReportingService {
	return &ReportingService{orders: orders}
}

// RevenueReport sums an organization's orders into a revenue breakdown.
// An organization with no orders gets an all-zero breakdown.
func (r *ReportingService) RevenueReport(ctx context.Context, orgID string) (pricing.Breakdown, int, error) {
	orders, err := r.orders.ListOrdersByOrg(ctx, orgID)
	if err != nil {
		return pricing.Breakdown{}, 0, fmt.Errorf("failed to list orders: %w", err)
	}

	pricings := make([]pricing.ProductPricing, 0, len(orders))
	for _, o := range orders {
		pricings = append(pricings, o.Pricing)
	}
	return pricing.SummarizeRevenue(pricings), len(orders), nil
}
