package commerce

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/nmbrhq/commerce-engine/internal/models"
	"github.com/nmbrhq/commerce-engine/internal/pricing"
	"github.com/nmbrhq/commerce-engine/internal/storage"
)

func TestRevenueReport(t *testing.T) {
	ctx := context.Background()
	orders := storage.NewInMemoryOrderStore()
	engine := pricing.NewEngine(pricing.DefaultConfig(), zap.NewNop())
	tier := pricing.Tiers()[0]

	for i, in := range []struct{ base, cost float64 }{
		{100, 20},
		{40, 10},
	} {
		pp, err := engine.PriceProduct(in.base, in.cost, tier)
		if err != nil {
			t.Fatalf("price: %v", err)
		}
		if err := orders.SaveOrder(ctx, &models.Order{
			ID:      string(rune('a' + i)),
			OrgID:   "org-1",
			Pricing: pp,
		}); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	svc := NewReportingService(orders)
	breakdown, count, err := svc.RevenueReport(ctx, "org-1")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
	if breakdown.GrossRevenue <= 0 {
		t.Errorf("gross = %v, want positive", breakdown.GrossRevenue)
	}
}

func TestRevenueReportEmptyOrg(t *testing.T) {
	svc := NewReportingService(storage.NewInMemoryOrderStore())

	breakdown, count, err := svc.RevenueReport(context.Background(), "org-x")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
	if breakdown != (pricing.Breakdown{}) {
		t.Errorf("breakdown = %+v, want all zeroes", breakdown)
	}
}
