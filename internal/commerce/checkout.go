package commerce

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nmbrhq/commerce-engine/internal/attribution"
	"github.com/nmbrhq/commerce-engine/internal/metrics"
	"github.com/nmbrhq/commerce-engine/internal/models"
	"github.com/nmbrhq/commerce-engine/internal/pricing"
	"github.com/nmbrhq/commerce-engine/internal/revenue"
	"github.com/nmbrhq/commerce-engine/internal/storage"
)

// CheckoutService records orders: it resolves the organization's
// commission tier from trailing monthly revenue, prices the order and
// persists it with its attribution snapshot. A pricing failure aborts
// the order, since checkout must never complete with an incorrect
// price, while a missing attribution is a normal, common outcome.
type CheckoutService struct {
	engine  *pricing.Engine
	orders  storage.OrderStore
	revenue revenue.Tracker
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewCheckoutService wires the checkout collaborators together.
func NewCheckoutService(
	engine *pricing.Engine,
	orders storage.OrderStore,
	tracker revenue.Tracker,
	m *metrics.Metrics,
	logger *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		engine:  engine,
		orders:  orders,
		revenue: tracker,
		metrics: m,
		logger:  logger,
	}
}

// OrderRequest describes one order line to be priced and recorded.
type OrderRequest struct {
	OrgID        string  `json:"org_id"`
	ProductID    string  `json:"product_id"`
	VariantID    string  `json:"variant_id,omitempty"`
	Quantity     int     `json:"quantity"`
	BasePrice    float64 `json:"base_price"`
	DropshipCost float64 `json:"dropship_cost"`
}

// CreateOrder prices and persists an order. attr is the verified
// attribution tuple, or nil for organic purchases.
func (s *CheckoutService) CreateOrder(ctx context.Context, req OrderRequest, attr *attribution.Params) (*models.Order, error) {
	if req.OrgID == "" {
		return nil, fmt.Errorf("org_id is required")
	}
	if req.ProductID == "" {
		return nil, fmt.Errorf("product_id is required")
	}

	// Tier selection feeds the price, so a revenue read failure is a
	// checkout failure, not a best-effort miss.
	monthly, err := s.revenue.MonthlyRevenue(ctx, req.OrgID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve commission tier: %w", err)
	}
	tier := pricing.TierForRevenue(monthly)

	pp, err := s.engine.PriceBulk(req.BasePrice, req.DropshipCost, req.Quantity, tier)
	if err != nil {
		return nil, fmt.Errorf("failed to price order: %w", err)
	}

	order := &models.Order{
		ID:        uuid.New().String(),
		OrgID:     req.OrgID,
		ProductID: req.ProductID,
		VariantID: req.VariantID,
		Quantity:  req.Quantity,
		Tier:      tier.Name,
		Pricing:   pp,
		CreatedAt: time.Now().UTC(),
	}
	if attr != nil {
		order.Attribution = models.AttributionFromParams(*attr)
	}

	if err := s.orders.SaveOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to save order: %w", err)
	}

	// Revenue tracking trails the order; losing an increment skews the
	// next tier lookup slightly but must not fail a recorded order.
	if err := s.revenue.Record(ctx, req.OrgID, pp.Subtotal); err != nil {
		s.logger.Warn("failed to record revenue",
			zap.String("org_id", req.OrgID),
			zap.Error(err),
		)
	}

	if s.metrics != nil {
		s.metrics.RecordOrder(string(tier.Name), attr != nil, pp.Total)
	}

	s.logger.Info("order recorded",
		zap.String("order_id", order.ID),
		zap.String("org_id", req.OrgID),
		zap.String("tier", string(tier.Name)),
		zap.Int("quantity", req.Quantity),
		zap.Float64("total", pp.Total),
		zap.Bool("attributed", attr != nil),
	)

	return order, nil
}
