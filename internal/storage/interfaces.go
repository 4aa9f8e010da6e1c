package storage

import (
	"context"

	"github.com/nmbrhq/commerce-engine/internal/models"
)

// OrderStore persists recorded orders with their pricing breakdown and
// attribution snapshot. The attribution and pricing packages never
// touch storage themselves; this is the collaborator layer that does.
type OrderStore interface {
	SaveOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	ListOrdersByOrg(ctx context.Context, orgID string) ([]*models.Order, error)
}

// ClickEventStore is the analytics sink for click-through events.
// Implementations must be safe for concurrent use; failures are logged
// and swallowed by callers, never surfaced to the clicking user.
type ClickEventStore interface {
	SaveClickEvent(ctx context.Context, event *models.ClickEvent) error
}
