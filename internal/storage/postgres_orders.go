package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nmbrhq/commerce-engine/internal/models"
	"github.com/nmbrhq/commerce-engine/internal/pricing"
)

// PostgresOrderStore persists orders in PostgreSQL. Pricing and
// attribution are stored as JSONB alongside the queryable columns.
type PostgresOrderStore struct {
	pool *pgxpool.Pool
}

// NewPostgresOrderStore creates a Postgres-backed order store.
func NewPostgresOrderStore(pool *pgxpool.Pool) *PostgresOrderStore {
	return &PostgresOrderStore{pool: pool}
}

const createOrdersTable = `
CREATE TABLE IF NOT EXISTS orders (
	id          TEXT PRIMARY KEY,
	org_id      TEXT NOT NULL,
	product_id  TEXT NOT NULL,
	variant_id  TEXT NOT NULL DEFAULT '',
	quantity    INT NOT NULL,
	tier        TEXT NOT NULL,
	pricing     JSONB NOT NULL,
	attribution JSONB,
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_orders_org ON orders (org_id, created_at);
`

// Migrate creates the orders schema if it does not exist.
func (s *PostgresOrderStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, createOrdersTable)
	if err != nil {
		return fmt.Errorf("failed to migrate orders table: %w", err)
	}
	return nil
}

func (s *PostgresOrderStore) SaveOrder(ctx context.Context, order *models.Order) error {
	pricingJSON, err := json.Marshal(order.Pricing)
	if err != nil {
		return fmt.Errorf("failed to marshal pricing: %w", err)
	}
	var attrJSON []byte
	if order.Attribution != nil {
		attrJSON, err = json.Marshal(order.Attribution)
		if err != nil {
			return fmt.Errorf("failed to marshal attribution: %w", err)
		}
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO orders (id, org_id, product_id, variant_id, quantity, tier, pricing, attribution, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING`,
		order.ID, order.OrgID, order.ProductID, order.VariantID,
		order.Quantity, string(order.Tier), pricingJSON, attrJSON, order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}
	return nil
}

func (s *PostgresOrderStore) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, org_id, product_id, variant_id, quantity, tier, pricing, attribution, created_at
		FROM orders WHERE id = $1`, id)

	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return o, nil
}

func (s *PostgresOrderStore) ListOrdersByOrg(ctx context.Context, orgID string) ([]*models.Order, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, org_id, product_id, variant_id, quantity, tier, pricing, attribution, created_at
		FROM orders WHERE org_id = $1 ORDER BY created_at`, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var result []*models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		result = append(result, o)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var (
		o           models.Order
		tier        string
		pricingJSON []byte
		attrJSON    []byte
	)
	if err := row.Scan(&o.ID, &o.OrgID, &o.ProductID, &o.VariantID,
		&o.Quantity, &tier, &pricingJSON, &attrJSON, &o.CreatedAt); err != nil {
		return nil, err
	}
	o.Tier = pricing.TierName(tier)
	if err := json.Unmarshal(pricingJSON, &o.Pricing); err != nil {
		return nil, err
	}
	if len(attrJSON) > 0 {
		var attr models.OrderAttribution
		if err := json.Unmarshal(attrJSON, &attr); err != nil {
			return nil, err
		}
		o.Attribution = &attr
	}
	return &o, nil
}
