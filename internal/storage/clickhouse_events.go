package storage

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/nmbrhq/commerce-engine/internal/models"
)

// ClickHouseEventStore streams click-through events to ClickHouse for
// analytics. Inserts are fire-and-forget from the caller's point of
// view; a lost event costs a data point, not a redirect.
type ClickHouseEventStore struct {
	conn driver.Conn
}

const createClickEventsTable = `
CREATE TABLE IF NOT EXISTS commerce_click_events (
	id           String,
	timestamp    DateTime64(3),
	nmbr_id      String,
	update_id    String,
	campaign_id  String,
	recipient_id String,
	utm_source   String,
	utm_medium   String,
	utm_campaign String,
	target_url   String,
	attributed   UInt8,
	country      String,
	user_agent   String
) ENGINE = MergeTree()
ORDER BY (campaign_id, timestamp)
`

// NewClickHouseEventStore connects to ClickHouse and ensures the events
// table exists.
func NewClickHouseEventStore(ctx context.Context, addr, database, username, password string) (*ClickHouseEventStore, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: database,
			Username: username,
			Password: password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open clickhouse connection: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}
	if err := conn.Exec(ctx, createClickEventsTable); err != nil {
		return nil, fmt.Errorf("failed to create click events table: %w", err)
	}
	return &ClickHouseEventStore{conn: conn}, nil
}

func (s *ClickHouseEventStore) SaveClickEvent(ctx context.Context, event *models.ClickEvent) error {
	attributed := uint8(0)
	if event.Attributed {
		attributed = 1
	}
	err := s.conn.Exec(ctx, `
		INSERT INTO commerce_click_events
			(id, timestamp, nmbr_id, update_id, campaign_id, recipient_id,
			 utm_source, utm_medium, utm_campaign, target_url, attributed, country, user_agent)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.Timestamp, event.NmbrID, event.UpdateID,
		event.CampaignID, event.RecipientID, event.UTMSource, event.UTMMedium,
		event.UTMCampaign, event.TargetURL, attributed, event.Country, event.UserAgent,
	)
	if err != nil {
		return fmt.Errorf("failed to insert click event: %w", err)
	}
	return nil
}

// Close shuts down the ClickHouse connection.
func (s *ClickHouseEventStore) Close() error {
	return s.conn.Close()
}
