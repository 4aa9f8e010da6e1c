// Package revenue tracks trailing monthly revenue per organization,
// which drives commission tier selection.
package revenue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Tracker accumulates order revenue per organization and month.
type Tracker interface {
	Record(ctx context.Context, orgID string, amount float64) error
	MonthlyRevenue(ctx context.Context, orgID string) (float64, error)
}

// monthKey buckets revenue by calendar month, UTC.
func monthKey(orgID string, t time.Time) string {
	return fmt.Sprintf("revenue:%s:%s", orgID, t.UTC().Format("2006-01"))
}

// RedisTracker keeps monthly revenue counters in Redis. Keys expire two
// months after creation; tier selection only ever reads the current
// month.
type RedisTracker struct {
	client *redis.Client
}

// NewRedisTracker creates a Redis-backed revenue tracker.
func NewRedisTracker(client *redis.Client) *RedisTracker {
	return &RedisTracker{client: client}
}

func (t *RedisTracker) Record(ctx context.Context, orgID string, amount float64) error {
	key := monthKey(orgID, time.Now())
	pipe := t.client.Pipeline()
	pipe.IncrByFloat(ctx, key, amount)
	pipe.Expire(ctx, key, 62*24*time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record revenue: %w", err)
	}
	return nil
}

func (t *RedisTracker) MonthlyRevenue(ctx context.Context, orgID string) (float64, error) {
	v, err := t.client.Get(ctx, monthKey(orgID, time.Now())).Float64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read revenue: %w", err)
	}
	return v, nil
}

// InMemoryTracker is the fallback when Redis is unavailable and the
// implementation used in tests.
type InMemoryTracker struct {
	mu      sync.RWMutex
	buckets map[string]float64
	now     func() time.Time
}

// NewInMemoryTracker creates an empty in-memory tracker.
func NewInMemoryTracker() *InMemoryTracker {
	return &InMemoryTracker{
		buckets: make(map[string]float64),
		now:     time.Now,
	}
}

func (t *InMemoryTracker) Record(ctx context.Context, orgID string, amount float64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buckets[monthKey(orgID, t.now())] += amount
	return nil
}

func (t *InMemoryTracker) MonthlyRevenue(ctx context.Context, orgID string) (float64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.buckets[monthKey(orgID, t.now())], nil
}
