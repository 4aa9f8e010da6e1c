package storage

import (
	"context"
	"sync"

	"github.com/nmbrhq/commerce-engine/internal/models"
)

// InMemoryOrderStore keeps orders in a map. Not durable; used when
// PostgreSQL is unavailable and in tests.
type InMemoryOrderStore struct {
	mu     sync.RWMutex
	orders map[string]*models.Order
	byOrg  map[string][]string
}

// NewInMemoryOrderStore creates an empty in-memory order store.
func NewInMemoryOrderStore() *InMemoryOrderStore {
	return &InMemoryOrderStore{
		orders: make(map[string]*models.Order),
		byOrg:  make(map[string][]string),
	}
}

func (s *InMemoryOrderStore) SaveOrder(ctx context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[order.ID]; !exists {
		s.byOrg[order.OrgID] = append(s.byOrg[order.OrgID], order.ID)
	}
	cp := *order
	s.orders[order.ID] = &cp
	return nil
}

func (s *InMemoryOrderStore) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (s *InMemoryOrderStore) ListOrdersByOrg(ctx context.Context, orgID string) ([]*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byOrg[orgID]
	result := make([]*models.Order, 0, len(ids))
	for _, id := range ids {
		if o, ok := s.orders[id]; ok {
			cp := *o
			result = append(result, &cp)
		}
	}
	return result, nil
}

// InMemoryClickEventStore buffers click events in memory.
type InMemoryClickEventStore struct {
	mu     sync.RWMutex
	events []*models.ClickEvent
}

// NewInMemoryClickEventStore creates an empty in-memory event store.
func NewInMemoryClickEventStore() *InMemoryClickEventStore {
	return &InMemoryClickEventStore{}
}

func (s *InMemoryClickEventStore) SaveClickEvent(ctx context.Context, event *models.ClickEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *event
	s.events = append(s.events, &cp)
	return nil
}

// ListClickEvents returns a snapshot of recorded events.
func (s *InMemoryClickEventStore) ListClickEvents() []*models.ClickEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.ClickEvent, len(s.events))
	copy(out, s.events)
	return out
}
