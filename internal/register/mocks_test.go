package register

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

type PublishedMessage struct {
	Topic   string
	Payload []byte
}

type MockPublisher struct {
	mu        sync.Mutex
	Published []PublishedMessage
}

func (p *MockPublisher) Publish(ctx context.Context, topic string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Published = append(p.Published, PublishedMessage{Topic: topic, Payload: payload})
	return nil
}

type MockOrderSource struct {
	Orders []OrderRecord
	Err    error
}

func (s *MockOrderSource) ListOrders(ctx context.Context) ([]OrderRecord, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Orders, nil
}

type MockOrderMover struct {
	mu      sync.Mutex
	Active  map[uuid.UUID][]OrderRecord
	FailIDs map[string]bool
	Moved   []uuid.UUID
}

func NewMockOrderMover() *MockOrderMover {
	return &MockOrderMover{
		Active:  make(map[uuid.UUID][]OrderRecord),
		FailIDs: make(map[string]bool),
	}
}

func (m *MockOrderMover) ListActiveByTable(ctx context.Context, tableID uuid.UUID) ([]OrderRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Active[tableID], nil
}

func (m *MockOrderMover) MoveOrderTable(ctx context.Context, orderID, tableID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailIDs[orderID.String()] {
		return fmt.Errorf("reassignment rejected for %s", orderID)
	}
	m.Moved = append(m.Moved, orderID)
	return nil
}

type MockTableGateway struct {
	mu       sync.Mutex
	Statuses map[uuid.UUID]string
	Changes  []string
}

func NewMockTableGateway() *MockTableGateway {
	return &MockTableGateway{Statuses: make(map[uuid.UUID]string)}
}

func (g *MockTableGateway) TableStatus(ctx context.Context, id uuid.UUID) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	status, ok := g.Statuses[id]
	if !ok {
		return "", fmt.Errorf("table %s not found", id)
	}
	return status, nil
}

func (g *MockTableGateway) SetTableStatus(ctx context.Context, id uuid.UUID, status string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Statuses[id] = status
	g.Changes = append(g.Changes, fmt.Sprintf("%s=%s", id, status))
	return nil
}

// FlakyStore fails the first N writes, then behaves like the wrapped store.
type FlakyStore struct {
	*MemoryStore
	mu        sync.Mutex
	FailFirst int
	writes    int
}

func NewFlakyStore(failFirst int) *FlakyStore {
	return &FlakyStore{MemoryStore: NewMemoryStore(), FailFirst: failFirst}
}

func (s *FlakyStore) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	s.writes++
	failing := s.writes <= s.FailFirst
	s.mu.Unlock()
	if failing {
		return fmt.Errorf("transient write failure")
	}
	return s.MemoryStore.Set(ctx, key, value)
}
