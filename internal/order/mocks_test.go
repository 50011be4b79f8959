package order

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type PublishedMessage struct {
	Topic   string
	Payload []byte
}

type MockPublisher struct {
	mu        sync.Mutex
	Published []PublishedMessage
	FailWith  error
}

func (p *MockPublisher) Publish(ctx context.Context, topic string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailWith != nil {
		return p.FailWith
	}
	p.Published = append(p.Published, PublishedMessage{Topic: topic, Payload: payload})
	return nil
}

type MockRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*Order

	CreateFunc func(ctx context.Context, order *Order) error
	SaveFunc   func(ctx context.Context, order *Order) error
}

func NewMockRepo() *MockRepo {
	return &MockRepo{orders: make(map[uuid.UUID]*Order)}
}

func (m *MockRepo) Create(ctx context.Context, order *Order) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, order)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *order
	m.orders[order.ID] = &copied
	return nil
}

func (m *MockRepo) Get(ctx context.Context, id uuid.UUID) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	copied := *order
	return &copied, nil
}

func (m *MockRepo) List(ctx context.Context) ([]*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*Order, 0, len(m.orders))
	for _, order := range m.orders {
		copied := *order
		result = append(result, &copied)
	}
	return result, nil
}

func (m *MockRepo) ListByTable(ctx context.Context, tableID uuid.UUID) ([]*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*Order
	for _, order := range m.orders {
		if order.TableID != nil && *order.TableID == tableID {
			copied := *order
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (m *MockRepo) ListByBranchAndRange(ctx context.Context, branchID string, start, end time.Time, asc bool) ([]*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*Order
	for _, order := range m.orders {
		if branchID != "" && order.BranchID != branchID {
			continue
		}
		if order.CreatedAt.Before(start) || !order.CreatedAt.Before(end) {
			continue
		}
		copied := *order
		result = append(result, &copied)
	}
	return result, nil
}

func (m *MockRepo) ListActiveByTable(ctx context.Context, tableID uuid.UUID) ([]*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*Order
	for _, order := range m.orders {
		if order.TableID != nil && *order.TableID == tableID && !order.IsTerminal() {
			copied := *order
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (m *MockRepo) CountActiveByBranch(ctx context.Context, branchID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, order := range m.orders {
		if (branchID == "" || order.BranchID == branchID) && !order.IsTerminal() {
			count++
		}
	}
	return count, nil
}

func (m *MockRepo) Save(ctx context.Context, order *Order) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, order)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *order
	m.orders[order.ID] = &copied
	return nil
}

func (m *MockRepo) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.orders, id)
	return nil
}

type MockStockChecker struct {
	Err error
}

func (m *MockStockChecker) CheckStock(ctx context.Context, items []LineItem) error {
	return m.Err
}
