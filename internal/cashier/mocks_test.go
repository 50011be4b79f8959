package cashier

import (
	"context"
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

type MockRepo struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

func NewMockRepo() *MockRepo {
	return &MockRepo{sessions: make(map[uuid.UUID]*Session)}
}

func (m *MockRepo) Create(ctx context.Context, session *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *session
	m.sessions[session.ID] = &copied
	return nil
}

func (m *MockRepo) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	copied := *session
	return &copied, nil
}

func (m *MockRepo) FindOpenByBranch(ctx context.Context, branchID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, session := range m.sessions {
		if session.BranchID == branchID && session.Status == StatusOpen {
			copied := *session
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *MockRepo) ListByBranch(ctx context.Context, branchID string) ([]*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*Session
	for _, session := range m.sessions {
		if session.BranchID == branchID {
			copied := *session
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (m *MockRepo) Save(ctx context.Context, session *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *session
	m.sessions[session.ID] = &copied
	return nil
}

type MockOrderCounter struct {
	Count int
	Err   error
}

func (m *MockOrderCounter) CountActiveByBranch(ctx context.Context, branchID string) (int, error) {
	return m.Count, m.Err
}

type MockTableCounter struct {
	Count int
	Err   error
}

func (m *MockTableCounter) CountByStatus(ctx context.Context, branchID, status string) (int, error) {
	return m.Count, m.Err
}
