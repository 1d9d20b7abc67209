package queue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"recallkit/internal/domain"
)

// Memory is an in-memory Store. It backs tests and ephemeral sessions
// where persistence across restarts is not needed.
type Memory struct {
	mu       sync.Mutex
	items    []Item
	listener Listener
	now      func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{now: time.Now}
}

// SetListener registers l to be notified after appends and removals.
func (m *Memory) SetListener(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listener = l
}

// SetClock overrides the timestamp source. Intended for tests.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Append implements Store.
func (m *Memory) Append(_ context.Context, action Action, payload domain.CardPayload) (Item, error) {
	m.mu.Lock()
	item := Item{
		ID:        uuid.New(),
		Action:    action,
		Payload:   payload,
		CreatedAt: m.now(),
	}
	m.items = append(m.items, item)
	listener, pending := m.listener, len(m.items)
	m.mu.Unlock()

	if listener != nil {
		listener.QueueChanged(pending)
	}
	return item, nil
}

// List implements Store.
func (m *Memory) List(_ context.Context) ([]Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Item, len(m.items))
	copy(out, m.items)
	return out, nil
}

// Remove implements Store.
func (m *Memory) Remove(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	removed := false
	for i, item := range m.items {
		if item.ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			removed = true
			break
		}
	}
	listener, pending := m.listener, len(m.items)
	m.mu.Unlock()

	if removed && listener != nil {
		listener.QueueChanged(pending)
	}
	return nil
}

// IncrementRetry implements Store.
func (m *Memory) IncrementRetry(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == id {
			m.items[i].RetryCount++
			break
		}
	}
	return nil
}

// Len implements Store.
func (m *Memory) Len(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items), nil
}

// Seed inserts an item as-is, preserving its id and retry count.
// Intended for tests that need a pre-exhausted item.
func (m *Memory) Seed(item Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, item)
}
