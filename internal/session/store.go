package session

import (
	"context"
	"sync"
)

// Store persists State by chat id. A missing entry reads as Idle().
type Store interface {
	Get(ctx context.Context, chatID int64) (State, error)
	Put(ctx context.Context, chatID int64, st State) error
	Delete(ctx context.Context, chatID int64) error
}

type MemoryStore struct {
	mu     sync.RWMutex
	states map[int64]State
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[int64]State)}
}

func (m *MemoryStore) Get(_ context.Context, chatID int64) (State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st, ok := m.states[chatID]
	if !ok {
		return Idle(), nil
	}
	return st.clone(), nil
}

func (m *MemoryStore) Put(_ context.Context, chatID int64, st State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.states[chatID] = st.clone()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.states, chatID)
	return nil
}
