package strategy

import (
	"context"
	"errors"
	"sync"

	"github.com/trendsim/trendsim/internal/core"
)

// MemoryStore is an in-process Store for tests and local runs.
type MemoryStore struct {
	mu         sync.RWMutex
	strategies map[string]*Strategy
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{strategies: make(map[string]*Strategy)}
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Strategy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.strategies[id]
	if !ok {
		return nil, core.WrapError(core.ErrNotFound, errors.New("strategy "+id))
	}
	return s.Clone(), nil
}

func (m *MemoryStore) Save(_ context.Context, s *Strategy) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.strategies[s.ID] = s.Clone()
	return nil
}

func (m *MemoryStore) List(_ context.Context, f Filter) ([]*Strategy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Strategy
	for _, s := range m.strategies {
		if !matchesFilter(s, f) {
			continue
		}
		out = append(out, s.Clone())
	}
	return out, nil
}

func matchesFilter(s *Strategy, f Filter) bool {
	if !f.IncludeInactive && !s.IsActive {
		return false
	}
	if f.OwnerID != "" && s.OwnerID != f.OwnerID {
		return false
	}
	if f.Category != "" && s.Category != f.Category {
		return false
	}
	if f.PublicOnly && !s.IsPublic {
		return false
	}
	return true
}
