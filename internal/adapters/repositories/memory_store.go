package repositories

import (
	"context"
	"route-planner-service/internal/domain"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps route sets and held-back records in process memory.
// Every read and write copies through the stored document form, so callers
// never share state with the store.
type MemoryStore struct {
	mu       sync.RWMutex
	sets     map[string]RouteSetDocument
	heldBack map[string]HeldBackDocument
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sets:     make(map[string]RouteSetDocument),
		heldBack: make(map[string]HeldBackDocument),
	}
}

func (m *MemoryStore) Create(ctx context.Context, set *domain.RouteSet) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.NewString()
	m.sets[id] = NewRouteSetDocument(set)
	return id, nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*domain.RouteSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.sets[id]
	if !ok {
		return nil, domain.NotFoundf("route set %q not found", id)
	}
	return doc.ToDomain(id), nil
}

func (m *MemoryStore) Replace(ctx context.Context, set *domain.RouteSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sets[set.ID]; !ok {
		return domain.NotFoundf("route set %q not found", set.ID)
	}
	m.sets[set.ID] = NewRouteSetDocument(set)
	return nil
}

func (m *MemoryStore) List(ctx context.Context, userID string, activeOnly bool) ([]*domain.RouteSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*domain.RouteSet, 0)
	for id, doc := range m.sets {
		if doc.UserID != userID || (activeOnly && doc.Completed) {
			continue
		}
		out = append(out, doc.ToDomain(id))
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].GeneratedAt.Equal(out[j].GeneratedAt) {
			return out[i].GeneratedAt.Before(out[j].GeneratedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sets[id]; !ok {
		return domain.NotFoundf("route set %q not found", id)
	}
	delete(m.sets, id)
	return nil
}

func (m *MemoryStore) GetHeldBack(ctx context.Context, routeSetID string) (*domain.HeldBackLocations, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.heldBack[routeSetID]
	if !ok {
		return nil, domain.NotFoundf("held-back locations for %q not found", routeSetID)
	}
	return doc.ToDomain(), nil
}

func (m *MemoryStore) SaveHeldBack(ctx context.Context, h *domain.HeldBackLocations) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.heldBack[h.RouteSetID] = NewHeldBackDocument(h)
	return nil
}

func (m *MemoryStore) DeleteHeldBack(ctx context.Context, routeSetID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.heldBack, routeSetID)
	return nil
}
