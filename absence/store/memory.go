// Package store provides an in-memory absence.Store for tests and dev.
package store

import (
	"context"
	"sync"

	"github.com/warp/absence-engine/absence"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	requests  map[absence.RequestID]absence.Request
	resources map[absence.ResourceID]absence.Resource
	groups    map[absence.GroupID]absence.Group
}

func NewMemory() *Memory {
	return &Memory{
		requests:  make(map[absence.RequestID]absence.Request),
		resources: make(map[absence.ResourceID]absence.Resource),
		groups:    make(map[absence.GroupID]absence.Group),
	}
}

// =============================================================================
// REQUESTS
// =============================================================================

func (m *Memory) SaveRequest(_ context.Context, r absence.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.requests[r.ID]; ok {
		return absence.ErrConflict
	}
	m.requests[r.ID] = r
	return nil
}

func (m *Memory) GetRequest(_ context.Context, id absence.RequestID) (*absence.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, absence.ErrNotFound
	}
	return &r, nil
}

func (m *Memory) UpdateRequest(_ context.Context, r absence.Request, expectedVersion int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.requests[r.ID]
	if !ok {
		return absence.ErrNotFound
	}
	if current.Version != expectedVersion {
		return absence.ErrConflict
	}
	m.requests[r.ID] = r
	return nil
}

func (m *Memory) DeleteRequest(_ context.Context, id absence.RequestID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.requests[id]; !ok {
		return absence.ErrNotFound
	}
	delete(m.requests, id)
	return nil
}

func (m *Memory) ListRequests(_ context.Context) ([]absence.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]absence.Request, 0, len(m.requests))
	for _, r := range m.requests {
		out = append(out, r)
	}
	return out, nil
}

// =============================================================================
// RESOURCES
// =============================================================================

func (m *Memory) SaveResource(_ context.Context, r absence.Resource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.GroupID != "" {
		if _, ok := m.groups[r.GroupID]; !ok {
			return absence.ErrGroupRequired
		}
	}
	m.resources[r.ID] = r
	return nil
}

func (m *Memory) GetResource(_ context.Context, id absence.ResourceID) (*absence.Resource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.resources[id]
	if !ok {
		return nil, absence.ErrNotFound
	}
	return &r, nil
}

func (m *Memory) ListResources(_ context.Context) ([]absence.Resource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]absence.Resource, 0, len(m.resources))
	for _, r := range m.resources {
		out = append(out, r)
	}
	return out, nil
}

// =============================================================================
// GROUPS
// =============================================================================

func (m *Memory) SaveGroup(_ context.Context, g absence.Group) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.groups[g.ID] = g
	return nil
}

func (m *Memory) GetGroup(_ context.Context, id absence.GroupID) (*absence.Group, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.groups[id]
	if !ok {
		return nil, absence.ErrNotFound
	}
	return &g, nil
}

func (m *Memory) ListGroups(_ context.Context) ([]absence.Group, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]absence.Group, 0, len(m.groups))
	for _, g := range m.groups {
		out = append(out, g)
	}
	return out, nil
}
