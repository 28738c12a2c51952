package store

import (
	"context"
	"sync"

	"github.com/privhq/dsarkit/internal/dsar"
)

// Memory is an in-process RunStore used by tests and the scenario harness.
type Memory struct {
	mu    sync.RWMutex
	runs  map[string]*dsar.Run
	locks *keyedLocks
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		runs:  make(map[string]*dsar.Run),
		locks: newKeyedLocks(),
	}
}

// Create implements RunStore.
func (m *Memory) Create(_ context.Context, run *dsar.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[run.RequestID]; ok {
		return ErrExists
	}
	m.runs[run.RequestID] = cloneRun(run)
	return nil
}

// Get implements RunStore.
func (m *Memory) Get(_ context.Context, id string) (*dsar.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRun(run), nil
}

// Update implements RunStore. Mutation is serialized per request ID.
func (m *Memory) Update(_ context.Context, id string, fn func(*dsar.Run) error) (*dsar.Run, error) {
	unlock := m.locks.lock(id)
	defer unlock()

	m.mu.RLock()
	stored, ok := m.runs[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	working := cloneRun(stored)
	if err := fn(working); err != nil {
		return nil, err
	}
	if _, err := auditExtended(stored.AuditLog, working.AuditLog); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.runs[id] = cloneRun(working)
	m.mu.Unlock()
	return working, nil
}

// List implements RunStore.
func (m *Memory) List(_ context.Context) ([]*dsar.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*dsar.Run, 0, len(m.runs))
	for _, run := range m.runs {
		out = append(out, cloneRun(run))
	}
	return out, nil
}

// Close implements RunStore.
func (m *Memory) Close() error { return nil }
