package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/privhq/dsarkit/internal/dsar"
)

// Sentinel errors shared by all implementations.
var (
	ErrNotFound       = errors.New("run not found")
	ErrExists         = errors.New("run already exists")
	ErrAuditTruncated = errors.New("audit log shrank during update")
)

// RunStore is the injected run-record persistence abstraction. There is no
// global registry; callers own a store instance and pass it to the engine.
type RunStore interface {
	// Create persists a new run. Fails with ErrExists on duplicate ID.
	Create(ctx context.Context, run *dsar.Run) error

	// Get returns a copy of the run. Mutating the result does not affect
	// the stored record.
	Get(ctx context.Context, id string) (*dsar.Run, error)

	// Update applies fn to the stored run under the per-run lock and
	// persists the result if fn returns nil. fn may append audit entries
	// but never remove or reorder existing ones; a shrunken audit log
	// fails the update with ErrAuditTruncated.
	Update(ctx context.Context, id string, fn func(*dsar.Run) error) (*dsar.Run, error)

	// List returns copies of all runs.
	List(ctx context.Context) ([]*dsar.Run, error)

	Close() error
}

// cloneRun deep-copies a run via its JSON form. The record is
// JSON-serializable by construction, so a marshal failure is a programming
// error.
func cloneRun(run *dsar.Run) *dsar.Run {
	data, err := json.Marshal(run)
	if err != nil {
		panic(fmt.Sprintf("store: run not serializable: %v", err))
	}
	var out dsar.Run
	if err := json.Unmarshal(data, &out); err != nil {
		panic(fmt.Sprintf("store: run not round-trippable: %v", err))
	}
	return &out
}

// keyedLocks hands out one mutex per request ID.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{locks: make(map[string]*sync.Mutex)}
}

func (k *keyedLocks) lock(id string) func() {
	k.mu.Lock()
	m, ok := k.locks[id]
	if !ok {
		m = &sync.Mutex{}
		k.locks[id] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// auditExtended verifies the append-only audit invariant and returns the
// entries added by the update.
func auditExtended(before, after []dsar.AuditEntry) ([]dsar.AuditEntry, error) {
	if len(after) < len(before) {
		return nil, ErrAuditTruncated
	}
	return after[len(before):], nil
}
