// Package mirror is the one-way notification sink for external run tracing.
// The engine hands it read-only snapshots after each step; nothing the sink
// does (including failing) can block or alter a workflow decision, which is
// why the interface returns no values.
package mirror

import (
	"context"

	"github.com/privhq/dsarkit/internal/dsar"
)

// Snapshot is the read-only view of a completed step.
type Snapshot struct {
	RequestID string
	Step      string
	State     dsar.State
	Success   bool
	Reason    string
	AuditLen  int
}

// Notifier receives step snapshots, best effort and fire-and-forget.
type Notifier interface {
	StepCompleted(ctx context.Context, s Snapshot)
}

// Nop discards all notifications.
type Nop struct{}

// StepCompleted implements Notifier.
func (Nop) StepCompleted(context.Context, Snapshot) {}
