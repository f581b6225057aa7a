// Package tasks is the outbound boundary for background work. Mutations
// hand completed-commit notifications to a Dispatcher; the dispatcher either
// runs the task inline or pushes it onto a Redis queue for cmd/worker.
//
// Delivery is at most once. A task that fails is logged and dropped, and no
// ordering is guaranteed between tasks.
package tasks

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Task kinds.
const (
	KindRecalculateInventory = "recalculate_inventory"
	KindPostOrderAnalytics   = "post_order_analytics"
)

// Task is one unit of background work. EntityID identifies the product or
// order the task operates on, depending on Kind.
type Task struct {
	ID         uuid.UUID `msgpack:"id"`
	Kind       string    `msgpack:"kind"`
	EntityID   int64     `msgpack:"entity_id"`
	EnqueuedAt time.Time `msgpack:"enqueued_at"`
}

// New builds a task with a fresh ID and enqueue timestamp.
func New(kind string, entityID int64) Task {
	return Task{
		ID:         uuid.New(),
		Kind:       kind,
		EntityID:   entityID,
		EnqueuedAt: time.Now().UTC(),
	}
}

// Dispatcher accepts tasks for eventual execution. Implementations must be
// safe for concurrent use.
type Dispatcher interface {
	Dispatch(ctx context.Context, task Task) error
}
