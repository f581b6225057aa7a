// Package resolver executes reads and mutations against the store using the
// entity registry. Reads fetch the full filtered set, then apply timezone
// date filtering, private-field ordering, and pagination in process.
// Mutations run inside a per-operation transaction and hand post-commit
// notifications to the task dispatcher.
package resolver

import (
	"context"
	"fmt"

	"inventory-graphql/internal/dbexec"
	"inventory-graphql/internal/entity"
	"inventory-graphql/internal/logging"
	"inventory-graphql/internal/tasks"
)

// DefaultPageSize is the fixed server-side page size used when the config
// does not override it.
const DefaultPageSize = 20

// Executor is the store access the resolver needs: plain execution for
// reads and transactions for mutations.
type Executor interface {
	dbexec.QueryExecutor
	dbexec.TxStarter
}

// Resolver executes GraphQL operations for registered entities.
type Resolver struct {
	reg        *entity.Registry
	exec       Executor
	dispatcher tasks.Dispatcher
	pageSize   int
}

// New creates a resolver. A non-positive pageSize falls back to
// DefaultPageSize.
func New(reg *entity.Registry, exec Executor, dispatcher tasks.Dispatcher, pageSize int) *Resolver {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Resolver{
		reg:        reg,
		exec:       exec,
		dispatcher: dispatcher,
		pageSize:   pageSize,
	}
}

// Registry returns the entity registry the resolver serves.
func (r *Resolver) Registry() *entity.Registry {
	return r.reg
}

// PageSize returns the fixed page size used for batch reads.
func (r *Resolver) PageSize() int {
	return r.pageSize
}

// ComputePrivate materializes a private computed field for one row, using
// the resolver's pooled store handle. Params carries the operation's
// variable values through to the compute function.
func (r *Resolver) ComputePrivate(ctx context.Context, e *entity.Entity, name string, row map[string]interface{}, params map[string]interface{}) (int64, error) {
	pf, ok := e.PrivateField(name)
	if !ok {
		return 0, fmt.Errorf("unknown private field %s on %s", name, e.Name)
	}
	return pf.Compute(ctx, r.exec, row, params)
}

// dispatch hands a task to the dispatcher after a successful commit. The
// write has already committed, so a dispatch failure is logged and dropped
// rather than failing the mutation.
func (r *Resolver) dispatch(ctx context.Context, task tasks.Task) {
	if r.dispatcher == nil {
		return
	}
	if err := r.dispatcher.Dispatch(ctx, task); err != nil {
		logging.FromContext(ctx).Error("task dispatch failed",
			"task_id", task.ID.String(), "kind", task.Kind, "entity_id", task.EntityID, "error", err)
	}
}
