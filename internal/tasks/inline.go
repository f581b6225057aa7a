package tasks

import (
	"context"

	"inventory-graphql/internal/logging"
	"inventory-graphql/internal/observability"
)

// InlineDispatcher runs tasks synchronously in-process. Used in dev and
// test setups where no broker is configured. Execution failures are logged
// and dropped to keep call-site behavior identical to the queue path.
type InlineDispatcher struct {
	runner *Runner
}

// NewInlineDispatcher creates a dispatcher that executes tasks immediately.
func NewInlineDispatcher(runner *Runner) *InlineDispatcher {
	return &InlineDispatcher{runner: runner}
}

func (d *InlineDispatcher) Dispatch(ctx context.Context, task Task) error {
	observability.RecordTaskDispatched(ctx, task.Kind, "inline")
	if err := d.runner.Run(ctx, task); err != nil {
		logging.FromContext(ctx).Error("task failed",
			"task_id", task.ID.String(), "kind", task.Kind, "entity_id", task.EntityID, "error", err)
		observability.RecordTaskFailed(ctx, task.Kind)
	}
	return nil
}
