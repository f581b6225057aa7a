package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/vmihailenco/msgpack/v5"

	"inventory-graphql/internal/logging"
	"inventory-graphql/internal/observability"
)

// popTimeout bounds each BRPOP so the worker can notice cancellation.
const popTimeout = 5 * time.Second

// Worker drains the task queue and executes tasks with a Runner. Failed
// tasks are logged and dropped; the loop keeps going until the context is
// cancelled.
type Worker struct {
	client *redis.Client
	key    string
	runner *Runner
}

// NewWorker creates a worker for the given queue. An empty key uses
// DefaultQueueKey.
func NewWorker(client *redis.Client, key string, runner *Runner) *Worker {
	if key == "" {
		key = DefaultQueueKey
	}
	return &Worker{client: client, key: key, runner: runner}
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	logger.Info("worker started", "queue", w.key)
	for {
		if err := ctx.Err(); err != nil {
			logger.Info("worker stopping")
			return nil
		}

		result, err := w.client.BRPop(ctx, popTimeout, w.key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				logger.Info("worker stopping")
				return nil
			}
			logger.Error("queue pop failed", "error", err)
			// Back off briefly so a dead broker does not spin the loop.
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return nil
			}
			continue
		}
		// BRPop returns [key, value].
		if len(result) != 2 {
			continue
		}
		w.handle(ctx, []byte(result[1]))
	}
}

func (w *Worker) handle(ctx context.Context, raw []byte) {
	logger := logging.FromContext(ctx)
	var task Task
	if err := msgpack.Unmarshal(raw, &task); err != nil {
		logger.Error("discarding undecodable task", "error", err)
		return
	}
	start := time.Now()
	if err := w.runner.Run(ctx, task); err != nil {
		logger.Error("task failed",
			"task_id", task.ID.String(), "kind", task.Kind, "entity_id", task.EntityID, "error", err)
		observability.RecordTaskFailed(ctx, task.Kind)
		return
	}
	logger.Info("task completed",
		"task_id", task.ID.String(), "kind", task.Kind, "entity_id", task.EntityID,
		"duration_ms", time.Since(start).Milliseconds())
}
