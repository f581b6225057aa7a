package tasks

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/vmihailenco/msgpack/v5"

	"inventory-graphql/internal/observability"
)

// DefaultQueueKey is the Redis list the server and worker agree on.
const DefaultQueueKey = "inventory:tasks"

// QueueDispatcher pushes msgpack-encoded tasks onto a Redis list consumed
// by cmd/worker.
type QueueDispatcher struct {
	client *redis.Client
	key    string
}

// NewQueueDispatcher creates a dispatcher over the given Redis client.
// An empty key uses DefaultQueueKey.
func NewQueueDispatcher(client *redis.Client, key string) *QueueDispatcher {
	if key == "" {
		key = DefaultQueueKey
	}
	return &QueueDispatcher{client: client, key: key}
}

func (d *QueueDispatcher) Dispatch(ctx context.Context, task Task) error {
	encoded, err := msgpack.Marshal(task)
	if err != nil {
		return fmt.Errorf("encode task %s: %w", task.ID, err)
	}
	if err := d.client.LPush(ctx, d.key, encoded).Err(); err != nil {
		return fmt.Errorf("enqueue task %s: %w", task.ID, err)
	}
	observability.RecordTaskDispatched(ctx, task.Kind, "queue")
	return nil
}
