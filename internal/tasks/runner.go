package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"inventory-graphql/internal/dbexec"
	"inventory-graphql/internal/entity"
	"inventory-graphql/internal/logging"
)

// Runner executes tasks against the store. It is shared by the inline
// dispatcher and the queue worker.
type Runner struct {
	exec dbexec.QueryExecutor
}

// NewRunner creates a runner over the given executor.
func NewRunner(exec dbexec.QueryExecutor) *Runner {
	return &Runner{exec: exec}
}

// Run executes one task.
func (r *Runner) Run(ctx context.Context, task Task) error {
	switch task.Kind {
	case KindRecalculateInventory:
		return r.recalculateInventory(ctx, task.EntityID)
	case KindPostOrderAnalytics:
		return r.postOrderAnalytics(ctx, task.EntityID)
	default:
		return fmt.Errorf("unknown task kind %q", task.Kind)
	}
}

// recalculateInventory recomputes a product's stock from its entry deltas
// and records the result as an analytics event.
func (r *Runner) recalculateInventory(ctx context.Context, productID int64) error {
	stock, err := r.sumQuery(ctx,
		sq.Select("COALESCE(SUM(`delta`), 0)").
			From("`inventory_entries`").
			Where(sq.Eq{"`product_id`": productID}))
	if err != nil {
		return fmt.Errorf("recalculate inventory for product %d: %w", productID, err)
	}
	payload := map[string]interface{}{"product_id": productID, "stock": stock}
	if err := r.appendEvent(ctx, entity.EventKindRecalcProduct, nil, payload); err != nil {
		return fmt.Errorf("recalculate inventory for product %d: %w", productID, err)
	}
	logging.FromContext(ctx).Debug("recalculated inventory",
		"product_id", productID, "stock", stock)
	return nil
}

// postOrderAnalytics records an order-created analytics event carrying the
// order's total.
func (r *Runner) postOrderAnalytics(ctx context.Context, orderID int64) error {
	total, err := r.sumQuery(ctx,
		sq.Select("COALESCE(SUM(`quantity` * `unit_price_cents`), 0)").
			From("`order_items`").
			Where(sq.Eq{"`order_id`": orderID}))
	if err != nil {
		return fmt.Errorf("post order analytics for order %d: %w", orderID, err)
	}
	payload := map[string]interface{}{"total_cents": total}
	if err := r.appendEvent(ctx, entity.EventKindOrderCreated, &orderID, payload); err != nil {
		return fmt.Errorf("post order analytics for order %d: %w", orderID, err)
	}
	logging.FromContext(ctx).Debug("posted order analytics",
		"order_id", orderID, "total_cents", total)
	return nil
}

func (r *Runner) sumQuery(ctx context.Context, builder sq.SelectBuilder) (int64, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return 0, err
	}
	rows, err := r.exec.QueryContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	defer rows.Close()
	var total int64
	if rows.Next() {
		if err := rows.Scan(&total); err != nil {
			return 0, err
		}
	}
	return total, rows.Err()
}

func (r *Runner) appendEvent(ctx context.Context, kind string, orderID *int64, payload map[string]interface{}) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	query, args, err := sq.Insert("`analytics_events`").
		Columns("`order_id`", "`kind`", "`payload`", "`created_at`", "`updated_at`").
		Values(orderID, kind, string(encoded), now, now).
		ToSql()
	if err != nil {
		return err
	}
	_, err = r.exec.ExecContext(ctx, query, args...)
	return err
}
