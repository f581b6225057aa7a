package resolver

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"inventory-graphql/internal/dbexec"
	"inventory-graphql/internal/entity"
	"inventory-graphql/internal/observability"
	"inventory-graphql/internal/planner"
	"inventory-graphql/internal/tasks"
)

// MutationResult is the payload contract shared by every mutation: callers
// check OK, typed failures land in Errors, and Row holds the affected
// entity on success.
type MutationResult struct {
	OK     bool
	Errors []UserError
	Row    map[string]interface{}
}

// mutationFunc runs the core of one mutation on an open transaction. It
// returns the result row and the tasks to dispatch after commit.
type mutationFunc func(tx dbexec.TxExecutor) (map[string]interface{}, []tasks.Task, error)

// runMutation wraps a mutation core in a transaction. Typed failures roll
// back and become payload errors; anything else rolls back and propagates.
// Hook tasks dispatch only after a successful commit.
func (r *Resolver) runMutation(ctx context.Context, e *entity.Entity, action string, fn mutationFunc) (*MutationResult, error) {
	tx, err := r.exec.BeginTx(ctx)
	if err != nil {
		return nil, err
	}

	row, hooks, err := fn(tx)
	if err != nil {
		_ = tx.Rollback()
		if failure, ok := asFailure(err); ok {
			r.recordMutation(ctx, e, action, false)
			return &MutationResult{OK: false, Errors: failure.Errors}, nil
		}
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	for _, task := range hooks {
		r.dispatch(ctx, task)
	}
	r.recordMutation(ctx, e, action, true)
	return &MutationResult{OK: true, Errors: []UserError{}, Row: row}, nil
}

func (r *Resolver) recordMutation(ctx context.Context, e *entity.Entity, action string, ok bool) {
	if m := observability.GraphQLMetricsFromContext(ctx); m != nil {
		m.RecordMutation(ctx, e.Name, action, ok)
	}
}

// Create inserts one row from the given input.
func (r *Resolver) Create(ctx context.Context, e *entity.Entity, input map[string]interface{}) (*MutationResult, error) {
	return r.runMutation(ctx, e, "create", func(tx dbexec.TxExecutor) (map[string]interface{}, []tasks.Task, error) {
		values, err := r.buildWriteValues(ctx, tx, e, input, true)
		if err != nil {
			return nil, nil, err
		}
		now := time.Now().UTC()
		values["created_at"] = now
		values["updated_at"] = now

		plan, err := planner.PlanInsert(e, values)
		if err != nil {
			return nil, nil, err
		}
		res, err := tx.ExecContext(ctx, plan.SQL, plan.Args...)
		if err != nil {
			return nil, nil, classifyStoreError(err, uniqueFieldName(e))
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, nil, err
		}

		row, err := r.reload(ctx, tx, e, id)
		if err != nil {
			return nil, nil, err
		}
		return row, r.writeHooks(e, "create", row, nil), nil
	})
}

// Update applies the present input fields to the single row matching where.
func (r *Resolver) Update(ctx context.Context, e *entity.Entity, whereInput, input map[string]interface{}) (*MutationResult, error) {
	return r.runMutation(ctx, e, "update", func(tx dbexec.TxExecutor) (map[string]interface{}, []tasks.Task, error) {
		target, err := r.requireSingle(ctx, tx, e, whereInput)
		if err != nil {
			return nil, nil, err
		}
		id := target["id"].(int64)

		values, err := r.buildWriteValues(ctx, tx, e, input, false)
		if err != nil {
			return nil, nil, err
		}
		values["updated_at"] = time.Now().UTC()

		plan, err := planner.PlanUpdate(e, id, values)
		if err != nil {
			return nil, nil, err
		}
		if _, err := tx.ExecContext(ctx, plan.SQL, plan.Args...); err != nil {
			return nil, nil, classifyStoreError(err, uniqueFieldName(e))
		}

		row, err := r.reload(ctx, tx, e, id)
		if err != nil {
			return nil, nil, err
		}
		return row, r.writeHooks(e, "update", row, target), nil
	})
}

// Delete removes the single row matching where, enforcing protect rules and
// cascading to dependents inside the same transaction. The result is a
// snapshot of the deleted row.
func (r *Resolver) Delete(ctx context.Context, e *entity.Entity, whereInput map[string]interface{}) (*MutationResult, error) {
	return r.runMutation(ctx, e, "delete", func(tx dbexec.TxExecutor) (map[string]interface{}, []tasks.Task, error) {
		target, err := r.requireSingle(ctx, tx, e, whereInput)
		if err != nil {
			return nil, nil, err
		}
		id := target["id"].(int64)

		if err := r.deleteRow(ctx, tx, e, id); err != nil {
			return nil, nil, err
		}
		return target, r.writeHooks(e, "delete", target, nil), nil
	})
}

// deleteRow removes one row after checking protect dependents and
// recursively removing cascade dependents.
func (r *Resolver) deleteRow(ctx context.Context, tx dbexec.TxExecutor, e *entity.Entity, id int64) error {
	deps := r.reg.Dependents(e.Name)

	// All protect checks run before any cascade write.
	for _, dep := range deps {
		if dep.Relation.OnDelete != entity.Protect {
			continue
		}
		count, err := r.countDependents(ctx, tx, dep, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return constraintFailure(fmt.Sprintf(
				"cannot delete %s: %d dependent %s rows reference it", e.Name, count, dep.Entity.Name))
		}
	}
	for _, dep := range deps {
		if dep.Relation.OnDelete != entity.Cascade {
			continue
		}
		ids, err := r.dependentIDs(ctx, tx, dep, id)
		if err != nil {
			return err
		}
		for _, depID := range ids {
			if err := r.deleteRow(ctx, tx, dep.Entity, depID); err != nil {
				return err
			}
		}
	}

	plan, err := planner.PlanDelete(e, id)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, plan.SQL, plan.Args...)
	return err
}

// CancelOrder sets the order's status to CANCELLED and writes one
// compensating inventory entry per item, restoring the reserved stock.
func (r *Resolver) CancelOrder(ctx context.Context, whereInput map[string]interface{}) (*MutationResult, error) {
	orderEntity, ok := r.reg.Entity("Order")
	if !ok {
		return nil, fmt.Errorf("Order entity is not registered")
	}
	return r.runMutation(ctx, orderEntity, "cancel", func(tx dbexec.TxExecutor) (map[string]interface{}, []tasks.Task, error) {
		target, err := r.requireSingle(ctx, tx, orderEntity, whereInput)
		if err != nil {
			return nil, nil, err
		}
		id := target["id"].(int64)
		if status, _ := target["status"].(string); status == entity.OrderStatusCancelled {
			return nil, nil, validationFailure("status", "order is already cancelled")
		}

		now := time.Now().UTC()
		plan, err := planner.PlanUpdate(orderEntity, id, map[string]interface{}{
			"status":     entity.OrderStatusCancelled,
			"updated_at": now,
		})
		if err != nil {
			return nil, nil, err
		}
		if _, err := tx.ExecContext(ctx, plan.SQL, plan.Args...); err != nil {
			return nil, nil, err
		}

		products, err := r.compensateItems(ctx, tx, id, now)
		if err != nil {
			return nil, nil, err
		}

		row, err := r.reload(ctx, tx, orderEntity, id)
		if err != nil {
			return nil, nil, err
		}
		hooks := make([]tasks.Task, 0, len(products))
		for _, productID := range products {
			hooks = append(hooks, tasks.New(tasks.KindRecalculateInventory, productID))
		}
		return row, hooks, nil
	})
}

// compensateItems writes one positive inventory entry per order item and
// returns the distinct product IDs touched, in first-seen order.
func (r *Resolver) compensateItems(ctx context.Context, tx dbexec.TxExecutor, orderID int64, now time.Time) ([]int64, error) {
	query, args, err := sq.Select("`product_id`", "`quantity`").
		From("`order_items`").
		Where(sq.Eq{"`order_id`": orderID}).
		OrderBy("`id` ASC").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type item struct {
		productID int64
		quantity  int64
	}
	var items []item
	for rows.Next() {
		var it item
		if err := rows.Scan(&it.productID, &it.quantity); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	entryEntity, ok := r.reg.Entity("InventoryEntry")
	if !ok {
		return nil, fmt.Errorf("InventoryEntry entity is not registered")
	}

	seen := make(map[int64]struct{})
	var products []int64
	for _, it := range items {
		plan, err := planner.PlanInsert(entryEntity, map[string]interface{}{
			"product_id": it.productID,
			"delta":      it.quantity,
			"note":       fmt.Sprintf("compensation for cancelled order %d", orderID),
			"created_at": now,
			"updated_at": now,
		})
		if err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx, plan.SQL, plan.Args...); err != nil {
			return nil, err
		}
		if _, dup := seen[it.productID]; !dup {
			seen[it.productID] = struct{}{}
			products = append(products, it.productID)
		}
	}
	return products, nil
}

// buildWriteValues maps GraphQL input fields to column values. Connect
// sub-objects resolve first; any connect failure aborts with zero writes.
// On create, absent fields fall back to their default or fail when
// required.
func (r *Resolver) buildWriteValues(ctx context.Context, exec dbexec.QueryExecutor, e *entity.Entity, input map[string]interface{}, isCreate bool) (map[string]interface{}, error) {
	values := make(map[string]interface{})

	for _, rel := range e.Relations {
		raw, present := input[rel.Name]
		if !present {
			if isCreate && rel.NonNull {
				return nil, validationFailure(rel.Name, "this field is required")
			}
			continue
		}
		wrapper, ok := raw.(map[string]interface{})
		if !ok {
			return nil, validationFailure(rel.Name, "expected a connect object")
		}
		whereMap, ok := wrapper["connect"].(map[string]interface{})
		if !ok {
			return nil, validationFailure(rel.Name, "expected a connect object")
		}
		targetEntity, ok := r.reg.Entity(rel.Target)
		if !ok {
			return nil, fmt.Errorf("relation %s targets unregistered entity %s", rel.Name, rel.Target)
		}
		row, err := r.requireSingle(ctx, exec, targetEntity, whereMap)
		if err != nil {
			if failure, isTyped := asFailure(err); isTyped {
				return nil, scopeFailure(failure, rel.Name)
			}
			return nil, err
		}
		values[rel.Column] = row["id"]
	}

	for _, field := range e.WritableFields() {
		raw, present := input[field.Name]
		if !present {
			if isCreate {
				if field.Default != nil {
					values[field.Column] = field.Default
				} else if field.NonNull {
					return nil, validationFailure(field.Name, "this field is required")
				}
			}
			continue
		}
		if raw == nil {
			if field.NonNull {
				return nil, validationFailure(field.Name, "this field cannot be null")
			}
			values[field.Column] = nil
			continue
		}
		if field.Kind == entity.KindEnum {
			s, ok := raw.(string)
			if !ok || !containsString(field.Enum, s) {
				return nil, validationFailure(field.Name, fmt.Sprintf("invalid value %v", raw))
			}
		}
		values[field.Column] = raw
	}

	return values, nil
}

// reload fetches the row by primary key after a write.
func (r *Resolver) reload(ctx context.Context, exec dbexec.QueryExecutor, e *entity.Entity, id int64) (map[string]interface{}, error) {
	rows, err := r.fetchFiltered(ctx, exec, e, map[string]interface{}{
		"id": map[string]interface{}{"exact": id},
	}, planner.OrderPlan{})
	if err != nil {
		return nil, err
	}
	if len(rows) != 1 {
		return nil, fmt.Errorf("reload of %s %d matched %d rows", e.Name, id, len(rows))
	}
	return rows[0], nil
}

// writeHooks returns the post-commit tasks for one write. Inventory writes
// recalculate their product's stock; moving an entry between products on
// update recalculates both. Order creation posts analytics.
func (r *Resolver) writeHooks(e *entity.Entity, action string, row, previous map[string]interface{}) []tasks.Task {
	var hooks []tasks.Task
	switch e.Name {
	case "InventoryEntry":
		productID, ok := row["product_id"].(int64)
		if ok {
			hooks = append(hooks, tasks.New(tasks.KindRecalculateInventory, productID))
		}
		if previous != nil {
			if old, wasSet := previous["product_id"].(int64); wasSet && (!ok || old != productID) {
				hooks = append(hooks, tasks.New(tasks.KindRecalculateInventory, old))
			}
		}
	case "Order":
		if action == "create" {
			if id, ok := row["id"].(int64); ok {
				hooks = append(hooks, tasks.New(tasks.KindPostOrderAnalytics, id))
			}
		}
	}
	return hooks
}

func (r *Resolver) countDependents(ctx context.Context, exec dbexec.QueryExecutor, dep entity.Dependent, id int64) (int64, error) {
	plan, err := planner.PlanDependentCount(dep, id)
	if err != nil {
		return 0, err
	}
	rows, err := exec.QueryContext(ctx, plan.SQL, plan.Args...)
	if err != nil {
		return 0, err
	}
	defer rows.Close()
	var count int64
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return 0, err
		}
	}
	return count, rows.Err()
}

func (r *Resolver) dependentIDs(ctx context.Context, exec dbexec.QueryExecutor, dep entity.Dependent, id int64) ([]int64, error) {
	plan, err := planner.PlanDependentSelectIDs(dep, id)
	if err != nil {
		return nil, err
	}
	rows, err := exec.QueryContext(ctx, plan.SQL, plan.Args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var depID int64
		if err := rows.Scan(&depID); err != nil {
			return nil, err
		}
		ids = append(ids, depID)
	}
	return ids, rows.Err()
}

// scopeFailure rescopes a failure's errors under the given input field, so
// connect failures point at the relation that caused them.
func scopeFailure(failure *Failure, field string) *Failure {
	scoped := &Failure{Kind: failure.Kind, Errors: make([]UserError, len(failure.Errors))}
	for i, e := range failure.Errors {
		scoped.Errors[i] = UserError{Field: field, Messages: e.Messages}
	}
	return scoped
}

// uniqueFieldName returns the field to blame for duplicate-key errors.
func uniqueFieldName(e *entity.Entity) string {
	for _, f := range e.Fields {
		if f.Unique {
			return f.Name
		}
	}
	return ""
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
