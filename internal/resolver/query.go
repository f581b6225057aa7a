package resolver

import (
	"context"
	"fmt"
	"sort"
	"time"

	"inventory-graphql/internal/cursor"
	"inventory-graphql/internal/dbexec"
	"inventory-graphql/internal/entity"
	"inventory-graphql/internal/observability"
	"inventory-graphql/internal/planner"
	"inventory-graphql/internal/timezone"
)

// fetchFiltered runs the store query and applies the createdAt timezone
// filter. The returned rows preserve the store's physical ordering.
func (r *Resolver) fetchFiltered(ctx context.Context, exec dbexec.QueryExecutor, e *entity.Entity, whereInput map[string]interface{}, order planner.OrderPlan) ([]map[string]interface{}, error) {
	clause, err := planner.BuildWhereClause(r.reg, e, whereInput)
	if err != nil {
		return nil, err
	}

	query, args, err := planner.BuildSelect(e, clause, order)
	if err != nil {
		return nil, err
	}
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scanned, err := scanEntityRows(rows, e)
	if err != nil {
		return nil, err
	}
	if clause.Date.IsZero() {
		return scanned, nil
	}

	loc := timezone.FromContext(ctx)
	filtered := scanned[:0]
	for _, row := range scanned {
		createdAt, ok := row["created_at"].(time.Time)
		if !ok {
			continue
		}
		if clause.Date.Matches(createdAt, loc) {
			filtered = append(filtered, row)
		}
	}
	return filtered, nil
}

// ResolveSingle performs a strict optional single read: nil when nothing
// matches, an error when the filter is ambiguous.
func (r *Resolver) ResolveSingle(ctx context.Context, e *entity.Entity, whereInput map[string]interface{}) (map[string]interface{}, error) {
	rows, err := r.fetchFiltered(ctx, r.exec, e, whereInput, planner.OrderPlan{})
	if err != nil {
		return nil, err
	}
	switch len(rows) {
	case 0:
		return nil, nil
	case 1:
		return rows[0], nil
	default:
		return nil, fmt.Errorf("%s query matched %d rows, expected at most one", e.Name, len(rows))
	}
}

// requireSingle is the mutation-side strict read: typed failures instead of
// transport errors, executed on the mutation's transaction.
func (r *Resolver) requireSingle(ctx context.Context, exec dbexec.QueryExecutor, e *entity.Entity, whereInput map[string]interface{}) (map[string]interface{}, error) {
	rows, err := r.fetchFiltered(ctx, exec, e, whereInput, planner.OrderPlan{})
	if err != nil {
		return nil, err
	}
	switch len(rows) {
	case 0:
		return nil, notFoundFailure(e.Name)
	case 1:
		return rows[0], nil
	default:
		return nil, ambiguousFailure(e.Name, len(rows))
	}
}

// ResolveBatch performs the full batch read: fetch, timezone filter,
// private-field ordering, totalCount, and page slicing. The result is a
// connection value ready for the generated schema. Params carries the
// operation's variable values through to private-field compute functions.
func (r *Resolver) ResolveBatch(ctx context.Context, e *entity.Entity, whereInput map[string]interface{}, orderByInput []interface{}, page *int, params map[string]interface{}) (map[string]interface{}, error) {
	order, err := planner.ParseOrderBy(e, orderByInput)
	if err != nil {
		return nil, err
	}

	rows, err := r.fetchFiltered(ctx, r.exec, e, whereInput, order)
	if err != nil {
		return nil, err
	}

	if err := r.applyPrivateOrder(ctx, e, rows, order.Private, params); err != nil {
		return nil, err
	}

	total := len(rows)
	if m := observability.GraphQLMetricsFromContext(ctx); m != nil {
		m.RecordResultsCount(ctx, int64(total), e.Name)
	}

	start, end := 0, total
	if page != nil {
		if *page < 1 {
			return nil, fmt.Errorf("page must be a positive integer")
		}
		start = (*page - 1) * r.pageSize
		if start > total {
			start = total
		}
		end = start + r.pageSize
		if end > total {
			end = total
		}
	}

	return buildConnection(e, rows, start, end, total), nil
}

// applyPrivateOrder sorts rows by their computed private keys as one stable
// composite sort. The store's physical order survives as the tie-break for
// rows with equal key vectors, so private keys take precedence over
// physical ones.
func (r *Resolver) applyPrivateOrder(ctx context.Context, e *entity.Entity, rows []map[string]interface{}, keys []planner.PrivateKey, params map[string]interface{}) error {
	if len(keys) == 0 || len(rows) < 2 {
		return nil
	}

	vectors := make([][]int64, len(rows))
	for i := range vectors {
		vectors[i] = make([]int64, len(keys))
	}
	for ki, key := range keys {
		pf, ok := e.PrivateField(key.Name)
		if !ok {
			return fmt.Errorf("unknown private field %s on %s", key.Name, e.Name)
		}
		for i, row := range rows {
			value, err := pf.Compute(ctx, r.exec, row, params)
			if err != nil {
				return fmt.Errorf("compute %s.%s: %w", e.Name, key.Name, err)
			}
			vectors[i][ki] = value
		}
	}

	indices := make([]int, len(rows))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(a, b int) bool {
		va, vb := vectors[indices[a]], vectors[indices[b]]
		for ki, key := range keys {
			if va[ki] == vb[ki] {
				continue
			}
			if key.Desc {
				return va[ki] > vb[ki]
			}
			return va[ki] < vb[ki]
		}
		return false
	})

	reordered := make([]map[string]interface{}, len(rows))
	for pos, idx := range indices {
		reordered[pos] = rows[idx]
	}
	copy(rows, reordered)
	return nil
}

// buildConnection wraps a page of rows in the connection envelope. Cursors
// carry the edge's absolute offset in the filtered, ordered set.
func buildConnection(e *entity.Entity, rows []map[string]interface{}, start, end, total int) map[string]interface{} {
	edges := make([]interface{}, 0, end-start)
	for i, row := range rows[start:end] {
		edges = append(edges, map[string]interface{}{
			"node":   row,
			"cursor": cursor.Encode(e.Name, start+i),
		})
	}

	pageInfo := map[string]interface{}{
		"hasNextPage":     end < total,
		"hasPreviousPage": start > 0,
		"startCursor":     nil,
		"endCursor":       nil,
	}
	if len(edges) > 0 {
		pageInfo["startCursor"] = cursor.Encode(e.Name, start)
		pageInfo["endCursor"] = cursor.Encode(e.Name, end-1)
	}

	return map[string]interface{}{
		"edges":      edges,
		"pageInfo":   pageInfo,
		"totalCount": total,
	}
}
