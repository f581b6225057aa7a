package planner

import (
	sq "github.com/Masterminds/squirrel"

	"inventory-graphql/internal/entity"
	"inventory-graphql/internal/sqlutil"
)

// SelectColumns lists the physical columns fetched for an entity, in a
// stable order: declared fields first, then relation FK columns.
func SelectColumns(e *entity.Entity) []string {
	cols := make([]string, 0, len(e.Fields)+len(e.Relations))
	for _, f := range e.Fields {
		cols = append(cols, f.Column)
	}
	for _, rel := range e.Relations {
		cols = append(cols, rel.Column)
	}
	return cols
}

// BuildSelect builds the fetch query for an entity: all columns, the
// store-evaluable where condition, and physical ordering with an id
// tie-break. No LIMIT is applied; the resolver needs the full filtered set
// for timezone filtering, private-field sorting, and totalCount.
func BuildSelect(e *entity.Entity, clause *WhereClause, order OrderPlan) (string, []interface{}, error) {
	quoted := make([]string, 0, len(e.Fields)+len(e.Relations))
	for _, col := range SelectColumns(e) {
		quoted = append(quoted, sqlutil.Qualify(e.Table, col))
	}

	builder := sq.Select(quoted...).From(sqlutil.QuoteIdentifier(e.Table))
	if clause != nil && clause.Condition != nil {
		builder = builder.Where(clause.Condition)
	}

	pk := e.PrimaryKey().Column
	pkOrdered := false
	for _, key := range order.Physical {
		direction := " ASC"
		if key.Desc {
			direction = " DESC"
		}
		builder = builder.OrderBy(sqlutil.Qualify(e.Table, key.Column) + direction)
		if key.Column == pk {
			pkOrdered = true
		}
	}
	if !pkOrdered {
		builder = builder.OrderBy(sqlutil.Qualify(e.Table, pk) + " ASC")
	}

	return builder.ToSql()
}
