package planner

import (
	"fmt"
	"sort"

	sq "github.com/Masterminds/squirrel"

	"inventory-graphql/internal/entity"
	"inventory-graphql/internal/sqlutil"
)

// SQLQuery pairs a SQL statement with its bound arguments.
type SQLQuery struct {
	SQL  string
	Args []interface{}
}

// PlanInsert builds SQL for inserting a single row. Column order is sorted
// for deterministic statements.
func PlanInsert(e *entity.Entity, values map[string]interface{}) (SQLQuery, error) {
	if len(values) == 0 {
		return SQLQuery{}, fmt.Errorf("insert into %s has no columns", e.Table)
	}

	columns := make([]string, 0, len(values))
	for col := range values {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	quoted := make([]string, len(columns))
	ordered := make([]interface{}, len(columns))
	for i, col := range columns {
		quoted[i] = sqlutil.QuoteIdentifier(col)
		ordered[i] = values[col]
	}

	query, args, err := sq.Insert(sqlutil.QuoteIdentifier(e.Table)).
		Columns(quoted...).
		Values(ordered...).
		ToSql()
	if err != nil {
		return SQLQuery{}, err
	}
	return SQLQuery{SQL: query, Args: args}, nil
}

// PlanUpdate builds SQL for updating a single row by primary key.
func PlanUpdate(e *entity.Entity, id int64, set map[string]interface{}) (SQLQuery, error) {
	if len(set) == 0 {
		return SQLQuery{}, fmt.Errorf("update of %s has no columns", e.Table)
	}

	setMap := make(map[string]interface{}, len(set))
	for col, val := range set {
		setMap[sqlutil.QuoteIdentifier(col)] = val
	}

	query, args, err := sq.Update(sqlutil.QuoteIdentifier(e.Table)).
		SetMap(setMap).
		Where(sq.Eq{sqlutil.QuoteIdentifier(e.PrimaryKey().Column): id}).
		ToSql()
	if err != nil {
		return SQLQuery{}, err
	}
	return SQLQuery{SQL: query, Args: args}, nil
}

// PlanDelete builds SQL for deleting a single row by primary key.
func PlanDelete(e *entity.Entity, id int64) (SQLQuery, error) {
	query, args, err := sq.Delete(sqlutil.QuoteIdentifier(e.Table)).
		Where(sq.Eq{sqlutil.QuoteIdentifier(e.PrimaryKey().Column): id}).
		ToSql()
	if err != nil {
		return SQLQuery{}, err
	}
	return SQLQuery{SQL: query, Args: args}, nil
}

// PlanDependentCount builds SQL counting the rows of a dependent entity
// referencing the given id. Used to enforce protect delete rules.
func PlanDependentCount(dep entity.Dependent, id int64) (SQLQuery, error) {
	query, args, err := sq.Select("COUNT(*)").
		From(sqlutil.QuoteIdentifier(dep.Entity.Table)).
		Where(sq.Eq{sqlutil.QuoteIdentifier(dep.Relation.Column): id}).
		ToSql()
	if err != nil {
		return SQLQuery{}, err
	}
	return SQLQuery{SQL: query, Args: args}, nil
}

// PlanDependentSelectIDs builds SQL listing the primary keys of dependent
// rows referencing the given id. Cascade deletes walk these before removing
// the parent.
func PlanDependentSelectIDs(dep entity.Dependent, id int64) (SQLQuery, error) {
	query, args, err := sq.Select(sqlutil.QuoteIdentifier(dep.Entity.PrimaryKey().Column)).
		From(sqlutil.QuoteIdentifier(dep.Entity.Table)).
		Where(sq.Eq{sqlutil.QuoteIdentifier(dep.Relation.Column): id}).
		ToSql()
	if err != nil {
		return SQLQuery{}, err
	}
	return SQLQuery{SQL: query, Args: args}, nil
}
