// Package planner turns parsed GraphQL inputs into SQL statements. It only
// builds queries; execution and post-filtering belong to the resolver layer.
package planner

import (
	"fmt"
	"sort"
	"time"

	sq "github.com/Masterminds/squirrel"

	"inventory-graphql/internal/entity"
	"inventory-graphql/internal/sqlutil"
	"inventory-graphql/internal/timezone"
)

// WhereClause is the parsed form of a where input. Condition holds the
// store-evaluable part; Date holds the createdAt filter, which is applied
// in Go after rows are fetched because it depends on the request timezone.
type WhereClause struct {
	Condition sq.Sqlizer
	Date      timezone.DateFilter
}

// BuildWhereClause parses a GraphQL where input for the given entity.
// Returns nil when the input has no store-evaluable condition.
func BuildWhereClause(reg *entity.Registry, e *entity.Entity, whereInput map[string]interface{}) (*WhereClause, error) {
	if len(whereInput) == 0 {
		return &WhereClause{}, nil
	}
	out := &WhereClause{}
	conditions := []sq.Sqlizer{}

	keys := make([]string, 0, len(whereInput))
	for key := range whereInput {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := whereInput[key]

		if key == "createdAt" {
			dateFilter, err := parseDateFilter(value)
			if err != nil {
				return nil, err
			}
			out.Date = dateFilter
			continue
		}

		if field, ok := e.Field(key); ok {
			ops, ok := value.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("filter for %s must be an object", key)
			}
			cond, err := buildFieldCondition(e, field, ops)
			if err != nil {
				return nil, err
			}
			if cond != nil {
				conditions = append(conditions, cond)
			}
			continue
		}

		if rel, ok := e.Relation(key); ok {
			nested, ok := value.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("filter for %s must be an object", key)
			}
			cond, err := buildRelationCondition(reg, e, rel, nested)
			if err != nil {
				return nil, err
			}
			if cond != nil {
				conditions = append(conditions, cond)
			}
			continue
		}

		return nil, fmt.Errorf("unknown filter field %s on %s", key, e.Name)
	}

	if len(conditions) == 1 {
		out.Condition = conditions[0]
	} else if len(conditions) > 1 {
		out.Condition = sq.And(conditions)
	}
	return out, nil
}

// buildFieldCondition maps one field's operator object to a SQL condition.
// All operators AND-compose.
func buildFieldCondition(e *entity.Entity, field entity.Field, ops map[string]interface{}) (sq.Sqlizer, error) {
	column := sqlutil.Qualify(e.Table, field.Column)
	conditions := []sq.Sqlizer{}

	opNames := make([]string, 0, len(ops))
	for op := range ops {
		opNames = append(opNames, op)
	}
	sort.Strings(opNames)

	for _, op := range opNames {
		value := ops[op]
		switch op {
		case "exact":
			conditions = append(conditions, sq.Eq{column: value})
		case "in":
			list, ok := value.([]interface{})
			if !ok {
				return nil, fmt.Errorf("%s.%s: in requires a list", e.Name, field.Name)
			}
			conditions = append(conditions, sq.Eq{column: list})
		case "gte":
			if !supportsRange(field.Kind) {
				return nil, fmt.Errorf("%s.%s: gte is not supported for this field", e.Name, field.Name)
			}
			conditions = append(conditions, sq.GtOrEq{column: value})
		case "lte":
			if !supportsRange(field.Kind) {
				return nil, fmt.Errorf("%s.%s: lte is not supported for this field", e.Name, field.Name)
			}
			conditions = append(conditions, sq.LtOrEq{column: value})
		case "contains":
			if field.Kind != entity.KindString {
				return nil, fmt.Errorf("%s.%s: contains is only supported for strings", e.Name, field.Name)
			}
			s, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("%s.%s: contains requires a string", e.Name, field.Name)
			}
			conditions = append(conditions, sq.Like{column: "%" + sqlutil.EscapeLike(s) + "%"})
		case "isNull":
			if field.NonNull {
				return nil, fmt.Errorf("%s.%s: isNull is not supported for non-null fields", e.Name, field.Name)
			}
			isNull, ok := value.(bool)
			if !ok {
				return nil, fmt.Errorf("%s.%s: isNull requires a boolean", e.Name, field.Name)
			}
			if isNull {
				conditions = append(conditions, sq.Eq{column: nil})
			} else {
				conditions = append(conditions, sq.NotEq{column: nil})
			}
		default:
			return nil, fmt.Errorf("%s.%s: unknown operator %s", e.Name, field.Name, op)
		}
	}

	if len(conditions) == 0 {
		return nil, nil
	}
	if len(conditions) == 1 {
		return conditions[0], nil
	}
	return sq.And(conditions), nil
}

// buildRelationCondition builds an EXISTS subquery on the related table.
// Nested filters are single-hop: the nested where may only reference scalar
// fields of the target entity.
func buildRelationCondition(reg *entity.Registry, e *entity.Entity, rel entity.Relation, nested map[string]interface{}) (sq.Sqlizer, error) {
	target, ok := reg.Entity(rel.Target)
	if !ok {
		return nil, fmt.Errorf("%s.%s: unknown target entity %s", e.Name, rel.Name, rel.Target)
	}

	conditions := []sq.Sqlizer{
		sq.Expr(fmt.Sprintf("%s = %s",
			sqlutil.Qualify(target.Table, target.PrimaryKey().Column),
			sqlutil.Qualify(e.Table, rel.Column))),
	}

	keys := make([]string, 0, len(nested))
	for key := range nested {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if key == "createdAt" {
			return nil, fmt.Errorf("%s.%s: createdAt filters are only supported at the top level", e.Name, rel.Name)
		}
		field, ok := target.Field(key)
		if !ok {
			if _, isRel := target.Relation(key); isRel {
				return nil, fmt.Errorf("%s.%s: nested relation filters are limited to one hop", e.Name, rel.Name)
			}
			return nil, fmt.Errorf("%s.%s: unknown filter field %s on %s", e.Name, rel.Name, key, target.Name)
		}
		ops, ok := nested[key].(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("filter for %s.%s must be an object", rel.Name, key)
		}
		cond, err := buildFieldCondition(target, field, ops)
		if err != nil {
			return nil, err
		}
		if cond != nil {
			conditions = append(conditions, cond)
		}
	}

	innerSQL, innerArgs, err := sq.Select("1").
		From(sqlutil.QuoteIdentifier(target.Table)).
		Where(sq.And(conditions)).
		ToSql()
	if err != nil {
		return nil, err
	}
	return sq.Expr("EXISTS ("+innerSQL+")", innerArgs...), nil
}

// parseDateFilter parses the dedicated createdAt filter object.
func parseDateFilter(value interface{}) (timezone.DateFilter, error) {
	var out timezone.DateFilter
	ops, ok := value.(map[string]interface{})
	if !ok {
		return out, fmt.Errorf("createdAt filter must be an object")
	}
	for op, v := range ops {
		switch op {
		case "gte", "lte":
			t, err := coerceTime(v)
			if err != nil {
				return out, fmt.Errorf("createdAt.%s: %w", op, err)
			}
			if op == "gte" {
				out.Gte = &t
			} else {
				out.Lte = &t
			}
		case "month", "year":
			n, err := coerceExactInt(v)
			if err != nil {
				return out, fmt.Errorf("createdAt.%s: %w", op, err)
			}
			if op == "month" {
				if n < 1 || n > 12 {
					return out, fmt.Errorf("createdAt.month: value %d out of range", n)
				}
				out.Month = &n
			} else {
				out.Year = &n
			}
		default:
			return out, fmt.Errorf("createdAt: unknown operator %s", op)
		}
	}
	return out, nil
}

func coerceTime(v interface{}) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed, nil
		}
		if parsed, err := time.Parse("2006-01-02", t); err == nil {
			return parsed, nil
		}
		return time.Time{}, fmt.Errorf("invalid timestamp %q", t)
	default:
		return time.Time{}, fmt.Errorf("invalid timestamp type %T", v)
	}
}

// coerceExactInt unwraps the {exact: N} sub-object used by month and year.
func coerceExactInt(v interface{}) (int, error) {
	if sub, ok := v.(map[string]interface{}); ok {
		inner, ok := sub["exact"]
		if !ok || len(sub) != 1 {
			return 0, fmt.Errorf("only the exact operator is supported")
		}
		v = inner
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("invalid integer type %T", v)
	}
}

func supportsRange(kind entity.Kind) bool {
	switch kind {
	case entity.KindID, entity.KindInt, entity.KindNonNegativeInt, entity.KindPositiveInt, entity.KindDateTime:
		return true
	default:
		return false
	}
}
