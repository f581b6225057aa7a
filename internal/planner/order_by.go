package planner

import (
	"fmt"
	"strings"

	"inventory-graphql/internal/entity"
)

// OrderKey is one physical ordering key, applied in SQL.
type OrderKey struct {
	Column string
	Desc   bool
}

// PrivateKey is one private-field ordering key, applied in Go after the
// rows are fetched.
type PrivateKey struct {
	Name string
	Desc bool
}

// OrderPlan partitions an orderBy list into store-evaluable keys and
// private computed keys. Both slices preserve the request's priority order.
type OrderPlan struct {
	Physical []OrderKey
	Private  []PrivateKey
}

// ParseOrderBy parses an orderBy argument, a list of single-entry objects
// mapping a field name to ASC or DESC. Private fields are split out for
// post-fetch sorting.
func ParseOrderBy(e *entity.Entity, orderBy []interface{}) (OrderPlan, error) {
	var plan OrderPlan
	for i, raw := range orderBy {
		item, ok := raw.(map[string]interface{})
		if !ok {
			return OrderPlan{}, fmt.Errorf("orderBy[%d] must be an object", i)
		}
		if len(item) != 1 {
			return OrderPlan{}, fmt.Errorf("orderBy[%d] must hold exactly one field", i)
		}
		for name, dirRaw := range item {
			desc, err := parseDirection(dirRaw)
			if err != nil {
				return OrderPlan{}, fmt.Errorf("orderBy[%d] %s: %w", i, name, err)
			}
			if field, ok := e.Field(name); ok {
				plan.Physical = append(plan.Physical, OrderKey{Column: field.Column, Desc: desc})
				continue
			}
			if _, ok := e.PrivateField(name); ok {
				plan.Private = append(plan.Private, PrivateKey{Name: name, Desc: desc})
				continue
			}
			return OrderPlan{}, fmt.Errorf("orderBy[%d]: unknown field %s on %s", i, name, e.Name)
		}
	}
	return plan, nil
}

func parseDirection(raw interface{}) (desc bool, err error) {
	s, ok := raw.(string)
	if !ok {
		return false, fmt.Errorf("direction must be ASC or DESC")
	}
	switch strings.ToUpper(s) {
	case "ASC":
		return false, nil
	case "DESC":
		return true, nil
	default:
		return false, fmt.Errorf("direction must be ASC or DESC")
	}
}
