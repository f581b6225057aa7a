package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventory-graphql/internal/entity"
)

func testRegistry(t *testing.T) *entity.Registry {
	t.Helper()
	reg, err := entity.InventoryRegistry()
	require.NoError(t, err)
	return reg
}

func mustEntity(t *testing.T, reg *entity.Registry, name string) *entity.Entity {
	t.Helper()
	e, ok := reg.Entity(name)
	require.True(t, ok)
	return e
}

func TestBuildWhereClauseExact(t *testing.T) {
	reg := testRegistry(t)
	product := mustEntity(t, reg, "Product")

	clause, err := BuildWhereClause(reg, product, map[string]interface{}{
		"sku": map[string]interface{}{"exact": "WIDGET-1"},
	})
	require.NoError(t, err)
	require.NotNil(t, clause.Condition)

	sql, args, err := clause.Condition.ToSql()
	require.NoError(t, err)
	assert.Equal(t, "`products`.`sku` = ?", sql)
	assert.Equal(t, []interface{}{"WIDGET-1"}, args)
	assert.True(t, clause.Date.IsZero())
}

func TestBuildWhereClauseOperators(t *testing.T) {
	reg := testRegistry(t)
	product := mustEntity(t, reg, "Product")

	clause, err := BuildWhereClause(reg, product, map[string]interface{}{
		"priceCents": map[string]interface{}{"gte": 100, "lte": 500},
		"name":       map[string]interface{}{"contains": "50% off"},
		"sku":        map[string]interface{}{"in": []interface{}{"A", "B"}},
	})
	require.NoError(t, err)

	sql, args, err := clause.Condition.ToSql()
	require.NoError(t, err)
	// Keys sort alphabetically: name, priceCents, sku.
	assert.Equal(t,
		"(`products`.`name` LIKE ? AND (`products`.`price_cents` >= ? AND `products`.`price_cents` <= ?) AND `products`.`sku` IN (?,?))",
		sql)
	assert.Equal(t, []interface{}{`%50\% off%`, 100, 500, "A", "B"}, args)
}

func TestBuildWhereClauseIsNull(t *testing.T) {
	reg := testRegistry(t)
	note := mustEntity(t, reg, "InventoryEntry")

	clause, err := BuildWhereClause(reg, note, map[string]interface{}{
		"note": map[string]interface{}{"isNull": true},
	})
	require.NoError(t, err)
	sql, _, err := clause.Condition.ToSql()
	require.NoError(t, err)
	assert.Equal(t, "`inventory_entries`.`note` IS NULL", sql)

	// Non-null fields reject isNull.
	_, err = BuildWhereClause(reg, note, map[string]interface{}{
		"delta": map[string]interface{}{"isNull": true},
	})
	assert.Error(t, err)
}

func TestBuildWhereClauseRejectsBadOperators(t *testing.T) {
	reg := testRegistry(t)
	product := mustEntity(t, reg, "Product")

	_, err := BuildWhereClause(reg, product, map[string]interface{}{
		"isActive": map[string]interface{}{"contains": "tru"},
	})
	assert.Error(t, err)

	_, err = BuildWhereClause(reg, product, map[string]interface{}{
		"sku": map[string]interface{}{"gte": "A"},
	})
	assert.Error(t, err)

	_, err = BuildWhereClause(reg, product, map[string]interface{}{
		"sku": map[string]interface{}{"near": "A"},
	})
	assert.Error(t, err)

	_, err = BuildWhereClause(reg, product, map[string]interface{}{
		"nonexistent": map[string]interface{}{"exact": 1},
	})
	assert.Error(t, err)
}

func TestBuildWhereClauseRelation(t *testing.T) {
	reg := testRegistry(t)
	order := mustEntity(t, reg, "Order")

	clause, err := BuildWhereClause(reg, order, map[string]interface{}{
		"customer": map[string]interface{}{
			"email": map[string]interface{}{"exact": "ada@example.com"},
		},
	})
	require.NoError(t, err)

	sql, args, err := clause.Condition.ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"EXISTS (SELECT 1 FROM `customers` WHERE (`customers`.`id` = `orders`.`customer_id` AND `customers`.`email` = ?))",
		sql)
	assert.Equal(t, []interface{}{"ada@example.com"}, args)
}

func TestBuildWhereClauseRelationSingleHop(t *testing.T) {
	reg := testRegistry(t)
	item := mustEntity(t, reg, "OrderItem")

	_, err := BuildWhereClause(reg, item, map[string]interface{}{
		"order": map[string]interface{}{
			"customer": map[string]interface{}{
				"email": map[string]interface{}{"exact": "x"},
			},
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "one hop")

	_, err = BuildWhereClause(reg, item, map[string]interface{}{
		"order": map[string]interface{}{
			"createdAt": map[string]interface{}{"gte": "2024-01-01"},
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "top level")
}

func TestBuildWhereClauseCreatedAt(t *testing.T) {
	reg := testRegistry(t)
	order := mustEntity(t, reg, "Order")

	clause, err := BuildWhereClause(reg, order, map[string]interface{}{
		"createdAt": map[string]interface{}{
			"gte":   "2024-01-01T00:00:00Z",
			"month": map[string]interface{}{"exact": 2},
			"year":  map[string]interface{}{"exact": 2024},
		},
	})
	require.NoError(t, err)
	assert.Nil(t, clause.Condition)
	require.NotNil(t, clause.Date.Gte)
	require.NotNil(t, clause.Date.Month)
	require.NotNil(t, clause.Date.Year)
	assert.Equal(t, 2, *clause.Date.Month)
	assert.Equal(t, 2024, *clause.Date.Year)

	_, err = BuildWhereClause(reg, order, map[string]interface{}{
		"createdAt": map[string]interface{}{"month": map[string]interface{}{"exact": 13}},
	})
	assert.Error(t, err)

	_, err = BuildWhereClause(reg, order, map[string]interface{}{
		"createdAt": map[string]interface{}{"month": map[string]interface{}{"in": []interface{}{1}}},
	})
	assert.Error(t, err)
}

func TestBuildWhereClauseEmpty(t *testing.T) {
	reg := testRegistry(t)
	product := mustEntity(t, reg, "Product")

	clause, err := BuildWhereClause(reg, product, nil)
	require.NoError(t, err)
	assert.Nil(t, clause.Condition)
	assert.True(t, clause.Date.IsZero())
}
