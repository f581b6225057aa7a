package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventory-graphql/internal/entity"
)

func TestPlanInsert(t *testing.T) {
	reg := testRegistry(t)
	product := mustEntity(t, reg, "Product")

	plan, err := PlanInsert(product, map[string]interface{}{
		"sku":         "WIDGET-1",
		"name":        "Widget",
		"price_cents": 1299,
	})
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO `products` (`name`,`price_cents`,`sku`) VALUES (?,?,?)", plan.SQL)
	assert.Equal(t, []interface{}{"Widget", 1299, "WIDGET-1"}, plan.Args)

	_, err = PlanInsert(product, nil)
	assert.Error(t, err)
}

func TestPlanUpdate(t *testing.T) {
	reg := testRegistry(t)
	product := mustEntity(t, reg, "Product")

	plan, err := PlanUpdate(product, 7, map[string]interface{}{"is_active": false})
	require.NoError(t, err)
	assert.Equal(t, "UPDATE `products` SET `is_active` = ? WHERE `id` = ?", plan.SQL)
	assert.Equal(t, []interface{}{false, int64(7)}, plan.Args)

	_, err = PlanUpdate(product, 7, nil)
	assert.Error(t, err)
}

func TestPlanDelete(t *testing.T) {
	reg := testRegistry(t)
	customer := mustEntity(t, reg, "Customer")

	plan, err := PlanDelete(customer, 3)
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM `customers` WHERE `id` = ?", plan.SQL)
	assert.Equal(t, []interface{}{int64(3)}, plan.Args)
}

func TestPlanDependentQueries(t *testing.T) {
	reg := testRegistry(t)

	deps := reg.Dependents("Customer")
	require.Len(t, deps, 1)

	count, err := PlanDependentCount(deps[0], 3)
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) FROM `orders` WHERE `customer_id` = ?", count.SQL)
	assert.Equal(t, []interface{}{int64(3)}, count.Args)

	ids, err := PlanDependentSelectIDs(deps[0], 3)
	require.NoError(t, err)
	assert.Equal(t, "SELECT `id` FROM `orders` WHERE `customer_id` = ?", ids.SQL)

	var cascade entity.Dependent
	for _, d := range reg.Dependents("Product") {
		if d.Relation.OnDelete == entity.Cascade {
			cascade = d
		}
	}
	require.NotNil(t, cascade.Entity)
	assert.Equal(t, "InventoryEntry", cascade.Entity.Name)
}
