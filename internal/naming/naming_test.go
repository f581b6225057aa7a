package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToFieldName(t *testing.T) {
	cases := map[string]string{
		"unit_price_cents": "unitPriceCents",
		"sku":              "sku",
		"is_active":        "isActive",
		"created_at":       "createdAt",
		"__odd__name":      "oddName",
	}
	for in, want := range cases {
		assert.Equal(t, want, ToFieldName(in), in)
	}
}

func TestToTypeName(t *testing.T) {
	assert.Equal(t, "InventoryEntry", ToTypeName("inventory_entry"))
	assert.Equal(t, "Product", ToTypeName("product"))
}

func TestQueryNames(t *testing.T) {
	assert.Equal(t, "inventoryEntry", SingleQueryName("InventoryEntry"))
	assert.Equal(t, "inventoryEntries", BatchQueryName("InventoryEntry"))
	assert.Equal(t, "orderItems", BatchQueryName("OrderItem"))
	assert.Equal(t, "analyticsEvents", BatchQueryName("AnalyticsEvent"))
}

func TestRelationFieldName(t *testing.T) {
	assert.Equal(t, "customer", RelationFieldName("customer_id"))
	assert.Equal(t, "product", RelationFieldName("product_id"))
}
