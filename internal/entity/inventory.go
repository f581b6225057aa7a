package entity

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"inventory-graphql/internal/dbexec"
)

// Order status values. Cancelling a paid or pending order compensates
// inventory for each of its items.
const (
	OrderStatusPending   = "PENDING"
	OrderStatusPaid      = "PAID"
	OrderStatusCancelled = "CANCELLED"
)

// Analytics event kinds written by the background tasks.
const (
	EventKindRecalcProduct = "RECALC_PRODUCT"
	EventKindOrderCreated  = "ORDER_CREATED"
)

// timestamps are the server-assigned audit columns shared by every entity.
func timestamps() []Field {
	return []Field{
		{Column: "created_at", Kind: KindDateTime, NonNull: true, ReadOnly: true},
		{Column: "updated_at", Kind: KindDateTime, NonNull: true, ReadOnly: true},
	}
}

// InventoryRegistry builds the registry for the inventory and order domain.
func InventoryRegistry() (*Registry, error) {
	return NewRegistry(
		Entity{
			Name:  "Product",
			Table: "products",
			Fields: append([]Field{
				{Column: "id", Kind: KindID, NonNull: true, ReadOnly: true},
				{Column: "sku", Kind: KindString, NonNull: true, Unique: true},
				{Column: "name", Kind: KindString, NonNull: true},
				{Column: "price_cents", Kind: KindNonNegativeInt, NonNull: true, Default: 0},
				{Column: "is_active", Kind: KindBool, NonNull: true, Default: true},
			}, timestamps()...),
			Private: []PrivateField{
				{Name: "stock", Compute: computeProductStock},
			},
		},
		Entity{
			Name:  "InventoryEntry",
			Table: "inventory_entries",
			Fields: append([]Field{
				{Column: "id", Kind: KindID, NonNull: true, ReadOnly: true},
				{Column: "delta", Kind: KindInt, NonNull: true},
				{Column: "note", Kind: KindString},
			}, timestamps()...),
			Relations: []Relation{
				{Name: "product", Column: "product_id", Target: "Product", NonNull: true, OnDelete: Cascade},
			},
		},
		Entity{
			Name:  "Customer",
			Table: "customers",
			Fields: append([]Field{
				{Column: "id", Kind: KindID, NonNull: true, ReadOnly: true},
				{Column: "email", Kind: KindString, NonNull: true, Unique: true},
				{Column: "full_name", Kind: KindString, NonNull: true},
			}, timestamps()...),
		},
		Entity{
			Name:  "Order",
			Table: "orders",
			Fields: append([]Field{
				{Column: "id", Kind: KindID, NonNull: true, ReadOnly: true},
				{Column: "status", Kind: KindEnum, NonNull: true, Default: OrderStatusPending,
					Enum: []string{OrderStatusPending, OrderStatusPaid, OrderStatusCancelled}},
			}, timestamps()...),
			Relations: []Relation{
				{Name: "customer", Column: "customer_id", Target: "Customer", NonNull: true, OnDelete: Protect},
			},
			Private: []PrivateField{
				{Name: "totalCents", Compute: computeOrderTotal},
			},
		},
		Entity{
			Name:  "OrderItem",
			Table: "order_items",
			Fields: append([]Field{
				{Column: "id", Kind: KindID, NonNull: true, ReadOnly: true},
				{Column: "quantity", Kind: KindPositiveInt, NonNull: true, Default: 1},
				{Column: "unit_price_cents", Kind: KindNonNegativeInt, NonNull: true},
			}, timestamps()...),
			Relations: []Relation{
				{Name: "order", Column: "order_id", Target: "Order", NonNull: true, OnDelete: Cascade},
				{Name: "product", Column: "product_id", Target: "Product", NonNull: true, OnDelete: Protect},
			},
		},
		Entity{
			Name:  "AnalyticsEvent",
			Table: "analytics_events",
			Fields: append([]Field{
				{Column: "id", Kind: KindID, NonNull: true, ReadOnly: true},
				{Column: "kind", Kind: KindString, NonNull: true},
				{Column: "payload", Kind: KindJSON, NonNull: true},
			}, timestamps()...),
			Relations: []Relation{
				{Name: "order", Column: "order_id", Target: "Order", OnDelete: Cascade},
			},
			ReadOnlyAPI: true,
		},
	)
}

// computeProductStock sums inventory entry deltas for one product row.
func computeProductStock(ctx context.Context, exec dbexec.QueryExecutor, row map[string]interface{}, _ map[string]interface{}) (int64, error) {
	id, err := rowID(row)
	if err != nil {
		return 0, fmt.Errorf("product stock: %w", err)
	}
	return sumColumn(ctx, exec,
		sq.Select("COALESCE(SUM(`delta`), 0)").
			From("`inventory_entries`").
			Where(sq.Eq{"`product_id`": id}))
}

// computeOrderTotal sums quantity * unit price over the order's items.
func computeOrderTotal(ctx context.Context, exec dbexec.QueryExecutor, row map[string]interface{}, _ map[string]interface{}) (int64, error) {
	id, err := rowID(row)
	if err != nil {
		return 0, fmt.Errorf("order total: %w", err)
	}
	return sumColumn(ctx, exec,
		sq.Select("COALESCE(SUM(`quantity` * `unit_price_cents`), 0)").
			From("`order_items`").
			Where(sq.Eq{"`order_id`": id}))
}

func sumColumn(ctx context.Context, exec dbexec.QueryExecutor, builder sq.SelectBuilder) (int64, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return 0, err
	}
	rows, err := exec.QueryContext(ctx, query, args...)
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

func rowID(row map[string]interface{}) (int64, error) {
	v, ok := row["id"]
	if !ok {
		return 0, fmt.Errorf("row has no id")
	}
	switch id := v.(type) {
	case int64:
		return id, nil
	case int:
		return int64(id), nil
	default:
		return 0, fmt.Errorf("row id has unexpected type %T", v)
	}
}
