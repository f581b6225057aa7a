package resolver

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventory-graphql/internal/dbexec"
	"inventory-graphql/internal/entity"
	"inventory-graphql/internal/tasks"
	"inventory-graphql/internal/timezone"
)

type captureDispatcher struct {
	dispatched []tasks.Task
}

func (d *captureDispatcher) Dispatch(_ context.Context, task tasks.Task) error {
	d.dispatched = append(d.dispatched, task)
	return nil
}

func newTestResolver(t *testing.T, pageSize int) (*Resolver, sqlmock.Sqlmock, *captureDispatcher) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	reg, err := entity.InventoryRegistry()
	require.NoError(t, err)

	dispatcher := &captureDispatcher{}
	return New(reg, dbexec.NewStandardExecutor(db), dispatcher, pageSize), mock, dispatcher
}

func productEntity(t *testing.T, r *Resolver) *entity.Entity {
	t.Helper()
	e, ok := r.Registry().Entity("Product")
	require.True(t, ok)
	return e
}

var (
	productColumns  = []string{"id", "sku", "name", "price_cents", "is_active", "created_at", "updated_at"}
	customerColumns = []string{"id", "email", "full_name", "created_at", "updated_at"}
	orderColumns    = []string{"id", "status", "created_at", "updated_at", "customer_id"}
	entryColumns    = []string{"id", "delta", "note", "created_at", "updated_at", "product_id"}
)

var testTime = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func productRow(id int64, sku string, price int64) []driverValue {
	return []driverValue{id, sku, "Product " + sku, price, true, testTime, testTime}
}

type driverValue = driver.Value

func TestResolveSingle(t *testing.T) {
	r, mock, _ := newTestResolver(t, 0)
	product := productEntity(t, r)

	t.Run("returns the matching row", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM `products` WHERE `products`.`sku` = \\?").
			WithArgs("WIDGET-1").
			WillReturnRows(sqlmock.NewRows(productColumns).AddRow(productRow(1, "WIDGET-1", 500)...))

		row, err := r.ResolveSingle(context.Background(), product, map[string]interface{}{
			"sku": map[string]interface{}{"exact": "WIDGET-1"},
		})
		require.NoError(t, err)
		require.NotNil(t, row)
		assert.Equal(t, int64(1), row["id"])
		assert.Equal(t, "WIDGET-1", row["sku"])
		assert.Equal(t, true, row["is_active"])
	})

	t.Run("returns nil on zero matches", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM `products`").
			WillReturnRows(sqlmock.NewRows(productColumns))

		row, err := r.ResolveSingle(context.Background(), product, map[string]interface{}{
			"sku": map[string]interface{}{"exact": "NOPE"},
		})
		require.NoError(t, err)
		assert.Nil(t, row)
	})

	t.Run("errors on multiple matches", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM `products`").
			WillReturnRows(sqlmock.NewRows(productColumns).
				AddRow(productRow(1, "A", 100)...).
				AddRow(productRow(2, "B", 200)...))

		_, err := r.ResolveSingle(context.Background(), product, map[string]interface{}{
			"isActive": map[string]interface{}{"exact": true},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expected at most one")
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveBatchPagination(t *testing.T) {
	r, mock, _ := newTestResolver(t, 2)
	product := productEntity(t, r)

	mock.ExpectQuery("SELECT (.+) FROM `products` ORDER BY `products`.`id` ASC").
		WillReturnRows(sqlmock.NewRows(productColumns).
			AddRow(productRow(1, "A", 100)...).
			AddRow(productRow(2, "B", 200)...).
			AddRow(productRow(3, "C", 300)...))

	page := 1
	conn, err := r.ResolveBatch(context.Background(), product, nil, nil, &page, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, conn["totalCount"])
	edges := conn["edges"].([]interface{})
	require.Len(t, edges, 2)
	first := edges[0].(map[string]interface{})
	assert.Equal(t, int64(1), first["node"].(map[string]interface{})["id"])
	assert.NotEmpty(t, first["cursor"])

	pageInfo := conn["pageInfo"].(map[string]interface{})
	assert.Equal(t, true, pageInfo["hasNextPage"])
	assert.Equal(t, false, pageInfo["hasPreviousPage"])
	assert.NotNil(t, pageInfo["startCursor"])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveBatchBeyondLastPage(t *testing.T) {
	r, mock, _ := newTestResolver(t, 2)
	product := productEntity(t, r)

	mock.ExpectQuery("SELECT (.+) FROM `products`").
		WillReturnRows(sqlmock.NewRows(productColumns).AddRow(productRow(1, "A", 100)...))

	page := 5
	conn, err := r.ResolveBatch(context.Background(), product, nil, nil, &page, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, conn["totalCount"])
	assert.Empty(t, conn["edges"])

	pageInfo := conn["pageInfo"].(map[string]interface{})
	assert.Equal(t, false, pageInfo["hasNextPage"])
	assert.Equal(t, true, pageInfo["hasPreviousPage"])
	assert.Nil(t, pageInfo["startCursor"])

	badPage := 0
	_, err = r.ResolveBatch(context.Background(), product, nil, nil, &badPage, nil)
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveBatchPrivateOrdering(t *testing.T) {
	r, mock, _ := newTestResolver(t, 0)
	product := productEntity(t, r)

	mock.ExpectQuery("SELECT (.+) FROM `products` ORDER BY `products`.`id` ASC").
		WillReturnRows(sqlmock.NewRows(productColumns).
			AddRow(productRow(1, "A", 100)...).
			AddRow(productRow(2, "B", 200)...).
			AddRow(productRow(3, "C", 300)...))

	// Stock compute runs once per row in physical order.
	for _, stock := range []int{5, 10, 7} {
		mock.ExpectQuery("SELECT COALESCE\\(SUM\\(`delta`\\), 0\\) FROM `inventory_entries`").
			WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(stock))
	}

	conn, err := r.ResolveBatch(context.Background(), product, nil, []interface{}{
		map[string]interface{}{"stock": "DESC"},
	}, nil, nil)
	require.NoError(t, err)

	edges := conn["edges"].([]interface{})
	require.Len(t, edges, 3)
	var ids []int64
	for _, raw := range edges {
		edge := raw.(map[string]interface{})
		ids = append(ids, edge["node"].(map[string]interface{})["id"].(int64))
	}
	assert.Equal(t, []int64{2, 3, 1}, ids)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPrivateComputeReceivesVariableValues(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	var seen []map[string]interface{}
	reg, err := entity.NewRegistry(entity.Entity{
		Name:  "Product",
		Table: "products",
		Fields: []entity.Field{
			{Column: "id", Kind: entity.KindID, NonNull: true, ReadOnly: true},
		},
		Private: []entity.PrivateField{{
			Name: "stock",
			Compute: func(_ context.Context, _ dbexec.QueryExecutor, row map[string]interface{}, params map[string]interface{}) (int64, error) {
				seen = append(seen, params)
				return row["id"].(int64), nil
			},
		}},
	})
	require.NoError(t, err)

	r := New(reg, dbexec.NewStandardExecutor(db), &captureDispatcher{}, 0)
	product, ok := reg.Entity("Product")
	require.True(t, ok)

	mock.ExpectQuery("SELECT (.+) FROM `products`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)).AddRow(int64(2)))

	vars := map[string]interface{}{"minStock": 3}
	_, err = r.ResolveBatch(context.Background(), product, nil, []interface{}{
		map[string]interface{}{"stock": "ASC"},
	}, nil, vars)
	require.NoError(t, err)
	require.Len(t, seen, 2)
	for _, got := range seen {
		assert.Equal(t, vars, got)
	}

	seen = nil
	_, err = r.ComputePrivate(context.Background(), product, "stock", map[string]interface{}{"id": int64(1)}, vars)
	require.NoError(t, err)
	require.Len(t, seen, 1)
	assert.Equal(t, vars, seen[0])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveBatchTimezoneFilter(t *testing.T) {
	r, mock, _ := newTestResolver(t, 0)
	product := productEntity(t, r)

	// 02:30 UTC on March 1 is still February in Chicago.
	febLocal := time.Date(2024, 3, 1, 2, 30, 0, 0, time.UTC)
	marLocal := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT (.+) FROM `products`").
		WillReturnRows(sqlmock.NewRows(productColumns).
			AddRow(1, "A", "Product A", 100, true, febLocal, febLocal).
			AddRow(2, "B", "Product B", 200, true, marLocal, marLocal))

	chicago, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)
	ctx := timezone.WithLocation(context.Background(), chicago)

	conn, err := r.ResolveBatch(ctx, product, map[string]interface{}{
		"createdAt": map[string]interface{}{"month": map[string]interface{}{"exact": 2}},
	}, nil, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, conn["totalCount"])
	edges := conn["edges"].([]interface{})
	require.Len(t, edges, 1)
	node := edges[0].(map[string]interface{})["node"].(map[string]interface{})
	assert.Equal(t, int64(1), node["id"])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateCustomer(t *testing.T) {
	r, mock, dispatcher := newTestResolver(t, 0)
	customer, ok := r.Registry().Entity("Customer")
	require.True(t, ok)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `customers` \\(`created_at`,`email`,`full_name`,`updated_at`\\) VALUES \\(\\?,\\?,\\?,\\?\\)").
		WithArgs(sqlmock.AnyArg(), "ada@example.com", "Ada Lovelace", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectQuery("SELECT (.+) FROM `customers` WHERE `customers`.`id` = \\?").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(customerColumns).
			AddRow(5, "ada@example.com", "Ada Lovelace", testTime, testTime))
	mock.ExpectCommit()

	result, err := r.Create(context.Background(), customer, map[string]interface{}{
		"email":    "ada@example.com",
		"fullName": "Ada Lovelace",
	})
	require.NoError(t, err)
	assert.True(t, result.OK)
	assert.Empty(t, result.Errors)
	assert.Equal(t, int64(5), result.Row["id"])
	assert.Empty(t, dispatcher.dispatched)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateMissingRequiredField(t *testing.T) {
	r, mock, _ := newTestResolver(t, 0)
	customer, ok := r.Registry().Entity("Customer")
	require.True(t, ok)

	mock.ExpectBegin()
	mock.ExpectRollback()

	result, err := r.Create(context.Background(), customer, map[string]interface{}{
		"email": "ada@example.com",
	})
	require.NoError(t, err)
	assert.False(t, result.OK)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "fullName", result.Errors[0].Field)
	assert.Nil(t, result.Row)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDuplicateKey(t *testing.T) {
	r, mock, _ := newTestResolver(t, 0)
	customer, ok := r.Registry().Entity("Customer")
	require.True(t, ok)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `customers`").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectRollback()

	result, err := r.Create(context.Background(), customer, map[string]interface{}{
		"email":    "ada@example.com",
		"fullName": "Ada Lovelace",
	})
	require.NoError(t, err)
	assert.False(t, result.OK)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "email", result.Errors[0].Field)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateInventoryEntryDispatchesRecalc(t *testing.T) {
	r, mock, dispatcher := newTestResolver(t, 0)
	entry, ok := r.Registry().Entity("InventoryEntry")
	require.True(t, ok)

	mock.ExpectBegin()
	// Connect resolves the product by a strict single read.
	mock.ExpectQuery("SELECT (.+) FROM `products` WHERE `products`.`sku` = \\?").
		WithArgs("WIDGET-1").
		WillReturnRows(sqlmock.NewRows(productColumns).AddRow(productRow(7, "WIDGET-1", 500)...))
	mock.ExpectExec("INSERT INTO `inventory_entries` \\(`created_at`,`delta`,`note`,`product_id`,`updated_at`\\)").
		WithArgs(sqlmock.AnyArg(), 5, "restock", int64(7), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectQuery("SELECT (.+) FROM `inventory_entries` WHERE `inventory_entries`.`id` = \\?").
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows(entryColumns).
			AddRow(11, 5, "restock", testTime, testTime, 7))
	mock.ExpectCommit()

	result, err := r.Create(context.Background(), entry, map[string]interface{}{
		"delta": 5,
		"note":  "restock",
		"product": map[string]interface{}{
			"connect": map[string]interface{}{
				"sku": map[string]interface{}{"exact": "WIDGET-1"},
			},
		},
	})
	require.NoError(t, err)
	assert.True(t, result.OK)

	require.Len(t, dispatcher.dispatched, 1)
	assert.Equal(t, tasks.KindRecalculateInventory, dispatcher.dispatched[0].Kind)
	assert.Equal(t, int64(7), dispatcher.dispatched[0].EntityID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateConnectNotFound(t *testing.T) {
	r, mock, dispatcher := newTestResolver(t, 0)
	entry, ok := r.Registry().Entity("InventoryEntry")
	require.True(t, ok)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM `products`").
		WillReturnRows(sqlmock.NewRows(productColumns))
	mock.ExpectRollback()

	result, err := r.Create(context.Background(), entry, map[string]interface{}{
		"delta": 5,
		"product": map[string]interface{}{
			"connect": map[string]interface{}{
				"sku": map[string]interface{}{"exact": "NOPE"},
			},
		},
	})
	require.NoError(t, err)
	assert.False(t, result.OK)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "product", result.Errors[0].Field)
	assert.Empty(t, dispatcher.dispatched)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateNotFound(t *testing.T) {
	r, mock, _ := newTestResolver(t, 0)
	product := productEntity(t, r)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM `products`").
		WillReturnRows(sqlmock.NewRows(productColumns))
	mock.ExpectRollback()

	result, err := r.Update(context.Background(), product, map[string]interface{}{
		"sku": map[string]interface{}{"exact": "NOPE"},
	}, map[string]interface{}{"name": "Renamed"})
	require.NoError(t, err)
	assert.False(t, result.OK)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Messages[0], "does not exist")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProduct(t *testing.T) {
	r, mock, _ := newTestResolver(t, 0)
	product := productEntity(t, r)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM `products` WHERE `products`.`sku` = \\?").
		WithArgs("WIDGET-1").
		WillReturnRows(sqlmock.NewRows(productColumns).AddRow(productRow(1, "WIDGET-1", 500)...))
	mock.ExpectExec("UPDATE `products` SET `name` = \\?, `updated_at` = \\? WHERE `id` = \\?").
		WithArgs("Renamed", sqlmock.AnyArg(), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM `products` WHERE `products`.`id` = \\?").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(productColumns).
			AddRow(1, "WIDGET-1", "Renamed", 500, true, testTime, testTime))
	mock.ExpectCommit()

	result, err := r.Update(context.Background(), product, map[string]interface{}{
		"sku": map[string]interface{}{"exact": "WIDGET-1"},
	}, map[string]interface{}{"name": "Renamed"})
	require.NoError(t, err)
	assert.True(t, result.OK)
	assert.Equal(t, "Renamed", result.Row["name"])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteProtectedCustomer(t *testing.T) {
	r, mock, _ := newTestResolver(t, 0)
	customer, ok := r.Registry().Entity("Customer")
	require.True(t, ok)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM `customers` WHERE `customers`.`id` = \\?").
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows(customerColumns).
			AddRow(3, "ada@example.com", "Ada Lovelace", testTime, testTime))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM `orders` WHERE `customer_id` = \\?").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectRollback()

	result, err := r.Delete(context.Background(), customer, map[string]interface{}{
		"id": map[string]interface{}{"exact": 3},
	})
	require.NoError(t, err)
	assert.False(t, result.OK)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Messages[0], "cannot delete Customer")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteProductCascades(t *testing.T) {
	r, mock, dispatcher := newTestResolver(t, 0)
	product := productEntity(t, r)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM `products` WHERE `products`.`id` = \\?").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows(productColumns).AddRow(productRow(7, "WIDGET-1", 500)...))
	// Protect check against order items runs before any cascade write.
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM `order_items` WHERE `product_id` = \\?").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("SELECT `id` FROM `inventory_entries` WHERE `product_id` = \\?").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(21).AddRow(22))
	mock.ExpectExec("DELETE FROM `inventory_entries` WHERE `id` = \\?").
		WithArgs(int64(21)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM `inventory_entries` WHERE `id` = \\?").
		WithArgs(int64(22)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM `products` WHERE `id` = \\?").
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := r.Delete(context.Background(), product, map[string]interface{}{
		"id": map[string]interface{}{"exact": 7},
	})
	require.NoError(t, err)
	assert.True(t, result.OK)
	assert.Equal(t, "WIDGET-1", result.Row["sku"])
	assert.Empty(t, dispatcher.dispatched)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderDispatchesAnalytics(t *testing.T) {
	r, mock, dispatcher := newTestResolver(t, 0)
	order, ok := r.Registry().Entity("Order")
	require.True(t, ok)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM `customers` WHERE `customers`.`id` = \\?").
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows(customerColumns).
			AddRow(4, "ada@example.com", "Ada Lovelace", testTime, testTime))
	mock.ExpectExec("INSERT INTO `orders` \\(`created_at`,`customer_id`,`status`,`updated_at`\\)").
		WithArgs(sqlmock.AnyArg(), int64(4), "PENDING", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectQuery("SELECT (.+) FROM `orders` WHERE `orders`.`id` = \\?").
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows(orderColumns).
			AddRow(9, "PENDING", testTime, testTime, 4))
	mock.ExpectCommit()

	// Status falls back to its default when omitted.
	result, err := r.Create(context.Background(), order, map[string]interface{}{
		"customer": map[string]interface{}{
			"connect": map[string]interface{}{
				"id": map[string]interface{}{"exact": 4},
			},
		},
	})
	require.NoError(t, err)
	assert.True(t, result.OK)

	require.Len(t, dispatcher.dispatched, 1)
	assert.Equal(t, tasks.KindPostOrderAnalytics, dispatcher.dispatched[0].Kind)
	assert.Equal(t, int64(9), dispatcher.dispatched[0].EntityID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelOrder(t *testing.T) {
	r, mock, dispatcher := newTestResolver(t, 0)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM `orders` WHERE `orders`.`id` = \\?").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(orderColumns).
			AddRow(1, "PAID", testTime, testTime, 4))
	mock.ExpectExec("UPDATE `orders` SET `status` = \\?, `updated_at` = \\? WHERE `id` = \\?").
		WithArgs("CANCELLED", sqlmock.AnyArg(), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT `product_id`, `quantity` FROM `order_items` WHERE `order_id` = \\?").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "quantity"}).
			AddRow(7, 2).
			AddRow(7, 1))
	mock.ExpectExec("INSERT INTO `inventory_entries` \\(`created_at`,`delta`,`note`,`product_id`,`updated_at`\\)").
		WithArgs(sqlmock.AnyArg(), int64(2), "compensation for cancelled order 1", int64(7), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(31, 1))
	mock.ExpectExec("INSERT INTO `inventory_entries` \\(`created_at`,`delta`,`note`,`product_id`,`updated_at`\\)").
		WithArgs(sqlmock.AnyArg(), int64(1), "compensation for cancelled order 1", int64(7), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(32, 1))
	mock.ExpectQuery("SELECT (.+) FROM `orders` WHERE `orders`.`id` = \\?").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(orderColumns).
			AddRow(1, "CANCELLED", testTime, testTime, 4))
	mock.ExpectCommit()

	result, err := r.CancelOrder(context.Background(), map[string]interface{}{
		"id": map[string]interface{}{"exact": 1},
	})
	require.NoError(t, err)
	assert.True(t, result.OK)
	assert.Equal(t, "CANCELLED", result.Row["status"])

	// One recalc per distinct product, not per item.
	require.Len(t, dispatcher.dispatched, 1)
	assert.Equal(t, tasks.KindRecalculateInventory, dispatcher.dispatched[0].Kind)
	assert.Equal(t, int64(7), dispatcher.dispatched[0].EntityID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelAlreadyCancelledOrder(t *testing.T) {
	r, mock, dispatcher := newTestResolver(t, 0)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM `orders`").
		WillReturnRows(sqlmock.NewRows(orderColumns).
			AddRow(1, "CANCELLED", testTime, testTime, 4))
	mock.ExpectRollback()

	result, err := r.CancelOrder(context.Background(), map[string]interface{}{
		"id": map[string]interface{}{"exact": 1},
	})
	require.NoError(t, err)
	assert.False(t, result.OK)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "status", result.Errors[0].Field)
	assert.Empty(t, dispatcher.dispatched)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRejectsInvalidEnum(t *testing.T) {
	r, mock, _ := newTestResolver(t, 0)
	order, ok := r.Registry().Entity("Order")
	require.True(t, ok)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM `customers`").
		WillReturnRows(sqlmock.NewRows(customerColumns).
			AddRow(4, "ada@example.com", "Ada Lovelace", testTime, testTime))
	mock.ExpectRollback()

	result, err := r.Create(context.Background(), order, map[string]interface{}{
		"status": "SHIPPED",
		"customer": map[string]interface{}{
			"connect": map[string]interface{}{
				"id": map[string]interface{}{"exact": 4},
			},
		},
	})
	require.NoError(t, err)
	assert.False(t, result.OK)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "status", result.Errors[0].Field)

	assert.NoError(t, mock.ExpectationsWereMet())
}
