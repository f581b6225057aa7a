package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"inventory-graphql/internal/dbexec"
)

func TestNewTask(t *testing.T) {
	task := New(KindRecalculateInventory, 7)
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", task.ID.String())
	assert.Equal(t, KindRecalculateInventory, task.Kind)
	assert.Equal(t, int64(7), task.EntityID)
	assert.WithinDuration(t, time.Now().UTC(), task.EnqueuedAt, time.Minute)
}

func TestTaskMsgpackRoundTrip(t *testing.T) {
	task := New(KindPostOrderAnalytics, 42)

	encoded, err := msgpack.Marshal(task)
	require.NoError(t, err)

	var decoded Task
	require.NoError(t, msgpack.Unmarshal(encoded, &decoded))
	assert.Equal(t, task.ID, decoded.ID)
	assert.Equal(t, task.Kind, decoded.Kind)
	assert.Equal(t, task.EntityID, decoded.EntityID)
	assert.True(t, task.EnqueuedAt.Equal(decoded.EnqueuedAt))
}

func TestRunnerRecalculateInventory(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(`delta`\\), 0\\) FROM `inventory_entries` WHERE `product_id` = \\?").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(15))
	mock.ExpectExec("INSERT INTO `analytics_events` \\(`order_id`,`kind`,`payload`,`created_at`,`updated_at`\\) VALUES \\(\\?,\\?,\\?,\\?,\\?\\)").
		WithArgs(nil, "RECALC_PRODUCT", `{"product_id":7,"stock":15}`, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	runner := NewRunner(dbexec.NewStandardExecutor(db))
	err = runner.Run(context.Background(), New(KindRecalculateInventory, 7))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunnerPostOrderAnalytics(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(`quantity` \\* `unit_price_cents`\\), 0\\) FROM `order_items` WHERE `order_id` = \\?").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(2598))
	mock.ExpectExec("INSERT INTO `analytics_events`").
		WithArgs(int64(3), "ORDER_CREATED", `{"total_cents":2598}`, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(2, 1))

	runner := NewRunner(dbexec.NewStandardExecutor(db))
	err = runner.Run(context.Background(), New(KindPostOrderAnalytics, 3))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunnerUnknownKind(t *testing.T) {
	runner := NewRunner(nil)
	err := runner.Run(context.Background(), Task{Kind: "mystery"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown task kind")
}

func TestInlineDispatcherSwallowsFailures(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT COALESCE").
		WillReturnError(assert.AnError)

	dispatcher := NewInlineDispatcher(NewRunner(dbexec.NewStandardExecutor(db)))
	// Execution failure is logged and dropped, not returned.
	assert.NoError(t, dispatcher.Dispatch(context.Background(), New(KindRecalculateInventory, 1)))
	assert.NoError(t, mock.ExpectationsWereMet())
}
