package orders

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fzon/storefront/internal/common"
	"github.com/fzon/storefront/internal/server/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepository(db), mock
}

const qCreate = `(?s)^INSERT\s+INTO\s+orders.*ON\s+CONFLICT\s+\(user_id,\s*idempotency_key\)\s+DO\s+NOTHING\s+RETURNING\s+id,\s*created_at`

func TestCreate(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	mock.ExpectQuery(qCreate).
		WithArgs("u-1", "key-1", "PENDING", "11").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("o-1", now))

	o, err := repo.Create(context.Background(), &models.Order{
		UserID: "u-1", IdempotencyKey: "key-1", Status: models.OrderPending, Sum: decimal.NewFromInt(11),
	})
	require.NoError(t, err)
	assert.Equal(t, "o-1", o.ID)
	assert.True(t, o.CreatedAt.Equal(now))
}

func TestCreate_DuplicateKey(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(qCreate).WillReturnError(sql.ErrNoRows)

	_, err := repo.Create(context.Background(), &models.Order{UserID: "u-1", IdempotencyKey: "key-1", Status: models.OrderPending})
	assert.ErrorIs(t, err, common.ErrOrderAlreadyExists)
}

func TestAddItems(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`INSERT\s+INTO\s+order_items`).
		WithArgs("o-1", "0001", "Mug", 2, "5").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT\s+INTO\s+order_items`).
		WithArgs("o-1", "0002", "Pen", 1, "1").
		WillReturnError(errors.New("boom"))

	err := repo.AddItems(context.Background(), "o-1", []models.CartItem{
		{Article: "0001", Name: "Mug", Quantity: 2, Price: decimal.NewFromInt(5)},
		{Article: "0002", Name: "Pen", Quantity: 1, Price: decimal.NewFromInt(1)},
	})
	assert.ErrorContains(t, err, "db error: boom")
}

func TestItems(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)FROM\s+order_items\s+WHERE\s+order_id\s*=\s*\$1`).
		WithArgs("o-1").
		WillReturnRows(sqlmock.NewRows([]string{"article", "name", "quantity", "price"}).
			AddRow("0001", "Mug", 2, "5"))

	items, err := repo.Items(context.Background(), "o-1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Mug", items[0].Name)
}

func TestList_GroupsItemsPerOrder(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	t1 := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	t0 := t1.Add(-time.Hour)

	cols := []string{"id", "status", "sum", "created_at", "article", "name", "quantity", "price"}
	mock.ExpectQuery(`(?s)FROM\s+orders\s+o\s+LEFT\s+JOIN\s+order_items\s+i`).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("o-2", "PAID", "15", t1, "0001", "Mug", 1, "5").
			AddRow("o-2", "PAID", "15", t1, "0002", "Pen", 2, "5").
			AddRow("o-1", "FAILED", "0", t0, nil, nil, nil, nil))

	got, err := repo.List(context.Background(), "u-1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "o-2", got[0].ID)
	assert.Equal(t, models.OrderPaid, got[0].Status)
	assert.Len(t, got[0].Items, 2)
	assert.Equal(t, 2, got[0].Items[1].Quantity)

	assert.Equal(t, models.OrderFailed, got[1].Status)
	assert.Empty(t, got[1].Items)
}

func TestSetStatus(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`UPDATE orders SET status = \$2 WHERE id = \$1`).
		WithArgs("o-1", "PAID").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE orders SET status`).
		WithArgs("o-2", "FAILED").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.SetStatus(context.Background(), "o-1", models.OrderPaid))
	assert.ErrorIs(t, repo.SetStatus(context.Background(), "o-2", models.OrderFailed), common.ErrNotFound)
}
