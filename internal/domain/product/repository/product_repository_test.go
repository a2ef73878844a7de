package repository

import (
	"context"
	"seafood_shop/pkg/testutil"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInOrders(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	repo := NewProductRepository(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "orders" WHERE deleted_at IS NULL AND items @> \$1::jsonb`).
		WithArgs(`[{"productId":"p-1"}]`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	used, err := repo.InOrders(context.Background(), "p-1")

	require.NoError(t, err)
	assert.True(t, used)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestByNameScopesCategory(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	src := NewProductRepository(db).ByName("c-1")

	mock.ExpectQuery(`SELECT count\(\*\) FROM "products" WHERE category_id = \$1`).
		WithArgs("c-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	total, err := src.Count(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(7), total)
}

func TestGetByIDNotFound(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	repo := NewProductRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "products" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), "p-x")
	assert.ErrorIs(t, err, ErrNotFound)
}
