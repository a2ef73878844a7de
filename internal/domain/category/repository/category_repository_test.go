package repository

import (
	"context"
	"seafood_shop/internal/domain/category/model"
	"seafood_shop/pkg/testutil"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateDuplicateName(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	repo := NewCategoryRepository(db)

	mock.ExpectExec(`INSERT INTO "categories"`).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.Create(context.Background(), &model.Category{Name: "Tôm"})
	assert.ErrorIs(t, err, ErrNameExists)
}

func TestByNamePagesAfterMarker(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	src := NewCategoryRepository(db).ByName()

	mock.ExpectQuery(`SELECT \* FROM "categories" WHERE \(name, id\) > \(\$1, \$2\) .*ORDER BY name ASC, id ASC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("c-3", "Mực"))

	marker := model.Category{Name: "Cua"}
	marker.ID = "c-2"
	items, err := src.After(context.Background(), marker, 1)

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Mực", items[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMissing(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	repo := NewCategoryRepository(db)

	mock.ExpectExec(`UPDATE "categories" SET "deleted_at"`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), "ghost"), ErrNotFound)
}
