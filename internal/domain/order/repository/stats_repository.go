package repository

import (
	"context"
	"seafood_shop/internal/domain/order/model"
	baseModel "seafood_shop/pkg/model"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// StatsFilter 统计查询条件，nil 表示不限
type StatsFilter struct {
	Status *model.Status
	From   *time.Time // 含
	To     *time.Time // 含
	Before *time.Time // 不含，按年统计时使用
}

// StatsRepository 只读统计查询，走 sqlx
type StatsRepository interface {
	Orders(ctx context.Context, f StatsFilter) ([]model.Order, error)
}

type statsRepository struct {
	db *sqlx.DB
}

func NewStatsRepository(db *sqlx.DB) StatsRepository {
	return &statsRepository{db: db}
}

type orderRow struct {
	ID          string                         `db:"id"`
	UserID      string                         `db:"user_id"`
	Items       baseModel.JSONList[model.Item] `db:"items"`
	TotalAmount decimal.Decimal                `db:"total_amount"`
	Status      string                         `db:"status"`
	CreatedAt   time.Time                      `db:"created_at"`
}

const statsQuery = `
SELECT id, user_id, items, total_amount, status, created_at
FROM orders
WHERE deleted_at IS NULL
  AND ($1::text IS NULL OR status = $1)
  AND ($2::timestamptz IS NULL OR created_at >= $2)
  AND ($3::timestamptz IS NULL OR created_at <= $3)
  AND ($4::timestamptz IS NULL OR created_at < $4)
ORDER BY created_at`

func (r *statsRepository) Orders(ctx context.Context, f StatsFilter) ([]model.Order, error) {
	var status *string
	if f.Status != nil {
		s := string(*f.Status)
		status = &s
	}

	var rows []orderRow
	if err := r.db.SelectContext(ctx, &rows, statsQuery, status, f.From, f.To, f.Before); err != nil {
		return nil, err
	}

	orders := make([]model.Order, len(rows))
	for i, row := range rows {
		orders[i] = model.Order{
			UserID:      row.UserID,
			Items:       row.Items,
			TotalAmount: row.TotalAmount,
			Status:      model.Status(row.Status),
		}
		orders[i].ID = row.ID
		orders[i].CreatedAt = row.CreatedAt
	}
	return orders, nil
}
