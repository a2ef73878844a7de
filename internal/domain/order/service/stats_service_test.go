package service

import (
	"context"
	"errors"
	"seafood_shop/internal/domain/order/model"
	"seafood_shop/internal/domain/order/repository"
	productModel "seafood_shop/internal/domain/product/model"
	productService "seafood_shop/internal/domain/product/service"
	"seafood_shop/internal/pkg/config"
	"seafood_shop/pkg/metrics"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockStatsRepository struct {
	mock.Mock
}

func (m *MockStatsRepository) Orders(ctx context.Context, f repository.StatsFilter) ([]model.Order, error) {
	args := m.Called(f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

// costTable 并发安全的成本表，记录调用次数
type costTable struct {
	costs map[string]int64
	calls int32
}

func (c *costTable) GetByID(ctx context.Context, id string) (*productModel.Product, error) {
	atomic.AddInt32(&c.calls, 1)
	cost, ok := c.costs[id]
	if !ok {
		return nil, productService.ErrNotFound
	}
	return &productModel.Product{Name: id, CostPrice: decimal.NewFromInt(cost)}, nil
}

func line(id string, qty int, price int64) model.Item {
	return model.Item{ProductID: id, Quantity: qty, Price: decimal.NewFromInt(price)}
}

func completedOrder(total int64, lines ...model.Item) model.Order {
	return model.Order{Status: model.StatusCompleted, TotalAmount: decimal.NewFromInt(total), Items: lines}
}

func isCompleted(f repository.StatsFilter) bool {
	return f.Status != nil && *f.Status == model.StatusCompleted
}

func newStats(repo repository.StatsRepository, costs CostSource, cfg config.StatsConfig) StatsService {
	return NewStatsService(repo, costs, cfg, metrics.NewMetricsCollector(prometheus.NewRegistry()))
}

func TestRevenue(t *testing.T) {
	ctx := context.Background()
	orders := []model.Order{
		completedOrder(300, line("A", 2, 100), line("B", 1, 100)),
		completedOrder(200, line("A", 1, 100), line("C", 2, 50)),
	}
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

	t.Run("totals without profit", func(t *testing.T) {
		repo := new(MockStatsRepository)
		repo.On("Orders", mock.MatchedBy(func(f repository.StatsFilter) bool {
			return isCompleted(f) && f.From.Equal(from) && f.To.Equal(to) && f.Before == nil
		})).Return(orders, nil)
		costs := &costTable{}

		report, err := newStats(repo, costs, config.StatsConfig{}).Revenue(ctx, &from, &to, false)
		require.NoError(t, err)
		assert.True(t, report.TotalRevenue.Equal(decimal.NewFromInt(500)))
		assert.Equal(t, 2, report.TotalOrder)
		assert.Equal(t, 4, report.TotalProduct)
		assert.Nil(t, report.Profit)
		assert.Zero(t, atomic.LoadInt32(&costs.calls))
	})

	t.Run("profit looks up each product once", func(t *testing.T) {
		repo := new(MockStatsRepository)
		repo.On("Orders", mock.Anything).Return(orders, nil)
		costs := &costTable{costs: map[string]int64{"A": 60, "B": 70, "C": 20}}

		report, err := newStats(repo, costs, config.StatsConfig{CostConcurrency: 2, CostTimeout: time.Second}).
			Revenue(ctx, nil, nil, true)
		require.NoError(t, err)
		require.NotNil(t, report.Profit)
		// 成本 3×60 + 1×70 + 2×20 = 290
		assert.True(t, report.Profit.Equal(decimal.NewFromInt(210)), report.Profit.String())
		assert.Equal(t, int32(3), atomic.LoadInt32(&costs.calls))
	})

	t.Run("missing product aborts", func(t *testing.T) {
		repo := new(MockStatsRepository)
		repo.On("Orders", mock.Anything).Return(orders, nil)
		costs := &costTable{costs: map[string]int64{"A": 60, "B": 70}}

		_, err := newStats(repo, costs, config.StatsConfig{}).Revenue(ctx, nil, nil, true)
		assert.ErrorIs(t, err, ErrMissingProduct)
	})

	t.Run("missing product skipped when enabled", func(t *testing.T) {
		repo := new(MockStatsRepository)
		repo.On("Orders", mock.Anything).Return(orders, nil)
		costs := &costTable{costs: map[string]int64{"A": 60, "B": 70}}

		report, err := newStats(repo, costs, config.StatsConfig{SkipMissingCost: true}).Revenue(ctx, nil, nil, true)
		require.NoError(t, err)
		assert.True(t, report.Profit.Equal(decimal.NewFromInt(250)))
	})

	t.Run("repository error", func(t *testing.T) {
		repo := new(MockStatsRepository)
		repo.On("Orders", mock.Anything).Return(nil, errors.New("db down"))

		_, err := newStats(repo, &costTable{}, config.StatsConfig{}).Revenue(ctx, nil, nil, false)
		assert.Error(t, err)
	})
}

func yearFilter(year int, completedOnly bool) interface{} {
	from, before := model.YearRange(year)
	return mock.MatchedBy(func(f repository.StatsFilter) bool {
		if completedOnly != isCompleted(f) || (!completedOnly && f.Status != nil) {
			return false
		}
		return f.From != nil && f.From.Equal(from) && f.Before != nil && f.Before.Equal(before) && f.To == nil
	})
}

func TestRevenueComparison(t *testing.T) {
	march := completedOrder(100)
	march.CreatedAt = time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	july := completedOrder(40)
	july.CreatedAt = time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC)

	repo := new(MockStatsRepository)
	repo.On("Orders", yearFilter(2024, true)).Return([]model.Order{march}, nil)
	repo.On("Orders", yearFilter(2023, true)).Return([]model.Order{july}, nil)

	cmp, err := newStats(repo, &costTable{}, config.StatsConfig{}).RevenueComparison(context.Background(), 2024)
	require.NoError(t, err)
	assert.True(t, cmp.CurrentYear[2].Equal(decimal.NewFromInt(100)))
	assert.True(t, cmp.PreviousYear[6].Equal(decimal.NewFromInt(40)))
	assert.True(t, cmp.CurrentYear[6].IsZero())
}

func TestStatusStatsCountsAllStatuses(t *testing.T) {
	repo := new(MockStatsRepository)
	repo.On("Orders", yearFilter(2024, false)).Return([]model.Order{
		{Status: model.StatusPending},
		{Status: model.StatusCompleted},
		{Status: model.StatusCompleted},
	}, nil)

	counts, err := newStats(repo, &costTable{}, config.StatsConfig{}).StatusStats(context.Background(), 2024)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[model.StatusPending])
	assert.Equal(t, 2, counts[model.StatusCompleted])
	assert.Equal(t, 0, counts[model.StatusCancelled])
	assert.Len(t, counts, len(model.Statuses))
}

func TestTopProductsRanksByRevenue(t *testing.T) {
	repo := new(MockStatsRepository)
	repo.On("Orders", yearFilter(2024, true)).Return([]model.Order{
		completedOrder(200, line("A", 2, 100)),
		completedOrder(100, line("A", 1, 100)),
		completedOrder(50, line("B", 5, 10)),
	}, nil)

	top, err := newStats(repo, &costTable{}, config.StatsConfig{}).TopProducts(context.Background(), 2024)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "A", top[0].ID)
	assert.Equal(t, 3, top[0].Quantity)
	assert.True(t, top[0].Revenue.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, "B", top[1].ID)
}
