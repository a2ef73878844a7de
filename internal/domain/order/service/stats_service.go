package service

import (
	"context"
	"errors"
	"fmt"
	"seafood_shop/internal/domain/order/model"
	"seafood_shop/internal/domain/order/repository"
	productModel "seafood_shop/internal/domain/product/model"
	productService "seafood_shop/internal/domain/product/service"
	"seafood_shop/internal/pkg/config"
	"seafood_shop/pkg/logger"
	"seafood_shop/pkg/metrics"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrMissingProduct 订单行引用的商品已不存在，成本无法计算
var ErrMissingProduct = errors.New("order references a missing product")

const defaultCostConcurrency = 16

// CostSource 查询商品成本价
type CostSource interface {
	GetByID(ctx context.Context, id string) (*productModel.Product, error)
}

// RevenueReport 已完成订单的营收汇总，Profit 只对管理员计算
type RevenueReport struct {
	TotalRevenue decimal.Decimal  `json:"totalRevenue"`
	TotalOrder   int              `json:"totalOrder"`
	TotalProduct int              `json:"totalProduct"`
	Profit       *decimal.Decimal `json:"profit,omitempty"`
	Orders       []model.Order    `json:"orders"`
}

// Comparison 今年与去年的逐月营收
type Comparison struct {
	CurrentYear  [12]decimal.Decimal `json:"currentYear"`
	PreviousYear [12]decimal.Decimal `json:"previousYear"`
}

type StatsService interface {
	Revenue(ctx context.Context, from, to *time.Time, withProfit bool) (*RevenueReport, error)
	RevenueByMonth(ctx context.Context, year int) ([12]decimal.Decimal, error)
	RevenueComparison(ctx context.Context, year int) (*Comparison, error)
	StatusStats(ctx context.Context, year int) (map[model.Status]int, error)
	TopProducts(ctx context.Context, year int) ([]model.ProductSales, error)
}

type statsService struct {
	repo    repository.StatsRepository
	costs   CostSource
	cfg     config.StatsConfig
	metrics *metrics.MetricsCollector
	log     *zap.Logger
}

func NewStatsService(repo repository.StatsRepository, costs CostSource, cfg config.StatsConfig, collector *metrics.MetricsCollector) StatsService {
	if collector == nil {
		collector = metrics.Global()
	}
	if cfg.CostConcurrency < 1 {
		cfg.CostConcurrency = defaultCostConcurrency
	}
	return &statsService{
		repo:    repo,
		costs:   costs,
		cfg:     cfg,
		metrics: collector,
		log:     logger.Named("order.stats"),
	}
}

func completed() *model.Status {
	s := model.StatusCompleted
	return &s
}

func (s *statsService) yearOrders(ctx context.Context, year int, status *model.Status) ([]model.Order, error) {
	from, before := model.YearRange(year)
	return s.repo.Orders(ctx, repository.StatsFilter{Status: status, From: &from, Before: &before})
}

func (s *statsService) Revenue(ctx context.Context, from, to *time.Time, withProfit bool) (*RevenueReport, error) {
	orders, err := s.repo.Orders(ctx, repository.StatsFilter{Status: completed(), From: from, To: to})
	if err != nil {
		return nil, err
	}

	totals := model.Sum(orders)
	report := &RevenueReport{
		TotalRevenue: totals.Revenue,
		TotalOrder:   totals.Orders,
		TotalProduct: totals.Products,
		Orders:       orders,
	}
	if !withProfit {
		return report, nil
	}

	cost, err := s.totalCost(ctx, model.QuantitiesByProduct(orders))
	if err != nil {
		return nil, err
	}
	profit := totals.Revenue.Sub(cost)
	report.Profit = &profit
	return report, nil
}

// totalCost 每个商品查询一次成本，并发数受 CostConcurrency 限制
// 任一查询失败即取消其余查询
func (s *statsService) totalCost(ctx context.Context, quantities map[string]int) (decimal.Decimal, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.CostConcurrency)

	var (
		mu    sync.Mutex
		total = decimal.Zero
	)
	for id, qty := range quantities {
		id, qty := id, qty
		g.Go(func() error {
			cost, err := s.lineCost(gctx, id, qty)
			if err != nil {
				return err
			}
			mu.Lock()
			total = total.Add(cost)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func (s *statsService) lineCost(ctx context.Context, productID string, qty int) (decimal.Decimal, error) {
	if s.cfg.CostTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.CostTimeout)
		defer cancel()
	}

	start := time.Now()
	p, err := s.costs.GetByID(ctx, productID)
	s.metrics.ObserveCostLookup(time.Since(start))

	if errors.Is(err, productService.ErrNotFound) {
		if s.cfg.SkipMissingCost {
			s.log.Warn("skip missing product in profit", zap.String("product_id", productID))
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("%w: %s", ErrMissingProduct, productID)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("cost lookup %s: %w", productID, err)
	}
	return p.CostPrice.Mul(decimal.NewFromInt(int64(qty))), nil
}

func (s *statsService) RevenueByMonth(ctx context.Context, year int) ([12]decimal.Decimal, error) {
	orders, err := s.yearOrders(ctx, year, completed())
	if err != nil {
		return [12]decimal.Decimal{}, err
	}
	return model.MonthlyRevenue(orders), nil
}

func (s *statsService) RevenueComparison(ctx context.Context, year int) (*Comparison, error) {
	g, gctx := errgroup.WithContext(ctx)
	var cmp Comparison
	g.Go(func() error {
		var err error
		cmp.CurrentYear, err = s.RevenueByMonth(gctx, year)
		return err
	})
	g.Go(func() error {
		var err error
		cmp.PreviousYear, err = s.RevenueByMonth(gctx, year-1)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &cmp, nil
}

// StatusStats 统计全部状态，不只是 completed
func (s *statsService) StatusStats(ctx context.Context, year int) (map[model.Status]int, error) {
	orders, err := s.yearOrders(ctx, year, nil)
	if err != nil {
		return nil, err
	}
	return model.CountByStatus(orders), nil
}

func (s *statsService) TopProducts(ctx context.Context, year int) ([]model.ProductSales, error) {
	orders, err := s.yearOrders(ctx, year, completed())
	if err != nil {
		return nil, err
	}
	return model.TopProducts(orders, model.TopProductsLimit), nil
}
