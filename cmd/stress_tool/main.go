package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"seafood_shop/internal/domain/voucher/model"
	"seafood_shop/internal/domain/voucher/repository"
	"seafood_shop/internal/domain/voucher/service"
	"seafood_shop/internal/pkg/config"
	"seafood_shop/pkg/database"
	"seafood_shop/pkg/logger"
	"seafood_shop/pkg/metrics"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// 并发核销同一张券，验证 usageCount 不会超过 usageLimit
func main() {
	users := flag.Int("users", 2000, "concurrent users, each redeems once")
	limit := flag.Int("limit", 5, "voucher usage limit")
	workers := flag.Int("workers", 200, "max in-flight redemptions")
	keep := flag.Bool("keep", false, "keep the test voucher afterwards")
	flag.Parse()

	config.LoadConfig()
	if err := logger.InitLogger(config.GlobalConfig.App.Env, false); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	db, err := database.InitDatabase()
	if err != nil {
		logger.Log.Fatal("connect database", zap.Error(err))
	}

	svc := service.NewVoucherService(
		repository.NewVoucherRepository(db),
		config.GlobalConfig.Voucher,
		config.GlobalConfig.Search,
		metrics.NewMetricsCollector(prometheus.NewRegistry()),
	)

	ctx := context.Background()
	now := time.Now().UTC()
	code := "STRESS-" + uuid.NewString()[:8]
	v, err := svc.Create(ctx, service.VoucherInput{
		Code:          code,
		DiscountType:  model.DiscountFixed,
		DiscountValue: decimal.NewFromInt(10000),
		MaxDiscount:   decimal.NewFromInt(10000),
		StartDate:     now.Add(-time.Minute),
		EndDate:       now.Add(time.Hour),
		UsageLimit:    *limit,
	})
	if err != nil {
		logger.Log.Fatal("create voucher", zap.Error(err))
	}

	fmt.Printf("开始压测：%d 个用户并发核销券 %s (usageLimit=%d)\n", *users, code, *limit)

	var (
		wg       sync.WaitGroup
		success  atomic.Int64
		rejected atomic.Int64
		failed   atomic.Int64
	)
	sem := make(chan struct{}, *workers)
	amount := decimal.NewFromInt(100000)
	start := time.Now()

	for i := 0; i < *users; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			_, err := svc.Redeem(ctx, code, uuid.NewString(), amount)
			switch {
			case err == nil:
				success.Add(1)
			case errors.Is(err, service.ErrNotRedeemable):
				rejected.Add(1)
			default:
				failed.Add(1)
				logger.Log.Warn("redeem", zap.Error(err))
			}
		}()
	}
	wg.Wait()
	duration := time.Since(start)

	final, err := svc.GetByCode(ctx, code)
	if err != nil {
		logger.Log.Fatal("reload voucher", zap.Error(err))
	}
	if !*keep {
		if err := svc.Delete(ctx, v.ID); err != nil {
			logger.Log.Warn("delete test voucher", zap.String("code", code), zap.Error(err))
		}
	}

	fmt.Println("--------------------------------------------------")
	fmt.Printf("耗时: %v, QPS: %.2f\n", duration, float64(*users)/duration.Seconds())
	fmt.Printf("成功: %d, 拒绝: %d, 错误: %d\n", success.Load(), rejected.Load(), failed.Load())
	fmt.Printf("usageCount=%d usageLimit=%d\n", final.UsageCount, final.UsageLimit)
	fmt.Println("--------------------------------------------------")

	if final.UsageCount > final.UsageLimit || int64(final.UsageCount) != success.Load() {
		fmt.Println("FAIL: usage counter is inconsistent")
		os.Exit(1)
	}
	fmt.Println("OK")
}
