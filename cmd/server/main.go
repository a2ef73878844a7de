package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"seafood_shop/internal/pkg/config"
	"seafood_shop/internal/pkg/middleware"
	"seafood_shop/internal/pkg/registry"
	"seafood_shop/internal/pkg/uploader"
	"seafood_shop/internal/pkg/worker"
	"seafood_shop/pkg/cache"
	"seafood_shop/pkg/database"
	"seafood_shop/pkg/logger"
	"seafood_shop/pkg/metrics"
	"seafood_shop/pkg/response"
	"syscall"
	"time"

	_ "seafood_shop/docs"
	// 各业务模块在 init 中注册
	_ "seafood_shop/internal/domain/cart"
	_ "seafood_shop/internal/domain/category"
	_ "seafood_shop/internal/domain/comment"
	_ "seafood_shop/internal/domain/order"
	_ "seafood_shop/internal/domain/payment"
	_ "seafood_shop/internal/domain/product"
	_ "seafood_shop/internal/domain/upload"
	_ "seafood_shop/internal/domain/user"
	_ "seafood_shop/internal/domain/voucher"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// @title Seafood Shop API
// @version 1.0
// @description 海鲜商城后端：商品、购物车、订单、优惠券、支付
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	config.LoadConfig()
	cfg := config.GlobalConfig

	if err := logger.InitLogger(cfg.App.Env, cfg.App.Debug); err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()
	response.SetExposeErrors(!cfg.App.IsProduction())

	db, err := database.InitDatabase()
	if err != nil {
		logger.Log.Fatal("connect database", zap.Error(err))
	}
	reports, err := database.NewReportingDB(db)
	if err != nil {
		logger.Log.Fatal("reporting database", zap.Error(err))
	}
	rdb, err := database.InitRedis()
	if err != nil {
		logger.Log.Fatal("connect redis", zap.Error(err))
	}
	defer rdb.Close()

	collector := metrics.InitMetrics()
	prometheus.MustRegister(collectors.NewDBStatsCollector(reports.DB, cfg.Database.DBName))

	poolMonitor := database.NewPoolMonitor(reports.DB, database.PoolMonitorConfig{Interval: 30 * time.Second})
	poolMonitor.Start()
	defer poolMonitor.Stop()

	tasks := worker.NewWorkerPool(4, 256).OnResult(collector.RecordTask)
	tasks.Start()
	defer tasks.Stop()

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(
		middleware.TraceMiddleware(),
		middleware.LoggerMiddleware(),
		middleware.RecoveryMiddleware(),
		middleware.SecurityHeadersMiddleware(),
		middleware.MetricsMiddleware(collector),
		cors.New(cors.Config{
			AllowOrigins:     cfg.Server.AllowOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
			ExposeHeaders:    []string{"X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}),
	)

	limiter := middleware.NewIPRateLimiter(rate.Limit(cfg.RateLimit.QPS), cfg.RateLimit.Burst)
	stopJanitor := make(chan struct{})
	limiter.StartJanitor(time.Minute, 10*time.Minute, stopJanitor)
	defer close(stopJanitor)
	router.Use(middleware.RateLimitMiddleware(limiter))

	router.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	moduleCtx := &registry.ModuleContext{
		DB:      db,
		Reports: reports,
		Redis:   rdb,
		Router:  router,
		Cache:   cache.NewInstrumentedCache(cache.NewRedisCache(rdb, "seafood:"), collector),
		Tasks:   tasks,
		Metrics: collector,
	}
	// 未配置 OSS 时 Uploader 保持 nil 接口，上传接口返回 503
	if cfg.OSS.BucketName != "" {
		oss, err := uploader.NewAliyunOSSUploader(cfg.OSS)
		if err != nil {
			logger.Log.Fatal("init oss uploader", zap.Error(err))
		}
		moduleCtx.Uploader = oss
	}

	if err := registry.InitModules(moduleCtx); err != nil {
		logger.Log.Fatal("init modules", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("listen", zap.Error(err))
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop
	logger.Log.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("server shutdown", zap.Error(err))
	}
	logger.Log.Info("server stopped")
}
