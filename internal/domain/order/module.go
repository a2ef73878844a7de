package order

import (
	"fmt"
	"seafood_shop/internal/domain/order/handler"
	"seafood_shop/internal/domain/order/repository"
	"seafood_shop/internal/domain/order/service"
	"seafood_shop/internal/domain/product"
	"seafood_shop/internal/domain/user"
	"seafood_shop/internal/domain/voucher"
	"seafood_shop/internal/pkg/config"
	"seafood_shop/internal/pkg/middleware"
	"seafood_shop/internal/pkg/registry"
	"seafood_shop/pkg/database"

	"github.com/gin-gonic/gin"
)

// ServiceName 支付回调通过该名称创建订单
const ServiceName = "order.service"

type OrderModule struct{}

func init() {
	registry.Register(&OrderModule{})
}

func (m *OrderModule) Name() string {
	return "order"
}

func (m *OrderModule) Priority() int {
	return 20
}

func lookup[T any](ctx *registry.ModuleContext, name string) (T, error) {
	var zero T
	svc, err := ctx.Lookup(name)
	if err != nil {
		return zero, err
	}
	typed, ok := svc.(T)
	if !ok {
		return zero, fmt.Errorf("%s does not implement %T", name, (*T)(nil))
	}
	return typed, nil
}

func (m *OrderModule) Init(ctx *registry.ModuleContext) error {
	users, err := lookup[service.UserDirectory](ctx, user.ServiceName)
	if err != nil {
		return err
	}
	vouchers, err := lookup[service.VoucherRedeemer](ctx, voucher.ServiceName)
	if err != nil {
		return err
	}
	products, err := lookup[service.ProductCatalog](ctx, product.ServiceName)
	if err != nil {
		return err
	}
	if ctx.Reports == nil {
		return fmt.Errorf("order statistics require a reporting database")
	}

	orderService := service.NewOrderService(repository.NewOrderRepository(ctx.DB), database.NewTransactor(ctx.DB), users, vouchers, products, ctx.Metrics)
	statsService := service.NewStatsService(repository.NewStatsRepository(ctx.Reports), products, config.GlobalConfig.Stats, ctx.Metrics)
	ctx.Provide(ServiceName, orderService)

	setupRoutes(ctx.Router, handler.NewOrderHandler(orderService, statsService))
	return nil
}

func setupRoutes(r *gin.Engine, h *handler.OrderHandler) {
	g := r.Group("/orders")
	g.Use(middleware.AuthMiddleware())
	{
		g.POST("", h.Create)
		g.GET("/revenue", h.Revenue)
		g.GET("/user/:userId", h.ByUser)
		g.GET("/user/:userId/has-purchased/:productId", h.HasPurchased)
		g.GET("/:id", h.Get)
	}

	employee := g.Group("")
	employee.Use(middleware.EmployeeMiddleware())
	{
		employee.GET("/search", h.Search)
	}

	admin := g.Group("")
	admin.Use(middleware.AdminMiddleware())
	{
		admin.GET("", h.List)
		admin.GET("/revenue-by-month", h.RevenueByMonth)
		admin.GET("/revenue-comparison", h.RevenueComparison)
		admin.GET("/status-stats", h.StatusStats)
		admin.GET("/top-products", h.TopProducts)
		admin.GET("/product/:productId/in-orders", h.ProductInOrders)
		admin.PUT("/:id", h.Update)
		admin.DELETE("/:id", h.Delete)
	}
}
