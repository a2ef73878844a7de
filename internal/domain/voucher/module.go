package voucher

import (
	"seafood_shop/internal/domain/voucher/handler"
	"seafood_shop/internal/domain/voucher/repository"
	"seafood_shop/internal/domain/voucher/service"
	"seafood_shop/internal/pkg/config"
	"seafood_shop/internal/pkg/middleware"
	"seafood_shop/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// ServiceName 订单模块通过该名称获取券服务
const ServiceName = "voucher.service"

// VoucherModule 折扣券模块
type VoucherModule struct{}

func init() {
	registry.Register(&VoucherModule{})
}

func (m *VoucherModule) Name() string {
	return "voucher"
}

func (m *VoucherModule) Priority() int {
	return 10
}

func (m *VoucherModule) Init(ctx *registry.ModuleContext) error {
	// 1. 依赖注入
	vRepo := repository.NewVoucherRepository(ctx.DB)
	vService := service.NewVoucherService(vRepo, config.GlobalConfig.Voucher, config.GlobalConfig.Search, ctx.Metrics)
	vHandler := handler.NewVoucherHandler(vService)
	ctx.Provide(ServiceName, vService)

	// 2. 路由注册
	setupRoutes(ctx.Router, vHandler)

	return nil
}

func setupRoutes(r *gin.Engine, h *handler.VoucherHandler) {
	g := r.Group("/vouchers")
	{
		g.GET("", h.List)
		g.GET("/search", h.Search)
		g.GET("/valid", h.ListValid)
	}

	authorized := g.Group("")
	authorized.Use(middleware.AuthMiddleware())
	{
		authorized.GET("/:id", h.Get)
		authorized.GET("/code/:code", h.GetByCode)
		authorized.POST("/code/:code/preview", h.Preview)
		authorized.POST("/code/:code/redeem", h.Redeem)

		admin := authorized.Group("")
		admin.Use(middleware.AdminMiddleware())
		{
			admin.POST("", h.Create)
			admin.PUT("/:id", h.Update)
			admin.DELETE("/:id", h.Delete)
		}
	}
}
