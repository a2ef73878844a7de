package cart

import (
	"seafood_shop/internal/domain/cart/handler"
	"seafood_shop/internal/domain/cart/repository"
	"seafood_shop/internal/domain/cart/service"
	"seafood_shop/internal/pkg/config"
	"seafood_shop/internal/pkg/middleware"
	"seafood_shop/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

type CartModule struct{}

func init() {
	registry.Register(&CartModule{})
}

func (m *CartModule) Name() string {
	return "cart"
}

func (m *CartModule) Priority() int {
	return 30
}

func (m *CartModule) Init(ctx *registry.ModuleContext) error {
	svc := service.NewCartService(repository.NewCartRepository(ctx.DB), config.GlobalConfig.Search)
	setupRoutes(ctx.Router, handler.NewCartHandler(svc))
	return nil
}

func setupRoutes(r *gin.Engine, h *handler.CartHandler) {
	g := r.Group("/carts")
	g.Use(middleware.AuthMiddleware())
	{
		g.POST("", h.Create)
		g.GET("/user/:userId", h.ByUser)
		g.GET("/:id", h.Get)
		g.PUT("/:id", h.Update)
		g.DELETE("/:id", h.Delete)
	}

	admin := g.Group("")
	admin.Use(middleware.AdminMiddleware())
	{
		admin.GET("", h.List)
		admin.GET("/search", h.Search)
	}
}
