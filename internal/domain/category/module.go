package category

import (
	"seafood_shop/internal/domain/category/handler"
	"seafood_shop/internal/domain/category/repository"
	"seafood_shop/internal/domain/category/service"
	"seafood_shop/internal/pkg/middleware"
	"seafood_shop/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// ServiceName 商品模块校验分类是否存在
const ServiceName = "category.service"

type CategoryModule struct{}

func init() {
	registry.Register(&CategoryModule{})
}

func (m *CategoryModule) Name() string {
	return "category"
}

func (m *CategoryModule) Priority() int {
	return 5
}

func (m *CategoryModule) Init(ctx *registry.ModuleContext) error {
	repo := repository.NewCategoryRepository(ctx.DB)
	svc := service.NewCategoryService(repo, ctx.Cache)
	ctx.Provide(ServiceName, svc)

	setupRoutes(ctx.Router, handler.NewCategoryHandler(svc))
	return nil
}

func setupRoutes(r *gin.Engine, h *handler.CategoryHandler) {
	g := r.Group("/categories")
	{
		g.GET("", h.List)
		g.GET("/search", h.Search)
		g.GET("/name/:name", h.GetByName)
		g.GET("/:id", h.Get)
	}

	admin := g.Group("")
	admin.Use(middleware.AuthMiddleware(), middleware.AdminMiddleware())
	{
		admin.POST("", h.Create)
		admin.PUT("/:id", h.Update)
		admin.DELETE("/:id", h.Delete)
	}
}
