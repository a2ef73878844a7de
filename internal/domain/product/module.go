package product

import (
	"fmt"
	"seafood_shop/internal/domain/category"
	"seafood_shop/internal/domain/product/handler"
	"seafood_shop/internal/domain/product/repository"
	"seafood_shop/internal/domain/product/service"
	"seafood_shop/internal/pkg/middleware"
	"seafood_shop/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// ServiceName 订单模块查询成本价与引用关系
const ServiceName = "product.service"

type ProductModule struct{}

func init() {
	registry.Register(&ProductModule{})
}

func (m *ProductModule) Name() string {
	return "product"
}

func (m *ProductModule) Priority() int {
	return 6
}

func (m *ProductModule) Init(ctx *registry.ModuleContext) error {
	svc, err := ctx.Lookup(category.ServiceName)
	if err != nil {
		return err
	}
	categories, ok := svc.(service.CategoryChecker)
	if !ok {
		return fmt.Errorf("%s does not implement CategoryChecker", category.ServiceName)
	}

	repo := repository.NewProductRepository(ctx.DB)
	productService := service.NewProductService(repo, categories)
	ctx.Provide(ServiceName, productService)

	setupRoutes(ctx.Router, handler.NewProductHandler(productService))
	return nil
}

func setupRoutes(r *gin.Engine, h *handler.ProductHandler) {
	g := r.Group("/products")
	{
		g.GET("", h.List)
		g.GET("/search", h.Search)
		g.GET("/category/:categoryId", h.ByCategory)
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
