package comment

import (
	"fmt"
	"seafood_shop/internal/domain/comment/handler"
	"seafood_shop/internal/domain/comment/repository"
	"seafood_shop/internal/domain/comment/service"
	"seafood_shop/internal/domain/product"
	"seafood_shop/internal/domain/user"
	"seafood_shop/internal/pkg/config"
	"seafood_shop/internal/pkg/middleware"
	"seafood_shop/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// CommentModule 商品评论模块
type CommentModule struct{}

func init() {
	registry.Register(&CommentModule{})
}

func (m *CommentModule) Name() string {
	return "comment"
}

func (m *CommentModule) Priority() int {
	return 30
}

func (m *CommentModule) Init(ctx *registry.ModuleContext) error {
	// 1. 依赖注入
	userSvc, err := ctx.Lookup(user.ServiceName)
	if err != nil {
		return err
	}
	users, ok := userSvc.(service.UserChecker)
	if !ok {
		return fmt.Errorf("%s does not implement UserChecker", user.ServiceName)
	}
	productSvc, err := ctx.Lookup(product.ServiceName)
	if err != nil {
		return err
	}
	products, ok := productSvc.(service.ProductLookup)
	if !ok {
		return fmt.Errorf("%s does not implement ProductLookup", product.ServiceName)
	}

	cService := service.NewCommentService(repository.NewCommentRepository(ctx.DB), users, products, config.GlobalConfig.Search)

	// 2. 路由注册
	setupRoutes(ctx.Router, handler.NewCommentHandler(cService))
	return nil
}

func setupRoutes(r *gin.Engine, h *handler.CommentHandler) {
	g := r.Group("/comments")
	{
		g.GET("", h.List)
		g.GET("/product/:productId", h.ByProduct)
		g.GET("/:id", h.Get)
		g.GET("/:id/with-replies", h.WithReplies)
	}

	auth := g.Group("")
	auth.Use(middleware.AuthMiddleware())
	{
		auth.GET("/search", h.Search)
		auth.POST("", h.Create)
		auth.PUT("/:id", h.Update)
		auth.DELETE("/:id", h.Delete)
	}

	admin := g.Group("")
	admin.Use(middleware.AuthMiddleware(), middleware.AdminMiddleware())
	{
		admin.POST("/:id/reply", h.Reply)
	}
}
