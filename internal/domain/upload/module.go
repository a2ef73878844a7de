package upload

import (
	"seafood_shop/internal/domain/upload/handler"
	"seafood_shop/internal/pkg/config"
	"seafood_shop/internal/pkg/middleware"
	"seafood_shop/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// UploadModule 对象存储上传
type UploadModule struct{}

func init() {
	registry.Register(&UploadModule{})
}

func (m *UploadModule) Name() string {
	return "upload"
}

func (m *UploadModule) Priority() int {
	return 50
}

func (m *UploadModule) Init(ctx *registry.ModuleContext) error {
	// 未配置 OSS 时接口返回 503
	setupRoutes(ctx.Router, handler.NewUploadHandler(ctx.Uploader, config.GlobalConfig.OSS))
	return nil
}

func setupRoutes(r *gin.Engine, h *handler.UploadHandler) {
	g := r.Group("/uploads")
	g.Use(middleware.AuthMiddleware())
	{
		g.POST("/presigned-url", h.PresignedURL)
		g.POST("/image", h.Image)
		g.POST("/images", h.Images)
	}
}
