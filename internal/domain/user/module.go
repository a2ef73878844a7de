package user

import (
	"errors"
	"seafood_shop/internal/domain/user/handler"
	"seafood_shop/internal/domain/user/repository"
	"seafood_shop/internal/domain/user/service"
	"seafood_shop/internal/pkg/config"
	"seafood_shop/internal/pkg/mailer"
	"seafood_shop/internal/pkg/middleware"
	"seafood_shop/internal/pkg/otp"
	"seafood_shop/internal/pkg/registry"
	"seafood_shop/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ServiceName 订单、评论、支付模块通过该名称获取用户服务
const ServiceName = "user.service"

// UserModule 用户模块
type UserModule struct{}

func init() {
	// 自动注册模块
	registry.Register(&UserModule{})
}

func (m *UserModule) Name() string {
	return "user"
}

func (m *UserModule) Priority() int {
	// 用户模块优先级最高，因为其他模块依赖它
	return 1
}

func (m *UserModule) Init(ctx *registry.ModuleContext) error {
	cfg := config.GlobalConfig

	// 1. 依赖注入
	var mail mailer.Mailer
	smtp, err := mailer.NewSMTPMailer(cfg.Mail)
	switch {
	case err == nil:
		mail = smtp
	case errors.Is(err, mailer.ErrNotConfigured):
		logger.Named("user").Warn("mail server not configured, staff invitations will not be delivered")
	default:
		return err
	}

	var tasks service.TaskQueue
	if ctx.Tasks != nil {
		tasks = ctx.Tasks
	}

	userRepo := repository.NewUserRepository(ctx.DB)
	userService := service.NewUserService(userRepo, otp.NewTokenStore(ctx.Redis), ctx.Cache, tasks, mail, service.Options{
		TempLoginTTL:     cfg.Auth.TempLoginTTL,
		LockCacheTTL:     cfg.Auth.LockCacheTTL,
		FrontendURL:      cfg.App.FrontendURL,
		DefaultAvatarURL: cfg.App.DefaultAvatarURL,
	})
	userHandler := handler.NewUserHandler(userService)

	middleware.SetAccountGuard(userService.IsLocked)
	ctx.Provide(ServiceName, userService)

	// 2. 路由注册
	setupRoutes(ctx.Router, userHandler)

	return nil
}

func setupRoutes(r *gin.Engine, h *handler.UserHandler) {
	g := r.Group("/users")

	// 公开路由
	{
		g.POST("/login", h.Login)
		g.POST("/refresh-token", h.RefreshToken)
		g.POST("/first-login", h.FirstLogin)
		g.GET("/verify-account/:token", h.VerifyAccount)
		g.POST("/resend-verification/:email", h.ResendVerification)
	}

	// 受保护的路由
	authorized := g.Group("")
	authorized.Use(middleware.AuthMiddleware())
	{
		authorized.POST("/change-password", h.ChangePassword)
		authorized.DELETE("/delete-data", h.DeleteData)
		authorized.GET("/:id", h.Get)
		authorized.PUT("/:id", h.Update)

		employee := authorized.Group("")
		employee.Use(middleware.EmployeeMiddleware())
		{
			employee.GET("/search", h.Search)
		}

		admin := authorized.Group("")
		admin.Use(middleware.AdminMiddleware())
		{
			admin.GET("", h.List)
			admin.GET("/check-admin-permission", h.CheckAdminPermission)
			admin.POST("", h.Create)
			admin.PUT("/:id/lock", h.Lock)
			admin.PUT("/:id/reward-points", h.AddRewardPoints)
			admin.DELETE("/:id", h.Delete)
		}
	}
}
