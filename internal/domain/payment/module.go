package payment

import (
	"context"
	"errors"
	"fmt"
	"seafood_shop/internal/domain/order"
	"seafood_shop/internal/domain/payment/handler"
	"seafood_shop/internal/domain/payment/model"
	"seafood_shop/internal/domain/payment/repository"
	"seafood_shop/internal/domain/payment/service"
	"seafood_shop/internal/domain/payment/strategy"
	"seafood_shop/internal/domain/user"
	"seafood_shop/internal/pkg/config"
	"seafood_shop/internal/pkg/middleware"
	"seafood_shop/internal/pkg/push"
	"seafood_shop/internal/pkg/registry"
	"seafood_shop/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PaymentModule 支付模块
type PaymentModule struct{}

func init() {
	registry.Register(&PaymentModule{})
}

func (m *PaymentModule) Name() string {
	return "payment"
}

func (m *PaymentModule) Priority() int {
	// 回调需要订单与用户服务
	return 40
}

func (m *PaymentModule) Init(ctx *registry.ModuleContext) error {
	// 1. 依赖注入
	orderSvc, err := ctx.Lookup(order.ServiceName)
	if err != nil {
		return err
	}
	orders, ok := orderSvc.(service.OrderCreator)
	if !ok {
		return fmt.Errorf("%s does not implement OrderCreator", order.ServiceName)
	}
	userSvc, err := ctx.Lookup(user.ServiceName)
	if err != nil {
		return err
	}
	rewards, ok := userSvc.(service.RewardAccruer)
	if !ok {
		return fmt.Errorf("%s does not implement RewardAccruer", user.ServiceName)
	}

	var pusher push.PushService = push.NoopPushService{}
	if aliyun, err := push.NewAliyunPushService(config.GlobalConfig.Push); err == nil {
		pusher = aliyun
	} else if !errors.Is(err, push.ErrNotConfigured) {
		logger.Log.Error("Failed to init push service", zap.Error(err))
	}

	var tasks service.TaskQueue
	if ctx.Tasks != nil {
		tasks = ctx.Tasks
	}

	pService := service.NewPaymentService(repository.NewPaymentRepository(ctx.DB), orders, rewards, pusher, tasks, ctx.Metrics)

	// 2. 注册支付策略，未配置的渠道跳过
	registerStrategies(pService)

	// 3. 路由注册
	setupRoutes(ctx.Router, handler.NewPaymentHandler(pService))
	return nil
}

func registerStrategies(svc service.PaymentService) {
	cfg := config.GlobalConfig

	if momo, err := strategy.NewMoMoStrategy(cfg.MoMo); err == nil {
		svc.RegisterStrategy(model.ChannelMoMo, momo)
	} else if !errors.Is(err, strategy.ErrNotConfigured) {
		logger.Log.Error("Failed to init MoMo strategy", zap.Error(err))
	}

	if alipay, err := strategy.NewAlipayStrategy(cfg.Alipay); err == nil {
		svc.RegisterStrategy(model.ChannelAlipay, alipay)
	} else if !errors.Is(err, strategy.ErrNotConfigured) {
		logger.Log.Error("Failed to init Alipay strategy", zap.Error(err))
	}

	if wechat, err := strategy.NewWechatStrategy(context.Background(), cfg.Wechat); err == nil {
		svc.RegisterStrategy(model.ChannelWechat, wechat)
	} else if !errors.Is(err, strategy.ErrNotConfigured) {
		logger.Log.Error("Failed to init Wechat strategy", zap.Error(err))
	}

	logger.Log.Info("payment channels ready", zap.Strings("channels", svc.Channels()))
}

func setupRoutes(r *gin.Engine, h *handler.PaymentHandler) {
	g := r.Group("/payment")

	// 支付回调 (无需鉴权，但需验签)
	g.GET("/channels", h.Channels)
	g.POST("/notify/momo", h.MoMoNotify)
	g.POST("/notify/alipay", h.AlipayNotify)
	g.POST("/notify/wechat", h.WechatNotify)

	auth := g.Group("")
	auth.Use(middleware.AuthMiddleware())
	{
		auth.POST("/checkout", h.Checkout)
		auth.GET("/status/:orderNo", h.Status)
	}
}
