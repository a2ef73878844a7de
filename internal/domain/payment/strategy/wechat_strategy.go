package strategy

import (
	"context"
	"fmt"
	"net/http"
	"seafood_shop/internal/pkg/config"

	"github.com/shopspring/decimal"
	"github.com/wechatpay-apiv3/wechatpay-go/core"
	"github.com/wechatpay-apiv3/wechatpay-go/core/auth/verifiers"
	"github.com/wechatpay-apiv3/wechatpay-go/core/downloader"
	"github.com/wechatpay-apiv3/wechatpay-go/core/notify"
	"github.com/wechatpay-apiv3/wechatpay-go/core/option"
	"github.com/wechatpay-apiv3/wechatpay-go/services/payments"
	"github.com/wechatpay-apiv3/wechatpay-go/services/payments/app"
	"github.com/wechatpay-apiv3/wechatpay-go/utils"
)

var hundred = decimal.NewFromInt(100)

type WechatStrategy struct {
	client  *core.Client
	config  config.WechatPayConfig
	handler *notify.Handler
}

func NewWechatStrategy(ctx context.Context, cfg config.WechatPayConfig) (*WechatStrategy, error) {
	if cfg.MchID == "" {
		return nil, ErrNotConfigured
	}

	mchPrivateKey, err := utils.LoadPrivateKey(cfg.MchPrivateKey)
	if err != nil {
		return nil, err
	}

	// 自动下载并定期更新平台证书
	client, err := core.NewClient(ctx,
		option.WithWechatPayAutoAuthCipher(cfg.MchID, cfg.MchCertificateSerial, mchPrivateKey, cfg.APIv3Key),
	)
	if err != nil {
		return nil, err
	}

	certVisitor := downloader.MgrInstance().GetCertificateVisitor(cfg.MchID)
	handler := notify.NewNotifyHandler(cfg.APIv3Key, verifiers.NewSHA256WithRSAVerifier(certVisitor))

	return &WechatStrategy{
		client:  client,
		config:  cfg,
		handler: handler,
	}, nil
}

// Pay App 下单，金额单位为分
func (s *WechatStrategy) Pay(ctx context.Context, req PayRequest) (*PayResult, error) {
	fen := req.Amount.Mul(hundred).Round(0).IntPart()

	prepay := app.PrepayRequest{
		Appid:       core.String(s.config.AppID),
		Mchid:       core.String(s.config.MchID),
		Description: core.String(req.Subject),
		OutTradeNo:  core.String(req.OrderNo),
		Attach:      core.String(req.RequestID),
		NotifyUrl:   core.String(s.config.NotifyURL),
		Amount: &app.Amount{
			Total: core.Int64(fen),
		},
	}

	svc := app.AppApiService{Client: s.client}
	resp, _, err := svc.Prepay(ctx, prepay)
	if err != nil {
		return nil, err
	}
	return &PayResult{PayParams: *resp.PrepayId}, nil
}

// Notify params 为原始 *http.Request，签名信息在请求头中
func (s *WechatStrategy) Notify(ctx context.Context, params interface{}) (*Notification, error) {
	req, ok := params.(*http.Request)
	if !ok {
		return nil, fmt.Errorf("%w: expected *http.Request, got %T", ErrInvalidNotification, params)
	}

	transaction := new(payments.Transaction)
	if _, err := s.handler.ParseNotifyRequest(ctx, req, transaction); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignature, err)
	}
	if transaction.OutTradeNo == nil || transaction.Amount == nil || transaction.Amount.Total == nil {
		return nil, ErrInvalidNotification
	}

	state := ""
	if transaction.TradeState != nil {
		state = *transaction.TradeState
	}
	n := &Notification{
		OrderNo: *transaction.OutTradeNo,
		Amount:  decimal.NewFromInt(*transaction.Amount.Total).Div(hundred),
		Success: state == "SUCCESS",
		Message: state,
	}
	if transaction.TransactionId != nil {
		n.TransID = *transaction.TransactionId
	}
	if !n.Success {
		n.ResultCode = 1
	}
	return n, nil
}

var _ PaymentStrategy = (*WechatStrategy)(nil)
