package strategy

import (
	"context"
	"fmt"
	"net/url"
	"seafood_shop/internal/pkg/config"

	"github.com/shopspring/decimal"
	"github.com/smartwalle/alipay/v3"
)

type AlipayStrategy struct {
	client *alipay.Client
	config config.AlipayConfig
}

func NewAlipayStrategy(cfg config.AlipayConfig) (*AlipayStrategy, error) {
	if cfg.AppID == "" {
		return nil, ErrNotConfigured
	}

	client, err := alipay.New(cfg.AppID, cfg.PrivateKey, cfg.IsProduction)
	if err != nil {
		return nil, err
	}

	// 支付宝公钥用于回调验签
	if err = client.LoadAliPayPublicKey(cfg.PublicKey); err != nil {
		return nil, err
	}

	return &AlipayStrategy{
		client: client,
		config: cfg,
	}, nil
}

// Pay App 支付，返回签名后的参数串
func (s *AlipayStrategy) Pay(ctx context.Context, req PayRequest) (*PayResult, error) {
	p := alipay.TradeAppPay{}
	p.NotifyURL = s.config.NotifyURL
	p.Subject = req.Subject
	p.OutTradeNo = req.OrderNo
	p.TotalAmount = req.Amount.StringFixed(2)
	p.ProductCode = "QUICK_MSECURITY_PAY"

	result, err := s.client.TradeAppPay(p)
	if err != nil {
		return nil, err
	}
	return &PayResult{PayParams: result}, nil
}

// Notify params 为回调表单 url.Values
func (s *AlipayStrategy) Notify(ctx context.Context, params interface{}) (*Notification, error) {
	values, ok := params.(url.Values)
	if !ok {
		return nil, fmt.Errorf("%w: expected url.Values, got %T", ErrInvalidNotification, params)
	}

	noti, err := s.client.DecodeNotification(values)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignature, err)
	}

	amount, err := decimal.NewFromString(noti.TotalAmount)
	if err != nil {
		return nil, fmt.Errorf("%w: total_amount %q", ErrInvalidNotification, noti.TotalAmount)
	}

	// TRADE_SUCCESS 与 TRADE_FINISHED 都视为已支付
	success := noti.TradeStatus == alipay.TradeStatusSuccess || noti.TradeStatus == alipay.TradeStatusFinished
	code := 0
	if !success {
		code = 1
	}
	return &Notification{
		OrderNo:    noti.OutTradeNo,
		TransID:    noti.TradeNo,
		Amount:     amount,
		Success:    success,
		ResultCode: code,
		Message:    string(noti.TradeStatus),
	}, nil
}

var _ PaymentStrategy = (*AlipayStrategy)(nil)
