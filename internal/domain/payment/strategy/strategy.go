package strategy

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrNotConfigured       = errors.New("payment channel is not configured")
	ErrInvalidNotification = errors.New("invalid payment notification")
	ErrSignature           = errors.New("payment signature mismatch")
	ErrGateway             = errors.New("payment gateway rejected the request")
)

// PayRequest 发起支付所需字段
type PayRequest struct {
	OrderNo   string
	RequestID string
	Amount    decimal.Decimal
	Subject   string
	ExtraData string // 原样回传的附加数据
}

// PayResult 网关返回给客户端的支付参数，按渠道填充其中一部分
type PayResult struct {
	PayURL    string `json:"payUrl,omitempty"`
	Deeplink  string `json:"deeplink,omitempty"`
	QRCodeURL string `json:"qrCodeUrl,omitempty"`
	PayParams string `json:"payParams,omitempty"` // App 支付串或 prepay_id
}

// Notification 验签后的回调或查询结果
type Notification struct {
	OrderNo    string          `json:"orderNo"`
	TransID    string          `json:"transId,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	Success    bool            `json:"success"`
	ResultCode int             `json:"resultCode"`
	Message    string          `json:"message,omitempty"`
}

type PaymentStrategy interface {
	// Pay 发起支付
	Pay(ctx context.Context, req PayRequest) (*PayResult, error)

	// Notify 验证并解析回调，params 的类型由渠道决定
	Notify(ctx context.Context, params interface{}) (*Notification, error)
}

// StatusQuerier 支持主动查询交易状态的渠道
type StatusQuerier interface {
	Query(ctx context.Context, orderNo, requestID string) (*Notification, error)
}
