package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	orderModel "seafood_shop/internal/domain/order/model"
	baseModel "seafood_shop/pkg/model"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
	StatusFailed  Status = "failed"
)

const (
	ChannelMoMo   = "momo"
	ChannelAlipay = "alipay"
	ChannelWechat = "wechat"
)

// OrderPayload 支付成功后用于生成订单的快照
type OrderPayload struct {
	UserID          string            `json:"userId"`
	Items           []orderModel.Item `json:"items"`
	ShippingAddress string            `json:"shippingAddress,omitempty"`
	CustomerName    string            `json:"customerName,omitempty"`
	CustomerPhone   string            `json:"customerPhone,omitempty"`
	CustomerAddress string            `json:"customerAddress,omitempty"`
}

func (p OrderPayload) Value() (driver.Value, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (p *OrderPayload) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*p = OrderPayload{}
		return nil
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	default:
		return fmt.Errorf("unsupported jsonb type %T", value)
	}
}

// Transaction 一次网关支付
type Transaction struct {
	baseModel.BaseModel
	OrderNo        string          `gorm:"uniqueIndex;not null" json:"orderNo"`
	RequestID      string          `gorm:"not null" json:"requestId"`
	UserID         string          `gorm:"type:uuid;index" json:"userId"`
	Amount         decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	Channel        string          `gorm:"not null" json:"channel"`
	Status         Status          `gorm:"default:'pending';index" json:"status"`
	Payload        OrderPayload    `gorm:"type:jsonb;not null" json:"payload"`
	GatewayTransID string          `json:"gatewayTransId,omitempty"`
	ResultCode     int             `json:"resultCode"`
	Message        string          `json:"message,omitempty"`
	OrderID        *string         `gorm:"type:uuid" json:"orderId,omitempty"`
	PaidAt         *time.Time      `json:"paidAt,omitempty"`
}

func (Transaction) TableName() string {
	return "payment_transactions"
}
