package model

import (
	baseModel "seafood_shop/pkg/model"

	"github.com/shopspring/decimal"
)

// Status 订单状态，状态之间可任意流转
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusCompleted  Status = "completed"
)

// Statuses 全部状态，统计时按此顺序输出
var Statuses = []Status{
	StatusPending,
	StatusProcessing,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
	StatusCompleted,
}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

const PaymentCash = "cash"

// Item 订单行
type Item struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName,omitempty"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// Subtotal quantity × price
func (i Item) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order 订单
type Order struct {
	baseModel.BaseModel
	UserID          string                   `gorm:"type:uuid;index" json:"userId"`
	Items           baseModel.JSONList[Item] `gorm:"type:jsonb;not null;default:'[]'" json:"items"`
	TotalAmount     decimal.Decimal          `gorm:"type:numeric(14,2);not null" json:"totalAmount"`
	Status          Status                   `gorm:"type:varchar(16);not null;index" json:"status"`
	ShippingAddress string                   `json:"shippingAddress"`
	PaymentMethod   string                   `gorm:"type:varchar(32)" json:"paymentMethod"`
	TransactionID   string                   `gorm:"type:varchar(64);index" json:"transactionId,omitempty"`
	CustomerName    string                   `json:"customerName"`
	CustomerPhone   string                   `gorm:"type:varchar(32);index" json:"customerPhone"`
	CustomerAddress string                   `json:"customerAddress"`
	AmountGiven     decimal.Decimal          `gorm:"type:numeric(14,2);not null;default:0" json:"amountGiven"`
	ChangeAmount    decimal.Decimal          `gorm:"type:numeric(14,2);not null;default:0" json:"changeAmount"`
	VoucherCode     string                   `gorm:"type:varchar(64)" json:"voucherCode,omitempty"`
	DiscountAmount  decimal.Decimal          `gorm:"type:numeric(14,2);not null;default:0" json:"discountAmount"`
}

// ItemsTotal 各行小计之和
func (o *Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}
