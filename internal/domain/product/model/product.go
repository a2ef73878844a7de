package model

import (
	baseModel "seafood_shop/pkg/model"

	"github.com/shopspring/decimal"
)

// Product 商品
type Product struct {
	baseModel.BaseModel
	Name        string                     `gorm:"type:varchar(255);not null;index" json:"name"`
	Description string                     `json:"description"`
	Price       decimal.Decimal            `gorm:"type:numeric(14,2);not null" json:"price"`
	CostPrice   decimal.Decimal            `gorm:"type:numeric(14,2);not null;default:0" json:"costPrice"`
	Quantity    int                        `gorm:"not null;default:0" json:"quantity"`
	Images      baseModel.JSONList[string] `gorm:"type:jsonb;not null;default:'[]'" json:"images"`
	CategoryID  string                     `gorm:"type:uuid;index" json:"categoryId"`
}
