package model

import (
	baseModel "seafood_shop/pkg/model"

	"github.com/shopspring/decimal"
)

// Item 购物车行
type Item struct {
	ProductID string          `json:"productId" binding:"required"`
	Quantity  int             `json:"quantity" binding:"min=1"`
	Price     decimal.Decimal `json:"price"`
}

// Cart 购物车，一个用户可以有多个
type Cart struct {
	baseModel.BaseModel
	UserID string                   `gorm:"type:uuid;index;not null" json:"userId"`
	Items  baseModel.JSONList[Item] `gorm:"type:jsonb;not null;default:'[]'" json:"items"`
}
