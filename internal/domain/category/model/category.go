package model

import (
	baseModel "seafood_shop/pkg/model"
)

// Category 商品分类
type Category struct {
	baseModel.BaseModel
	Name        string `gorm:"type:varchar(255);not null;uniqueIndex" json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
}
