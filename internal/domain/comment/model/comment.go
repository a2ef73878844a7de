package model

import (
	baseModel "seafood_shop/pkg/model"
)

const (
	MaxRating = 5

	// LevelTop 商品下的一级评论，LevelReply 回复，最多两层
	LevelTop   = 1
	LevelReply = 2
)

// Comment 商品评论及回复
type Comment struct {
	baseModel.BaseModel
	UserID    string                     `gorm:"type:uuid;index;not null" json:"userId"`
	ProductID string                     `gorm:"type:uuid;index;not null" json:"productId"`
	Content   string                     `gorm:"type:text;not null" json:"content"`
	Rating    int                        `gorm:"type:smallint;not null;default:0" json:"rating"` // 回复固定为 0
	Images    baseModel.JSONList[string] `gorm:"type:jsonb;not null;default:'[]'" json:"images"`
	ParentID  *string                    `gorm:"type:uuid;index" json:"parentId"` // 直接父评论
	RootID    *string                    `gorm:"type:uuid;index" json:"rootId,omitempty"` // 一级评论 id，查询回复用
	Level     int                        `gorm:"not null;default:1" json:"level"`

	Replies []Comment `gorm:"-" json:"replies,omitempty"`
}

func (c *Comment) IsReply() bool {
	return c.ParentID != nil
}

// Root 一级评论返回自身 id
func (c *Comment) Root() string {
	if c.RootID != nil {
		return *c.RootID
	}
	return c.ID
}
