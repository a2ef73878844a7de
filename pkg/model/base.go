package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel 所有实体共用的主键与时间戳，主键为 UUID 字符串
type BaseModel struct {
	ID        string         `gorm:"primaryKey;type:uuid" json:"id"`
	CreatedAt time.Time      `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"index" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate 未指定主键时生成 UUID
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// CreatedKey 按创建时间分页时的游标键
func (b BaseModel) CreatedKey() (any, string) {
	return b.CreatedAt, b.ID
}

// UpdatedKey 按更新时间分页时的游标键
func (b BaseModel) UpdatedKey() (any, string) {
	return b.UpdatedAt, b.ID
}
