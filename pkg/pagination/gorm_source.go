package pagination

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// GormSource 基于 gorm 的有序集合
// 排序键之后追加 id 作为决胜列，保证 (key, id) 为严格全序
type GormSource[T any] struct {
	DB     *gorm.DB
	Column string
	Desc   bool
	// Key 返回 marker 的排序值与 id
	Key    func(T) (any, string)
	Scopes []func(*gorm.DB) *gorm.DB
}

func (s GormSource[T]) query(ctx context.Context) *gorm.DB {
	return s.DB.WithContext(ctx).Model(new(T)).Scopes(s.Scopes...)
}

func (s GormSource[T]) orderBy() string {
	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}
	return fmt.Sprintf("%s %s, id %s", s.Column, dir, dir)
}

func (s GormSource[T]) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := s.query(ctx).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (s GormSource[T]) Head(ctx context.Context, limit int) ([]T, error) {
	var items []T
	err := s.query(ctx).Order(s.orderBy()).Limit(limit).Find(&items).Error
	return items, err
}

func (s GormSource[T]) After(ctx context.Context, marker T, limit int) ([]T, error) {
	value, id := s.Key(marker)
	op := ">"
	if s.Desc {
		op = "<"
	}
	var items []T
	err := s.query(ctx).
		Where(fmt.Sprintf("(%s, id) %s (?, ?)", s.Column, op), value, id).
		Order(s.orderBy()).
		Limit(limit).
		Find(&items).Error
	return items, err
}
