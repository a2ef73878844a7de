package repository

import (
	"context"
	"errors"
	"seafood_shop/internal/domain/cart/model"
	"seafood_shop/pkg/database"
	"seafood_shop/pkg/pagination"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("cart not found")

type CartRepository interface {
	Create(ctx context.Context, c *model.Cart) error
	GetByID(ctx context.Context, id string) (*model.Cart, error)
	// Recent 按更新时间倒序
	Recent() pagination.Source[model.Cart]
	ByUser(ctx context.Context, userID string) ([]model.Cart, error)
	Update(ctx context.Context, c *model.Cart) error
	Delete(ctx context.Context, id string) error
}

type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) Create(ctx context.Context, c *model.Cart) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *cartRepository) GetByID(ctx context.Context, id string) (*model.Cart, error) {
	var c model.Cart
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *cartRepository) Recent() pagination.Source[model.Cart] {
	return pagination.GormSource[model.Cart]{
		DB:     r.db,
		Column: "updated_at",
		Desc:   true,
		Key:    func(c model.Cart) (any, string) { return c.UpdatedKey() },
	}
}

func (r *cartRepository) ByUser(ctx context.Context, userID string) ([]model.Cart, error) {
	var items []model.Cart
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("updated_at DESC").Find(&items).Error
	return items, err
}

func (r *cartRepository) Update(ctx context.Context, c *model.Cart) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *cartRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Cart{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
