package repository

import (
	"context"
	"encoding/json"
	"errors"
	"seafood_shop/internal/domain/order/model"
	"seafood_shop/pkg/database"
	"seafood_shop/pkg/pagination"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("order not found")

type OrderRepository interface {
	Create(ctx context.Context, o *model.Order) error
	GetByID(ctx context.Context, id string) (*model.Order, error)
	// Newest 按创建时间倒序，userID 非空时只含该用户
	Newest(userID string) pagination.Source[model.Order]
	All(ctx context.Context) ([]model.Order, error)
	Update(ctx context.Context, o *model.Order) error
	Delete(ctx context.Context, id string) error
	// HasPurchased 用户是否有包含该商品的已完成订单
	HasPurchased(ctx context.Context, userID, productID string) (bool, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, o *model.Order) error {
	return database.Conn(ctx, r.db).Create(o).Error
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*model.Order, error) {
	var o model.Order
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&o).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *orderRepository) Newest(userID string) pagination.Source[model.Order] {
	src := pagination.GormSource[model.Order]{
		DB:     r.db,
		Column: "created_at",
		Desc:   true,
		Key:    func(o model.Order) (any, string) { return o.CreatedKey() },
	}
	if userID != "" {
		src.Scopes = append(src.Scopes, func(db *gorm.DB) *gorm.DB {
			return db.Where("user_id = ?", userID)
		})
	}
	return src
}

func (r *orderRepository) All(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&orders).Error
	return orders, err
}

func (r *orderRepository) Update(ctx context.Context, o *model.Order) error {
	return r.db.WithContext(ctx).Save(o).Error
}

func (r *orderRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Order{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *orderRepository) HasPurchased(ctx context.Context, userID, productID string) (bool, error) {
	// 只带 productId 键，@> 才不会要求其他字段相等
	probe, err := json.Marshal([]map[string]string{{"productId": productID}})
	if err != nil {
		return false, err
	}
	var count int64
	err = r.db.WithContext(ctx).Model(&model.Order{}).
		Where("user_id = ? AND status = ? AND items @> ?::jsonb", userID, model.StatusCompleted, string(probe)).
		Count(&count).Error
	return count > 0, err
}
