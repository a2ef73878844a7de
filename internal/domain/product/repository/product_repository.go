package repository

import (
	"context"
	"encoding/json"
	"errors"
	"seafood_shop/internal/domain/product/model"
	"seafood_shop/pkg/database"
	"seafood_shop/pkg/pagination"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("product not found")

type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) error
	GetByID(ctx context.Context, id string) (*model.Product, error)
	// ByName 按名称升序，categoryID 非空时只含该分类
	ByName(categoryID string) pagination.Source[model.Product]
	All(ctx context.Context) ([]model.Product, error)
	Update(ctx context.Context, p *model.Product) error
	Delete(ctx context.Context, id string) error
	// InOrders 是否有订单行引用该商品
	InOrders(ctx context.Context, id string) (bool, error)
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	var p model.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *productRepository) ByName(categoryID string) pagination.Source[model.Product] {
	src := pagination.GormSource[model.Product]{
		DB:     r.db,
		Column: "name",
		Key:    func(p model.Product) (any, string) { return p.Name, p.ID },
	}
	if categoryID != "" {
		src.Scopes = append(src.Scopes, func(db *gorm.DB) *gorm.DB {
			return db.Where("category_id = ?", categoryID)
		})
	}
	return src
}

func (r *productRepository) All(ctx context.Context) ([]model.Product, error) {
	var items []model.Product
	err := r.db.WithContext(ctx).Order("name ASC").Find(&items).Error
	return items, err
}

func (r *productRepository) Update(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *productRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Product{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// InOrders items 为 jsonb 数组，用包含运算符匹配 productId
func (r *productRepository) InOrders(ctx context.Context, id string) (bool, error) {
	probe, err := json.Marshal([]map[string]string{{"productId": id}})
	if err != nil {
		return false, err
	}
	var count int64
	err = r.db.WithContext(ctx).Table("orders").
		Where("deleted_at IS NULL AND items @> ?::jsonb", string(probe)).
		Count(&count).Error
	return count > 0, err
}
