package repository

import (
	"context"
	"errors"
	"seafood_shop/internal/domain/category/model"
	"seafood_shop/pkg/database"
	"seafood_shop/pkg/pagination"

	"gorm.io/gorm"
)

var (
	ErrNotFound   = errors.New("category not found")
	ErrNameExists = errors.New("category name already exists")
)

type CategoryRepository interface {
	Create(ctx context.Context, c *model.Category) error
	GetByID(ctx context.Context, id string) (*model.Category, error)
	GetByName(ctx context.Context, name string) (*model.Category, error)
	Exists(ctx context.Context, id string) (bool, error)
	// ByName 按名称升序
	ByName() pagination.Source[model.Category]
	All(ctx context.Context) ([]model.Category, error)
	Update(ctx context.Context, c *model.Category) error
	Delete(ctx context.Context, id string) error
}

type categoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func translate(err error) error {
	switch {
	case database.IsNotFound(err):
		return ErrNotFound
	case database.IsUniqueViolation(err):
		return ErrNameExists
	}
	return err
}

func (r *categoryRepository) Create(ctx context.Context, c *model.Category) error {
	return translate(r.db.WithContext(ctx).Create(c).Error)
}

func (r *categoryRepository) GetByID(ctx context.Context, id string) (*model.Category, error) {
	var c model.Category
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *categoryRepository) GetByName(ctx context.Context, name string) (*model.Category, error) {
	var c model.Category
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&c).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *categoryRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Category{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *categoryRepository) ByName() pagination.Source[model.Category] {
	return pagination.GormSource[model.Category]{
		DB:     r.db,
		Column: "name",
		Key:    func(c model.Category) (any, string) { return c.Name, c.ID },
	}
}

func (r *categoryRepository) All(ctx context.Context) ([]model.Category, error) {
	var items []model.Category
	err := r.db.WithContext(ctx).Order("name ASC").Find(&items).Error
	return items, err
}

func (r *categoryRepository) Update(ctx context.Context, c *model.Category) error {
	return translate(r.db.WithContext(ctx).Save(c).Error)
}

func (r *categoryRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Category{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
