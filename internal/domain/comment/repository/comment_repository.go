package repository

import (
	"context"
	"errors"
	"seafood_shop/internal/domain/comment/model"
	"seafood_shop/pkg/database"
	"seafood_shop/pkg/pagination"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("comment not found")

type CommentRepository interface {
	Create(ctx context.Context, c *model.Comment) error
	GetByID(ctx context.Context, id string) (*model.Comment, error)
	// Newest 全部评论（含回复）按创建时间倒序
	Newest() pagination.Source[model.Comment]
	// ByProduct 商品下的一级评论，按创建时间倒序
	ByProduct(productID string) pagination.Source[model.Comment]
	// Replies 一级评论下的全部回复，按创建时间升序
	Replies(ctx context.Context, rootID string) ([]model.Comment, error)
	Update(ctx context.Context, c *model.Comment) error
	// Delete 删除评论，一级评论连同回复一起删除
	Delete(ctx context.Context, id string) error
}

type commentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, c *model.Comment) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *commentRepository) GetByID(ctx context.Context, id string) (*model.Comment, error) {
	var c model.Comment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func newestSource(db *gorm.DB, scopes ...func(*gorm.DB) *gorm.DB) pagination.Source[model.Comment] {
	return pagination.GormSource[model.Comment]{
		DB:     db,
		Column: "created_at",
		Desc:   true,
		Key:    func(c model.Comment) (any, string) { return c.CreatedKey() },
		Scopes: scopes,
	}
}

func (r *commentRepository) Newest() pagination.Source[model.Comment] {
	return newestSource(r.db)
}

func (r *commentRepository) ByProduct(productID string) pagination.Source[model.Comment] {
	return newestSource(r.db, func(db *gorm.DB) *gorm.DB {
		return db.Where("product_id = ? AND parent_id IS NULL", productID)
	})
}

func (r *commentRepository) Replies(ctx context.Context, rootID string) ([]model.Comment, error) {
	var replies []model.Comment
	err := r.db.WithContext(ctx).Where("root_id = ?", rootID).Order("created_at ASC").Find(&replies).Error
	return replies, err
}

func (r *commentRepository) Update(ctx context.Context, c *model.Comment) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *commentRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ? OR root_id = ?", id, id).Delete(&model.Comment{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
