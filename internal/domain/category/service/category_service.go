package service

import (
	"context"
	"errors"
	"fmt"
	"seafood_shop/internal/domain/category/model"
	"seafood_shop/internal/domain/category/repository"
	"seafood_shop/pkg/cache"
	"seafood_shop/pkg/logger"
	"seafood_shop/pkg/pagination"
	"seafood_shop/pkg/search"
	"time"

	"go.uber.org/zap"
)

var (
	ErrNotFound     = repository.ErrNotFound
	ErrNameExists   = repository.ErrNameExists
	ErrInvalidInput = errors.New("invalid category input")
)

const (
	cachePrefix = "category:"
	cacheTTL    = 10 * time.Minute
)

// CategoryInput 创建/更新字段
type CategoryInput struct {
	Name        string
	Description string
	ImageURL    string
}

type CategoryService interface {
	List(ctx context.Context, page, pageSize int) (*pagination.Page[model.Category], error)
	Search(ctx context.Context, name string, page, pageSize int) (*pagination.Page[model.Category], error)
	GetByID(ctx context.Context, id string) (*model.Category, error)
	GetByName(ctx context.Context, name string) (*model.Category, error)
	Exists(ctx context.Context, id string) (bool, error)
	Create(ctx context.Context, in CategoryInput) (*model.Category, error)
	Update(ctx context.Context, id string, in CategoryInput) (*model.Category, error)
	Delete(ctx context.Context, id string) error
}

type categoryService struct {
	repo  repository.CategoryRepository
	cache cache.CacheService
	log   *zap.Logger
}

// NewCategoryService 列表页读多写少，结果缓存在 cache 中，写操作整体失效
func NewCategoryService(repo repository.CategoryRepository, c cache.CacheService) CategoryService {
	return &categoryService{repo: repo, cache: c, log: logger.Named("category")}
}

func (s *categoryService) List(ctx context.Context, page, pageSize int) (*pagination.Page[model.Category], error) {
	key := fmt.Sprintf("%slist:%d:%d", cachePrefix, page, pageSize)

	var cached pagination.Page[model.Category]
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	result, err := pagination.Paginate(ctx, s.repo.ByName(), page, pageSize)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, result, cacheTTL); err != nil {
		s.log.Warn("cache category page failed", zap.String("key", key), zap.Error(err))
	}
	return result, nil
}

func (s *categoryService) Search(ctx context.Context, name string, page, pageSize int) (*pagination.Page[model.Category], error) {
	strategy := search.FullScan[model.Category]{Load: s.repo.All}
	return strategy.Search(ctx, func(c model.Category) bool {
		return search.MatchName(c.Name, name)
	}, page, pageSize)
}

func (s *categoryService) GetByID(ctx context.Context, id string) (*model.Category, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *categoryService) GetByName(ctx context.Context, name string) (*model.Category, error) {
	return s.repo.GetByName(ctx, name)
}

func (s *categoryService) Exists(ctx context.Context, id string) (bool, error) {
	return s.repo.Exists(ctx, id)
}

func validate(in CategoryInput) error {
	if in.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	return nil
}

func (s *categoryService) Create(ctx context.Context, in CategoryInput) (*model.Category, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	c := &model.Category{Name: in.Name, Description: in.Description, ImageURL: in.ImageURL}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return c, nil
}

func (s *categoryService) Update(ctx context.Context, id string, in CategoryInput) (*model.Category, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Name = in.Name
	c.Description = in.Description
	c.ImageURL = in.ImageURL
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return c, nil
}

// Delete 不级联删除商品
func (s *categoryService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *categoryService) invalidate(ctx context.Context) {
	if err := s.cache.InvalidatePattern(ctx, cachePrefix+"*"); err != nil {
		s.log.Warn("invalidate category cache failed", zap.Error(err))
	}
}
