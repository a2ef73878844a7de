package service

import (
	"context"
	"errors"
	"fmt"
	"seafood_shop/internal/domain/product/model"
	"seafood_shop/internal/domain/product/repository"
	"seafood_shop/pkg/pagination"
	"seafood_shop/pkg/search"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound         = repository.ErrNotFound
	ErrCategoryNotFound = errors.New("category not found")
	ErrInUse            = errors.New("product is referenced by existing orders")
	ErrInvalidInput     = errors.New("invalid product input")
)

// CategoryChecker 由分类模块提供
type CategoryChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// ProductInput 创建/更新字段
type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	CostPrice   decimal.Decimal
	Quantity    int
	Images      []string
	CategoryID  string
}

// SearchParams 商品检索条件，零值表示不限
type SearchParams struct {
	Name       string
	CategoryID string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
}

func (p SearchParams) Predicate() search.Predicate[model.Product] {
	return func(item model.Product) bool {
		if !search.MatchName(item.Name, p.Name) {
			return false
		}
		if p.CategoryID != "" && item.CategoryID != p.CategoryID {
			return false
		}
		return search.DecimalBetween(item.Price, p.MinPrice, p.MaxPrice)
	}
}

type ProductService interface {
	List(ctx context.Context, page, pageSize int) (*pagination.Page[model.Product], error)
	Search(ctx context.Context, params SearchParams, page, pageSize int) (*pagination.Page[model.Product], error)
	ByCategory(ctx context.Context, categoryID string, page, pageSize int) (*pagination.Page[model.Product], error)
	GetByID(ctx context.Context, id string) (*model.Product, error)
	Create(ctx context.Context, in ProductInput) (*model.Product, error)
	Update(ctx context.Context, id string, in ProductInput) (*model.Product, error)
	Delete(ctx context.Context, id string) error
	InOrders(ctx context.Context, id string) (bool, error)
}

type productService struct {
	repo       repository.ProductRepository
	categories CategoryChecker
}

func NewProductService(repo repository.ProductRepository, categories CategoryChecker) ProductService {
	return &productService{repo: repo, categories: categories}
}

func (s *productService) List(ctx context.Context, page, pageSize int) (*pagination.Page[model.Product], error) {
	return pagination.Paginate(ctx, s.repo.ByName(""), page, pageSize)
}

// Search 全量加载后过滤，名称匹配忽略声调
func (s *productService) Search(ctx context.Context, params SearchParams, page, pageSize int) (*pagination.Page[model.Product], error) {
	strategy := search.FullScan[model.Product]{Load: s.repo.All}
	return strategy.Search(ctx, params.Predicate(), page, pageSize)
}

func (s *productService) ByCategory(ctx context.Context, categoryID string, page, pageSize int) (*pagination.Page[model.Product], error) {
	return pagination.Paginate(ctx, s.repo.ByName(categoryID), page, pageSize)
}

func (s *productService) GetByID(ctx context.Context, id string) (*model.Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *productService) validate(ctx context.Context, in ProductInput) error {
	switch {
	case in.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	case in.Price.IsNegative(), in.CostPrice.IsNegative():
		return fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	case in.Quantity < 0:
		return fmt.Errorf("%w: quantity must not be negative", ErrInvalidInput)
	case in.CategoryID == "":
		return fmt.Errorf("%w: categoryId is required", ErrInvalidInput)
	}

	ok, err := s.categories.Exists(ctx, in.CategoryID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCategoryNotFound
	}
	return nil
}

func apply(p *model.Product, in ProductInput) {
	p.Name = in.Name
	p.Description = in.Description
	p.Price = in.Price
	p.CostPrice = in.CostPrice
	p.Quantity = in.Quantity
	p.Images = in.Images
	p.CategoryID = in.CategoryID
}

func (s *productService) Create(ctx context.Context, in ProductInput) (*model.Product, error) {
	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}
	p := &model.Product{}
	apply(p, in)
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *productService) Update(ctx context.Context, id string, in ProductInput) (*model.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}
	apply(p, in)
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete 仍被订单引用的商品不可删除
func (s *productService) Delete(ctx context.Context, id string) error {
	used, err := s.repo.InOrders(ctx, id)
	if err != nil {
		return err
	}
	if used {
		return ErrInUse
	}
	return s.repo.Delete(ctx, id)
}

func (s *productService) InOrders(ctx context.Context, id string) (bool, error) {
	return s.repo.InOrders(ctx, id)
}
