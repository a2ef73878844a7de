package service

import (
	"context"
	"errors"
	"fmt"
	"seafood_shop/internal/domain/cart/model"
	"seafood_shop/internal/domain/cart/repository"
	"seafood_shop/internal/pkg/config"
	"seafood_shop/pkg/pagination"
	"seafood_shop/pkg/search"
)

var (
	ErrNotFound     = repository.ErrNotFound
	ErrInvalidInput = errors.New("invalid cart input")
)

type CartService interface {
	List(ctx context.Context, page, pageSize int) (*pagination.Page[model.Cart], error)
	// Search 按 userId 子串分批检索
	Search(ctx context.Context, query string, page, pageSize int) (*pagination.Page[model.Cart], error)
	GetByID(ctx context.Context, id string) (*model.Cart, error)
	Create(ctx context.Context, userID string, items []model.Item) (*model.Cart, error)
	Update(ctx context.Context, id string, items []model.Item) (*model.Cart, error)
	Delete(ctx context.Context, id string) error
	ByUser(ctx context.Context, userID string) ([]model.Cart, error)
}

type cartService struct {
	repo      repository.CartRepository
	searchCfg config.SearchConfig
}

func NewCartService(repo repository.CartRepository, searchCfg config.SearchConfig) CartService {
	return &cartService{repo: repo, searchCfg: searchCfg}
}

func (s *cartService) List(ctx context.Context, page, pageSize int) (*pagination.Page[model.Cart], error) {
	return pagination.Paginate(ctx, s.repo.Recent(), page, pageSize)
}

func (s *cartService) Search(ctx context.Context, query string, page, pageSize int) (*pagination.Page[model.Cart], error) {
	strategy := search.Batched[model.Cart]{
		Source:    s.repo.Recent(),
		BatchSize: s.searchCfg.BatchSize,
		Accurate:  s.searchCfg.Accurate,
	}
	return strategy.Search(ctx, func(c model.Cart) bool {
		return search.ContainsFold(c.UserID, query)
	}, page, pageSize)
}

func (s *cartService) GetByID(ctx context.Context, id string) (*model.Cart, error) {
	return s.repo.GetByID(ctx, id)
}

func validate(items []model.Item) error {
	for _, item := range items {
		if item.ProductID == "" || item.Quantity < 1 {
			return fmt.Errorf("%w: invalid item %q", ErrInvalidInput, item.ProductID)
		}
		if item.Price.IsNegative() {
			return fmt.Errorf("%w: negative price", ErrInvalidInput)
		}
	}
	return nil
}

func (s *cartService) Create(ctx context.Context, userID string, items []model.Item) (*model.Cart, error) {
	if err := validate(items); err != nil {
		return nil, err
	}
	c := &model.Cart{UserID: userID, Items: items}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Update 整体替换购物车行
func (s *cartService) Update(ctx context.Context, id string, items []model.Item) (*model.Cart, error) {
	if err := validate(items); err != nil {
		return nil, err
	}
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Items = items
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *cartService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// ByUser 没有购物车时返回 ErrNotFound
func (s *cartService) ByUser(ctx context.Context, userID string) ([]model.Cart, error) {
	carts, err := s.repo.ByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(carts) == 0 {
		return nil, ErrNotFound
	}
	return carts, nil
}
