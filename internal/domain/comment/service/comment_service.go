package service

import (
	"context"
	"errors"
	"fmt"
	"seafood_shop/internal/domain/comment/model"
	"seafood_shop/internal/domain/comment/repository"
	productModel "seafood_shop/internal/domain/product/model"
	productService "seafood_shop/internal/domain/product/service"
	"seafood_shop/internal/pkg/config"
	"seafood_shop/pkg/pagination"
	"seafood_shop/pkg/search"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

var (
	ErrNotFound        = repository.ErrNotFound
	ErrUserNotFound    = errors.New("user not found")
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidInput    = errors.New("invalid comment input")
)

// UserChecker 由用户模块提供
type UserChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// ProductLookup 由商品模块提供
type ProductLookup interface {
	GetByID(ctx context.Context, id string) (*productModel.Product, error)
}

type CreateInput struct {
	UserID    string
	ProductID string
	Content   string
	Rating    int
	Images    []string
}

// UpdateInput nil 字段不修改
type UpdateInput struct {
	Content *string
	Rating  *int
	Images  []string
}

type SearchParams struct {
	Content   string
	UserID    string
	ProductID string
	MinRating *int
	MaxRating *int
	StartDate *time.Time
	EndDate   *time.Time
}

func (p SearchParams) Predicate() search.Predicate[model.Comment] {
	return func(c model.Comment) bool {
		if p.UserID != "" && c.UserID != p.UserID {
			return false
		}
		if p.ProductID != "" && c.ProductID != p.ProductID {
			return false
		}
		return search.ContainsFold(c.Content, p.Content) &&
			search.IntBetween(c.Rating, p.MinRating, p.MaxRating) &&
			search.TimeBetween(c.CreatedAt, p.StartDate, p.EndDate)
	}
}

type CommentService interface {
	List(ctx context.Context, page, pageSize int) (*pagination.Page[model.Comment], error)
	Search(ctx context.Context, params SearchParams, page, pageSize int) (*pagination.Page[model.Comment], error)
	ByProduct(ctx context.Context, productID string, page, pageSize int) (*pagination.Page[model.Comment], error)
	GetByID(ctx context.Context, id string) (*model.Comment, error)
	WithReplies(ctx context.Context, id string) (*model.Comment, error)
	Create(ctx context.Context, in CreateInput) (*model.Comment, error)
	Update(ctx context.Context, id string, in UpdateInput) (*model.Comment, error)
	Delete(ctx context.Context, id string) error
	Reply(ctx context.Context, parentID, userID, content string) (*model.Comment, error)
}

type commentService struct {
	repo      repository.CommentRepository
	users     UserChecker
	products  ProductLookup
	searchCfg config.SearchConfig
}

func NewCommentService(repo repository.CommentRepository, users UserChecker, products ProductLookup, searchCfg config.SearchConfig) CommentService {
	return &commentService{repo: repo, users: users, products: products, searchCfg: searchCfg}
}

func (s *commentService) List(ctx context.Context, page, pageSize int) (*pagination.Page[model.Comment], error) {
	return pagination.Paginate(ctx, s.repo.Newest(), page, pageSize)
}

func (s *commentService) Search(ctx context.Context, params SearchParams, page, pageSize int) (*pagination.Page[model.Comment], error) {
	strategy := search.Batched[model.Comment]{
		Source:    s.repo.Newest(),
		BatchSize: s.searchCfg.BatchSize,
		Accurate:  s.searchCfg.Accurate,
	}
	return strategy.Search(ctx, params.Predicate(), page, pageSize)
}

func (s *commentService) ByProduct(ctx context.Context, productID string, page, pageSize int) (*pagination.Page[model.Comment], error) {
	return pagination.Paginate(ctx, s.repo.ByProduct(productID), page, pageSize)
}

func (s *commentService) GetByID(ctx context.Context, id string) (*model.Comment, error) {
	return s.repo.GetByID(ctx, id)
}

// WithReplies 回复挂在一级评论下，传入回复 id 时返回其所在的整棵评论
func (s *commentService) WithReplies(ctx context.Context, id string) (*model.Comment, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.IsReply() {
		if c, err = s.repo.GetByID(ctx, c.Root()); err != nil {
			return nil, err
		}
	}
	replies, err := s.repo.Replies(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.Replies = replies
	return c, nil
}

func validateRating(rating int) error {
	if rating < 1 || rating > model.MaxRating {
		return fmt.Errorf("%w: rating must be within [1, %d]", ErrInvalidInput, model.MaxRating)
	}
	return nil
}

// Create 用户与商品并发校验存在性
func (s *commentService) Create(ctx context.Context, in CreateInput) (*model.Comment, error) {
	in.Content = strings.TrimSpace(in.Content)
	if in.UserID == "" || in.ProductID == "" || in.Content == "" {
		return nil, fmt.Errorf("%w: userId, productId and content are required", ErrInvalidInput)
	}
	if err := validateRating(in.Rating); err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ok, err := s.users.Exists(gctx, in.UserID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrUserNotFound
		}
		return nil
	})
	g.Go(func() error {
		_, err := s.products.GetByID(gctx, in.ProductID)
		if errors.Is(err, productService.ErrNotFound) {
			return ErrProductNotFound
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c := &model.Comment{
		UserID:    in.UserID,
		ProductID: in.ProductID,
		Content:   in.Content,
		Rating:    in.Rating,
		Images:    in.Images,
		Level:     model.LevelTop,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *commentService) Update(ctx context.Context, id string, in UpdateInput) (*model.Comment, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Content != nil {
		content := strings.TrimSpace(*in.Content)
		if content == "" {
			return nil, fmt.Errorf("%w: content must not be empty", ErrInvalidInput)
		}
		c.Content = content
	}
	if in.Rating != nil && !c.IsReply() {
		if err := validateRating(*in.Rating); err != nil {
			return nil, err
		}
		c.Rating = *in.Rating
	}
	if in.Images != nil {
		c.Images = in.Images
	}

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *commentService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// Reply 回复不计评分，回复的回复仍挂在同一个一级评论下
func (s *commentService) Reply(ctx context.Context, parentID, userID, content string) (*model.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: reply content must not be empty", ErrInvalidInput)
	}

	parent, err := s.repo.GetByID(ctx, parentID)
	if err != nil {
		return nil, err
	}

	rootID := parent.Root()
	reply := &model.Comment{
		UserID:    userID,
		ProductID: parent.ProductID,
		Content:   content,
		Rating:    0,
		ParentID:  &parent.ID,
		RootID:    &rootID,
		Level:     model.LevelReply,
	}
	if err := s.repo.Create(ctx, reply); err != nil {
		return nil, err
	}
	return reply, nil
}
