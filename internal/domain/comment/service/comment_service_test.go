package service

import (
	"context"
	"fmt"
	"seafood_shop/internal/domain/comment/model"
	productModel "seafood_shop/internal/domain/product/model"
	productService "seafood_shop/internal/domain/product/service"
	"seafood_shop/internal/pkg/config"
	"seafood_shop/pkg/pagination"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCommentRepository struct {
	mock.Mock
	items []model.Comment
}

func (m *MockCommentRepository) Create(ctx context.Context, c *model.Comment) error {
	return m.Called(c).Error(0)
}

func (m *MockCommentRepository) GetByID(ctx context.Context, id string) (*model.Comment, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Comment), args.Error(1)
}

func (m *MockCommentRepository) Newest() pagination.Source[model.Comment] {
	return pagination.SliceSource[model.Comment]{Items: m.items, Key: func(c model.Comment) string { return c.ID }}
}

func (m *MockCommentRepository) ByProduct(productID string) pagination.Source[model.Comment] {
	var items []model.Comment
	for _, c := range m.items {
		if c.ProductID == productID && !c.IsReply() {
			items = append(items, c)
		}
	}
	return pagination.SliceSource[model.Comment]{Items: items, Key: func(c model.Comment) string { return c.ID }}
}

func (m *MockCommentRepository) Replies(ctx context.Context, rootID string) ([]model.Comment, error) {
	args := m.Called(rootID)
	return args.Get(0).([]model.Comment), args.Error(1)
}

func (m *MockCommentRepository) Update(ctx context.Context, c *model.Comment) error {
	return m.Called(c).Error(0)
}

func (m *MockCommentRepository) Delete(ctx context.Context, id string) error {
	return m.Called(id).Error(0)
}

type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) Exists(ctx context.Context, id string) (bool, error) {
	args := m.Called(id)
	return args.Bool(0), args.Error(1)
}

type MockProducts struct {
	mock.Mock
}

func (m *MockProducts) GetByID(ctx context.Context, id string) (*productModel.Product, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*productModel.Product), args.Error(1)
}

func ptr[T any](v T) *T { return &v }

func newComment(id, user, product string, rating int, at time.Time) model.Comment {
	c := model.Comment{UserID: user, ProductID: product, Content: "Cá tươi " + id, Rating: rating, Level: model.LevelTop}
	c.ID = id
	c.CreatedAt = at
	return c
}

func TestCreateComment(t *testing.T) {
	ctx := context.Background()

	t.Run("ok", func(t *testing.T) {
		repo, users, products := new(MockCommentRepository), new(MockUsers), new(MockProducts)
		users.On("Exists", "u1").Return(true, nil)
		products.On("GetByID", "p1").Return(&productModel.Product{Name: "Cua"}, nil)
		repo.On("Create", mock.AnythingOfType("*model.Comment")).Return(nil)

		c, err := NewCommentService(repo, users, products, config.SearchConfig{}).
			Create(ctx, CreateInput{UserID: "u1", ProductID: "p1", Content: "  Ngon  ", Rating: 5})
		require.NoError(t, err)
		assert.Equal(t, "Ngon", c.Content)
		assert.Equal(t, model.LevelTop, c.Level)
		assert.Nil(t, c.ParentID)
	})

	t.Run("missing user", func(t *testing.T) {
		users, products := new(MockUsers), new(MockProducts)
		users.On("Exists", "u1").Return(false, nil)
		products.On("GetByID", "p1").Return(&productModel.Product{}, nil)

		_, err := NewCommentService(new(MockCommentRepository), users, products, config.SearchConfig{}).
			Create(ctx, CreateInput{UserID: "u1", ProductID: "p1", Content: "x", Rating: 4})
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("missing product", func(t *testing.T) {
		users, products := new(MockUsers), new(MockProducts)
		users.On("Exists", "u1").Return(true, nil)
		products.On("GetByID", "p1").Return(nil, productService.ErrNotFound)

		_, err := NewCommentService(new(MockCommentRepository), users, products, config.SearchConfig{}).
			Create(ctx, CreateInput{UserID: "u1", ProductID: "p1", Content: "x", Rating: 4})
		assert.ErrorIs(t, err, ErrProductNotFound)
	})

	t.Run("rating out of range", func(t *testing.T) {
		svc := NewCommentService(new(MockCommentRepository), new(MockUsers), new(MockProducts), config.SearchConfig{})
		for _, rating := range []int{0, 6} {
			_, err := svc.Create(ctx, CreateInput{UserID: "u1", ProductID: "p1", Content: "x", Rating: rating})
			assert.ErrorIs(t, err, ErrInvalidInput)
		}
	})
}

func TestReplyAttachesToRoot(t *testing.T) {
	ctx := context.Background()
	repo := new(MockCommentRepository)
	svc := NewCommentService(repo, new(MockUsers), new(MockProducts), config.SearchConfig{})

	root := newComment("c1", "u1", "p1", 5, time.Now())
	repo.On("GetByID", "c1").Return(&root, nil)
	repo.On("Create", mock.AnythingOfType("*model.Comment")).Return(nil).Run(func(args mock.Arguments) {
		args.Get(0).(*model.Comment).ID = "r1"
	})

	first, err := svc.Reply(ctx, "c1", "admin-1", "Cảm ơn bạn")
	require.NoError(t, err)
	assert.Equal(t, 0, first.Rating)
	assert.Equal(t, "p1", first.ProductID)
	assert.Equal(t, "c1", *first.ParentID)
	assert.Equal(t, "c1", *first.RootID)
	assert.Equal(t, model.LevelReply, first.Level)

	repo.On("GetByID", "r1").Return(first, nil)
	second, err := svc.Reply(ctx, "r1", "u1", "Ok")
	require.NoError(t, err)
	assert.Equal(t, "r1", *second.ParentID)
	assert.Equal(t, "c1", *second.RootID)

	_, err = svc.Reply(ctx, "c1", "admin-1", "   ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestWithRepliesFromReply(t *testing.T) {
	repo := new(MockCommentRepository)
	root := newComment("c1", "u1", "p1", 5, time.Now())
	reply := newComment("r1", "admin", "p1", 0, time.Now())
	reply.ParentID, reply.RootID, reply.Level = ptr("c1"), ptr("c1"), model.LevelReply
	repo.On("GetByID", "r1").Return(&reply, nil)
	repo.On("GetByID", "c1").Return(&root, nil)
	repo.On("Replies", "c1").Return([]model.Comment{reply}, nil)

	c, err := NewCommentService(repo, nil, nil, config.SearchConfig{}).WithReplies(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "c1", c.ID)
	require.Len(t, c.Replies, 1)
	assert.Equal(t, "r1", c.Replies[0].ID)
}

func TestSearchComments(t *testing.T) {
	base := time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC)
	var items []model.Comment
	for i := 0; i < 10; i++ {
		// 按创建时间倒序
		items = append(items, newComment(fmt.Sprintf("c%d", i), fmt.Sprintf("u%d", i%2), "p1", i%5+1, base.AddDate(0, 0, -i)))
	}
	repo := &MockCommentRepository{items: items}
	svc := NewCommentService(repo, nil, nil, config.SearchConfig{BatchSize: 3})
	ctx := context.Background()

	page, err := svc.Search(ctx, SearchParams{UserID: "u1", MinRating: ptr(4)}, 1, 10)
	require.NoError(t, err)
	// u1: c1(2) c3(4) c5(1) c7(3) c9(5)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "c3", page.Items[0].ID)
	assert.Equal(t, "c9", page.Items[1].ID)

	from := base.AddDate(0, 0, -2)
	page, err = svc.Search(ctx, SearchParams{Content: "CÁ TƯƠI", StartDate: &from}, 1, 10)
	require.NoError(t, err)
	assert.Len(t, page.Items, 3)
}

func TestByProductSkipsReplies(t *testing.T) {
	top := newComment("c1", "u1", "p1", 5, time.Now())
	reply := newComment("r1", "admin", "p1", 0, time.Now())
	reply.ParentID = ptr("c1")
	repo := &MockCommentRepository{items: []model.Comment{reply, top}}

	page, err := NewCommentService(repo, nil, nil, config.SearchConfig{}).ByProduct(context.Background(), "p1", 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "c1", page.Items[0].ID)
}
