package service

import (
	"context"
	"seafood_shop/internal/domain/category/model"
	"seafood_shop/pkg/cache"
	"seafood_shop/pkg/pagination"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCategoryRepository struct {
	mock.Mock
	items []model.Category
}

func (m *MockCategoryRepository) Create(ctx context.Context, c *model.Category) error {
	return m.Called(c).Error(0)
}

func (m *MockCategoryRepository) GetByID(ctx context.Context, id string) (*model.Category, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Category), args.Error(1)
}

func (m *MockCategoryRepository) GetByName(ctx context.Context, name string) (*model.Category, error) {
	args := m.Called(name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Category), args.Error(1)
}

func (m *MockCategoryRepository) Exists(ctx context.Context, id string) (bool, error) {
	args := m.Called(id)
	return args.Bool(0), args.Error(1)
}

// ByName 记录调用次数以验证缓存命中
func (m *MockCategoryRepository) ByName() pagination.Source[model.Category] {
	m.Called()
	return pagination.SliceSource[model.Category]{Items: m.items, Key: func(c model.Category) string { return c.Name }}
}

func (m *MockCategoryRepository) All(ctx context.Context) ([]model.Category, error) {
	return m.items, nil
}

func (m *MockCategoryRepository) Update(ctx context.Context, c *model.Category) error {
	return m.Called(c).Error(0)
}

func (m *MockCategoryRepository) Delete(ctx context.Context, id string) error {
	return m.Called(id).Error(0)
}

func TestListIsCachedUntilWrite(t *testing.T) {
	repo := &MockCategoryRepository{items: []model.Category{{Name: "Cua"}, {Name: "Tôm"}}}
	repo.On("ByName").Return()
	repo.On("Create", mock.Anything).Return(nil)
	svc := NewCategoryService(repo, cache.NewMemoryCache())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		page, err := svc.List(ctx, 1, 10)
		require.NoError(t, err)
		assert.Len(t, page.Items, 2)
	}
	repo.AssertNumberOfCalls(t, "ByName", 1)

	_, err := svc.Create(ctx, CategoryInput{Name: "Mực"})
	require.NoError(t, err)

	_, err = svc.List(ctx, 1, 10)
	require.NoError(t, err)
	repo.AssertNumberOfCalls(t, "ByName", 2)
}

func TestSearchIgnoresAccents(t *testing.T) {
	repo := &MockCategoryRepository{items: []model.Category{{Name: "Cá biển"}, {Name: "Tôm hùm"}, {Name: "Cua"}}}
	svc := NewCategoryService(repo, cache.NewMemoryCache())

	page, err := svc.Search(context.Background(), "ca", 1, 10)

	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Cá biển", page.Items[0].Name)
}

func TestCreateRequiresName(t *testing.T) {
	repo := &MockCategoryRepository{}
	svc := NewCategoryService(repo, cache.NewMemoryCache())

	_, err := svc.Create(context.Background(), CategoryInput{})

	assert.ErrorIs(t, err, ErrInvalidInput)
	repo.AssertNotCalled(t, "Create", mock.Anything)
}
