package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"seafood_shop/internal/domain/product/model"
	"seafood_shop/internal/domain/product/service"
	"seafood_shop/pkg/pagination"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) List(ctx context.Context, page, pageSize int) (*pagination.Page[model.Product], error) {
	args := m.Called(page, pageSize)
	return args.Get(0).(*pagination.Page[model.Product]), args.Error(1)
}

func (m *MockProductService) Search(ctx context.Context, params service.SearchParams, page, pageSize int) (*pagination.Page[model.Product], error) {
	args := m.Called(params, page, pageSize)
	return args.Get(0).(*pagination.Page[model.Product]), args.Error(1)
}

func (m *MockProductService) ByCategory(ctx context.Context, categoryID string, page, pageSize int) (*pagination.Page[model.Product], error) {
	args := m.Called(categoryID, page, pageSize)
	return args.Get(0).(*pagination.Page[model.Product]), args.Error(1)
}

func (m *MockProductService) GetByID(ctx context.Context, id string) (*model.Product, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) Create(ctx context.Context, in service.ProductInput) (*model.Product, error) {
	args := m.Called(in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) Update(ctx context.Context, id string, in service.ProductInput) (*model.Product, error) {
	args := m.Called(id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) Delete(ctx context.Context, id string) error {
	return m.Called(id).Error(0)
}

func (m *MockProductService) InOrders(ctx context.Context, id string) (bool, error) {
	args := m.Called(id)
	return args.Bool(0), args.Error(1)
}

func newRouter(h *ProductHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/products/search", h.Search)
	r.POST("/products", h.Create)
	r.DELETE("/products/:id", h.Delete)
	return r
}

func serve(r *gin.Engine, method, url, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestDeleteInUseIs400(t *testing.T) {
	svc := new(MockProductService)
	svc.On("Delete", "p-1").Return(service.ErrInUse)

	w := serve(newRouter(NewProductHandler(svc)), http.MethodDelete, "/products/p-1", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "referenced by existing orders")
}

func TestSearchPassesPriceRange(t *testing.T) {
	svc := new(MockProductService)
	svc.On("Search", mock.MatchedBy(func(p service.SearchParams) bool {
		return p.Name == "tom" && p.MinPrice != nil && p.MinPrice.IntPart() == 100000 && p.MaxPrice == nil
	}), 1, 10).Return(&pagination.Page[model.Product]{Items: []model.Product{}, CurrentPage: 1}, nil)

	w := serve(newRouter(NewProductHandler(svc)), http.MethodGet, "/products/search?name=tom&minPrice=100000", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"products":[]`)
	svc.AssertExpectations(t)
}

func TestCreateMissingCategory(t *testing.T) {
	svc := new(MockProductService)
	svc.On("Create", mock.Anything).Return(nil, service.ErrCategoryNotFound)

	w := serve(newRouter(NewProductHandler(svc)), http.MethodPost, "/products", `{"name":"Mực","price":120000,"categoryId":"c-9"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateRequiresPrice(t *testing.T) {
	svc := new(MockProductService)

	w := serve(newRouter(NewProductHandler(svc)), http.MethodPost, "/products", `{"name":"Mực","categoryId":"c-1"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "Create", mock.Anything)
}

func TestCreateAcceptsZeroPrice(t *testing.T) {
	svc := new(MockProductService)
	svc.On("Create", mock.MatchedBy(func(in service.ProductInput) bool {
		return in.Price.IsZero()
	})).Return(&model.Product{Name: "Mực"}, nil)

	w := serve(newRouter(NewProductHandler(svc)), http.MethodPost, "/products", `{"name":"Mực","price":0,"categoryId":"c-1"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	svc.AssertExpectations(t)
}
