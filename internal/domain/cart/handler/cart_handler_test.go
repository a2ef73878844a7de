package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"seafood_shop/internal/domain/cart/model"
	"seafood_shop/internal/domain/cart/service"
	"seafood_shop/internal/pkg/middleware"
	"seafood_shop/pkg/pagination"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) List(ctx context.Context, page, pageSize int) (*pagination.Page[model.Cart], error) {
	args := m.Called(page, pageSize)
	return args.Get(0).(*pagination.Page[model.Cart]), args.Error(1)
}

func (m *MockCartService) Search(ctx context.Context, query string, page, pageSize int) (*pagination.Page[model.Cart], error) {
	args := m.Called(query, page, pageSize)
	return args.Get(0).(*pagination.Page[model.Cart]), args.Error(1)
}

func (m *MockCartService) GetByID(ctx context.Context, id string) (*model.Cart, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Cart), args.Error(1)
}

func (m *MockCartService) Create(ctx context.Context, userID string, items []model.Item) (*model.Cart, error) {
	args := m.Called(userID, items)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Cart), args.Error(1)
}

func (m *MockCartService) Update(ctx context.Context, id string, items []model.Item) (*model.Cart, error) {
	args := m.Called(id, items)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Cart), args.Error(1)
}

func (m *MockCartService) Delete(ctx context.Context, id string) error {
	return m.Called(id).Error(0)
}

func (m *MockCartService) ByUser(ctx context.Context, userID string) ([]model.Cart, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Cart), args.Error(1)
}

func newRouter(svc service.CartService, userID, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewCartHandler(svc)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.CtxUserID, userID)
		c.Set(middleware.CtxRole, role)
	})
	r.POST("/carts", h.Create)
	r.GET("/carts/user/:userId", h.ByUser)
	r.DELETE("/carts/:id", h.Delete)
	return r
}

func serve(r *gin.Engine, method, url, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateUsesCaller(t *testing.T) {
	svc := new(MockCartService)
	cart := &model.Cart{UserID: "u1"}
	cart.ID = "c1"
	svc.On("Create", "u1", mock.Anything).Return(cart, nil)

	w := serve(newRouter(svc, "u1", "customer"), http.MethodPost, "/carts", `{"userId":"u2","items":[{"productId":"p1","quantity":1,"price":10}]}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"cartId":"c1"`)
}

func TestCreateRejectsZeroQuantity(t *testing.T) {
	svc := new(MockCartService)
	w := serve(newRouter(svc, "u1", "customer"), http.MethodPost, "/carts", `{"items":[{"productId":"p1","quantity":0}]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteOwnership(t *testing.T) {
	cart := &model.Cart{UserID: "owner"}

	t.Run("stranger", func(t *testing.T) {
		svc := new(MockCartService)
		svc.On("GetByID", "c1").Return(cart, nil)
		w := serve(newRouter(svc, "stranger", "customer"), http.MethodDelete, "/carts/c1", "")
		assert.Equal(t, http.StatusForbidden, w.Code)
		svc.AssertNotCalled(t, "Delete", mock.Anything)
	})

	t.Run("admin", func(t *testing.T) {
		svc := new(MockCartService)
		svc.On("GetByID", "c1").Return(cart, nil)
		svc.On("Delete", "c1").Return(nil)
		w := serve(newRouter(svc, "boss", "admin"), http.MethodDelete, "/carts/c1", "")
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestByUserNotFound(t *testing.T) {
	svc := new(MockCartService)
	svc.On("ByUser", "u1").Return(nil, service.ErrNotFound)
	w := serve(newRouter(svc, "u1", "customer"), http.MethodGet, "/carts/user/u1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
