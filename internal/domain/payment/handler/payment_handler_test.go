package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"seafood_shop/internal/domain/payment/model"
	"seafood_shop/internal/domain/payment/service"
	"seafood_shop/internal/domain/payment/strategy"
	userModel "seafood_shop/internal/domain/user/model"
	"seafood_shop/internal/pkg/middleware"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) RegisterStrategy(channel string, s strategy.PaymentStrategy) {}

func (m *MockPaymentService) Channels() []string {
	return []string{model.ChannelMoMo}
}

func (m *MockPaymentService) Checkout(ctx context.Context, userID string, in service.CheckoutInput) (*service.CheckoutResult, error) {
	args := m.Called(userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CheckoutResult), args.Error(1)
}

func (m *MockPaymentService) HandleNotify(ctx context.Context, channel string, params interface{}) (*service.CallbackResult, error) {
	args := m.Called(channel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CallbackResult), args.Error(1)
}

func (m *MockPaymentService) Status(ctx context.Context, orderNo string) (*service.StatusResult, error) {
	args := m.Called(orderNo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.StatusResult), args.Error(1)
}

func newRouter(h *PaymentHandler, userID, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/payment/notify/momo", h.MoMoNotify)
	r.POST("/payment/notify/alipay", h.AlipayNotify)

	auth := r.Group("/payment", func(c *gin.Context) {
		c.Set(middleware.CtxUserID, userID)
		c.Set(middleware.CtxRole, role)
		c.Next()
	})
	auth.POST("/checkout", h.Checkout)
	auth.GET("/status/:orderNo", h.Status)
	return r
}

func serve(r *gin.Engine, method, target, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCheckoutDefaultsToMoMo(t *testing.T) {
	svc := new(MockPaymentService)
	svc.On("Checkout", "u1", mock.MatchedBy(func(in service.CheckoutInput) bool {
		return in.Channel == model.ChannelMoMo && in.CustomerPhone == "" && len(in.Items) == 1
	})).Return(&service.CheckoutResult{OrderNo: "ORD1"}, nil)

	body := `{"items":[{"productId":"p1","quantity":1,"price":"50000"}],"customerPhone":"0900000000"}`
	w := serve(newRouter(NewPaymentHandler(svc), "u1", userModel.RoleCustomer), http.MethodPost, "/payment/checkout", "application/json", body)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestCheckoutRejectsUnknownChannel(t *testing.T) {
	svc := new(MockPaymentService)
	body := `{"channel":"paypal","items":[{"productId":"p1","quantity":1,"price":"1"}]}`
	w := serve(newRouter(NewPaymentHandler(svc), "u1", userModel.RoleCustomer), http.MethodPost, "/payment/checkout", "application/json", body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "Checkout", mock.Anything, mock.Anything)
}

func TestMoMoNotify(t *testing.T) {
	for name, tc := range map[string]struct {
		err  error
		code int
	}{
		"paid":          {nil, http.StatusOK},
		"failed result": {service.ErrPaymentFailed, http.StatusBadRequest},
		"bad signature": {strategy.ErrSignature, http.StatusBadRequest},
		"unknown order": {service.ErrNotFound, http.StatusNotFound},
	} {
		t.Run(name, func(t *testing.T) {
			svc := new(MockPaymentService)
			if tc.err == nil {
				svc.On("HandleNotify", model.ChannelMoMo).Return(&service.CallbackResult{OrderNo: "ORD1", OrderID: "o1"}, nil)
			} else {
				svc.On("HandleNotify", model.ChannelMoMo).Return(nil, tc.err)
			}

			w := serve(newRouter(NewPaymentHandler(svc), "", ""), http.MethodPost, "/payment/notify/momo", "application/json", `{"orderId":"ORD1"}`)
			assert.Equal(t, tc.code, w.Code)
		})
	}
}

func TestAlipayNotifyAcknowledgesClosedTrade(t *testing.T) {
	svc := new(MockPaymentService)
	svc.On("HandleNotify", model.ChannelAlipay).Return(nil, service.ErrPaymentFailed)

	form := url.Values{"out_trade_no": {"ORD1"}}.Encode()
	w := serve(newRouter(NewPaymentHandler(svc), "", ""), http.MethodPost, "/payment/notify/alipay", "application/x-www-form-urlencoded", form)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "success", w.Body.String())
}

func TestStatusOwnership(t *testing.T) {
	txn := &model.Transaction{OrderNo: "ORD1", UserID: "owner"}

	for _, tc := range []struct {
		name, user, role string
		code             int
	}{
		{"owner", "owner", userModel.RoleCustomer, http.StatusOK},
		{"admin", "root", userModel.RoleAdmin, http.StatusOK},
		{"stranger", "other", userModel.RoleCustomer, http.StatusForbidden},
	} {
		t.Run(tc.name, func(t *testing.T) {
			svc := new(MockPaymentService)
			svc.On("Status", "ORD1").Return(&service.StatusResult{Transaction: txn}, nil)

			w := serve(newRouter(NewPaymentHandler(svc), tc.user, tc.role), http.MethodGet, "/payment/status/ORD1", "", "")
			assert.Equal(t, tc.code, w.Code)
		})
	}
}
