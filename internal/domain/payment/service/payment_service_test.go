package service

import (
	"context"
	"errors"
	orderModel "seafood_shop/internal/domain/order/model"
	orderService "seafood_shop/internal/domain/order/service"
	"seafood_shop/internal/domain/payment/model"
	"seafood_shop/internal/domain/payment/strategy"
	"seafood_shop/internal/pkg/push"
	"seafood_shop/internal/pkg/worker"
	"seafood_shop/pkg/metrics"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, txn *model.Transaction) error {
	return m.Called(txn).Error(0)
}

func (m *MockPaymentRepository) GetByOrderNo(ctx context.Context, orderNo string) (*model.Transaction, error) {
	args := m.Called(orderNo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transaction), args.Error(1)
}

func (m *MockPaymentRepository) MarkPaid(ctx context.Context, orderNo, gatewayTransID string, paidAt time.Time) (bool, error) {
	args := m.Called(orderNo, gatewayTransID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPaymentRepository) MarkFailed(ctx context.Context, orderNo string, resultCode int, message string) (bool, error) {
	args := m.Called(orderNo, resultCode)
	return args.Bool(0), args.Error(1)
}

func (m *MockPaymentRepository) Reopen(ctx context.Context, orderNo string) error {
	return m.Called(orderNo).Error(0)
}

func (m *MockPaymentRepository) AttachOrder(ctx context.Context, orderNo, orderID string) error {
	return m.Called(orderNo, orderID).Error(0)
}

type MockOrders struct {
	mock.Mock
}

func (m *MockOrders) Create(ctx context.Context, userID string, in orderService.CreateInput) (*orderModel.Order, error) {
	args := m.Called(userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orderModel.Order), args.Error(1)
}

type MockRewards struct {
	mock.Mock
}

func (m *MockRewards) AddRewardPoints(ctx context.Context, id string, points int) (int, error) {
	args := m.Called(id, points)
	return args.Int(0), args.Error(1)
}

type MockStrategy struct {
	mock.Mock
}

func (m *MockStrategy) Pay(ctx context.Context, req strategy.PayRequest) (*strategy.PayResult, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*strategy.PayResult), args.Error(1)
}

func (m *MockStrategy) Notify(ctx context.Context, params interface{}) (*strategy.Notification, error) {
	args := m.Called(params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*strategy.Notification), args.Error(1)
}

// queryingStrategy 同时支持状态查询
type queryingStrategy struct {
	MockStrategy
}

func (m *queryingStrategy) Query(ctx context.Context, orderNo, requestID string) (*strategy.Notification, error) {
	args := m.Called(orderNo, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*strategy.Notification), args.Error(1)
}

type recordingQueue struct {
	tasks []worker.Task
	full  bool
}

func (q *recordingQueue) AddTask(task worker.Task) bool {
	if q.full {
		return false
	}
	q.tasks = append(q.tasks, task)
	return true
}

type fixture struct {
	repo    *MockPaymentRepository
	orders  *MockOrders
	rewards *MockRewards
	queue   *recordingQueue
	momo    *MockStrategy
	svc     PaymentService
}

func newFixture() *fixture {
	f := &fixture{
		repo:    new(MockPaymentRepository),
		orders:  new(MockOrders),
		rewards: new(MockRewards),
		queue:   &recordingQueue{},
		momo:    new(MockStrategy),
	}
	f.svc = NewPaymentService(f.repo, f.orders, f.rewards, push.NoopPushService{}, f.queue, metrics.NewMetricsCollector(prometheus.NewRegistry()))
	f.svc.RegisterStrategy(model.ChannelMoMo, f.momo)
	return f
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func pendingTxn() *model.Transaction {
	txn := &model.Transaction{
		OrderNo:   "ORD1",
		RequestID: "req-1",
		UserID:    "u1",
		Amount:    dec("125500"),
		Channel:   model.ChannelMoMo,
		Status:    model.StatusPending,
		Payload: model.OrderPayload{
			UserID:          "u1",
			Items:           []orderModel.Item{{ProductID: "p1", Quantity: 1, Price: dec("125500")}},
			ShippingAddress: "12 Tran Hung Dao",
		},
	}
	txn.ID = "t1"
	return txn
}

func placedOrder(id, userID string) *orderModel.Order {
	o := &orderModel.Order{UserID: userID, Status: orderModel.StatusCompleted}
	o.ID = id
	return o
}

func TestCheckout(t *testing.T) {
	t.Run("records a pending transaction before calling the gateway", func(t *testing.T) {
		f := newFixture()
		items := []orderModel.Item{
			{ProductID: "p1", Quantity: 2, Price: dec("50000")},
			{ProductID: "p2", Quantity: 1, Price: dec("25000")},
		}

		var recorded *model.Transaction
		f.repo.On("Create", mock.AnythingOfType("*model.Transaction")).
			Run(func(args mock.Arguments) { recorded = args.Get(0).(*model.Transaction) }).
			Return(nil)
		f.momo.On("Pay", mock.MatchedBy(func(req strategy.PayRequest) bool {
			return req.Amount.Equal(dec("125000")) && req.ExtraData != "" && req.OrderNo == recorded.OrderNo
		})).Return(&strategy.PayResult{PayURL: "https://pay"}, nil)

		result, err := f.svc.Checkout(context.Background(), "u1", CheckoutInput{Channel: model.ChannelMoMo, Items: items})
		require.NoError(t, err)
		assert.Equal(t, "https://pay", result.Pay.PayURL)
		assert.Equal(t, model.StatusPending, recorded.Status)
		assert.Equal(t, "u1", recorded.Payload.UserID)
		assert.Len(t, recorded.Payload.Items, 2)
		assert.Equal(t, recorded.OrderNo, result.OrderNo)
	})

	t.Run("gateway failure marks the transaction failed", func(t *testing.T) {
		f := newFixture()
		f.repo.On("Create", mock.Anything).Return(nil)
		f.momo.On("Pay", mock.Anything).Return(nil, strategy.ErrGateway)
		f.repo.On("MarkFailed", mock.Anything, -1).Return(true, nil)

		_, err := f.svc.Checkout(context.Background(), "u1", CheckoutInput{
			Channel: model.ChannelMoMo,
			Items:   []orderModel.Item{{ProductID: "p1", Quantity: 1, Price: dec("1000")}},
		})
		assert.ErrorIs(t, err, strategy.ErrGateway)
		f.repo.AssertExpectations(t)
	})

	t.Run("unknown channel", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.Checkout(context.Background(), "u1", CheckoutInput{Channel: "paypal"})
		assert.ErrorIs(t, err, ErrUnsupportedChannel)
	})

	t.Run("empty items", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.Checkout(context.Background(), "u1", CheckoutInput{Channel: model.ChannelMoMo})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestHandleNotify(t *testing.T) {
	body := []byte(`{}`)
	paid := &strategy.Notification{OrderNo: "ORD1", TransID: "999", Amount: dec("125500"), Success: true}

	t.Run("creates a completed order once", func(t *testing.T) {
		f := newFixture()
		f.momo.On("Notify", body).Return(paid, nil)
		f.repo.On("GetByOrderNo", "ORD1").Return(pendingTxn(), nil)
		f.repo.On("MarkPaid", "ORD1", "999").Return(true, nil)
		f.orders.On("Create", "u1", mock.MatchedBy(func(in orderService.CreateInput) bool {
			return in.Status == orderModel.StatusCompleted &&
				in.TotalAmount.Equal(dec("125500")) &&
				in.PaymentMethod == model.ChannelMoMo &&
				in.TransactionID == "ORD1"
		})).Return(placedOrder("o1", "u1"), nil)
		f.repo.On("AttachOrder", "ORD1", "o1").Return(nil)
		f.rewards.On("AddRewardPoints", "u1", 125).Return(125, nil)

		result, err := f.svc.HandleNotify(context.Background(), model.ChannelMoMo, body)
		require.NoError(t, err)
		assert.Equal(t, "o1", result.OrderID)
		assert.False(t, result.Duplicate)
		require.Len(t, f.queue.tasks, 1)
		assert.Equal(t, "u1", f.queue.tasks[0].(push.Task).AccountID)
		f.rewards.AssertExpectations(t)
	})

	t.Run("replay does not create a second order", func(t *testing.T) {
		f := newFixture()
		txn := pendingTxn()
		orderID := "o1"
		txn.OrderID = &orderID
		f.momo.On("Notify", body).Return(paid, nil)
		f.repo.On("GetByOrderNo", "ORD1").Return(txn, nil)
		f.repo.On("MarkPaid", "ORD1", "999").Return(false, nil)

		result, err := f.svc.HandleNotify(context.Background(), model.ChannelMoMo, body)
		require.NoError(t, err)
		assert.True(t, result.Duplicate)
		assert.Equal(t, "o1", result.OrderID)
		f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		f.rewards.AssertNotCalled(t, "AddRewardPoints", mock.Anything, mock.Anything)
	})

	t.Run("failure result code", func(t *testing.T) {
		f := newFixture()
		f.momo.On("Notify", body).Return(&strategy.Notification{OrderNo: "ORD1", ResultCode: 1006, Message: "declined"}, nil)
		f.repo.On("GetByOrderNo", "ORD1").Return(pendingTxn(), nil)
		f.repo.On("MarkFailed", "ORD1", 1006).Return(true, nil)

		_, err := f.svc.HandleNotify(context.Background(), model.ChannelMoMo, body)
		assert.ErrorIs(t, err, ErrPaymentFailed)
		f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("bad signature", func(t *testing.T) {
		f := newFixture()
		f.momo.On("Notify", body).Return(nil, strategy.ErrSignature)

		_, err := f.svc.HandleNotify(context.Background(), model.ChannelMoMo, body)
		assert.ErrorIs(t, err, strategy.ErrSignature)
		f.repo.AssertNotCalled(t, "GetByOrderNo", mock.Anything)
	})

	t.Run("amount mismatch", func(t *testing.T) {
		f := newFixture()
		f.momo.On("Notify", body).Return(&strategy.Notification{OrderNo: "ORD1", Amount: dec("1000"), Success: true}, nil)
		f.repo.On("GetByOrderNo", "ORD1").Return(pendingTxn(), nil)

		_, err := f.svc.HandleNotify(context.Background(), model.ChannelMoMo, body)
		assert.ErrorIs(t, err, ErrAmountMismatch)
		f.repo.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything)
	})

	t.Run("order failure reopens the transaction", func(t *testing.T) {
		f := newFixture()
		f.momo.On("Notify", body).Return(paid, nil)
		f.repo.On("GetByOrderNo", "ORD1").Return(pendingTxn(), nil)
		f.repo.On("MarkPaid", "ORD1", "999").Return(true, nil)
		f.orders.On("Create", "u1", mock.Anything).Return(nil, errors.New("db down"))
		f.repo.On("Reopen", "ORD1").Return(nil)

		_, err := f.svc.HandleNotify(context.Background(), model.ChannelMoMo, body)
		assert.Error(t, err)
		f.repo.AssertCalled(t, "Reopen", "ORD1")
	})

	t.Run("reward failure does not fail the callback", func(t *testing.T) {
		f := newFixture()
		f.queue.full = true
		f.momo.On("Notify", body).Return(paid, nil)
		f.repo.On("GetByOrderNo", "ORD1").Return(pendingTxn(), nil)
		f.repo.On("MarkPaid", "ORD1", "999").Return(true, nil)
		f.orders.On("Create", "u1", mock.Anything).Return(placedOrder("o1", "u1"), nil)
		f.repo.On("AttachOrder", "ORD1", "o1").Return(nil)
		f.rewards.On("AddRewardPoints", "u1", 125).Return(0, errors.New("user gone"))

		result, err := f.svc.HandleNotify(context.Background(), model.ChannelMoMo, body)
		require.NoError(t, err)
		assert.Equal(t, "o1", result.OrderID)
	})
}

func TestStatus(t *testing.T) {
	t.Run("pending transaction queries the gateway", func(t *testing.T) {
		f := newFixture()
		q := new(queryingStrategy)
		f.svc.RegisterStrategy(model.ChannelMoMo, q)
		f.repo.On("GetByOrderNo", "ORD1").Return(pendingTxn(), nil)
		q.On("Query", "ORD1", "req-1").Return(&strategy.Notification{OrderNo: "ORD1", ResultCode: 1000}, nil)

		result, err := f.svc.Status(context.Background(), "ORD1")
		require.NoError(t, err)
		require.NotNil(t, result.Gateway)
		assert.Equal(t, 1000, result.Gateway.ResultCode)
	})

	t.Run("settled transaction is answered locally", func(t *testing.T) {
		f := newFixture()
		q := new(queryingStrategy)
		f.svc.RegisterStrategy(model.ChannelMoMo, q)
		txn := pendingTxn()
		txn.Status = model.StatusPaid
		f.repo.On("GetByOrderNo", "ORD1").Return(txn, nil)

		result, err := f.svc.Status(context.Background(), "ORD1")
		require.NoError(t, err)
		assert.Nil(t, result.Gateway)
		q.AssertNotCalled(t, "Query", mock.Anything, mock.Anything)
	})

	t.Run("missing", func(t *testing.T) {
		f := newFixture()
		f.repo.On("GetByOrderNo", "ghost").Return(nil, ErrNotFound)
		_, err := f.svc.Status(context.Background(), "ghost")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
