package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	orderModel "seafood_shop/internal/domain/order/model"
	orderService "seafood_shop/internal/domain/order/service"
	"seafood_shop/internal/domain/payment/model"
	"seafood_shop/internal/domain/payment/repository"
	"seafood_shop/internal/domain/payment/strategy"
	"seafood_shop/internal/pkg/push"
	"seafood_shop/internal/pkg/worker"
	"seafood_shop/pkg/logger"
	"seafood_shop/pkg/metrics"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrNotFound           = repository.ErrNotFound
	ErrInvalidInput       = errors.New("invalid checkout input")
	ErrUnsupportedChannel = errors.New("unsupported payment channel")
	ErrPaymentFailed      = errors.New("payment was not successful")
	ErrAmountMismatch     = errors.New("paid amount does not match the transaction")
)

// 每 1000 VND 积 1 分
var pointUnit = decimal.NewFromInt(1000)

// OrderCreator 由订单模块提供
type OrderCreator interface {
	Create(ctx context.Context, userID string, in orderService.CreateInput) (*orderModel.Order, error)
}

// RewardAccruer 由用户模块提供
type RewardAccruer interface {
	AddRewardPoints(ctx context.Context, id string, points int) (int, error)
}

type TaskQueue interface {
	AddTask(task worker.Task) bool
}

type CheckoutInput struct {
	Channel         string
	Items           []orderModel.Item
	TotalAmount     *decimal.Decimal // 为空时按订单行计算
	ShippingAddress string
	CustomerName    string
	CustomerPhone   string
	CustomerAddress string
	Subject         string
}

type CheckoutResult struct {
	OrderNo   string              `json:"orderNo"`
	RequestID string              `json:"requestId"`
	Channel   string              `json:"channel"`
	Amount    decimal.Decimal     `json:"amount"`
	Pay       *strategy.PayResult `json:"pay"`
}

type CallbackResult struct {
	OrderNo   string `json:"orderNo"`
	OrderID   string `json:"orderId,omitempty"`
	Duplicate bool   `json:"duplicate,omitempty"`
}

type StatusResult struct {
	Transaction *model.Transaction     `json:"transaction"`
	Gateway     *strategy.Notification `json:"gateway,omitempty"`
}

type PaymentService interface {
	RegisterStrategy(channel string, s strategy.PaymentStrategy)
	Channels() []string
	Checkout(ctx context.Context, userID string, in CheckoutInput) (*CheckoutResult, error)
	HandleNotify(ctx context.Context, channel string, params interface{}) (*CallbackResult, error)
	Status(ctx context.Context, orderNo string) (*StatusResult, error)
}

type paymentService struct {
	repo    repository.PaymentRepository
	orders  OrderCreator
	rewards RewardAccruer
	pusher  push.PushService
	tasks   TaskQueue
	metrics *metrics.MetricsCollector
	log     *zap.Logger
	now     func() time.Time

	mu         sync.RWMutex
	strategies map[string]strategy.PaymentStrategy
}

func NewPaymentService(repo repository.PaymentRepository, orders OrderCreator, rewards RewardAccruer, pusher push.PushService, tasks TaskQueue, collector *metrics.MetricsCollector) PaymentService {
	if collector == nil {
		collector = metrics.Global()
	}
	if pusher == nil {
		pusher = push.NoopPushService{}
	}
	return &paymentService{
		repo:       repo,
		orders:     orders,
		rewards:    rewards,
		pusher:     pusher,
		tasks:      tasks,
		metrics:    collector,
		log:        logger.Named("payment"),
		now:        time.Now,
		strategies: make(map[string]strategy.PaymentStrategy),
	}
}

// RegisterStrategy 注册支付策略
func (s *paymentService) RegisterStrategy(channel string, st strategy.PaymentStrategy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.strategies[channel] = st
}

func (s *paymentService) Channels() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.strategies))
	for ch := range s.strategies {
		out = append(out, ch)
	}
	return out
}

func (s *paymentService) strategy(channel string) (strategy.PaymentStrategy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.strategies[channel]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedChannel, channel)
	}
	return st, nil
}

func newOrderNo(now time.Time) string {
	return now.Format("20060102150405") + uuid.NewString()[:8]
}

func (s *paymentService) Checkout(ctx context.Context, userID string, in CheckoutInput) (*CheckoutResult, error) {
	st, err := s.strategy(in.Channel)
	if err != nil {
		return nil, err
	}
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: items are required", ErrInvalidInput)
	}

	amount := decimal.Zero
	for _, item := range in.Items {
		if item.ProductID == "" || item.Quantity < 1 || item.Price.IsNegative() {
			return nil, fmt.Errorf("%w: bad item %q", ErrInvalidInput, item.ProductID)
		}
		amount = amount.Add(item.Subtotal())
	}
	if in.TotalAmount != nil {
		amount = *in.TotalAmount
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}

	payload := model.OrderPayload{
		UserID:          userID,
		Items:           in.Items,
		ShippingAddress: in.ShippingAddress,
		CustomerName:    in.CustomerName,
		CustomerPhone:   in.CustomerPhone,
		CustomerAddress: in.CustomerAddress,
	}
	extra, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	txn := &model.Transaction{
		OrderNo:   newOrderNo(s.now()),
		RequestID: uuid.NewString(),
		UserID:    userID,
		Amount:    amount,
		Channel:   in.Channel,
		Status:    model.StatusPending,
		Payload:   payload,
	}
	if err := s.repo.Create(ctx, txn); err != nil {
		return nil, fmt.Errorf("record transaction: %w", err)
	}

	subject := in.Subject
	if subject == "" {
		subject = "Seafood order " + txn.OrderNo
	}
	result, err := st.Pay(ctx, strategy.PayRequest{
		OrderNo:   txn.OrderNo,
		RequestID: txn.RequestID,
		Amount:    amount,
		Subject:   subject,
		ExtraData: base64.StdEncoding.EncodeToString(extra),
	})
	if err != nil {
		if _, markErr := s.repo.MarkFailed(ctx, txn.OrderNo, -1, err.Error()); markErr != nil {
			s.log.Error("mark transaction failed", zap.String("orderNo", txn.OrderNo), zap.Error(markErr))
		}
		return nil, err
	}

	return &CheckoutResult{
		OrderNo:   txn.OrderNo,
		RequestID: txn.RequestID,
		Channel:   in.Channel,
		Amount:    amount,
		Pay:       result,
	}, nil
}

// HandleNotify 验签后把交易从 pending 迁移到终态，同一笔交易只会生成一个订单
func (s *paymentService) HandleNotify(ctx context.Context, channel string, params interface{}) (*CallbackResult, error) {
	st, err := s.strategy(channel)
	if err != nil {
		return nil, err
	}

	n, err := st.Notify(ctx, params)
	if err != nil {
		s.metrics.RecordPaymentCallback(channel, "invalid")
		return nil, err
	}

	txn, err := s.repo.GetByOrderNo(ctx, n.OrderNo)
	if err != nil {
		return nil, err
	}
	if txn.Channel != channel {
		s.metrics.RecordPaymentCallback(channel, "invalid")
		return nil, fmt.Errorf("%w: transaction %s belongs to %s", strategy.ErrInvalidNotification, txn.OrderNo, txn.Channel)
	}

	if !n.Success {
		if _, err := s.repo.MarkFailed(ctx, txn.OrderNo, n.ResultCode, n.Message); err != nil {
			return nil, err
		}
		s.metrics.RecordPaymentCallback(channel, "failed")
		return nil, fmt.Errorf("%w: code %d %s", ErrPaymentFailed, n.ResultCode, n.Message)
	}

	if !n.Amount.Equal(txn.Amount) {
		s.metrics.RecordPaymentCallback(channel, "mismatch")
		s.log.Error("paid amount mismatch",
			zap.String("orderNo", txn.OrderNo),
			zap.String("expected", txn.Amount.String()),
			zap.String("paid", n.Amount.String()))
		return nil, ErrAmountMismatch
	}

	claimed, err := s.repo.MarkPaid(ctx, txn.OrderNo, n.TransID, s.now())
	if err != nil {
		return nil, err
	}
	if !claimed {
		s.metrics.RecordPaymentCallback(channel, "duplicate")
		result := &CallbackResult{OrderNo: txn.OrderNo, Duplicate: true}
		if txn.OrderID != nil {
			result.OrderID = *txn.OrderID
		}
		return result, nil
	}

	paid := n.Amount
	order, err := s.orders.Create(ctx, txn.Payload.UserID, orderService.CreateInput{
		Items:           txn.Payload.Items,
		TotalAmount:     &paid,
		Status:          orderModel.StatusCompleted,
		ShippingAddress: txn.Payload.ShippingAddress,
		PaymentMethod:   channel,
		TransactionID:   txn.OrderNo,
		CustomerName:    txn.Payload.CustomerName,
		CustomerPhone:   txn.Payload.CustomerPhone,
		CustomerAddress: txn.Payload.CustomerAddress,
	})
	if err != nil {
		if reopenErr := s.repo.Reopen(ctx, txn.OrderNo); reopenErr != nil {
			s.log.Error("reopen transaction after order failure",
				zap.String("orderNo", txn.OrderNo), zap.Error(reopenErr))
		}
		s.metrics.RecordPaymentCallback(channel, "error")
		return nil, fmt.Errorf("create order for %s: %w", txn.OrderNo, err)
	}

	if err := s.repo.AttachOrder(ctx, txn.OrderNo, order.ID); err != nil {
		s.log.Error("attach order to transaction", zap.String("orderNo", txn.OrderNo), zap.Error(err))
	}

	s.accrue(ctx, order.UserID, paid)
	s.notify(order.UserID, txn.OrderNo, order.ID)
	s.metrics.RecordPaymentCallback(channel, "success")

	return &CallbackResult{OrderNo: txn.OrderNo, OrderID: order.ID}, nil
}

// accrue 积分失败不影响回调结果
func (s *paymentService) accrue(ctx context.Context, userID string, paid decimal.Decimal) {
	points := int(paid.Div(pointUnit).Floor().IntPart())
	if userID == "" || points <= 0 || s.rewards == nil {
		return
	}
	if _, err := s.rewards.AddRewardPoints(ctx, userID, points); err != nil {
		s.log.Error("accrue reward points",
			zap.String("userId", userID), zap.Int("points", points), zap.Error(err))
	}
}

func (s *paymentService) notify(userID, orderNo, orderID string) {
	if userID == "" || s.tasks == nil {
		return
	}
	task := push.Task{
		Service:   s.pusher,
		AccountID: userID,
		Title:     "Thanh toán thành công",
		Body:      fmt.Sprintf("Đơn hàng %s đã được thanh toán.", orderNo),
		Extra:     map[string]string{"orderId": orderID},
	}
	if !s.tasks.AddTask(task) {
		s.log.Warn("push queue full, notification dropped", zap.String("orderNo", orderNo))
	}
}

// Status 返回本地交易记录，待支付时附带网关查询结果
func (s *paymentService) Status(ctx context.Context, orderNo string) (*StatusResult, error) {
	txn, err := s.repo.GetByOrderNo(ctx, orderNo)
	if err != nil {
		return nil, err
	}
	result := &StatusResult{Transaction: txn}
	if txn.Status != model.StatusPending {
		return result, nil
	}

	st, err := s.strategy(txn.Channel)
	if err != nil {
		return result, nil
	}
	querier, ok := st.(strategy.StatusQuerier)
	if !ok {
		return result, nil
	}
	gw, err := querier.Query(ctx, txn.OrderNo, txn.RequestID)
	if err != nil {
		s.log.Warn("gateway status query", zap.String("orderNo", orderNo), zap.Error(err))
		return result, nil
	}
	result.Gateway = gw
	return result, nil
}
