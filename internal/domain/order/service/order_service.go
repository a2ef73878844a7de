package service

import (
	"context"
	"errors"
	"fmt"
	"seafood_shop/internal/domain/order/model"
	"seafood_shop/internal/domain/order/repository"
	productModel "seafood_shop/internal/domain/product/model"
	voucherService "seafood_shop/internal/domain/voucher/service"
	"seafood_shop/pkg/database"
	"seafood_shop/pkg/metrics"
	"seafood_shop/pkg/pagination"
	"seafood_shop/pkg/search"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound        = repository.ErrNotFound
	ErrInvalidInput    = errors.New("invalid order input")
	ErrVoucherRejected = errors.New("voucher cannot be applied")
)

// UserDirectory 由用户模块提供
type UserDirectory interface {
	FindOrCreateByPhone(ctx context.Context, phone, fullName, address string) (string, error)
}

// VoucherRedeemer 由券模块提供
type VoucherRedeemer interface {
	Redeem(ctx context.Context, code, userID string, amount decimal.Decimal) (*voucherService.Redemption, error)
}

// ProductCatalog 由商品模块提供
type ProductCatalog interface {
	GetByID(ctx context.Context, id string) (*productModel.Product, error)
	InOrders(ctx context.Context, id string) (bool, error)
}

// CreateInput 下单字段
// 带 CustomerPhone 的门店订单按电话归属顾客，否则归属当前用户
type CreateInput struct {
	Items           []model.Item
	TotalAmount     *decimal.Decimal // 为空时按订单行计算
	Status          model.Status     // 为空时为 completed
	ShippingAddress string
	PaymentMethod   string
	TransactionID   string
	CustomerName    string
	CustomerPhone   string
	CustomerAddress string
	AmountGiven     *decimal.Decimal
	VoucherCode     string
}

// UpdateInput 部分更新，nil 字段不修改
type UpdateInput struct {
	Items           []model.Item
	TotalAmount     *decimal.Decimal
	Status          *model.Status
	ShippingAddress *string
	PaymentMethod   *string
	CustomerName    *string
	CustomerPhone   *string
	CustomerAddress *string
	AmountGiven     *decimal.Decimal
}

// SearchParams 订单检索条件
type SearchParams struct {
	Query     string // userId 或电话的子串
	MinAmount *decimal.Decimal
	MaxAmount *decimal.Decimal
	StartDate *time.Time
	EndDate   *time.Time
	Status    model.Status
}

func (p SearchParams) Predicate() search.Predicate[model.Order] {
	return func(o model.Order) bool {
		if p.Query != "" && !search.ContainsFold(o.UserID, p.Query) && !search.ContainsFold(o.CustomerPhone, p.Query) {
			return false
		}
		if p.Status != "" && o.Status != p.Status {
			return false
		}
		return search.DecimalBetween(o.TotalAmount, p.MinAmount, p.MaxAmount) &&
			search.TimeBetween(o.CreatedAt, p.StartDate, p.EndDate)
	}
}

type OrderService interface {
	List(ctx context.Context, page, pageSize int) (*pagination.Page[model.Order], error)
	Search(ctx context.Context, params SearchParams, page, pageSize int) (*pagination.Page[model.Order], error)
	ByUser(ctx context.Context, userID string, page, pageSize int) (*pagination.Page[model.Order], error)
	GetByID(ctx context.Context, id string) (*model.Order, error)
	Create(ctx context.Context, userID string, in CreateInput) (*model.Order, error)
	Update(ctx context.Context, id string, in UpdateInput) (*model.Order, error)
	Delete(ctx context.Context, id string) error
	ProductInOrders(ctx context.Context, productID string) (bool, error)
	HasPurchased(ctx context.Context, userID, productID string) (bool, error)
}

type orderService struct {
	repo     repository.OrderRepository
	tx       database.Transactor
	users    UserDirectory
	vouchers VoucherRedeemer
	products ProductCatalog
	metrics  *metrics.MetricsCollector
}

func NewOrderService(repo repository.OrderRepository, tx database.Transactor, users UserDirectory, vouchers VoucherRedeemer, products ProductCatalog, collector *metrics.MetricsCollector) OrderService {
	if collector == nil {
		collector = metrics.Global()
	}
	return &orderService{
		repo:     repo,
		tx:       tx,
		users:    users,
		vouchers: vouchers,
		products: products,
		metrics:  collector,
	}
}

func (s *orderService) List(ctx context.Context, page, pageSize int) (*pagination.Page[model.Order], error) {
	return pagination.Paginate(ctx, s.repo.Newest(""), page, pageSize)
}

// Search 条件异构，全量加载后过滤
func (s *orderService) Search(ctx context.Context, params SearchParams, page, pageSize int) (*pagination.Page[model.Order], error) {
	strategy := search.FullScan[model.Order]{Load: s.repo.All}
	return strategy.Search(ctx, params.Predicate(), page, pageSize)
}

func (s *orderService) ByUser(ctx context.Context, userID string, page, pageSize int) (*pagination.Page[model.Order], error) {
	return pagination.Paginate(ctx, s.repo.Newest(userID), page, pageSize)
}

func (s *orderService) GetByID(ctx context.Context, id string) (*model.Order, error) {
	return s.repo.GetByID(ctx, id)
}

func validateItems(items []model.Item) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: items must not be empty", ErrInvalidInput)
	}
	for _, item := range items {
		if item.ProductID == "" || item.Quantity <= 0 || item.Price.IsNegative() {
			return fmt.Errorf("%w: invalid item %q", ErrInvalidInput, item.ProductID)
		}
	}
	return nil
}

func (s *orderService) Create(ctx context.Context, userID string, in CreateInput) (*model.Order, error) {
	if err := validateItems(in.Items); err != nil {
		return nil, err
	}
	if in.Status == "" {
		in.Status = model.StatusCompleted
	}
	if !in.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, in.Status)
	}
	if in.PaymentMethod == "" {
		in.PaymentMethod = model.PaymentCash
	}

	o := &model.Order{
		UserID:          userID,
		Items:           in.Items,
		Status:          in.Status,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		TransactionID:   in.TransactionID,
		CustomerName:    in.CustomerName,
		CustomerPhone:   in.CustomerPhone,
		CustomerAddress: in.CustomerAddress,
		AmountGiven:     decimal.Zero,
		ChangeAmount:    decimal.Zero,
		DiscountAmount:  decimal.Zero,
	}

	if in.CustomerPhone != "" {
		id, err := s.users.FindOrCreateByPhone(ctx, in.CustomerPhone, in.CustomerName, in.CustomerAddress)
		if err != nil {
			return nil, fmt.Errorf("resolve customer: %w", err)
		}
		o.UserID = id
	}
	if o.UserID == "" {
		return nil, fmt.Errorf("%w: order has no owner", ErrInvalidInput)
	}

	if in.TotalAmount != nil {
		o.TotalAmount = *in.TotalAmount
	} else {
		o.TotalAmount = o.ItemsTotal()
	}

	// 核销与落库同一事务，插入失败时券的计数一并回滚
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if in.VoucherCode != "" {
			redemption, err := s.vouchers.Redeem(ctx, in.VoucherCode, o.UserID, o.TotalAmount)
			if err != nil {
				if errors.Is(err, voucherService.ErrNotFound) || errors.Is(err, voucherService.ErrNotRedeemable) || errors.Is(err, voucherService.ErrBelowMinPurchase) {
					return fmt.Errorf("%w: %s", ErrVoucherRejected, err.Error())
				}
				return err
			}
			o.VoucherCode = in.VoucherCode
			o.DiscountAmount = redemption.Discount
			o.TotalAmount = o.TotalAmount.Sub(redemption.Discount)
		}

		if in.AmountGiven != nil {
			o.AmountGiven = *in.AmountGiven
			o.ChangeAmount = in.AmountGiven.Sub(o.TotalAmount)
		}
		return s.repo.Create(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordOrderCreated(o.PaymentMethod)
	return o, nil
}

func (s *orderService) Update(ctx context.Context, id string, in UpdateInput) (*model.Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Items != nil {
		if err := validateItems(in.Items); err != nil {
			return nil, err
		}
		o.Items = in.Items
		o.TotalAmount = o.ItemsTotal().Sub(o.DiscountAmount)
	}
	if in.TotalAmount != nil {
		o.TotalAmount = *in.TotalAmount
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *in.Status)
		}
		o.Status = *in.Status
	}
	if in.ShippingAddress != nil {
		o.ShippingAddress = *in.ShippingAddress
	}
	if in.PaymentMethod != nil {
		o.PaymentMethod = *in.PaymentMethod
	}
	if in.CustomerName != nil {
		o.CustomerName = *in.CustomerName
	}
	if in.CustomerPhone != nil {
		o.CustomerPhone = *in.CustomerPhone
	}
	if in.CustomerAddress != nil {
		o.CustomerAddress = *in.CustomerAddress
	}
	if in.AmountGiven != nil {
		o.AmountGiven = *in.AmountGiven
	}
	if in.AmountGiven != nil || in.Items != nil || in.TotalAmount != nil {
		o.ChangeAmount = o.AmountGiven.Sub(o.TotalAmount)
	}

	if err := s.repo.Update(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *orderService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *orderService) ProductInOrders(ctx context.Context, productID string) (bool, error) {
	return s.products.InOrders(ctx, productID)
}

func (s *orderService) HasPurchased(ctx context.Context, userID, productID string) (bool, error) {
	return s.repo.HasPurchased(ctx, userID, productID)
}
