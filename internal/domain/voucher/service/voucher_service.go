package service

import (
	"context"
	"errors"
	"fmt"
	"seafood_shop/internal/domain/voucher/model"
	"seafood_shop/internal/domain/voucher/repository"
	"seafood_shop/internal/pkg/config"
	"seafood_shop/pkg/metrics"
	"seafood_shop/pkg/pagination"
	"seafood_shop/pkg/search"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound         = repository.ErrNotFound
	ErrCodeExists       = repository.ErrCodeExists
	ErrNotRedeemable    = model.ErrNotRedeemable
	ErrBelowMinPurchase = errors.New("purchase amount is below the voucher minimum")
	ErrInvalidInput     = errors.New("invalid voucher input")
)

// VoucherInput 创建券的字段
type VoucherInput struct {
	Code          string
	DiscountType  model.DiscountType
	DiscountValue decimal.Decimal
	MinPurchase   decimal.Decimal
	MaxDiscount   decimal.Decimal
	StartDate     time.Time
	EndDate       time.Time
	UsageLimit    int
	PerUserLimit  *int
}

// VoucherPatch 部分更新，nil 字段保持不变
type VoucherPatch struct {
	Code          *string
	DiscountType  *model.DiscountType
	DiscountValue *decimal.Decimal
	MinPurchase   *decimal.Decimal
	MaxDiscount   *decimal.Decimal
	StartDate     *time.Time
	EndDate       *time.Time
	UsageLimit    *int
	PerUserLimit  *int
}

// Quote 折扣预览
type Quote struct {
	Code       string          `json:"code"`
	State      string          `json:"state"`
	Applicable bool            `json:"applicable"`
	Discount   decimal.Decimal `json:"discount"`
	FinalTotal decimal.Decimal `json:"finalTotal"`
}

// Redemption 核销结果
type Redemption struct {
	Voucher  *model.Voucher
	Discount decimal.Decimal
}

type VoucherService interface {
	List(ctx context.Context, page, pageSize int) (*pagination.Page[model.Voucher], error)
	Search(ctx context.Context, params SearchParams, page, pageSize int) (*pagination.Page[model.Voucher], error)
	GetByID(ctx context.Context, id string) (*model.Voucher, error)
	GetByCode(ctx context.Context, code string) (*model.Voucher, error)
	ListValid(ctx context.Context) ([]model.Voucher, error)
	Create(ctx context.Context, in VoucherInput) (*model.Voucher, error)
	Update(ctx context.Context, id string, patch VoucherPatch) (*model.Voucher, error)
	Delete(ctx context.Context, id string) error
	Preview(ctx context.Context, code, userID string, amount decimal.Decimal) (*Quote, error)
	Redeem(ctx context.Context, code, userID string, amount decimal.Decimal) (*Redemption, error)
}

type voucherService struct {
	repo     repository.VoucherRepository
	policy   model.Policy
	searcher search.Strategy[model.Voucher]
	metrics  *metrics.MetricsCollector
	now      func() time.Time
}

func NewVoucherService(repo repository.VoucherRepository, cfg config.VoucherConfig, searchCfg config.SearchConfig, collector *metrics.MetricsCollector) VoucherService {
	if collector == nil {
		collector = metrics.Global()
	}
	return &voucherService{
		repo:   repo,
		policy: model.Policy{PerUserLimit: cfg.PerUserLimit, Scale: cfg.CurrencyScale},
		searcher: search.Batched[model.Voucher]{
			Source:    repo.ByCode(),
			BatchSize: searchCfg.BatchSize,
			Accurate:  searchCfg.Accurate,
		},
		metrics: collector,
		now:     time.Now,
	}
}

func (s *voucherService) List(ctx context.Context, page, pageSize int) (*pagination.Page[model.Voucher], error) {
	return pagination.Paginate(ctx, s.repo.ByCode(), page, pageSize)
}

func (s *voucherService) Search(ctx context.Context, params SearchParams, page, pageSize int) (*pagination.Page[model.Voucher], error) {
	return s.searcher.Search(ctx, params.Predicate(), page, pageSize)
}

func (s *voucherService) GetByID(ctx context.Context, id string) (*model.Voucher, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *voucherService) GetByCode(ctx context.Context, code string) (*model.Voucher, error) {
	return s.repo.GetByCode(ctx, code)
}

func (s *voucherService) ListValid(ctx context.Context) ([]model.Voucher, error) {
	return s.repo.ListValid(ctx, s.now())
}

func validate(v *model.Voucher) error {
	switch {
	case v.Code == "":
		return fmt.Errorf("%w: code is required", ErrInvalidInput)
	case !v.DiscountType.Valid():
		return fmt.Errorf("%w: discountType must be percentage or fixed", ErrInvalidInput)
	case v.DiscountValue.IsNegative() || v.MinPurchase.IsNegative() || v.MaxDiscount.IsNegative():
		return fmt.Errorf("%w: amounts must not be negative", ErrInvalidInput)
	case !v.DiscountValue.IsPositive():
		return fmt.Errorf("%w: discountValue must be positive", ErrInvalidInput)
	case !v.MaxDiscount.IsPositive():
		// 折扣按 min(折扣, maxDiscount) 封顶，0 会让券永远抵扣 0
		return fmt.Errorf("%w: maxDiscount must be positive", ErrInvalidInput)
	case v.EndDate.Before(v.StartDate):
		return fmt.Errorf("%w: endDate is before startDate", ErrInvalidInput)
	case v.UsageLimit < 0:
		return fmt.Errorf("%w: usageLimit must not be negative", ErrInvalidInput)
	case v.UsageLimit < v.UsageCount:
		return fmt.Errorf("%w: usageLimit %d is below the %d uses already made", ErrInvalidInput, v.UsageLimit, v.UsageCount)
	case v.PerUserLimit != nil && *v.PerUserLimit < 0:
		return fmt.Errorf("%w: perUserLimit must not be negative", ErrInvalidInput)
	}
	return nil
}

func (s *voucherService) Create(ctx context.Context, in VoucherInput) (*model.Voucher, error) {
	v := &model.Voucher{
		Code:          in.Code,
		DiscountType:  in.DiscountType,
		DiscountValue: in.DiscountValue,
		MinPurchase:   in.MinPurchase,
		MaxDiscount:   in.MaxDiscount,
		StartDate:     in.StartDate,
		EndDate:       in.EndDate,
		UsageLimit:    in.UsageLimit,
		PerUserLimit:  in.PerUserLimit,
		UserUsage:     model.UserUsage{},
	}
	if err := validate(v); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *voucherService) Update(ctx context.Context, id string, patch VoucherPatch) (*model.Voucher, error) {
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Code != nil {
		v.Code = *patch.Code
	}
	if patch.DiscountType != nil {
		v.DiscountType = *patch.DiscountType
	}
	if patch.DiscountValue != nil {
		v.DiscountValue = *patch.DiscountValue
	}
	if patch.MinPurchase != nil {
		v.MinPurchase = *patch.MinPurchase
	}
	if patch.MaxDiscount != nil {
		v.MaxDiscount = *patch.MaxDiscount
	}
	if patch.StartDate != nil {
		v.StartDate = *patch.StartDate
	}
	if patch.EndDate != nil {
		v.EndDate = *patch.EndDate
	}
	if patch.UsageLimit != nil {
		v.UsageLimit = *patch.UsageLimit
	}
	if patch.PerUserLimit != nil {
		v.PerUserLimit = patch.PerUserLimit
	}

	if err := validate(v); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *voucherService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// Preview 只读计算，不占用名额
func (s *voucherService) Preview(ctx context.Context, code, userID string, amount decimal.Decimal) (*Quote, error) {
	v, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	now := s.now()
	q := &Quote{
		Code:       v.Code,
		State:      v.State(now).String(),
		Applicable: v.IsValidForUser(userID, now, s.policy) && !amount.LessThan(v.MinPurchase),
		Discount:   decimal.Zero,
		FinalTotal: amount,
	}
	if q.Applicable {
		q.Discount = v.CalculateDiscount(amount, now, s.policy)
		q.FinalTotal = amount.Sub(q.Discount)
	}
	return q, nil
}

// Redeem 在行锁内校验、计算折扣并累加计数
func (s *voucherService) Redeem(ctx context.Context, code, userID string, amount decimal.Decimal) (*Redemption, error) {
	var discount decimal.Decimal
	v, err := s.repo.Redeem(ctx, code, func(v *model.Voucher) error {
		now := s.now()
		if !v.IsValidForUser(userID, now, s.policy) {
			return ErrNotRedeemable
		}
		if amount.LessThan(v.MinPurchase) {
			return ErrBelowMinPurchase
		}
		discount = v.CalculateDiscount(amount, now, s.policy)
		return v.Use(userID, now, s.policy)
	})

	s.metrics.RecordVoucherRedemption(redemptionResult(err))
	if err != nil {
		return nil, err
	}
	return &Redemption{Voucher: v, Discount: discount}, nil
}

func redemptionResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrNotRedeemable), errors.Is(err, ErrBelowMinPurchase):
		return "rejected"
	}
	return "error"
}
