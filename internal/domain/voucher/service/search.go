package service

import (
	"seafood_shop/internal/domain/voucher/model"
	"seafood_shop/pkg/search"
	"time"

	"github.com/shopspring/decimal"
)

// SearchParams 券检索条件，空值表示不限
type SearchParams struct {
	Code             string
	DiscountType     model.DiscountType
	MinDiscountValue *decimal.Decimal
	MaxDiscountValue *decimal.Decimal
	MinPurchase      *decimal.Decimal // 门槛不低于该值
	MaxDiscount      *decimal.Decimal // 封顶不高于该值
	StartDate        *time.Time       // 开始时间不早于该值
	EndDate          *time.Time       // 结束时间不晚于该值
	MinUsageLimit    *int
	MaxUsageCount    *int
}

func (p SearchParams) Predicate() search.Predicate[model.Voucher] {
	var preds []search.Predicate[model.Voucher]

	if p.Code != "" {
		preds = append(preds, func(v model.Voucher) bool { return search.ContainsFold(v.Code, p.Code) })
	}
	if p.DiscountType != "" {
		preds = append(preds, func(v model.Voucher) bool { return v.DiscountType == p.DiscountType })
	}
	if p.MinDiscountValue != nil || p.MaxDiscountValue != nil {
		preds = append(preds, func(v model.Voucher) bool {
			return search.DecimalBetween(v.DiscountValue, p.MinDiscountValue, p.MaxDiscountValue)
		})
	}
	if p.MinPurchase != nil {
		preds = append(preds, func(v model.Voucher) bool { return search.DecimalBetween(v.MinPurchase, p.MinPurchase, nil) })
	}
	if p.MaxDiscount != nil {
		preds = append(preds, func(v model.Voucher) bool { return search.DecimalBetween(v.MaxDiscount, nil, p.MaxDiscount) })
	}
	if p.StartDate != nil {
		preds = append(preds, func(v model.Voucher) bool { return search.TimeBetween(v.StartDate, p.StartDate, nil) })
	}
	if p.EndDate != nil {
		preds = append(preds, func(v model.Voucher) bool { return search.TimeBetween(v.EndDate, nil, p.EndDate) })
	}
	if p.MinUsageLimit != nil {
		preds = append(preds, func(v model.Voucher) bool { return search.IntBetween(v.UsageLimit, p.MinUsageLimit, nil) })
	}
	if p.MaxUsageCount != nil {
		preds = append(preds, func(v model.Voucher) bool { return search.IntBetween(v.UsageCount, nil, p.MaxUsageCount) })
	}

	return search.All(preds...)
}
