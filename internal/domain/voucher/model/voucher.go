package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	baseModel "seafood_shop/pkg/model"
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

func (t DiscountType) Valid() bool {
	return t == DiscountPercentage || t == DiscountFixed
}

// State 由日期与计数推导的状态，不落库
type State int

const (
	StateNotYetActive State = iota
	StateActive
	StateExpired
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateNotYetActive:
		return "not_yet_active"
	case StateActive:
		return "active"
	case StateExpired:
		return "expired"
	case StateExhausted:
		return "exhausted"
	}
	return "unknown"
}

// ErrNotRedeemable 券不可用或该用户已达上限
var ErrNotRedeemable = errors.New("voucher is not redeemable for this user")

// UserUsage userId -> 使用次数，以 jsonb 存储
type UserUsage map[string]int

func (u UserUsage) Value() (driver.Value, error) {
	if u == nil {
		return "{}", nil
	}
	b, err := json.Marshal(map[string]int(u))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (u *UserUsage) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*u = UserUsage{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported user_usage type %T", value)
	}
	m := map[string]int{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return err
	}
	*u = m
	return nil
}

// Voucher 折扣券
type Voucher struct {
	baseModel.BaseModel
	Code          string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"`
	DiscountType  DiscountType    `gorm:"type:varchar(16);not null" json:"discountType"`
	DiscountValue decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"discountValue"`
	MinPurchase   decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"minPurchase"`
	MaxDiscount   decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"maxDiscount"`
	StartDate     time.Time       `gorm:"not null" json:"startDate"`
	EndDate       time.Time       `gorm:"not null" json:"endDate"`
	UsageLimit    int             `gorm:"not null" json:"usageLimit"`
	UsageCount    int             `gorm:"not null;default:0" json:"usageCount"`
	PerUserLimit  *int            `json:"perUserLimit,omitempty"` // 为空时按 Policy 回退
	UserUsage     UserUsage       `gorm:"type:jsonb;not null;default:'{}'" json:"userUsage"`
}

// Policy 全局配置项：单用户上限回退值与金额精度
type Policy struct {
	PerUserLimit int
	Scale        int32
}

// State 日期优先于计数
func (v *Voucher) State(now time.Time) State {
	switch {
	case now.Before(v.StartDate):
		return StateNotYetActive
	case now.After(v.EndDate):
		return StateExpired
	case v.UsageCount >= v.UsageLimit:
		return StateExhausted
	}
	return StateActive
}

func (v *Voucher) IsValid(now time.Time) bool {
	return v.State(now) == StateActive
}

// UserLimit 券自身的 perUserLimit > 配置值(>0) > usageLimit
func (v *Voucher) UserLimit(p Policy) int {
	if v.PerUserLimit != nil {
		return *v.PerUserLimit
	}
	if p.PerUserLimit > 0 {
		return p.PerUserLimit
	}
	return v.UsageLimit
}

func (v *Voucher) IsValidForUser(userID string, now time.Time, p Policy) bool {
	if !v.IsValid(now) {
		return false
	}
	return v.UserUsage[userID] < v.UserLimit(p)
}

// CalculateDiscount 不满足门槛或不可用时为 0；结果不超过 maxDiscount
func (v *Voucher) CalculateDiscount(purchase decimal.Decimal, now time.Time, p Policy) decimal.Decimal {
	if !v.IsValid(now) || purchase.LessThan(v.MinPurchase) {
		return decimal.Zero
	}

	var discount decimal.Decimal
	switch v.DiscountType {
	case DiscountPercentage:
		discount = purchase.Mul(v.DiscountValue).Div(decimal.NewFromInt(100))
	case DiscountFixed:
		discount = v.DiscountValue
	default:
		return decimal.Zero
	}

	discount = decimal.Min(discount, v.MaxDiscount)
	// 四舍五入（远离零）到货币最小单位
	return discount.Round(p.Scale)
}

// Use 校验通过后全局计数与用户计数各加 1，失败时不修改任何字段
func (v *Voucher) Use(userID string, now time.Time, p Policy) error {
	if !v.IsValidForUser(userID, now, p) {
		return ErrNotRedeemable
	}
	if v.UserUsage == nil {
		v.UserUsage = UserUsage{}
	}
	v.UsageCount++
	v.UserUsage[userID]++
	return nil
}
