package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	start = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end   = time.Date(2026, 12, 31, 23, 59, 59, 0, time.UTC)
	now   = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func percentVoucher() *Voucher {
	return &Voucher{
		Code:          "TET10",
		DiscountType:  DiscountPercentage,
		DiscountValue: d(10),
		MinPurchase:   d(100000),
		MaxDiscount:   d(50000),
		StartDate:     start,
		EndDate:       end,
		UsageLimit:    2,
		UserUsage:     UserUsage{},
	}
}

func TestState(t *testing.T) {
	v := percentVoucher()

	assert.Equal(t, StateNotYetActive, v.State(start.Add(-time.Second)))
	assert.Equal(t, StateActive, v.State(start))
	assert.Equal(t, StateActive, v.State(end))
	assert.Equal(t, StateExpired, v.State(end.Add(time.Second)))

	v.UsageCount = 2
	assert.Equal(t, StateExhausted, v.State(now))
	// 日期优先
	assert.Equal(t, StateExpired, v.State(end.Add(time.Hour)))
}

func TestCalculateDiscount(t *testing.T) {
	p := Policy{}

	t.Run("percentage below cap", func(t *testing.T) {
		assert.True(t, d(10000).Equal(percentVoucher().CalculateDiscount(d(100000), now, p)))
	})

	t.Run("percentage capped", func(t *testing.T) {
		assert.True(t, d(50000).Equal(percentVoucher().CalculateDiscount(d(1000000), now, p)))
	})

	t.Run("below min purchase", func(t *testing.T) {
		assert.True(t, percentVoucher().CalculateDiscount(d(99999), now, p).IsZero())
	})

	t.Run("not yet active", func(t *testing.T) {
		assert.True(t, percentVoucher().CalculateDiscount(d(200000), start.Add(-time.Hour), p).IsZero())
	})

	t.Run("expired", func(t *testing.T) {
		assert.True(t, percentVoucher().CalculateDiscount(d(200000), end.Add(time.Hour), p).IsZero())
	})

	t.Run("exhausted", func(t *testing.T) {
		v := percentVoucher()
		v.UsageCount = v.UsageLimit
		assert.True(t, v.CalculateDiscount(d(200000), now, p).IsZero())
	})

	t.Run("fixed capped by max discount", func(t *testing.T) {
		v := percentVoucher()
		v.DiscountType = DiscountFixed
		v.DiscountValue = d(80000)
		assert.True(t, d(50000).Equal(v.CalculateDiscount(d(150000), now, p)))
	})

	t.Run("rounds half away from zero", func(t *testing.T) {
		v := percentVoucher()
		v.DiscountValue = decimal.RequireFromString("12.5")
		v.MinPurchase = decimal.Zero
		// 101 * 12.5% = 12.625
		assert.Equal(t, "13", v.CalculateDiscount(d(101), now, p).String())
		assert.Equal(t, "12.63", v.CalculateDiscount(d(101), now, Policy{Scale: 2}).String())
	})
}

func TestUse(t *testing.T) {
	p := Policy{}

	t.Run("increments both counters", func(t *testing.T) {
		v := percentVoucher()
		require.NoError(t, v.Use("u1", now, p))
		assert.Equal(t, 1, v.UsageCount)
		assert.Equal(t, 1, v.UserUsage["u1"])
	})

	t.Run("past usage limit leaves counters unchanged", func(t *testing.T) {
		v := percentVoucher()
		require.NoError(t, v.Use("u1", now, p))
		require.NoError(t, v.Use("u2", now, p))

		err := v.Use("u3", now, p)
		assert.ErrorIs(t, err, ErrNotRedeemable)
		assert.Equal(t, 2, v.UsageCount)
		assert.Zero(t, v.UserUsage["u3"])
	})

	t.Run("nil user usage", func(t *testing.T) {
		v := percentVoucher()
		v.UserUsage = nil
		require.NoError(t, v.Use("u1", now, p))
		assert.Equal(t, 1, v.UserUsage["u1"])
	})
}

func TestUserLimitResolution(t *testing.T) {
	v := percentVoucher()
	v.UsageLimit = 10

	assert.Equal(t, 10, v.UserLimit(Policy{}))
	assert.Equal(t, 1, v.UserLimit(Policy{PerUserLimit: 1}))

	own := 3
	v.PerUserLimit = &own
	assert.Equal(t, 3, v.UserLimit(Policy{PerUserLimit: 1}))

	t.Run("configured limit blocks second use", func(t *testing.T) {
		v := percentVoucher()
		v.UsageLimit = 10
		p := Policy{PerUserLimit: 1}
		require.NoError(t, v.Use("u1", now, p))
		assert.ErrorIs(t, v.Use("u1", now, p), ErrNotRedeemable)
		assert.True(t, v.IsValidForUser("u2", now, p))
	})
}

func TestUserUsageScan(t *testing.T) {
	var u UserUsage
	require.NoError(t, u.Scan([]byte(`{"u1":2}`)))
	assert.Equal(t, 2, u["u1"])

	require.NoError(t, u.Scan(nil))
	assert.Empty(t, u)

	val, err := UserUsage{"a": 1}.Value()
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, val)
}
