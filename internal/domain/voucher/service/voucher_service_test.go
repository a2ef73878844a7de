package service

import (
	"context"
	"seafood_shop/internal/domain/voucher/model"
	"seafood_shop/internal/pkg/config"
	"seafood_shop/pkg/metrics"
	"seafood_shop/pkg/pagination"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockVoucherRepository 模拟仓储
type MockVoucherRepository struct {
	mock.Mock
	vouchers []model.Voucher
}

func (m *MockVoucherRepository) Create(ctx context.Context, v *model.Voucher) error {
	args := m.Called(v)
	return args.Error(0)
}

func (m *MockVoucherRepository) GetByID(ctx context.Context, id string) (*model.Voucher, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Voucher), args.Error(1)
}

func (m *MockVoucherRepository) GetByCode(ctx context.Context, code string) (*model.Voucher, error) {
	args := m.Called(code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Voucher), args.Error(1)
}

func (m *MockVoucherRepository) Update(ctx context.Context, v *model.Voucher) error {
	args := m.Called(v)
	return args.Error(0)
}

func (m *MockVoucherRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockVoucherRepository) ByCode() pagination.Source[model.Voucher] {
	return pagination.SliceSource[model.Voucher]{Items: m.vouchers, Key: func(v model.Voucher) string { return v.ID }}
}

func (m *MockVoucherRepository) ListValid(ctx context.Context, now time.Time) ([]model.Voucher, error) {
	args := m.Called(now)
	return args.Get(0).([]model.Voucher), args.Error(1)
}

// Redeem 直接对预置的券执行 fn，模拟行锁内的读改写
func (m *MockVoucherRepository) Redeem(ctx context.Context, code string, fn func(v *model.Voucher) error) (*model.Voucher, error) {
	args := m.Called(code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	v := args.Get(0).(*model.Voucher)
	if err := fn(v); err != nil {
		return nil, err
	}
	return v, nil
}

var fixedNow = time.Date(2026, 3, 8, 9, 0, 0, 0, time.UTC)

func newService(repo *MockVoucherRepository, cfg config.VoucherConfig) *voucherService {
	svc := NewVoucherService(repo, cfg, config.SearchConfig{BatchSize: 2}, metrics.NewMetricsCollector(prometheus.NewRegistry())).(*voucherService)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func activeVoucher(code string) *model.Voucher {
	return &model.Voucher{
		Code:          code,
		DiscountType:  model.DiscountPercentage,
		DiscountValue: decimal.NewFromInt(10),
		MinPurchase:   decimal.NewFromInt(100000),
		MaxDiscount:   decimal.NewFromInt(50000),
		StartDate:     fixedNow.AddDate(0, -1, 0),
		EndDate:       fixedNow.AddDate(0, 1, 0),
		UsageLimit:    3,
		UserUsage:     model.UserUsage{},
	}
}

func TestRedeem(t *testing.T) {
	t.Run("applies discount and counts usage", func(t *testing.T) {
		repo := new(MockVoucherRepository)
		v := activeVoucher("TET10")
		repo.On("Redeem", "TET10").Return(v, nil)

		res, err := newService(repo, config.VoucherConfig{}).Redeem(context.Background(), "TET10", "u1", decimal.NewFromInt(1000000))

		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(50000).Equal(res.Discount))
		assert.Equal(t, 1, v.UsageCount)
		assert.Equal(t, 1, v.UserUsage["u1"])
	})

	t.Run("below minimum purchase", func(t *testing.T) {
		repo := new(MockVoucherRepository)
		v := activeVoucher("TET10")
		repo.On("Redeem", "TET10").Return(v, nil)

		_, err := newService(repo, config.VoucherConfig{}).Redeem(context.Background(), "TET10", "u1", decimal.NewFromInt(5000))

		assert.ErrorIs(t, err, ErrBelowMinPurchase)
		assert.Zero(t, v.UsageCount)
	})

	t.Run("configured per-user limit", func(t *testing.T) {
		repo := new(MockVoucherRepository)
		v := activeVoucher("TET10")
		v.UserUsage["u1"] = 1
		repo.On("Redeem", "TET10").Return(v, nil)

		_, err := newService(repo, config.VoucherConfig{PerUserLimit: 1}).Redeem(context.Background(), "TET10", "u1", decimal.NewFromInt(200000))

		assert.ErrorIs(t, err, ErrNotRedeemable)
	})

	t.Run("unknown code", func(t *testing.T) {
		repo := new(MockVoucherRepository)
		repo.On("Redeem", "NOPE").Return(nil, ErrNotFound)

		_, err := newService(repo, config.VoucherConfig{}).Redeem(context.Background(), "NOPE", "u1", decimal.NewFromInt(200000))

		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestPreviewDoesNotConsume(t *testing.T) {
	repo := new(MockVoucherRepository)
	v := activeVoucher("TET10")
	repo.On("GetByCode", "TET10").Return(v, nil)

	q, err := newService(repo, config.VoucherConfig{}).Preview(context.Background(), "TET10", "u1", decimal.NewFromInt(100000))

	require.NoError(t, err)
	assert.True(t, q.Applicable)
	assert.Equal(t, "active", q.State)
	assert.True(t, decimal.NewFromInt(10000).Equal(q.Discount))
	assert.True(t, decimal.NewFromInt(90000).Equal(q.FinalTotal))
	assert.Zero(t, v.UsageCount)
	repo.AssertNotCalled(t, "Redeem", mock.Anything)
}

func TestCreateValidation(t *testing.T) {
	repo := new(MockVoucherRepository)
	svc := newService(repo, config.VoucherConfig{})

	_, err := svc.Create(context.Background(), VoucherInput{Code: "X", DiscountType: "bogus"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(context.Background(), VoucherInput{
		Code:         "X",
		DiscountType: model.DiscountFixed,
		StartDate:    fixedNow,
		EndDate:      fixedNow.Add(-time.Hour),
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	repo.On("Create", mock.AnythingOfType("*model.Voucher")).Return(nil)
	created, err := svc.Create(context.Background(), VoucherInput{
		Code:          "FREESHIP",
		DiscountType:  model.DiscountFixed,
		DiscountValue: decimal.NewFromInt(30000),
		MaxDiscount:   decimal.NewFromInt(30000),
		StartDate:     fixedNow,
		EndDate:       fixedNow.AddDate(0, 0, 7),
		UsageLimit:    100,
	})
	require.NoError(t, err)
	assert.Equal(t, "FREESHIP", created.Code)
	repo.AssertExpectations(t)
}

func TestUpdatePatchesOnlyGivenFields(t *testing.T) {
	repo := new(MockVoucherRepository)
	v := activeVoucher("TET10")
	v.ID = "v-1"
	repo.On("GetByID", "v-1").Return(v, nil)
	repo.On("Update", v).Return(nil)

	limit := 10
	updated, err := newService(repo, config.VoucherConfig{}).Update(context.Background(), "v-1", VoucherPatch{UsageLimit: &limit})

	require.NoError(t, err)
	assert.Equal(t, 10, updated.UsageLimit)
	assert.Equal(t, "TET10", updated.Code)
}

func TestUpdateRejectsLimitBelowUsage(t *testing.T) {
	repo := new(MockVoucherRepository)
	v := activeVoucher("TET10")
	v.ID = "v-1"
	v.UsageCount = 3
	repo.On("GetByID", "v-1").Return(v, nil)

	limit := 2
	_, err := newService(repo, config.VoucherConfig{}).Update(context.Background(), "v-1", VoucherPatch{UsageLimit: &limit})

	assert.ErrorIs(t, err, ErrInvalidInput)
	repo.AssertNotCalled(t, "Update", mock.Anything)
}

func TestCreateRequiresPositiveAmounts(t *testing.T) {
	repo := new(MockVoucherRepository)
	svc := newService(repo, config.VoucherConfig{})

	base := VoucherInput{
		Code:          "TET10",
		DiscountType:  model.DiscountPercentage,
		DiscountValue: decimal.NewFromInt(10),
		MaxDiscount:   decimal.NewFromInt(50000),
		StartDate:     fixedNow,
		EndDate:       fixedNow.AddDate(0, 0, 7),
		UsageLimit:    10,
	}

	t.Run("zero max discount", func(t *testing.T) {
		in := base
		in.MaxDiscount = decimal.Zero
		_, err := svc.Create(context.Background(), in)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("zero discount value", func(t *testing.T) {
		in := base
		in.DiscountValue = decimal.Zero
		_, err := svc.Create(context.Background(), in)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	repo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestSearch(t *testing.T) {
	repo := new(MockVoucherRepository)
	for i, code := range []string{"HE2026", "SALE50", "TET10", "TETFIX"} {
		v := activeVoucher(code)
		v.ID = code
		v.UsageCount = i
		if code == "TETFIX" {
			v.DiscountType = model.DiscountFixed
		}
		repo.vouchers = append(repo.vouchers, *v)
	}
	svc := newService(repo, config.VoucherConfig{})

	t.Run("code substring case-insensitive", func(t *testing.T) {
		page, err := svc.Search(context.Background(), SearchParams{Code: "tet"}, 1, 10)
		require.NoError(t, err)
		require.Len(t, page.Items, 2)
		assert.Equal(t, "TET10", page.Items[0].Code)
		assert.False(t, page.HasMore)
	})

	t.Run("type and usage count", func(t *testing.T) {
		maxCount := 3
		page, err := svc.Search(context.Background(), SearchParams{DiscountType: model.DiscountFixed, MaxUsageCount: &maxCount}, 1, 10)
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, "TETFIX", page.Items[0].Code)
	})

	t.Run("has more across batches", func(t *testing.T) {
		page, err := svc.Search(context.Background(), SearchParams{}, 1, 2)
		require.NoError(t, err)
		assert.Len(t, page.Items, 2)
		assert.True(t, page.HasMore)
	})
}

func TestList(t *testing.T) {
	repo := new(MockVoucherRepository)
	for _, code := range []string{"A", "B", "C"} {
		v := activeVoucher(code)
		v.ID = code
		repo.vouchers = append(repo.vouchers, *v)
	}

	page, err := newService(repo, config.VoucherConfig{}).List(context.Background(), 2, 2)

	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "C", page.Items[0].Code)
	assert.Equal(t, 2, page.TotalPages)
	assert.False(t, page.HasMore)
}
