package repository

import (
	"context"
	"errors"
	"seafood_shop/internal/domain/voucher/model"
	"seafood_shop/pkg/database"
	"seafood_shop/pkg/pagination"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound   = errors.New("voucher not found")
	ErrCodeExists = errors.New("voucher code already exists")
)

type VoucherRepository interface {
	Create(ctx context.Context, v *model.Voucher) error
	GetByID(ctx context.Context, id string) (*model.Voucher, error)
	GetByCode(ctx context.Context, code string) (*model.Voucher, error)
	Update(ctx context.Context, v *model.Voucher) error
	Delete(ctx context.Context, id string) error
	// ByCode 按 code 升序的有序集合，供分页与分批检索
	ByCode() pagination.Source[model.Voucher]
	ListValid(ctx context.Context, now time.Time) ([]model.Voucher, error)
	// Redeem 行锁内执行 fn，fn 返回 nil 时持久化计数
	Redeem(ctx context.Context, code string, fn func(v *model.Voucher) error) (*model.Voucher, error)
}

type voucherRepository struct {
	db *gorm.DB
}

func NewVoucherRepository(db *gorm.DB) VoucherRepository {
	return &voucherRepository{db: db}
}

func (r *voucherRepository) Create(ctx context.Context, v *model.Voucher) error {
	if v.UserUsage == nil {
		v.UserUsage = model.UserUsage{}
	}
	err := r.db.WithContext(ctx).Create(v).Error
	if database.IsUniqueViolation(err) {
		return ErrCodeExists
	}
	return err
}

func (r *voucherRepository) GetByID(ctx context.Context, id string) (*model.Voucher, error) {
	var v model.Voucher
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&v).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

func (r *voucherRepository) GetByCode(ctx context.Context, code string) (*model.Voucher, error) {
	var v model.Voucher
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&v).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

// Update 只更新可编辑字段，计数由 Redeem 维护
func (r *voucherRepository) Update(ctx context.Context, v *model.Voucher) error {
	result := r.db.WithContext(ctx).Model(&model.Voucher{}).
		Where("id = ?", v.ID).
		Select("code", "discount_type", "discount_value", "min_purchase", "max_discount",
			"start_date", "end_date", "usage_limit", "per_user_limit").
		Updates(v)
	if result.Error != nil {
		if database.IsUniqueViolation(result.Error) {
			return ErrCodeExists
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *voucherRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Voucher{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *voucherRepository) ByCode() pagination.Source[model.Voucher] {
	return pagination.GormSource[model.Voucher]{
		DB:     r.db,
		Column: "code",
		Key:    func(v model.Voucher) (any, string) { return v.Code, v.ID },
	}
}

func (r *voucherRepository) ListValid(ctx context.Context, now time.Time) ([]model.Voucher, error) {
	var vouchers []model.Voucher
	err := r.db.WithContext(ctx).
		Where("start_date <= ? AND end_date >= ? AND usage_count < usage_limit", now, now).
		Order("code ASC").
		Find(&vouchers).Error
	return vouchers, err
}

// Redeem SELECT ... FOR UPDATE 串行化同一张券的并发核销
// context 中已有事务时加入该事务，由调用方决定提交
func (r *voucherRepository) Redeem(ctx context.Context, code string, fn func(v *model.Voucher) error) (*model.Voucher, error) {
	var v model.Voucher
	err := database.Transaction(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("code = ?", code).
			First(&v).Error; err != nil {
			if database.IsNotFound(err) {
				return ErrNotFound
			}
			return err
		}

		if err := fn(&v); err != nil {
			return err
		}

		return tx.Model(&model.Voucher{}).
			Where("id = ?", v.ID).
			Updates(map[string]interface{}{
				"usage_count": v.UsageCount,
				"user_usage":  v.UserUsage,
				"updated_at":  time.Now(),
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return &v, nil
}
