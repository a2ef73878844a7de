package repository

import (
	"context"
	"errors"
	"seafood_shop/internal/domain/payment/model"
	"seafood_shop/pkg/database"
	"time"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("payment transaction not found")

type PaymentRepository interface {
	Create(ctx context.Context, txn *model.Transaction) error
	GetByOrderNo(ctx context.Context, orderNo string) (*model.Transaction, error)
	// MarkPaid 仅当交易仍为 pending 时生效，返回是否由本次调用完成状态迁移
	MarkPaid(ctx context.Context, orderNo, gatewayTransID string, paidAt time.Time) (bool, error)
	MarkFailed(ctx context.Context, orderNo string, resultCode int, message string) (bool, error)
	// Reopen 订单落库失败时把 paid 退回 pending，等待网关重试
	Reopen(ctx context.Context, orderNo string) error
	AttachOrder(ctx context.Context, orderNo, orderID string) error
}

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, txn *model.Transaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *paymentRepository) GetByOrderNo(ctx context.Context, orderNo string) (*model.Transaction, error) {
	var txn model.Transaction
	if err := r.db.WithContext(ctx).Where("order_no = ?", orderNo).First(&txn).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &txn, nil
}

func (r *paymentRepository) transition(ctx context.Context, orderNo string, from model.Status, updates map[string]interface{}) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("order_no = ? AND status = ?", orderNo, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *paymentRepository) MarkPaid(ctx context.Context, orderNo, gatewayTransID string, paidAt time.Time) (bool, error) {
	return r.transition(ctx, orderNo, model.StatusPending, map[string]interface{}{
		"status":           model.StatusPaid,
		"gateway_trans_id": gatewayTransID,
		"result_code":      0,
		"paid_at":          paidAt,
	})
}

func (r *paymentRepository) MarkFailed(ctx context.Context, orderNo string, resultCode int, message string) (bool, error) {
	return r.transition(ctx, orderNo, model.StatusPending, map[string]interface{}{
		"status":      model.StatusFailed,
		"result_code": resultCode,
		"message":     message,
	})
}

func (r *paymentRepository) Reopen(ctx context.Context, orderNo string) error {
	_, err := r.transition(ctx, orderNo, model.StatusPaid, map[string]interface{}{
		"status":  model.StatusPending,
		"paid_at": nil,
	})
	return err
}

func (r *paymentRepository) AttachOrder(ctx context.Context, orderNo, orderID string) error {
	return r.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("order_no = ?", orderNo).
		Update("order_id", orderID).Error
}
