package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"cartpay/internal/models"
)

// PaymentAttemptRepository handles the payment attempt audit trail.
type PaymentAttemptRepository struct {
	db *gorm.DB
}

func NewPaymentAttemptRepository(db *gorm.DB) *PaymentAttemptRepository {
	return &PaymentAttemptRepository{db: db}
}

func (r *PaymentAttemptRepository) Create(ctx context.Context, attempt *models.PaymentAttempt) error {
	return r.db.WithContext(ctx).Create(attempt).Error
}

// LatestByOrderID returns the most recent attempt for an order, or
// (nil, nil) when the order has none.
func (r *PaymentAttemptRepository) LatestByOrderID(ctx context.Context, orderID uint) (*models.PaymentAttempt, error) {
	var attempt models.PaymentAttempt
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id DESC").
		First(&attempt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *PaymentAttemptRepository) FindByOrderID(ctx context.Context, orderID uint) ([]models.PaymentAttempt, error) {
	var attempts []models.PaymentAttempt
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("id").Find(&attempts).Error
	return attempts, err
}

// RecordVerification updates the latest attempt for an order with the
// outcome of a verification call.
func (r *PaymentAttemptRepository) RecordVerification(ctx context.Context, orderID uint, status, paymentID, detail string) error {
	latest, err := r.LatestByOrderID(ctx, orderID)
	if err != nil || latest == nil {
		return err
	}
	return r.db.WithContext(ctx).Model(&models.PaymentAttempt{}).
		Where("id = ?", latest.ID).
		Updates(map[string]interface{}{
			"status":     status,
			"payment_id": paymentID,
			"detail":     detail,
		}).Error
}
