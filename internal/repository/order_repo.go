package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"cartpay/internal/models"
)

// OrderRepository handles order and order item database operations.
// Status transitions are guarded by WHERE predicates on the current
// status, so concurrent writers cannot apply the same transition twice.
type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) FindByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Where("order_number = ?", orderNumber).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepository) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Where("gateway_order_id = ?", gatewayOrderID).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepository) ItemsByOrderID(ctx context.Context, orderID uint) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("id").Find(&items).Error
	return items, err
}

// Create persists an order and its items in one transaction.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// MarkPaymentPending moves an order into payment_pending and records the
// gateway handle. Allowed from created (first attempt) and from
// payment_pending (retried creation after an abandoned attempt).
func (r *OrderRepository) MarkPaymentPending(ctx context.Context, orderID uint, gatewayCode, gatewayOrderID, paymentToken string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status IN ?", orderID, []string{models.OrderStatusCreated, models.OrderStatusPaymentPending}).
		Updates(map[string]interface{}{
			"status":           models.OrderStatusPaymentPending,
			"gateway_code":     gatewayCode,
			"gateway_order_id": gatewayOrderID,
			"payment_token":    paymentToken,
		})
	return res.RowsAffected > 0, res.Error
}

// MarkPaid transitions payment_pending -> paid. Returns false when the
// order was not in payment_pending, which makes the transition
// idempotent under concurrent verification.
func (r *OrderRepository) MarkPaid(ctx context.Context, orderID uint, paymentID string) (bool, error) {
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, models.OrderStatusPaymentPending).
		Updates(map[string]interface{}{
			"status":     models.OrderStatusPaid,
			"payment_id": paymentID,
			"paid_at":    &now,
		})
	return res.RowsAffected > 0, res.Error
}

// MarkPaymentFailed transitions payment_pending -> payment_failed.
func (r *OrderRepository) MarkPaymentFailed(ctx context.Context, orderID uint) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, models.OrderStatusPaymentPending).
		Update("status", models.OrderStatusPaymentFailed)
	return res.RowsAffected > 0, res.Error
}

// FindStalePending returns orders stuck in payment_pending since before
// cutoff, for the reconciler to re-verify.
func (r *OrderRepository) FindStalePending(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = 50
	}
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", models.OrderStatusPaymentPending, cutoff).
		Order("updated_at").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}
