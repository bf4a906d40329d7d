package models

import "time"

// Payment attempt statuses.
const (
	AttemptStatusInitiated    = "initiated"
	AttemptStatusCaptured     = "captured"
	AttemptStatusFailed       = "failed"
	AttemptStatusPending      = "pending"
	AttemptStatusCreateFailed = "create_failed"
)

// PaymentAttempt maps to the `payment_attempts` table. One row is written
// for every create call against a gateway and updated as verifications
// come back; it is the audit trail for money movement.
type PaymentAttempt struct {
	ID             uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	OrderID        uint      `gorm:"column:order_id;index" json:"order_id"`
	OrderNumber    string    `gorm:"column:order_number;size:100;index" json:"order_number"`
	Gateway        string    `gorm:"column:gateway;size:50" json:"gateway"`
	GatewayOrderID string    `gorm:"column:gateway_order_id;size:200" json:"gateway_order_id"`
	PaymentID      string    `gorm:"column:payment_id;size:200" json:"payment_id"`
	Amount         float64   `gorm:"column:amount" json:"amount"`
	Currency       string    `gorm:"column:currency;size:10" json:"currency"`
	Status         string    `gorm:"column:status;size:50" json:"status"`
	Detail         string    `gorm:"column:detail;type:text" json:"detail"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (PaymentAttempt) TableName() string {
	return "payment_attempts"
}
