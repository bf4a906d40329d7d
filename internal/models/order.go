package models

import "time"

// Order payment statuses. An order may only be marked paid as the result
// of a gateway verification.
const (
	OrderStatusCreated          = "created"
	OrderStatusPaymentPending   = "payment_pending"
	OrderStatusPaid             = "paid"
	OrderStatusPaymentFailed    = "payment_failed"
	OrderStatusRefundProcessing = "refund_processing"
	OrderStatusRefunded         = "refunded"
)

// Order maps to the `orders` table.
type Order struct {
	ID             uint       `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	OrderNumber    string     `gorm:"column:order_number;size:100;uniqueIndex" json:"order_number"`
	Status         string     `gorm:"column:status;size:50;index" json:"status"`
	Currency       string     `gorm:"column:currency;size:10" json:"currency"`
	TotalAmount    float64    `gorm:"column:total_amount" json:"total_amount"`
	CustomerName   string     `gorm:"column:customer_name;size:200" json:"customer_name"`
	CustomerEmail  string     `gorm:"column:customer_email;size:200" json:"customer_email"`
	CustomerPhone  string     `gorm:"column:customer_phone;size:50" json:"customer_phone"`
	AddressLine    string     `gorm:"column:address_line;size:500" json:"address_line"`
	City           string     `gorm:"column:city;size:100" json:"city"`
	State          string     `gorm:"column:state;size:100" json:"state"`
	PostalCode     string     `gorm:"column:postal_code;size:20" json:"postal_code"`
	GatewayCode    string     `gorm:"column:gateway_code;size:50" json:"gateway_code"`
	GatewayOrderID string     `gorm:"column:gateway_order_id;size:200;index" json:"gateway_order_id"`
	PaymentToken   string     `gorm:"column:payment_token;size:500" json:"-"`
	PaymentID      string     `gorm:"column:payment_id;size:200" json:"payment_id"`
	PaidAt         *time.Time `gorm:"column:paid_at" json:"paid_at"`
	CreatedAt      time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem maps to the `order_items` table. Items are carried to the
// gateway only as receipt metadata; pricing is settled before checkout
// reaches the payment layer.
type OrderItem struct {
	ID        uint    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	OrderID   uint    `gorm:"column:order_id;index" json:"order_id"`
	ItemID    string  `gorm:"column:item_id;size:100" json:"item_id"`
	Title     string  `gorm:"column:title;size:500" json:"title"`
	VariantID string  `gorm:"column:variant_id;size:100" json:"variant_id"`
	UnitPrice float64 `gorm:"column:unit_price" json:"unit_price"`
	Quantity  int     `gorm:"column:quantity" json:"quantity"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
