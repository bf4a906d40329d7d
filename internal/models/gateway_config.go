package models

import "time"

// GatewayConfig maps to the `gateway_configs` table. One row per supported
// payment provider; at most one row is active at a time.
type GatewayConfig struct {
	ID            uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Code          string    `gorm:"column:code;size:50;uniqueIndex" json:"code"`
	Credentials   string    `gorm:"column:credentials;type:text" json:"-"`
	TestMode      bool      `gorm:"column:test_mode" json:"test_mode"`
	Active        bool      `gorm:"column:active;index" json:"active"`
	WebhookSecret string    `gorm:"column:webhook_secret;size:500" json:"-"`
	Extra         string    `gorm:"column:extra;type:text" json:"extra"`
	CreatedAt     time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (GatewayConfig) TableName() string {
	return "gateway_configs"
}
