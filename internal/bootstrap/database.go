package bootstrap

import (
	"fmt"

	"gorm.io/gorm"

	"cartpay/internal/gateway"
	"cartpay/internal/models"
)

// MigrateAndSeed ensures required tables exist and inserts a disabled
// row per supported provider so the admin API has something to fill in.
func MigrateAndSeed(db *gorm.DB) error {
	if err := db.AutoMigrate(allModels()...); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}
	if err := seedGateways(db); err != nil {
		return fmt.Errorf("seed gateways failed: %w", err)
	}
	return nil
}

func allModels() []interface{} {
	return []interface{}{
		&models.GatewayConfig{},
		&models.Order{},
		&models.OrderItem{},
		&models.PaymentAttempt{},
	}
}

func seedGateways(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.GatewayConfig{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		for _, code := range gateway.Codes() {
			row := models.GatewayConfig{
				Code:        string(code),
				Credentials: "{}",
				Extra:       "{}",
				TestMode:    true,
				Active:      false,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
