package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"cartpay/internal/models"
)

// GatewayConfigRepository handles gateway configuration rows. Rows are
// never physically deleted: historical orders reference them, so a
// provider is retired by deactivating it.
type GatewayConfigRepository struct {
	db *gorm.DB
}

func NewGatewayConfigRepository(db *gorm.DB) *GatewayConfigRepository {
	return &GatewayConfigRepository{db: db}
}

// FindActive returns the single active configuration, or (nil, nil) when
// none is active.
func (r *GatewayConfigRepository) FindActive(ctx context.Context) (*models.GatewayConfig, error) {
	var cfg models.GatewayConfig
	err := r.db.WithContext(ctx).Where("active = ?", true).First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FindByCode returns the configuration for a provider code.
func (r *GatewayConfigRepository) FindByCode(ctx context.Context, code string) (*models.GatewayConfig, error) {
	var cfg models.GatewayConfig
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&cfg).Error; err != nil {
		return nil, err
	}
	return &cfg, nil
}

// List returns all configurations.
func (r *GatewayConfigRepository) List(ctx context.Context) ([]models.GatewayConfig, error) {
	var configs []models.GatewayConfig
	err := r.db.WithContext(ctx).Order("code").Find(&configs).Error
	return configs, err
}

// Upsert creates or updates the configuration for cfg.Code.
func (r *GatewayConfigRepository) Upsert(ctx context.Context, cfg *models.GatewayConfig) error {
	var existing models.GatewayConfig
	err := r.db.WithContext(ctx).Where("code = ?", cfg.Code).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.WithContext(ctx).Create(cfg).Error
	}
	if err != nil {
		return err
	}
	cfg.ID = existing.ID
	cfg.Active = existing.Active
	return r.db.WithContext(ctx).Save(cfg).Error
}

// Activate makes code the single active gateway. The deactivate-all and
// activate-one steps run in one transaction so readers never observe two
// active rows.
func (r *GatewayConfigRepository) Activate(ctx context.Context, code string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.GatewayConfig{}).
			Where("active = ?", true).
			Update("active", false).Error; err != nil {
			return err
		}
		res := tx.Model(&models.GatewayConfig{}).
			Where("code = ?", code).
			Update("active", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("no gateway configuration for code %q", code)
		}
		return nil
	})
}

// Deactivate turns the configuration for code off.
func (r *GatewayConfigRepository) Deactivate(ctx context.Context, code string) error {
	return r.db.WithContext(ctx).Model(&models.GatewayConfig{}).
		Where("code = ?", code).
		Update("active", false).Error
}
