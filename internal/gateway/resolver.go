package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"cartpay/internal/models"
)

// ConfigStore reads persisted gateway configuration. (nil, nil) means no
// configuration is active, which is a normal state, not an error.
type ConfigStore interface {
	FindActive(ctx context.Context) (*models.GatewayConfig, error)
}

// Active is a ready-to-use adapter plus the configuration it runs with.
type Active struct {
	Adapter   Adapter
	Config    Config
	GatewayID uint
}

// Resolver turns "which gateway is active" configuration into an Active
// pair. Switching providers is a configuration change, never a deploy.
type Resolver struct {
	store ConfigStore
}

func NewResolver(store ConfigStore) *Resolver {
	return &Resolver{store: store}
}

// Active resolves the currently active gateway. Returns ErrNotConfigured
// when no configuration row is active.
func (r *Resolver) Active(ctx context.Context) (*Active, error) {
	row, err := r.store.FindActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active gateway config: %w", err)
	}
	if row == nil {
		return nil, ErrNotConfigured
	}

	adapter, err := New(Code(row.Code))
	if err != nil {
		return nil, err
	}

	cfg := Config{
		Code:          Code(row.Code),
		TestMode:      row.TestMode,
		WebhookSecret: row.WebhookSecret,
		Credentials:   map[string]string{},
		Extra:         map[string]string{},
	}
	if row.Credentials != "" {
		if err := json.Unmarshal([]byte(row.Credentials), &cfg.Credentials); err != nil {
			return nil, &ConfigError{Provider: cfg.Code, Reason: "stored credentials are not valid JSON"}
		}
	}
	if row.Extra != "" {
		if err := json.Unmarshal([]byte(row.Extra), &cfg.Extra); err != nil {
			return nil, &ConfigError{Provider: cfg.Code, Reason: "stored extra config is not valid JSON"}
		}
	}

	return &Active{Adapter: adapter, Config: cfg, GatewayID: row.ID}, nil
}
