package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cartpay/internal/models"
)

type stubConfigStore struct {
	row *models.GatewayConfig
	err error
}

func (s *stubConfigStore) FindActive(_ context.Context) (*models.GatewayConfig, error) {
	return s.row, s.err
}

func TestResolverNoActiveGateway(t *testing.T) {
	resolver := NewResolver(&stubConfigStore{})

	_, err := resolver.Active(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestResolverStoreErrorPropagates(t *testing.T) {
	boom := errors.New("db down")
	resolver := NewResolver(&stubConfigStore{err: boom})

	_, err := resolver.Active(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestResolverBuildsActivePair(t *testing.T) {
	resolver := NewResolver(&stubConfigStore{row: &models.GatewayConfig{
		ID:            3,
		Code:          "razorpay",
		Credentials:   `{"key_id": "rzp_test_k", "key_secret": "s3cret"}`,
		TestMode:      true,
		WebhookSecret: "whsec",
		Extra:         `{"theme": "dark"}`,
	}})

	act, err := resolver.Active(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Razorpay, act.Adapter.Code())
	assert.Equal(t, Razorpay, act.Config.Code)
	assert.Equal(t, uint(3), act.GatewayID)
	assert.True(t, act.Config.TestMode)
	assert.Equal(t, "rzp_test_k", act.Config.Credentials["key_id"])
	assert.Equal(t, "whsec", act.Config.WebhookSecret)
	assert.Equal(t, "dark", act.Config.Extra["theme"])
}

func TestResolverUnknownCode(t *testing.T) {
	resolver := NewResolver(&stubConfigStore{row: &models.GatewayConfig{Code: "stripe"}})

	_, err := resolver.Active(context.Background())
	assert.ErrorIs(t, err, ErrUnsupportedGateway)
}

func TestResolverCorruptCredentialsJSON(t *testing.T) {
	resolver := NewResolver(&stubConfigStore{row: &models.GatewayConfig{
		Code:        "payu",
		Credentials: `not-json`,
	}})

	_, err := resolver.Active(context.Background())

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, PayU, cfgErr.Provider)
}
