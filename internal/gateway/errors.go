package gateway

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedGateway is returned by the factory for a provider code
// with no registered adapter. This is a deployment/config error.
var ErrUnsupportedGateway = errors.New("gateway: unsupported provider code")

// ErrNotConfigured is returned by the resolver when no gateway
// configuration is active. Callers surface it as "payments not
// configured" rather than crashing.
var ErrNotConfigured = errors.New("gateway: no active payment gateway configured")

// ConfigError reports missing or invalid provider configuration. It is
// always raised before any network call and must not be retried.
type ConfigError struct {
	Provider Code
	Missing  []string
	Reason   string
}

func (e *ConfigError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("gateway %s: missing credentials: %s", e.Provider, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("gateway %s: %s", e.Provider, e.Reason)
}

// CallError reports a failed HTTP exchange with a provider: non-2xx
// response, network error, or timeout. Body carries the raw provider
// error payload for diagnostics. During creation a CallError aborts the
// checkout attempt; during verification it means the real payment state
// is unknown and the caller must retry later instead of concluding the
// payment failed.
type CallError struct {
	Provider   Code
	StatusCode int
	Body       string
	Err        error
}

func (e *CallError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gateway %s: call failed: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("gateway %s: provider returned HTTP %d: %s", e.Provider, e.StatusCode, e.Body)
}

func (e *CallError) Unwrap() error {
	return e.Err
}
