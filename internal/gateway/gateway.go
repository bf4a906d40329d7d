package gateway

import "context"

// Code identifies a supported payment provider. The set is closed; adding
// a provider means adding a constant here and a case to the factory.
type Code string

const (
	Zwitch   Code = "zwitch"
	Razorpay Code = "razorpay"
	PayU     Code = "payu"
	Cashfree Code = "cashfree"
)

// Codes returns every supported provider code.
func Codes() []Code {
	return []Code{Zwitch, Razorpay, PayU, Cashfree}
}

// Valid reports whether c is a supported provider code.
func (c Code) Valid() bool {
	switch c {
	case Zwitch, Razorpay, PayU, Cashfree:
		return true
	}
	return false
}

// Status is the canonical payment status vocabulary. Every provider's
// native status set is mapped into these four values. A provider-side
// "authorized" maps to StatusCaptured: authorization is treated as
// sufficient to fulfill.
type Status string

const (
	StatusCaptured Status = "captured"
	StatusFailed   Status = "failed"
	StatusPending  Status = "pending"
	StatusRefunded Status = "refunded"
)

// Config is the runtime configuration for one provider, assembled by the
// resolver from the persisted gateway_configs row.
type Config struct {
	Code          Code
	Credentials   map[string]string
	TestMode      bool
	WebhookSecret string
	Extra         map[string]string
}

// Customer carries the buyer fields providers require on order creation.
type Customer struct {
	Name       string
	Email      string
	Phone      string
	Address    string
	City       string
	State      string
	PostalCode string
}

// LineItem is receipt metadata only. Pricing is finalized before the
// payment layer is invoked; items never drive amount computation here.
type LineItem struct {
	ID        string
	Title     string
	VariantID string
	UnitPrice float64
	Quantity  int
}

// OrderRequest describes one checkout attempt. Amount is in major
// currency units (rupees, not paise); adapters convert where a provider
// expects minor units.
type OrderRequest struct {
	Amount      float64
	Currency    string
	Customer    Customer
	OrderID     uint
	OrderNumber string
	Items       []LineItem
	ReturnURL   string
	NotifyURL   string
}

// PaymentHandle is the result of creating a payment order with a
// provider. Which fields are set depends on the provider's flow: SDK
// providers return a token, redirect providers a URL. Extra carries
// provider-specific fields without widening the shared contract.
type PaymentHandle struct {
	PaymentToken   string            `json:"payment_token,omitempty"`
	GatewayOrderID string            `json:"gateway_order_id,omitempty"`
	RedirectURL    string            `json:"redirect_url,omitempty"`
	AccessKey      string            `json:"access_key,omitempty"`
	Extra          map[string]string `json:"extra,omitempty"`
}

// VerifyRequest identifies the payment to check. Not every field is
// meaningful for every provider; adapters read what they need.
type VerifyRequest struct {
	PaymentID      string
	GatewayOrderID string
	OrderNumber    string
	Amount         float64
	Signature      string
	Extra          map[string]string
}

// Result is the normalized outcome of a verification. Business declines
// are Results with Success=false, never errors.
type Result struct {
	Success        bool
	Status         Status
	PaymentID      string
	GatewayOrderID string
	Amount         float64
	Currency       string
	Err            string
}

// Adapter is the contract every provider implementation satisfies.
//
// CreateOrder fails with *ConfigError before any network call when
// required credentials are missing, and with *CallError when the
// provider rejects the HTTP exchange. Verify returns a Result for any
// answer the provider actually gave, including "not captured yet";
// *CallError is reserved for the exchange itself failing, which callers
// must treat as indeterminate and retry rather than as a decline.
type Adapter interface {
	Code() Code
	Name() string
	RequiredCredentials() []string

	// SDKURL returns the browser script the storefront must load before
	// opening this provider's checkout, or "" for pure-redirect flows.
	SDKURL() string

	CreateOrder(ctx context.Context, req OrderRequest, cfg Config) (*PaymentHandle, error)
	Verify(ctx context.Context, req VerifyRequest, cfg Config) (*Result, error)
}

// checkCredentials returns a *ConfigError naming every required key that
// is absent or empty, or nil when the config is complete.
func checkCredentials(code Code, cfg Config, required []string) error {
	var missing []string
	for _, key := range required {
		if cfg.Credentials[key] == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return &ConfigError{Provider: code, Missing: missing}
	}
	return nil
}
