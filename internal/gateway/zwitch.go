package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cartpay/internal/pkg/httpclient"
)

const (
	zwitchLiveURL    = "https://api.zwitch.io/v1"
	zwitchSandboxURL = "https://sandbox-api.zwitch.io/v1"
)

// ZwitchAdapter integrates the Zwitch payment-token flow. Creation
// returns an opaque token the browser SDK consumes; status is polled
// from the payment_token resource afterwards.
type ZwitchAdapter struct {
	// baseOverride replaces both live and sandbox hosts; used by tests.
	baseOverride string
}

func NewZwitchAdapter() *ZwitchAdapter {
	return &ZwitchAdapter{}
}

func (z *ZwitchAdapter) Code() Code   { return Zwitch }
func (z *ZwitchAdapter) Name() string { return "Zwitch" }

func (z *ZwitchAdapter) RequiredCredentials() []string {
	return []string{"access_key", "secret_key"}
}

func (z *ZwitchAdapter) SDKURL() string {
	return "https://payments.zwitch.io/sdk/v1/zwitch.js"
}

func (z *ZwitchAdapter) baseURL(cfg Config) string {
	if z.baseOverride != "" {
		return z.baseOverride
	}
	if cfg.TestMode {
		return zwitchSandboxURL
	}
	return zwitchLiveURL
}

func (z *ZwitchAdapter) client(cfg Config) *httpclient.Client {
	return httpclient.New().
		WithTimeout(15 * time.Second).
		WithBearerToken(cfg.Credentials["secret_key"])
}

func (z *ZwitchAdapter) CreateOrder(ctx context.Context, req OrderRequest, cfg Config) (*PaymentHandle, error) {
	if err := checkCredentials(Zwitch, cfg, z.RequiredCredentials()); err != nil {
		return nil, err
	}

	body := map[string]interface{}{
		"amount":         req.Amount,
		"currency":       currencyOrINR(req.Currency),
		"mtx":            req.OrderNumber,
		"contact_number": req.Customer.Phone,
		"email":          req.Customer.Email,
		"callback_url":   req.ReturnURL,
		"udf": map[string]string{
			"udf1": req.OrderNumber,
			"udf2": req.Customer.Name,
			"udf3": fmt.Sprintf("%d", req.OrderID),
		},
	}

	resp, err := z.client(cfg).Post(ctx, z.baseURL(cfg)+"/pg/payment_token", body)
	if err != nil {
		return nil, &CallError{Provider: Zwitch, Err: err}
	}
	if !resp.IsSuccess() {
		return nil, &CallError{Provider: Zwitch, StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}

	var result struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, &CallError{Provider: Zwitch, Err: fmt.Errorf("parse create response: %w", err)}
	}
	if result.ID == "" {
		return nil, &CallError{Provider: Zwitch, StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}

	return &PaymentHandle{
		PaymentToken:   result.ID,
		GatewayOrderID: result.ID,
		AccessKey:      cfg.Credentials["access_key"],
	}, nil
}

func (z *ZwitchAdapter) Verify(ctx context.Context, req VerifyRequest, cfg Config) (*Result, error) {
	if err := checkCredentials(Zwitch, cfg, z.RequiredCredentials()); err != nil {
		return nil, err
	}

	tokenID := req.GatewayOrderID
	if tokenID == "" {
		tokenID = req.PaymentID
	}
	if tokenID == "" {
		return nil, &ConfigError{Provider: Zwitch, Reason: "verify request carries no payment token id"}
	}

	resp, err := z.client(cfg).Get(ctx, z.baseURL(cfg)+"/pg/payment_token/"+tokenID)
	if err != nil {
		return nil, &CallError{Provider: Zwitch, Err: err}
	}
	if !resp.IsSuccess() {
		return nil, &CallError{Provider: Zwitch, StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}

	var result struct {
		ID        string  `json:"id"`
		Status    string  `json:"status"`
		Amount    float64 `json:"amount"`
		Currency  string  `json:"currency"`
		PaymentID string  `json:"payment_id"`
		Message   string  `json:"message"`
	}
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, &CallError{Provider: Zwitch, Err: fmt.Errorf("parse verify response: %w", err)}
	}

	out := &Result{
		PaymentID:      result.PaymentID,
		GatewayOrderID: result.ID,
		Amount:         result.Amount,
		Currency:       currencyOrINR(result.Currency),
	}

	switch result.Status {
	case "captured", "success", "paid":
		out.Success = true
		out.Status = StatusCaptured
	case "failed", "cancelled", "expired":
		out.Status = StatusFailed
		out.Err = failureMessage(result.Message, "payment "+result.Status)
	case "refunded":
		out.Status = StatusRefunded
	default:
		out.Status = StatusPending
	}
	return out, nil
}

func currencyOrINR(currency string) string {
	if currency == "" {
		return "INR"
	}
	return currency
}

func failureMessage(msg, fallback string) string {
	if msg != "" {
		return msg
	}
	return fallback
}
