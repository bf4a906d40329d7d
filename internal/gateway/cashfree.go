package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cartpay/internal/pkg/httpclient"
)

const (
	cashfreeLiveURL    = "https://api.cashfree.com/pg"
	cashfreeSandboxURL = "https://sandbox.cashfree.com/pg"
	cashfreeAPIVersion = "2023-08-01"
)

// CashfreeAdapter integrates Cashfree's order + payment-session flow.
// Creation returns a payment_session_id for the browser SDK; status is
// read back from the order's payments collection.
type CashfreeAdapter struct {
	baseOverride string
}

func NewCashfreeAdapter() *CashfreeAdapter {
	return &CashfreeAdapter{}
}

func (c *CashfreeAdapter) Code() Code   { return Cashfree }
func (c *CashfreeAdapter) Name() string { return "Cashfree" }

func (c *CashfreeAdapter) RequiredCredentials() []string {
	return []string{"client_id", "client_secret"}
}

func (c *CashfreeAdapter) SDKURL() string {
	return "https://sdk.cashfree.com/js/v3/cashfree.js"
}

func (c *CashfreeAdapter) baseURL(cfg Config) string {
	if c.baseOverride != "" {
		return c.baseOverride
	}
	if cfg.TestMode {
		return cashfreeSandboxURL
	}
	return cashfreeLiveURL
}

func (c *CashfreeAdapter) client(cfg Config) *httpclient.Client {
	return httpclient.New().
		WithTimeout(15 * time.Second).
		WithHeader("x-client-id", cfg.Credentials["client_id"]).
		WithHeader("x-client-secret", cfg.Credentials["client_secret"]).
		WithHeader("x-api-version", cashfreeAPIVersion)
}

func (c *CashfreeAdapter) CreateOrder(ctx context.Context, req OrderRequest, cfg Config) (*PaymentHandle, error) {
	if err := checkCredentials(Cashfree, cfg, c.RequiredCredentials()); err != nil {
		return nil, err
	}

	body := map[string]interface{}{
		"order_id":       req.OrderNumber,
		"order_amount":   req.Amount,
		"order_currency": currencyOrINR(req.Currency),
		"order_note":     productSummary(req),
		"customer_details": map[string]string{
			"customer_id":    fmt.Sprintf("cust_%d", req.OrderID),
			"customer_name":  req.Customer.Name,
			"customer_email": req.Customer.Email,
			"customer_phone": req.Customer.Phone,
		},
		"order_meta": map[string]string{
			"return_url": req.ReturnURL,
			"notify_url": req.NotifyURL,
		},
	}

	resp, err := c.client(cfg).Post(ctx, c.baseURL(cfg)+"/orders", body)
	if err != nil {
		return nil, &CallError{Provider: Cashfree, Err: err}
	}
	if !resp.IsSuccess() {
		return nil, &CallError{Provider: Cashfree, StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}

	var result struct {
		OrderID          string `json:"order_id"`
		PaymentSessionID string `json:"payment_session_id"`
	}
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, &CallError{Provider: Cashfree, Err: fmt.Errorf("parse create response: %w", err)}
	}
	if result.PaymentSessionID == "" {
		return nil, &CallError{Provider: Cashfree, StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}

	return &PaymentHandle{
		PaymentToken:   result.PaymentSessionID,
		GatewayOrderID: result.OrderID,
	}, nil
}

func (c *CashfreeAdapter) Verify(ctx context.Context, req VerifyRequest, cfg Config) (*Result, error) {
	if err := checkCredentials(Cashfree, cfg, c.RequiredCredentials()); err != nil {
		return nil, err
	}

	orderID := req.GatewayOrderID
	if orderID == "" {
		orderID = req.OrderNumber
	}
	if orderID == "" {
		return nil, &ConfigError{Provider: Cashfree, Reason: "verify request carries no order id"}
	}

	resp, err := c.client(cfg).Get(ctx, c.baseURL(cfg)+"/orders/"+orderID+"/payments")
	if err != nil {
		return nil, &CallError{Provider: Cashfree, Err: err}
	}
	if !resp.IsSuccess() {
		return nil, &CallError{Provider: Cashfree, StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}

	var payments []struct {
		CFPaymentID     json.Number `json:"cf_payment_id"`
		PaymentStatus   string      `json:"payment_status"`
		PaymentAmount   float64     `json:"payment_amount"`
		PaymentCurrency string      `json:"payment_currency"`
		PaymentMessage  string      `json:"payment_message"`
	}
	if err := json.Unmarshal(resp.Body(), &payments); err != nil {
		return nil, &CallError{Provider: Cashfree, Err: fmt.Errorf("parse payments response: %w", err)}
	}

	out := &Result{GatewayOrderID: orderID, Status: StatusPending}

	// A successful entry wins outright; otherwise an in-flight entry keeps
	// the order pending, and only an all-terminal-failures list is a decline.
	sawPending := false
	lastFailure := ""
	for _, p := range payments {
		switch p.PaymentStatus {
		case "SUCCESS":
			return &Result{
				Success:        true,
				Status:         StatusCaptured,
				PaymentID:      p.CFPaymentID.String(),
				GatewayOrderID: orderID,
				Amount:         p.PaymentAmount,
				Currency:       currencyOrINR(p.PaymentCurrency),
			}, nil
		case "FAILED", "USER_DROPPED", "CANCELLED", "VOID":
			lastFailure = failureMessage(p.PaymentMessage, "payment "+p.PaymentStatus)
			out.PaymentID = p.CFPaymentID.String()
			out.Amount = p.PaymentAmount
		default:
			sawPending = true
		}
	}

	if len(payments) > 0 && !sawPending && lastFailure != "" {
		out.Status = StatusFailed
		out.Err = lastFailure
	}
	return out, nil
}
