package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"

	rzp "github.com/razorpay/razorpay-go"
)

// RazorpayAdapter integrates Razorpay through the official SDK (HTTP
// basic auth with key id/secret handled inside the client). Razorpay is
// the only supported provider that works in minor units: amounts are
// multiplied by 100 on the way out and divided by 100 on the way back.
type RazorpayAdapter struct {
	// newClient builds the SDK client; swapped by tests.
	newClient func(keyID, keySecret string) *rzp.Client
}

func NewRazorpayAdapter() *RazorpayAdapter {
	return &RazorpayAdapter{newClient: rzp.NewClient}
}

func (r *RazorpayAdapter) Code() Code   { return Razorpay }
func (r *RazorpayAdapter) Name() string { return "Razorpay" }

func (r *RazorpayAdapter) RequiredCredentials() []string {
	return []string{"key_id", "key_secret"}
}

func (r *RazorpayAdapter) SDKURL() string {
	return "https://checkout.razorpay.com/v1/checkout.js"
}

// toMinorUnits converts a major-unit amount to paise, rounding to the
// nearest integer so 100.50 becomes 10050 rather than 10049.
func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func fromMinorUnits(minor float64) float64 {
	return minor / 100
}

// razorpayOrderBody builds the POST /orders payload.
func razorpayOrderBody(req OrderRequest) map[string]interface{} {
	notes := map[string]interface{}{
		"order_number":   req.OrderNumber,
		"customer_name":  req.Customer.Name,
		"customer_email": req.Customer.Email,
	}
	for i, item := range req.Items {
		notes[fmt.Sprintf("item_%d", i+1)] = fmt.Sprintf("%s x%d", item.Title, item.Quantity)
	}
	return map[string]interface{}{
		"amount":   toMinorUnits(req.Amount),
		"currency": currencyOrINR(req.Currency),
		"receipt":  req.OrderNumber,
		"notes":    notes,
	}
}

func (r *RazorpayAdapter) CreateOrder(_ context.Context, req OrderRequest, cfg Config) (*PaymentHandle, error) {
	if err := checkCredentials(Razorpay, cfg, r.RequiredCredentials()); err != nil {
		return nil, err
	}

	client := r.newClient(cfg.Credentials["key_id"], cfg.Credentials["key_secret"])
	result, err := client.Order.Create(razorpayOrderBody(req), nil)
	if err != nil {
		return nil, &CallError{Provider: Razorpay, Err: err, Body: err.Error()}
	}

	id, _ := result["id"].(string)
	if id == "" {
		return nil, &CallError{Provider: Razorpay, Body: fmt.Sprintf("order response carries no id: %v", result)}
	}

	return &PaymentHandle{
		GatewayOrderID: id,
		AccessKey:      cfg.Credentials["key_id"],
	}, nil
}

// verifySignature checks the checkout-form HMAC over "order_id|payment_id".
func verifySignature(orderID, paymentID, signature, secret string) bool {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(h.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}

// razorpayResult maps a payments API entity into the canonical Result.
func razorpayResult(payment map[string]interface{}) *Result {
	out := &Result{}
	out.PaymentID, _ = payment["id"].(string)
	out.GatewayOrderID, _ = payment["order_id"].(string)
	if amt, ok := payment["amount"].(float64); ok {
		out.Amount = fromMinorUnits(amt)
	}
	if cur, ok := payment["currency"].(string); ok {
		out.Currency = cur
	}

	status, _ := payment["status"].(string)
	switch status {
	case "captured", "authorized":
		out.Success = true
		out.Status = StatusCaptured
	case "failed":
		out.Status = StatusFailed
		desc, _ := payment["error_description"].(string)
		out.Err = failureMessage(desc, "payment failed")
	case "refunded":
		out.Status = StatusRefunded
	default:
		// created / pending / anything new the API grows.
		out.Status = StatusPending
	}
	return out
}

func (r *RazorpayAdapter) Verify(_ context.Context, req VerifyRequest, cfg Config) (*Result, error) {
	if err := checkCredentials(Razorpay, cfg, r.RequiredCredentials()); err != nil {
		return nil, err
	}
	if req.PaymentID == "" {
		return nil, &ConfigError{Provider: Razorpay, Reason: "verify request carries no payment id"}
	}

	// A checkout-form signature, when present, is checked before touching
	// the network; a mismatch is a decline, not a transport failure.
	if req.Signature != "" {
		if !verifySignature(req.GatewayOrderID, req.PaymentID, req.Signature, cfg.Credentials["key_secret"]) {
			return &Result{
				Status:         StatusFailed,
				PaymentID:      req.PaymentID,
				GatewayOrderID: req.GatewayOrderID,
				Err:            "payment signature mismatch",
			}, nil
		}
	}

	client := r.newClient(cfg.Credentials["key_id"], cfg.Credentials["key_secret"])
	payment, err := client.Payment.Fetch(req.PaymentID, nil, nil)
	if err != nil {
		return nil, &CallError{Provider: Razorpay, Err: err, Body: err.Error()}
	}

	return razorpayResult(payment), nil
}
