package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"cartpay/internal/checkout"
	"cartpay/internal/gateway"
)

// PaymentCallbackHandler handles the two verification triggers: the
// buyer returning from the gateway, and the provider's async webhook.
// Both funnel into the same idempotent ConfirmPayment path.
type PaymentCallbackHandler struct {
	svc      *checkout.Service
	gateways checkout.GatewaySource
	logger   *zap.Logger
}

func NewPaymentCallbackHandler(svc *checkout.Service, gateways checkout.GatewaySource, logger *zap.Logger) *PaymentCallbackHandler {
	return &PaymentCallbackHandler{svc: svc, gateways: gateways, logger: logger}
}

// Callback handles the buyer's return from the gateway.
// GET/POST /payment/callback
func (h *PaymentCallbackHandler) Callback(c echo.Context) error {
	req := buildVerifyRequest(c)
	if req.OrderNumber == "" && req.GatewayOrderID == "" {
		return h.renderResult(c, "Payment error", "The gateway response is missing the order reference.", "", 0)
	}

	result, err := h.svc.ConfirmPayment(c.Request().Context(), req)
	if err != nil {
		var callErr *gateway.CallError
		if errors.As(err, &callErr) {
			// Indeterminate: the payment may have gone through. Do not
			// tell the buyer it failed.
			h.logger.Warn("verification call failed, will retry", zap.Error(err))
			return h.renderResult(c, "Payment processing",
				"We could not confirm your payment yet. It will be verified automatically; check your order status shortly.",
				req.OrderNumber, 0)
		}
		h.logger.Error("payment confirmation failed", zap.Error(err))
		return h.renderResult(c, "Payment error", "Something went wrong while confirming your payment.", req.OrderNumber, 0)
	}

	switch result.Status {
	case gateway.StatusCaptured:
		return h.renderResult(c, "Payment successful", "Thank you! Your payment has been received.", req.OrderNumber, result.Amount)
	case gateway.StatusFailed:
		msg := result.Err
		if msg == "" {
			msg = "The payment was not completed."
		}
		return h.renderResult(c, "Payment failed", msg, req.OrderNumber, result.Amount)
	default:
		return h.renderResult(c, "Payment processing",
			"Your payment is still being processed. You will be notified once it is confirmed.",
			req.OrderNumber, result.Amount)
	}
}

// webhookPayload is the envelope providers are configured to send to the
// notify URL. Whatever status it claims, the payment is re-verified with
// the provider before any order state changes.
type webhookPayload struct {
	EventID        string `json:"event_id"`
	OrderNumber    string `json:"order_number"`
	GatewayOrderID string `json:"gateway_order_id"`
	PaymentID      string `json:"payment_id"`
}

// Webhook handles async provider notifications.
// POST /payment/webhook
func (h *PaymentCallbackHandler) Webhook(c echo.Context) error {
	ctx := c.Request().Context()

	act, err := h.gateways.Active(ctx)
	if err != nil {
		h.logger.Error("webhook received with no active gateway", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "payments not configured"})
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "unreadable body"})
	}

	if act.Config.WebhookSecret == "" {
		h.logger.Warn("webhook rejected: no webhook secret configured",
			zap.String("provider", string(act.Config.Code)))
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "webhook not configured"})
	}
	signature := c.Request().Header.Get("X-Webhook-Signature")
	if !validWebhookSignature(body, signature, act.Config.WebhookSecret) {
		h.logger.Warn("webhook rejected: bad signature",
			zap.String("provider", string(act.Config.Code)))
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid signature"})
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}

	result, err := h.svc.ConfirmPayment(ctx, gateway.VerifyRequest{
		OrderNumber:    payload.OrderNumber,
		GatewayOrderID: payload.GatewayOrderID,
		PaymentID:      payload.PaymentID,
	})
	if err != nil {
		var callErr *gateway.CallError
		if errors.As(err, &callErr) {
			// Non-2xx makes the provider redeliver, which is exactly the
			// retry we want for an indeterminate verification.
			return c.JSON(http.StatusBadGateway, map[string]string{"status": "verify_failed"})
		}
		h.logger.Error("webhook confirmation failed", zap.Error(err))
		return c.JSON(http.StatusOK, map[string]string{"status": "not_found"})
	}

	return c.JSON(http.StatusOK, map[string]string{"status": string(result.Status)})
}

func validWebhookSignature(body []byte, signature, secret string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}

// buildVerifyRequest extracts whichever identifying fields the provider
// put on the return redirect. Field names differ per provider; unknown
// extras are ignored.
func buildVerifyRequest(c echo.Context) gateway.VerifyRequest {
	param := func(names ...string) string {
		for _, name := range names {
			if v := c.FormValue(name); v != "" {
				return v
			}
			if v := c.QueryParam(name); v != "" {
				return v
			}
		}
		return ""
	}

	return gateway.VerifyRequest{
		OrderNumber:    param("order_number", "txnid", "order_id"),
		GatewayOrderID: param("gateway_order_id", "razorpay_order_id", "payment_token_id"),
		PaymentID:      param("payment_id", "razorpay_payment_id", "mihpayid"),
		Signature:      param("razorpay_signature"),
	}
}

var resultTemplate = template.Must(template.New("payment").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Payment result</title>
    <style>
        body { font-family: -apple-system, Arial, sans-serif; background: #f2f2f2; margin: 0; padding: 20px; display: flex; justify-content: center; align-items: center; min-height: 100vh; }
        .box { background: #fff; border-radius: 8px; box-shadow: 0 2px 10px rgba(0,0,0,0.1); padding: 40px; text-align: center; max-width: 400px; width: 100%; }
        h1 { color: #333; margin-bottom: 20px; }
        p { color: #666; margin-bottom: 10px; }
    </style>
</head>
<body>
    <div class="box">
        <h1>{{.Title}}</h1>
        {{if .OrderNumber}}<p>Order: <span>{{.OrderNumber}}</span></p>{{end}}
        {{if .Amount}}<p>Amount: <span>{{.AmountStr}}</span></p>{{end}}
        <p>{{.Message}}</p>
    </div>
</body>
</html>`))

func (h *PaymentCallbackHandler) renderResult(c echo.Context, title, message, orderNumber string, amount float64) error {
	data := map[string]interface{}{
		"Title":       title,
		"Message":     message,
		"OrderNumber": orderNumber,
		"Amount":      amount > 0,
		"AmountStr":   fmt.Sprintf("%.2f", amount),
	}

	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(http.StatusOK)
	return resultTemplate.Execute(c.Response().Writer, data)
}
