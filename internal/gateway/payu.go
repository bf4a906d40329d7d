package gateway

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cartpay/internal/pkg/httpclient"
)

const (
	payuLivePaymentURL = "https://secure.payu.in/_payment"
	payuTestPaymentURL = "https://test.payu.in/_payment"
	payuLiveServiceURL = "https://info.payu.in/merchant/postservice.php?form=2"
	payuTestServiceURL = "https://test.payu.in/merchant/postservice.php?form=2"
)

// PayUAdapter integrates PayU's hash-signed redirect flow. Creation makes
// no network call: it builds the signed form payload the storefront posts
// to PayU. Verification uses the verify_payment merchant web-service.
type PayUAdapter struct {
	serviceOverride string
}

func NewPayUAdapter() *PayUAdapter {
	return &PayUAdapter{}
}

func (p *PayUAdapter) Code() Code   { return PayU }
func (p *PayUAdapter) Name() string { return "PayU" }

func (p *PayUAdapter) RequiredCredentials() []string {
	return []string{"key", "salt"}
}

// SDKURL is empty: PayU is a pure-redirect provider.
func (p *PayUAdapter) SDKURL() string { return "" }

func (p *PayUAdapter) paymentURL(cfg Config) string {
	if cfg.TestMode {
		return payuTestPaymentURL
	}
	return payuLivePaymentURL
}

func (p *PayUAdapter) serviceURL(cfg Config) string {
	if p.serviceOverride != "" {
		return p.serviceOverride
	}
	if cfg.TestMode {
		return payuTestServiceURL
	}
	return payuLiveServiceURL
}

// payuAmount formats a major-unit amount the way PayU expects it. The
// formatted string participates in the hash, so it must match the form
// field byte for byte.
func payuAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}

// payuRequestHash computes the v1 request signature:
//
//	sha512(key|txnid|amount|productinfo|firstname|email|udf1|...|udf5||||||salt)
//
// The field order and the exact count of empty segments are dictated by
// PayU; a deviation does not fail loudly, it just produces a transaction
// PayU will never accept.
func payuRequestHash(key, txnID, amount, productInfo, firstName, email string, udfs [5]string, salt string) string {
	fields := []string{key, txnID, amount, productInfo, firstName, email}
	fields = append(fields, udfs[:]...)
	fields = append(fields, "", "", "", "", "", salt)
	sum := sha512.Sum512([]byte(strings.Join(fields, "|")))
	return hex.EncodeToString(sum[:])
}

// payuCommandHash signs a merchant web-service call:
// sha512(key|command|var1|salt).
func payuCommandHash(key, command, var1, salt string) string {
	sum := sha512.Sum512([]byte(key + "|" + command + "|" + var1 + "|" + salt))
	return hex.EncodeToString(sum[:])
}

func (p *PayUAdapter) CreateOrder(_ context.Context, req OrderRequest, cfg Config) (*PaymentHandle, error) {
	if err := checkCredentials(PayU, cfg, p.RequiredCredentials()); err != nil {
		return nil, err
	}

	key := cfg.Credentials["key"]
	salt := cfg.Credentials["salt"]
	amount := payuAmount(req.Amount)
	productInfo := productSummary(req)
	firstName := firstWord(req.Customer.Name)
	udfs := [5]string{req.OrderNumber, fmt.Sprintf("%d", req.OrderID)}

	form := map[string]string{
		"key":         key,
		"txnid":       req.OrderNumber,
		"amount":      amount,
		"productinfo": productInfo,
		"firstname":   firstName,
		"email":       req.Customer.Email,
		"phone":       req.Customer.Phone,
		"surl":        req.ReturnURL,
		"furl":        req.ReturnURL,
		"udf1":        udfs[0],
		"udf2":        udfs[1],
		"hash":        payuRequestHash(key, req.OrderNumber, amount, productInfo, firstName, req.Customer.Email, udfs, salt),
	}

	return &PaymentHandle{
		GatewayOrderID: req.OrderNumber,
		RedirectURL:    p.paymentURL(cfg),
		Extra:          form,
	}, nil
}

func (p *PayUAdapter) Verify(ctx context.Context, req VerifyRequest, cfg Config) (*Result, error) {
	if err := checkCredentials(PayU, cfg, p.RequiredCredentials()); err != nil {
		return nil, err
	}

	txnID := req.OrderNumber
	if txnID == "" {
		txnID = req.GatewayOrderID
	}
	if txnID == "" {
		return nil, &ConfigError{Provider: PayU, Reason: "verify request carries no transaction id"}
	}

	key := cfg.Credentials["key"]
	salt := cfg.Credentials["salt"]
	form := map[string]string{
		"key":     key,
		"command": "verify_payment",
		"var1":    txnID,
		"hash":    payuCommandHash(key, "verify_payment", txnID, salt),
	}

	client := httpclient.New().WithTimeout(15 * time.Second)
	resp, err := client.PostForm(ctx, p.serviceURL(cfg), form)
	if err != nil {
		return nil, &CallError{Provider: PayU, Err: err}
	}
	if !resp.IsSuccess() {
		return nil, &CallError{Provider: PayU, StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}

	var result struct {
		Status             int `json:"status"`
		TransactionDetails map[string]struct {
			MihpayID     string `json:"mihpayid"`
			Status       string `json:"status"`
			Amount       string `json:"transaction_amount"`
			Amt          string `json:"amt"`
			ErrorMessage string `json:"error_Message"`
		} `json:"transaction_details"`
	}
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, &CallError{Provider: PayU, Err: fmt.Errorf("parse verify response: %w", err)}
	}

	detail, ok := result.TransactionDetails[txnID]
	if result.Status != 1 || !ok {
		// The service answered but knows nothing about this txnid yet.
		return &Result{Status: StatusPending, GatewayOrderID: txnID}, nil
	}

	amountStr := detail.Amount
	if amountStr == "" {
		amountStr = detail.Amt
	}
	amount, _ := strconv.ParseFloat(amountStr, 64)

	out := &Result{
		PaymentID:      detail.MihpayID,
		GatewayOrderID: txnID,
		Amount:         amount,
		Currency:       "INR",
	}

	switch strings.ToLower(detail.Status) {
	case "success", "captured":
		out.Success = true
		out.Status = StatusCaptured
	case "failure", "failed":
		out.Status = StatusFailed
		out.Err = failureMessage(detail.ErrorMessage, "payment failed")
	default:
		out.Status = StatusPending
	}
	return out, nil
}

func productSummary(req OrderRequest) string {
	if len(req.Items) == 0 {
		return "Order " + req.OrderNumber
	}
	titles := make([]string, 0, len(req.Items))
	for _, item := range req.Items {
		titles = append(titles, item.Title)
	}
	return strings.Join(titles, ", ")
}

func firstWord(name string) string {
	if i := strings.IndexByte(name, ' '); i > 0 {
		return name[:i]
	}
	return name
}
