package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cashfreeTestConfig() Config {
	return Config{
		Code:     Cashfree,
		TestMode: true,
		Credentials: map[string]string{
			"client_id":     "CF_TEST_ID",
			"client_secret": "CF_TEST_SECRET",
		},
	}
}

func TestCashfreeCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders", r.URL.Path)
		assert.Equal(t, "CF_TEST_ID", r.Header.Get("x-client-id"))
		assert.Equal(t, "CF_TEST_SECRET", r.Header.Get("x-client-secret"))
		assert.Equal(t, cashfreeAPIVersion, r.Header.Get("x-api-version"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ORDAB12CD34", body["order_id"])
		assert.Equal(t, 499.0, body["order_amount"], "amount stays in major units")

		meta, ok := body["order_meta"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "https://shop.example.com/payment/callback", meta["return_url"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"order_id": "ORDAB12CD34", "payment_session_id": "session_abc123"}`))
	}))
	defer srv.Close()

	adapter := &CashfreeAdapter{baseOverride: srv.URL}
	handle, err := adapter.CreateOrder(context.Background(), OrderRequest{
		Amount:      499,
		OrderID:     7,
		OrderNumber: "ORDAB12CD34",
		Customer:    Customer{Name: "Asha Rao", Email: "asha@example.com", Phone: "9999999999"},
		ReturnURL:   "https://shop.example.com/payment/callback",
		NotifyURL:   "https://shop.example.com/payment/webhook",
	}, cashfreeTestConfig())
	require.NoError(t, err)

	assert.Equal(t, "session_abc123", handle.PaymentToken)
	assert.Equal(t, "ORDAB12CD34", handle.GatewayOrderID)
}

func TestCashfreeCreateOrderMissingCredentialsNoNetworkCall(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	adapter := &CashfreeAdapter{baseOverride: srv.URL}
	_, err := adapter.CreateOrder(context.Background(), OrderRequest{Amount: 499}, Config{Code: Cashfree})

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.ElementsMatch(t, []string{"client_id", "client_secret"}, cfgErr.Missing)
	assert.Zero(t, calls)
}

func TestCashfreeVerifyAnySuccessWins(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders/ORDAB12CD34/payments", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"cf_payment_id": 101, "payment_status": "FAILED", "payment_amount": 499, "payment_message": "Card declined"},
			{"cf_payment_id": 102, "payment_status": "SUCCESS", "payment_amount": 499, "payment_currency": "INR"}
		]`))
	}))
	defer srv.Close()

	adapter := &CashfreeAdapter{baseOverride: srv.URL}
	result, err := adapter.Verify(context.Background(), VerifyRequest{GatewayOrderID: "ORDAB12CD34"}, cashfreeTestConfig())
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, StatusCaptured, result.Status)
	assert.Equal(t, "102", result.PaymentID)
	assert.Equal(t, 499.0, result.Amount)
}

func TestCashfreeVerifyAllTerminalFailuresIsDecline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"cf_payment_id": 101, "payment_status": "USER_DROPPED", "payment_amount": 499},
			{"cf_payment_id": 102, "payment_status": "FAILED", "payment_amount": 499, "payment_message": "Card declined"}
		]`))
	}))
	defer srv.Close()

	adapter := &CashfreeAdapter{baseOverride: srv.URL}
	result, err := adapter.Verify(context.Background(), VerifyRequest{GatewayOrderID: "ORDAB12CD34"}, cashfreeTestConfig())
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, StatusFailed, result.Status)
	assert.Equal(t, "Card declined", result.Err)
}

func TestCashfreeVerifyInFlightAttemptKeepsPending(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"cf_payment_id": 101, "payment_status": "FAILED", "payment_amount": 499},
			{"cf_payment_id": 102, "payment_status": "PENDING", "payment_amount": 499}
		]`))
	}))
	defer srv.Close()

	adapter := &CashfreeAdapter{baseOverride: srv.URL}
	result, err := adapter.Verify(context.Background(), VerifyRequest{GatewayOrderID: "ORDAB12CD34"}, cashfreeTestConfig())
	require.NoError(t, err)

	assert.Equal(t, StatusPending, result.Status)
}

func TestCashfreeVerifyNoAttemptsYet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	adapter := &CashfreeAdapter{baseOverride: srv.URL}
	result, err := adapter.Verify(context.Background(), VerifyRequest{GatewayOrderID: "ORDAB12CD34"}, cashfreeTestConfig())
	require.NoError(t, err)

	assert.Equal(t, StatusPending, result.Status)
}

func TestCashfreeVerifyProviderErrorIsCallError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message": "order not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	adapter := &CashfreeAdapter{baseOverride: srv.URL}
	_, err := adapter.Verify(context.Background(), VerifyRequest{GatewayOrderID: "ORD404"}, cashfreeTestConfig())

	var callErr *CallError
	require.ErrorAs(t, err, &callErr)
	assert.Equal(t, http.StatusNotFound, callErr.StatusCode)
}
