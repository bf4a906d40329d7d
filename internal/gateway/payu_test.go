package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func payuTestConfig() Config {
	return Config{
		Code:     PayU,
		TestMode: true,
		Credentials: map[string]string{
			"key":  "gtKFFx",
			"salt": "eCwWELxi",
		},
	}
}

func TestPayURequestHashFixedVector(t *testing.T) {
	// sha512 of "gtKFFx|txn001|100.00|Order txn001|Asha|asha@example.com|||||||||||eCwWELxi"
	// (ten empty segments between email and salt: five unset UDFs plus the
	// five reserved fields).
	const want = "ad0959c64b6d33a4a05fdf1e8790568b0193402d26cbeee782ff41a10be24abff54fe1c4dfc59f0995d55389994e38c42765a741233c6c48846be109e2d15a36"
	got := payuRequestHash("gtKFFx", "txn001", "100.00", "Order txn001", "Asha", "asha@example.com", [5]string{}, "eCwWELxi")
	assert.Equal(t, want, got)
}

func TestPayUCommandHashFixedVector(t *testing.T) {
	// sha512 of "gtKFFx|verify_payment|txn001|eCwWELxi"
	const want = "e7f572a5267f08407cc0729c50d75bb1d5179cfbc6bd5f4c2c0e76c3fe8958b3adedf9550d35a783533bb1a9ff476585f0aea1f87c7ebb6e2544683bcbfde353"
	got := payuCommandHash("gtKFFx", "verify_payment", "txn001", "eCwWELxi")
	assert.Equal(t, want, got)
}

func TestPayUAmountFormatting(t *testing.T) {
	assert.Equal(t, "100.00", payuAmount(100))
	assert.Equal(t, "100.50", payuAmount(100.5))
	assert.Equal(t, "0.99", payuAmount(0.99))
}

func TestPayUCreateOrderBuildsSignedForm(t *testing.T) {
	adapter := NewPayUAdapter()

	handle, err := adapter.CreateOrder(context.Background(), OrderRequest{
		Amount:      100,
		OrderID:     42,
		OrderNumber: "txn001",
		Customer:    Customer{Name: "Asha Rao", Email: "asha@example.com", Phone: "9999999999"},
		ReturnURL:   "https://shop.example.com/payment/callback",
	}, payuTestConfig())
	require.NoError(t, err)

	assert.Equal(t, "txn001", handle.GatewayOrderID)
	assert.Equal(t, payuTestPaymentURL, handle.RedirectURL)
	assert.Empty(t, handle.PaymentToken)

	form := handle.Extra
	assert.Equal(t, "gtKFFx", form["key"])
	assert.Equal(t, "txn001", form["txnid"])
	assert.Equal(t, "100.00", form["amount"])
	assert.Equal(t, "Asha", form["firstname"], "only the first name participates in the hash")
	assert.Equal(t, "txn001", form["udf1"])
	assert.Equal(t, "42", form["udf2"])
	assert.Equal(t, form["surl"], form["furl"])

	wantHash := payuRequestHash("gtKFFx", "txn001", "100.00", form["productinfo"], "Asha", "asha@example.com",
		[5]string{"txn001", "42"}, "eCwWELxi")
	assert.Equal(t, wantHash, form["hash"])
}

func TestPayUCreateOrderMissingCredentials(t *testing.T) {
	adapter := NewPayUAdapter()

	_, err := adapter.CreateOrder(context.Background(), OrderRequest{OrderNumber: "txn001"}, Config{
		Code:        PayU,
		Credentials: map[string]string{"key": "gtKFFx"},
	})

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, PayU, cfgErr.Provider)
	assert.Equal(t, []string{"salt"}, cfgErr.Missing)
}

func TestPayUVerifySuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "verify_payment", r.FormValue("command"))
		assert.Equal(t, "txn001", r.FormValue("var1"))
		assert.Equal(t, payuCommandHash("gtKFFx", "verify_payment", "txn001", "eCwWELxi"), r.FormValue("hash"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": 1,
			"transaction_details": {
				"txn001": {
					"mihpayid": "403993715521",
					"status": "success",
					"transaction_amount": "100.00"
				}
			}
		}`))
	}))
	defer srv.Close()

	adapter := &PayUAdapter{serviceOverride: srv.URL}
	result, err := adapter.Verify(context.Background(), VerifyRequest{OrderNumber: "txn001"}, payuTestConfig())
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, StatusCaptured, result.Status)
	assert.Equal(t, "403993715521", result.PaymentID)
	assert.Equal(t, 100.0, result.Amount)
}

func TestPayUVerifyFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": 1,
			"transaction_details": {
				"txn001": {
					"mihpayid": "403993715522",
					"status": "failure",
					"amt": "100.00",
					"error_Message": "Bank declined the transaction"
				}
			}
		}`))
	}))
	defer srv.Close()

	adapter := &PayUAdapter{serviceOverride: srv.URL}
	result, err := adapter.Verify(context.Background(), VerifyRequest{OrderNumber: "txn001"}, payuTestConfig())
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, StatusFailed, result.Status)
	assert.Equal(t, "Bank declined the transaction", result.Err)
}

func TestPayUVerifyUnknownTransactionIsPending(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": 0, "msg": "0 out of 1 Transactions Fetched Successfully"}`))
	}))
	defer srv.Close()

	adapter := &PayUAdapter{serviceOverride: srv.URL}
	result, err := adapter.Verify(context.Background(), VerifyRequest{OrderNumber: "txn404"}, payuTestConfig())
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, StatusPending, result.Status)
}

func TestPayUVerifyServiceErrorIsCallError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	adapter := &PayUAdapter{serviceOverride: srv.URL}
	_, err := adapter.Verify(context.Background(), VerifyRequest{OrderNumber: "txn001"}, payuTestConfig())

	var callErr *CallError
	require.ErrorAs(t, err, &callErr)
	assert.Equal(t, http.StatusInternalServerError, callErr.StatusCode)
}

func TestPayUVerifyMissingCredentialsNoNetworkCall(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	adapter := &PayUAdapter{serviceOverride: srv.URL}
	_, err := adapter.Verify(context.Background(), VerifyRequest{OrderNumber: "txn001"}, Config{Code: PayU})

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Zero(t, calls)
}
