package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmdirect/farmdirect-backend/pkg/config"
	pkgerrors "github.com/farmdirect/farmdirect-backend/pkg/errors"
)

func testConfig(baseURL string) config.RazorpayConfig {
	return config.RazorpayConfig{
		KeyID:         "rzp_test_key",
		KeySecret:     "rzp_test_secret",
		WebhookSecret: "whsec_test",
		PayeeVPA:      "farmdirect@upi",
		PayeeName:     "FarmDirect",
		BaseURL:       baseURL,
		Timeout:       2 * time.Second,
	}
}

func TestNewClientRequiresCredentials(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*config.RazorpayConfig)
	}{
		{"missing key id", func(c *config.RazorpayConfig) { c.KeyID = "" }},
		{"missing key secret", func(c *config.RazorpayConfig) { c.KeySecret = " " }},
		{"missing webhook secret", func(c *config.RazorpayConfig) { c.WebhookSecret = "" }},
		{"missing payee vpa", func(c *config.RazorpayConfig) { c.PayeeVPA = "" }},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := testConfig("https://api.example.com")
			tc.mutate(&cfg)
			_, err := NewClient(context.Background(), cfg, nil)
			require.Error(t, err)
		})
	}
}

func TestMinorUnits(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		amount  decimal.Decimal
		want    int64
		wantErr bool
	}{
		{"whole rupees", decimal.NewFromInt(250), 25000, false},
		{"paise precision", decimal.RequireFromString("99.50"), 9950, false},
		{"rounds sub-paise", decimal.RequireFromString("10.005"), 1001, false},
		{"zero rejected", decimal.Zero, 0, true},
		{"negative rejected", decimal.NewFromInt(-5), 0, true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := MinorUnits(tc.amount)
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCreateOrderSuccess(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/orders", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "rzp_test_key", user)
		assert.Equal(t, "rzp_test_secret", pass)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"order_remote_123","amount":25000,"currency":"INR","status":"created"}`))
	}))
	defer server.Close()

	client, err := NewClient(context.Background(), testConfig(server.URL), nil)
	require.NoError(t, err)

	remote, err := client.CreateOrder(context.Background(), decimal.NewFromInt(250), "rcpt-1", "order payment")
	require.NoError(t, err)
	assert.Equal(t, "order_remote_123", remote.ID)
	assert.Equal(t, int64(25000), remote.AmountMinor)
	assert.Equal(t, "INR", remote.Currency)
}

func TestCreateOrderProviderError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":{"code":"SERVER_ERROR","description":"upstream unavailable"}}`))
	}))
	defer server.Close()

	client, err := NewClient(context.Background(), testConfig(server.URL), nil)
	require.NoError(t, err)

	_, err = client.CreateOrder(context.Background(), decimal.NewFromInt(100), "rcpt-2", "order payment")
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency))
	assert.Contains(t, err.Error(), "upstream unavailable")
}

func TestCreateOrderTransportFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()

	client, err := NewClient(context.Background(), testConfig(server.URL), nil)
	require.NoError(t, err)

	_, err = client.CreateOrder(context.Background(), decimal.NewFromInt(100), "rcpt-3", "order payment")
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency))
}

func TestCreateOrderRejectsNonPositiveAmountLocally(t *testing.T) {
	t.Parallel()

	var called bool
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))
	defer server.Close()

	client, err := NewClient(context.Background(), testConfig(server.URL), nil)
	require.NoError(t, err)

	_, err = client.CreateOrder(context.Background(), decimal.Zero, "rcpt-4", "order payment")
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	assert.False(t, called, "provider must not be called for invalid amounts")
}

func TestIntentLinkDeterministic(t *testing.T) {
	t.Parallel()

	client, err := NewClient(context.Background(), testConfig("https://api.example.com"), nil)
	require.NoError(t, err)

	orderID := uuid.MustParse("3d4c9a6e-8f1b-4a2c-9d5e-7b6a5c4d3e2f")
	amount := decimal.RequireFromString("149.9")

	first := client.IntentLink(orderID, amount)
	second := client.IntentLink(orderID, amount)
	assert.Equal(t, first, second)

	assert.Contains(t, first, "upi://pay?")
	assert.Contains(t, first, "pa=farmdirect%40upi")
	assert.Contains(t, first, "am=149.90")
	assert.Contains(t, first, "cu=INR")
	assert.Contains(t, first, "tr="+orderID.String())
}

func TestVerifyPaymentSignature(t *testing.T) {
	t.Parallel()

	client, err := NewClient(context.Background(), testConfig("https://api.example.com"), nil)
	require.NoError(t, err)

	sign := func(secret, payload string) string {
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write([]byte(payload))
		return hex.EncodeToString(mac.Sum(nil))
	}

	valid := sign("rzp_test_secret", "order_remote_123|pay_456")

	assert.True(t, client.VerifyPaymentSignature("order_remote_123", "pay_456", valid))
	assert.False(t, client.VerifyPaymentSignature("order_remote_123", "pay_456", sign("wrong-secret", "order_remote_123|pay_456")))
	assert.False(t, client.VerifyPaymentSignature("order_remote_999", "pay_456", valid))
	assert.False(t, client.VerifyPaymentSignature("order_remote_123", "pay_456", "not-hex-garbage"))
	assert.False(t, client.VerifyPaymentSignature("", "pay_456", valid))
	assert.False(t, client.VerifyPaymentSignature("order_remote_123", "", valid))
	assert.False(t, client.VerifyPaymentSignature("order_remote_123", "pay_456", ""))
}

func TestVerifyWebhookSignature(t *testing.T) {
	t.Parallel()

	client, err := NewClient(context.Background(), testConfig("https://api.example.com"), nil)
	require.NoError(t, err)

	body := []byte(`{"event":"payment.captured"}`)
	mac := hmac.New(sha256.New, []byte("whsec_test"))
	mac.Write(body)
	valid := hex.EncodeToString(mac.Sum(nil))

	assert.True(t, client.VerifyWebhookSignature(body, valid))
	assert.False(t, client.VerifyWebhookSignature([]byte(`{"event":"payment.failed"}`), valid))
	assert.False(t, client.VerifyWebhookSignature(body, "forged"))
	assert.False(t, client.VerifyWebhookSignature(nil, valid))
	assert.False(t, client.VerifyWebhookSignature(body, ""))
}
