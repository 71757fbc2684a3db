package paystack

import (
	"NaijaAuto/internal/core/ports"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(cfg Config) ports.PaymentProvider {
	nopLogger := zerolog.Nop()
	return NewClient(cfg, &nopLogger)
}

func TestVerifyWebhookSignature(t *testing.T) {
	body := []byte(`{"event":"charge.success","data":{"id":445566}}`)
	c := newTestClient(Config{SecretKey: "sk_test_secret", Production: true})

	sig := Sign(body, "sk_test_secret")
	assert.True(t, c.VerifyWebhookSignature(body, sig))
	assert.True(t, c.VerifyWebhookSignature(body, strings.ToUpper(sig)))
	assert.False(t, c.VerifyWebhookSignature(body, Sign(body, "other")))
	assert.False(t, c.VerifyWebhookSignature(append(body, ' '), sig))
	assert.False(t, c.VerifyWebhookSignature(body, ""))
}

func TestVerifyWebhookSignature_NoSecret(t *testing.T) {
	body := []byte(`{}`)
	assert.True(t, newTestClient(Config{}).VerifyWebhookSignature(body, ""), "accepted outside production")
	assert.False(t, newTestClient(Config{Production: true}).VerifyWebhookSignature(body, "anything"))
}

func TestInitializeTransaction(t *testing.T) {
	var got initializeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/initialize", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"status":true,"data":{"authorization_url":"https://checkout.paystack.com/abc","access_code":"abc","reference":"naija_1_deadbeef"}}`))
	}))
	defer srv.Close()

	c := newTestClient(Config{SecretKey: "sk_test_secret", BaseURL: srv.URL + "/"})
	res, err := c.InitializeTransaction(t.Context(), ports.InitializeTransactionParams{
		Email:            "seller@example.com",
		AmountMinorUnits: 2_500_000,
		Reference:        "naija_1_deadbeef",
		CallbackURL:      "http://localhost:3000/seller/dashboard?payment_ref=naija_1_deadbeef",
		Metadata:         map[string]any{"packageCode": "feature_7_days"},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.paystack.com/abc", res.AuthorizationURL)
	assert.False(t, res.Mocked)
	assert.Equal(t, int64(2_500_000), got.Amount)
	assert.Equal(t, "feature_7_days", got.Metadata["packageCode"])
}

func TestInitializeTransaction_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"status":false,"message":"Invalid key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := newTestClient(Config{SecretKey: "bad", BaseURL: srv.URL})
	_, err := c.InitializeTransaction(t.Context(), ports.InitializeTransactionParams{Reference: "r"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestInitializeTransaction_MockMode(t *testing.T) {
	res, err := newTestClient(Config{AppURL: "http://localhost:3000"}).InitializeTransaction(t.Context(),
		ports.InitializeTransactionParams{Reference: "naija_1_x"})
	require.NoError(t, err)
	assert.True(t, res.Mocked)
	assert.Equal(t, "http://localhost:3000/seller/dashboard?mock_payment=1&reference=naija_1_x", res.AuthorizationURL)

	_, err = newTestClient(Config{Production: true}).InitializeTransaction(t.Context(), ports.InitializeTransactionParams{})
	assert.Error(t, err)
}
