// Package paystack is the outbound Paystack gateway: checkout initialization
// and webhook signature checks.
package paystack

import (
	"NaijaAuto/internal/core/ports"
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const DefaultBaseURL = "https://api.paystack.co"

type Config struct {
	SecretKey  string
	BaseURL    string
	AppURL     string // used for the mocked checkout URL
	Production bool
}

type client struct {
	cfg  Config
	http *http.Client
	log  zerolog.Logger
}

var _ ports.PaymentProvider = (*client)(nil)

// NewClient returns a Paystack client. Without a secret key it runs in mock
// mode outside production and fails every call in production.
func NewClient(cfg Config, baseLogger *zerolog.Logger) ports.PaymentProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	log := baseLogger.With().Str("component", "paystack_client").Logger()
	if cfg.SecretKey == "" {
		log.Warn().Bool("production", cfg.Production).Msg("PAYSTACK_SECRET_KEY not set")
	}
	return &client{
		cfg:  cfg,
		http: &http.Client{Timeout: 15 * time.Second},
		log:  log,
	}
}

// Sign returns the hex HMAC-SHA512 of body, as sent in x-paystack-signature.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func (c *client) VerifyWebhookSignature(rawBody []byte, signature string) bool {
	if c.cfg.SecretKey == "" {
		return !c.cfg.Production
	}
	if signature == "" {
		return false
	}
	expected := Sign(rawBody, c.cfg.SecretKey)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}

type initializeRequest struct {
	Email       string         `json:"email"`
	Amount      int64          `json:"amount"`
	Reference   string         `json:"reference"`
	CallbackURL string         `json:"callback_url"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type initializeResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

func (c *client) InitializeTransaction(ctx context.Context, params ports.InitializeTransactionParams) (ports.InitializeTransactionResult, error) {
	if c.cfg.SecretKey == "" {
		if c.cfg.Production {
			return ports.InitializeTransactionResult{}, errors.New("PAYSTACK_SECRET_KEY is required in production")
		}
		c.log.Info().Str("reference", params.Reference).Msg("Mocked Paystack checkout")
		return ports.InitializeTransactionResult{
			AuthorizationURL: fmt.Sprintf("%s/seller/dashboard?mock_payment=1&reference=%s", c.cfg.AppURL, params.Reference),
			AccessCode:       fmt.Sprintf("mock_access_%d", time.Now().UnixMilli()),
			Reference:        params.Reference,
			Mocked:           true,
		}, nil
	}

	payload, err := json.Marshal(initializeRequest{
		Email:       params.Email,
		Amount:      params.AmountMinorUnits,
		Reference:   params.Reference,
		CallbackURL: params.CallbackURL,
		Metadata:    params.Metadata,
	})
	if err != nil {
		return ports.InitializeTransactionResult{}, fmt.Errorf("paystack initialize marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/transaction/initialize", bytes.NewReader(payload))
	if err != nil {
		return ports.InitializeTransactionResult{}, fmt.Errorf("paystack initialize request build: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error().Err(err).Str("reference", params.Reference).Msg("Paystack request failed")
		return ports.InitializeTransactionResult{}, fmt.Errorf("paystack initialize request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Error().Int("status", resp.StatusCode).Str("reference", params.Reference).Msg("Paystack initialization rejected")
		return ports.InitializeTransactionResult{}, fmt.Errorf("paystack initialize failed: status %d, body: %s", resp.StatusCode, string(body))
	}

	var out initializeResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return ports.InitializeTransactionResult{}, fmt.Errorf("paystack initialize unmarshal: %w", err)
	}
	if out.Data.AuthorizationURL == "" {
		return ports.InitializeTransactionResult{}, errors.New("paystack initialize: empty authorization url")
	}

	return ports.InitializeTransactionResult{
		AuthorizationURL: out.Data.AuthorizationURL,
		AccessCode:       out.Data.AccessCode,
		Reference:        out.Data.Reference,
	}, nil
}
