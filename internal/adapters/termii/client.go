// Package termii sends OTP codes through the Termii SMS API.
package termii

import (
	"NaijaAuto/internal/core/ports"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultBaseURL  = "https://api.ng.termii.com"
	DefaultSenderID = "NaijaAuto"
)

type Config struct {
	APIKey     string
	SenderID   string
	BaseURL    string
	Production bool
}

type client struct {
	cfg  Config
	http *http.Client
	log  zerolog.Logger
}

var _ ports.SmsProvider = (*client)(nil)

// NewClient returns a Termii client. Without an API key it reports mocked
// deliveries outside production.
func NewClient(cfg Config, baseLogger *zerolog.Logger) ports.SmsProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.SenderID == "" {
		cfg.SenderID = DefaultSenderID
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &client{
		cfg:  cfg,
		http: &http.Client{Timeout: 10 * time.Second},
		log:  baseLogger.With().Str("component", "termii_client").Logger(),
	}
}

type sendRequest struct {
	To      string `json:"to"`
	From    string `json:"from"`
	SMS     string `json:"sms"`
	Type    string `json:"type"`
	Channel string `json:"channel"`
	APIKey  string `json:"api_key"`
}

type sendResponse struct {
	MessageID string `json:"message_id"`
}

func (c *client) SendOtp(ctx context.Context, phone, code string) (ports.SmsResult, error) {
	if c.cfg.APIKey == "" {
		if c.cfg.Production {
			return ports.SmsResult{}, errors.New("TERMII_API_KEY is required in production")
		}
		c.log.Info().Msg("Mocked OTP delivery")
		return ports.SmsResult{MessageID: fmt.Sprintf("mock-%d", time.Now().UnixMilli()), Mocked: true}, nil
	}

	payload, err := json.Marshal(sendRequest{
		To:      phone,
		From:    c.cfg.SenderID,
		SMS:     fmt.Sprintf("Your NaijaAuto verification code is %s.", code),
		Type:    "plain",
		Channel: "generic",
		APIKey:  c.cfg.APIKey,
	})
	if err != nil {
		return ports.SmsResult{}, fmt.Errorf("termii marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/sms/send", bytes.NewReader(payload))
	if err != nil {
		return ports.SmsResult{}, fmt.Errorf("termii request build: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return ports.SmsResult{}, fmt.Errorf("termii request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Error().Int("status", resp.StatusCode).Msg("Termii rejected OTP")
		return ports.SmsResult{}, fmt.Errorf("termii send failed: status %d, body: %s", resp.StatusCode, string(body))
	}

	var out sendResponse
	if err := json.Unmarshal(body, &out); err != nil {
		c.log.Warn().Err(err).Msg("Unreadable Termii response")
	}
	if out.MessageID == "" {
		out.MessageID = fmt.Sprintf("termii-%d", time.Now().UnixMilli())
	}
	return ports.SmsResult{MessageID: out.MessageID}, nil
}
