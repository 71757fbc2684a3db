// Package resend sends transactional email through the Resend HTTP API.
package resend

import (
	"NaijaAuto/internal/core/ports"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const DefaultBaseURL = "https://api.resend.com"

type Config struct {
	APIKey  string
	From    string
	BaseURL string
}

type mailer struct {
	cfg  Config
	http *http.Client
	log  zerolog.Logger
}

var _ ports.Mailer = (*mailer)(nil)

// NewMailer returns a Resend mailer. Without an API key Send is a no-op.
func NewMailer(cfg Config, baseLogger *zerolog.Logger) ports.Mailer {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &mailer{
		cfg:  cfg,
		http: &http.Client{Timeout: 10 * time.Second},
		log:  baseLogger.With().Str("component", "resend_mailer").Logger(),
	}
}

type emailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func (m *mailer) Send(ctx context.Context, msg ports.Email) error {
	if m.cfg.APIKey == "" {
		m.log.Debug().Str("subject", msg.Subject).Msg("Mailer disabled, dropping email")
		return nil
	}

	payload, err := json.Marshal(emailRequest{From: m.cfg.From, To: []string{msg.To}, Subject: msg.Subject, HTML: msg.HTML})
	if err != nil {
		return fmt.Errorf("resend marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.BaseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("resend request build: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.cfg.APIKey)

	resp, err := m.http.Do(req)
	if err != nil {
		return fmt.Errorf("resend request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("resend send failed: status %d, body: %s", resp.StatusCode, string(body))
	}
	m.log.Info().Str("subject", msg.Subject).Msg("Email sent")
	return nil
}
