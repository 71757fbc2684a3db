package ports

import (
	"context"
)

// SmsResult is what the SMS provider reports back.
type SmsResult struct {
	MessageID string
	Mocked    bool
}

// SmsProvider delivers OTP codes.
// Outside production a misconfigured provider falls back to a mocked success.
type SmsProvider interface {
	SendOtp(ctx context.Context, phone, code string) (SmsResult, error)
}

// InitializeTransactionParams describes a checkout to open with the payment provider.
type InitializeTransactionParams struct {
	Email            string
	AmountMinorUnits int64
	Reference        string
	CallbackURL      string
	Metadata         map[string]any
}

// InitializeTransactionResult is the provider's checkout handle.
type InitializeTransactionResult struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
	Mocked           bool
}

// PaymentProvider is the outbound payment gateway.
type PaymentProvider interface {
	VerifyWebhookSignature(rawBody []byte, signature string) bool
	InitializeTransaction(ctx context.Context, params InitializeTransactionParams) (InitializeTransactionResult, error)
}

// Email is one outbound message.
type Email struct {
	To      string
	Subject string
	HTML    string
}

// Mailer sends email. It is a no-op when unconfigured.
type Mailer interface {
	Send(ctx context.Context, msg Email) error
}
