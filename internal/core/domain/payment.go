package domain

import (
	"time"

	"github.com/google/uuid"
)

// FeaturedPackage is a catalog entry for paid featured placement.
type FeaturedPackage struct {
	ID           uuid.UUID
	Code         string
	Name         string
	DurationDays int
	AmountNgn    int64
	IsActive     bool
	CreatedAt    time.Time
}

type PaymentStatus string

const (
	PaymentInitiated PaymentStatus = "initiated"
	PaymentPaid      PaymentStatus = "paid"
	PaymentFailed    PaymentStatus = "failed"
)

const ProviderPaystack = "paystack"

// PaymentTransaction is one featured-checkout attempt.
type PaymentTransaction struct {
	ID                    uuid.UUID
	ListingID             uuid.UUID
	SellerID              uuid.UUID
	PackageCode           string
	AmountNgn             int64
	Provider              string
	Reference             string
	Status                PaymentStatus
	WebhookEventID        *string // Nullable, unique once set
	ProviderTransactionID *string // Nullable
	CreatedAt             time.Time
	PaidAt                *time.Time // Nullable
}

// MarkPaidParams identifies the transaction and the webhook that settled it.
type MarkPaidParams struct {
	Reference             string
	WebhookEventID        string
	ProviderTransactionID string
	PaidAt                time.Time
}

// FeaturedCheckout is what the seller needs to complete payment with the provider.
type FeaturedCheckout struct {
	CheckoutURL string
	AccessCode  string
	Reference   string
	AmountNgn   int64
}

// WebhookResult acknowledges a provider webhook delivery.
type WebhookResult struct {
	Processed bool `json:"processed"`
	Duplicate bool `json:"duplicate"`
}
