package domain

import (
	"time"

	"github.com/google/uuid"
)

// OtpVerification is a short-lived phone verification challenge.
// Records are kept after use as an audit trail.
type OtpVerification struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Phone       string
	CodeHash    string
	ExpiresAt   time.Time
	Attempts    int
	MaxAttempts int
	VerifiedAt  *time.Time // Nullable
	CreatedAt   time.Time
}

// Exhausted reports whether the attempt budget is spent.
func (o *OtpVerification) Exhausted() bool {
	return o.Attempts >= o.MaxAttempts
}
