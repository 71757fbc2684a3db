package ports

import (
	"context"
	"time"
)

// WebhookGuard claims a provider event id so that concurrent duplicate
// deliveries are processed once.
type WebhookGuard interface {
	// Claim returns false if another delivery already holds the id.
	Claim(ctx context.Context, eventID string, ttl time.Duration) (bool, error)
	// Release frees an id whose processing did not commit.
	Release(ctx context.Context, eventID string) error
}
