package ports

import (
	"NaijaAuto/internal/core/domain"
	"context"
	"time"
)

// Topics published by the marketplace core.
const (
	TopicListingSubmitted  = "listing:submitted"
	TopicListingReviewed   = "listing:reviewed"
	TopicFeaturedActivated = "payment:featured_activated"
)

// Event is a generic wrapper for any event payload
type Event struct {
	Topic string
	Data  any
}

// ListingSubmittedEvent is published when a listing enters the moderation queue.
type ListingSubmittedEvent struct {
	Listing *domain.Listing
}

// ListingReviewedEvent is published after approve/reject.
type ListingReviewedEvent struct {
	Listing     *domain.Listing
	Action      domain.ModerationAction
	Reason      *string
	SellerEmail *string
}

// FeaturedActivatedEvent is published once a featured payment is settled.
type FeaturedActivatedEvent struct {
	Transaction   *domain.PaymentTransaction
	FeaturedUntil time.Time
	DurationDays  int
	SellerEmail   *string
}

// EventHandler is a function that can handle a specific event
type EventHandler func(ctx context.Context, event Event) error

// EventBus defines the interface for our in-process pub/sub system.
// Handlers run asynchronously; their failures never reach the publisher.
type EventBus interface {
	Publish(ctx context.Context, topic string, data any) error
	Subscribe(topic string, handler EventHandler)
	// Wait blocks until every handler started so far has returned.
	Wait()
}
