package services

import (
	"NaijaAuto/internal/core/domain"
	"NaijaAuto/internal/core/ports"
	"context"
	"fmt"
	"html"

	"github.com/rs/zerolog"
)

// MailNotifier turns core events into seller emails.
type MailNotifier struct {
	mailer ports.Mailer
	log    zerolog.Logger
}

func NewMailNotifier(mailer ports.Mailer, baseLogger *zerolog.Logger) *MailNotifier {
	return &MailNotifier{
		mailer: mailer,
		log:    baseLogger.With().Str("component", "mail_notifier").Logger(),
	}
}

// Register subscribes the notifier to the bus.
func (n *MailNotifier) Register(bus ports.EventBus) {
	bus.Subscribe(ports.TopicFeaturedActivated, n.onFeaturedActivated)
	bus.Subscribe(ports.TopicListingReviewed, n.onListingReviewed)
}

func (n *MailNotifier) onFeaturedActivated(ctx context.Context, event ports.Event) error {
	data, ok := event.Data.(ports.FeaturedActivatedEvent)
	if !ok {
		return fmt.Errorf("unexpected payload %T on %s", event.Data, event.Topic)
	}
	if data.SellerEmail == nil || *data.SellerEmail == "" {
		return nil
	}

	err := n.mailer.Send(ctx, ports.Email{
		To:      *data.SellerEmail,
		Subject: "NaijaAuto Featured Listing Activated",
		HTML: fmt.Sprintf("<p>Your featured listing payment has been confirmed for reference <b>%s</b>.</p>",
			html.EscapeString(data.Transaction.Reference)),
	})
	if err != nil {
		n.log.Error().Err(err).Str("reference", data.Transaction.Reference).Msg("Failed to email featured activation")
	}
	return nil
}

func (n *MailNotifier) onListingReviewed(ctx context.Context, event ports.Event) error {
	data, ok := event.Data.(ports.ListingReviewedEvent)
	if !ok {
		return fmt.Errorf("unexpected payload %T on %s", event.Data, event.Topic)
	}
	if data.SellerEmail == nil || *data.SellerEmail == "" {
		return nil
	}

	msg := ports.Email{To: *data.SellerEmail}
	title := html.EscapeString(data.Listing.Title)
	switch data.Action {
	case domain.ActionApprove:
		msg.Subject = "Your NaijaAuto listing is live"
		msg.HTML = fmt.Sprintf("<p><b>%s</b> has been approved and is now visible to buyers.</p>", title)
	case domain.ActionReject:
		reason := ""
		if data.Reason != nil {
			reason = html.EscapeString(*data.Reason)
		}
		msg.Subject = "Your NaijaAuto listing needs changes"
		msg.HTML = fmt.Sprintf("<p><b>%s</b> was not approved.</p><p>Reason: %s</p>", title, reason)
	default:
		return nil
	}

	if err := n.mailer.Send(ctx, msg); err != nil {
		n.log.Error().Err(err).Str("listing_id", data.Listing.ID.String()).Msg("Failed to email review outcome")
	}
	return nil
}
