package telegram

import (
	"NaijaAuto/internal/bot/desk"
	"NaijaAuto/internal/core/ports"
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// ListingAlerts posts newly submitted listings into the moderator chat.
type ListingAlerts struct {
	bot    ports.BotClientPort
	chatID int64
	log    zerolog.Logger
}

// NewListingAlerts creates the alert publisher for chatID.
func NewListingAlerts(bot ports.BotClientPort, chatID int64, baseLogger *zerolog.Logger) *ListingAlerts {
	return &ListingAlerts{
		bot:    bot,
		chatID: chatID,
		log:    baseLogger.With().Str("component", "listing_alerts").Logger(),
	}
}

// Subscribe registers the alert handler with the event bus.
func (a *ListingAlerts) Subscribe(bus ports.EventBus) {
	bus.Subscribe(ports.TopicListingSubmitted, a.onListingSubmitted)
	a.log.Info().Int64("chat_id", a.chatID).Str("topic", ports.TopicListingSubmitted).Msg("Subscribed to listing submissions")
}

func (a *ListingAlerts) onListingSubmitted(ctx context.Context, event ports.Event) error {
	data, ok := event.Data.(ports.ListingSubmittedEvent)
	if !ok || data.Listing == nil {
		return fmt.Errorf("unexpected payload %T on %s", event.Data, event.Topic)
	}

	messageID, err := a.bot.SendMessage(ctx, desk.SubmittedAlert(a.chatID, data.Listing))
	if err != nil {
		a.log.Error().Err(err).Str("listing_id", data.Listing.ID.String()).Msg("Failed to post moderation alert")
		return nil
	}
	a.log.Info().
		Str("listing_id", data.Listing.ID.String()).
		Int("message_id", messageID).
		Msg("Moderation alert posted")
	return nil
}
