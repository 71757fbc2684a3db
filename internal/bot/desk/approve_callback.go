package desk

import (
	"NaijaAuto/internal/bot/messages"
	"NaijaAuto/internal/core/domain"
	"NaijaAuto/internal/core/ports"
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// approveCallback handles the Approve button attached to submission alerts.
type approveCallback struct {
	svc Service
	bot ports.BotClientPort
	log zerolog.Logger
}

func NewApproveCallback(svc Service, bot ports.BotClientPort, baseLogger *zerolog.Logger) ports.CallbackHandler {
	return &approveCallback{
		svc: svc,
		bot: bot,
		log: baseLogger.With().Str("component", "desk_approve_callback").Logger(),
	}
}

func (h *approveCallback) Prefix() string {
	return ApprovePrefix
}

func (h *approveCallback) Handle(ctx context.Context, update *ports.BotUpdate, moderator *domain.Actor) error {
	listingID := strings.TrimPrefix(*update.CallbackData, ApprovePrefix)
	log := h.log.With().Str("listing_id", listingID).Str("moderator_id", moderator.ID.String()).Logger()

	listing, err := h.svc.ApproveListing(ctx, moderator, listingID, nil)
	if err != nil {
		log.Warn().Err(err).Msg("Approve button refused")
		return h.bot.AnswerCallbackQuery(ctx, ports.AnswerCallbackParams{
			CallbackQueryID: update.CallbackQueryID,
			Text:            domain.Message(err),
			ShowAlert:       true,
		})
	}

	log.Info().Msg("Listing approved from alert")
	if err := h.bot.AnswerCallbackQuery(ctx, ports.AnswerCallbackParams{
		CallbackQueryID: update.CallbackQueryID,
		Text:            "Approved",
	}); err != nil {
		log.Warn().Err(err).Msg("Failed to answer callback")
	}
	_, err = h.bot.SendMessage(ctx, messages.NewBuilder(update.ChatID).
		WithPlainText(fmt.Sprintf("✅ Approved %s (%s)", listing.Title, listing.Slug)).
		Build())
	return err
}
