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

type reviewFunc func(ctx context.Context, moderator *domain.Actor, identifier string, payload []byte) (*domain.Listing, error)

// reviewCommand backs both /approve and /reject.
type reviewCommand struct {
	command string
	usage   string
	verb    string
	review  reviewFunc
	bot     ports.BotClientPort
	log     zerolog.Logger
}

func NewApproveCommand(svc Service, bot ports.BotClientPort, baseLogger *zerolog.Logger) ports.CommandHandler {
	return &reviewCommand{
		command: "approve",
		usage:   "Usage: /approve <id|slug> [reason]",
		verb:    "✅ Approved",
		review:  svc.ApproveListing,
		bot:     bot,
		log:     baseLogger.With().Str("component", "desk_approve").Logger(),
	}
}

func NewRejectCommand(svc Service, bot ports.BotClientPort, baseLogger *zerolog.Logger) ports.CommandHandler {
	return &reviewCommand{
		command: "reject",
		usage:   "Usage: /reject <id|slug> <reason>",
		verb:    "❌ Rejected",
		review:  svc.RejectListing,
		bot:     bot,
		log:     baseLogger.With().Str("component", "desk_reject").Logger(),
	}
}

func (h *reviewCommand) Command() string {
	return h.command
}

func (h *reviewCommand) Handle(ctx context.Context, update *ports.BotUpdate, moderator *domain.Actor) error {
	identifier, reason := splitArgs(update.CommandArgs)
	if identifier == "" {
		_, err := h.bot.SendMessage(ctx, messages.NewBuilder(update.ChatID).WithPlainText(h.usage).Build())
		return err
	}

	log := h.log.With().Str("identifier", identifier).Str("moderator_id", moderator.ID.String()).Logger()
	listing, err := h.review(ctx, moderator, identifier, reasonPayload(reason))
	if err != nil {
		log.Warn().Err(err).Msg("Desk review refused")
		return replyError(ctx, h.bot, update.ChatID, err)
	}

	log.Info().Str("listing_id", listing.ID.String()).Msg("Desk review applied")
	_, err = h.bot.SendMessage(ctx, messages.NewBuilder(update.ChatID).
		WithPlainText(fmt.Sprintf("%s %s (%s)", h.verb, listing.Title, listing.Slug)).
		Build())
	return err
}

// splitArgs separates "<identifier> <free text reason>".
func splitArgs(args string) (identifier, reason string) {
	args = strings.TrimSpace(args)
	identifier, reason, _ = strings.Cut(args, " ")
	return identifier, strings.TrimSpace(reason)
}
