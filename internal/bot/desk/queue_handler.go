package desk

import (
	"NaijaAuto/internal/bot/messages"
	"NaijaAuto/internal/core/domain"
	"NaijaAuto/internal/core/ports"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// queuePreview caps how many pending listings /queue prints.
const queuePreview = 10

var riskBadge = map[domain.SlaRisk]string{
	domain.SlaRiskLow:    "🟢",
	domain.SlaRiskMedium: "🟡",
	domain.SlaRiskHigh:   "🔴",
}

type queueHandler struct {
	svc Service
	bot ports.BotClientPort
	log zerolog.Logger
}

func NewQueueHandler(svc Service, bot ports.BotClientPort, baseLogger *zerolog.Logger) ports.CommandHandler {
	return &queueHandler{
		svc: svc,
		bot: bot,
		log: baseLogger.With().Str("component", "desk_queue").Logger(),
	}
}

func (h *queueHandler) Command() string {
	return "queue"
}

func (h *queueHandler) Handle(ctx context.Context, update *ports.BotUpdate, moderator *domain.Actor) error {
	items, err := h.svc.GetModerationQueue(ctx, moderator)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load moderation queue")
		return replyError(ctx, h.bot, update.ChatID, err)
	}

	_, err = h.bot.SendMessage(ctx, messages.NewBuilder(update.ChatID).WithText(formatQueue(items)).Build())
	return err
}

func formatQueue(items []domain.QueueItem) string {
	if len(items) == 0 {
		return "✅ Moderation queue is empty\\."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*Pending review: %d*\n\n", len(items))
	for i, item := range items {
		if i == queuePreview {
			fmt.Fprintf(&b, "\n… and %d more", len(items)-queuePreview)
			break
		}
		l := item.Listing
		fmt.Fprintf(&b, "%s `%s`\n%s · ₦%s · %s\n\n",
			riskBadge[item.SlaRisk],
			messages.Escape(l.Slug),
			messages.Escape(l.Title),
			messages.Escape(formatNaira(l.PriceNgn)),
			messages.Escape(fmt.Sprintf("%dm in queue", item.AgeMinutes)),
		)
	}
	return strings.TrimRight(b.String(), "\n")
}

// formatNaira groups digits in thousands: 4500000 -> 4,500,000.
func formatNaira(amount int64) string {
	if amount < 0 {
		return "-" + formatNaira(-amount)
	}
	s := strconv.FormatInt(amount, 10)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return s
}
