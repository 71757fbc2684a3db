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

type slaHandler struct {
	svc Service
	bot ports.BotClientPort
	log zerolog.Logger
}

func NewSlaHandler(svc Service, bot ports.BotClientPort, baseLogger *zerolog.Logger) ports.CommandHandler {
	return &slaHandler{
		svc: svc,
		bot: bot,
		log: baseLogger.With().Str("component", "desk_sla").Logger(),
	}
}

func (h *slaHandler) Command() string {
	return "sla"
}

func (h *slaHandler) Handle(ctx context.Context, update *ports.BotUpdate, moderator *domain.Actor) error {
	dash, err := h.svc.GetModerationSlaDashboard(ctx, moderator)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load SLA dashboard")
		return replyError(ctx, h.bot, update.ChatID, err)
	}

	_, err = h.bot.SendMessage(ctx, messages.NewBuilder(update.ChatID).WithText(formatSla(dash)).Build())
	return err
}

func formatSla(d *domain.SlaDashboard) string {
	m := d.Metrics
	lines := []string{
		"*Moderation SLA*",
		fmt.Sprintf("Pending: %d \\(🔴 %d · 🟡 %d · 🟢 %d\\)", m.TotalPending, m.HighRisk, m.MediumRisk, m.LowRisk),
		fmt.Sprintf("Breached 120m: %d", m.BreachedOver120),
		fmt.Sprintf("Average age: %dm · Oldest: %dm", m.AverageAgeMinutes, m.OldestAgeMinutes),
		fmt.Sprintf("Reviewed: %d in 24h · %d in 7d", m.Reviewed24h, m.Reviewed7d),
		"",
		"*Age buckets*",
		fmt.Sprintf("<60m: %d · 60\\-119m: %d · 120\\-179m: %d · 180m\\+: %d",
			d.Distribution.Under60, d.Distribution.Between60And119,
			d.Distribution.Between120And179, d.Distribution.Over180),
	}
	if n := len(d.Trend); n > 0 {
		today := d.Trend[n-1]
		lines = append(lines, "", fmt.Sprintf("Today: %d approved · %d rejected", today.Approved, today.Rejected))
	}
	return strings.Join(lines, "\n")
}
