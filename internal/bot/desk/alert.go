package desk

import (
	"NaijaAuto/internal/bot/messages"
	"NaijaAuto/internal/core/domain"
	"NaijaAuto/internal/core/ports"
	"fmt"
)

// SubmittedAlert builds the moderator-chat post for a listing that just
// entered the queue.
func SubmittedAlert(chatID int64, l *domain.Listing) ports.SendMessageParams {
	text := fmt.Sprintf("🆕 *New listing for review*\n%s\n₦%s · %s, %s\nVIN `%s` · %d photos\n`%s`",
		messages.Escape(l.Title),
		messages.Escape(formatNaira(l.PriceNgn)),
		messages.Escape(l.City),
		messages.Escape(l.State),
		messages.Escape(l.VIN),
		len(l.Photos),
		messages.Escape(l.Slug),
	)
	return messages.NewBuilder(chatID).
		WithText(text).
		WithInlineButtons([][]ports.Button{{
			{Text: "✅ Approve", Data: ApprovePrefix + l.ID.String()},
		}}).
		Build()
}
