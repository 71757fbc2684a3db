package telegram

import (
	"NaijaAuto/internal/core/domain"
	"NaijaAuto/internal/core/ports"
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const refusalText = "This desk is restricted to NaijaAuto moderators."

// Router maps Telegram users onto moderator identities and routes their
// updates to the registered desk handlers.
type Router struct {
	log              zerolog.Logger
	botClient        ports.BotClientPort
	moderators       map[int64]uuid.UUID
	commandHandlers  map[string]ports.CommandHandler
	callbackHandlers map[string]ports.CallbackHandler
}

// NewRouter creates a router. moderators maps Telegram user ids to
// marketplace user ids; everyone else is refused.
func NewRouter(
	botClient ports.BotClientPort,
	moderators map[int64]uuid.UUID,
	baseLogger *zerolog.Logger,
) *Router {
	return &Router{
		log:              baseLogger.With().Str("component", "tg_router").Logger(),
		botClient:        botClient,
		moderators:       moderators,
		commandHandlers:  make(map[string]ports.CommandHandler),
		callbackHandlers: make(map[string]ports.CallbackHandler),
	}
}

// RegisterCommandHandler adds a command handler to the router.
func (r *Router) RegisterCommandHandler(handler ports.CommandHandler) {
	cmd := handler.Command()
	r.commandHandlers[cmd] = handler
	r.log.Info().Str("command", cmd).Msg("Registered new command handler")
}

// RegisterCallbackHandler adds a callback handler to the router.
func (r *Router) RegisterCallbackHandler(handler ports.CallbackHandler) {
	prefix := handler.Prefix()
	r.callbackHandlers[prefix] = handler
	r.log.Info().Str("prefix", prefix).Msg("Registered new callback handler")
}

// HandleUpdate is the main entry point for a new update from Telegram.
func (r *Router) HandleUpdate(ctx context.Context, update *tgbotapi.Update) {
	botUpdate, isSupported := parseUpdate(update)
	if !isSupported {
		r.log.Debug().Msg("Received unsupported update type")
		return
	}

	ctxLogger := r.log.With().
		Int64("user_id", botUpdate.UserID).
		Int64("chat_id", botUpdate.ChatID).
		Logger()
	ctx = ctxLogger.WithContext(ctx)

	moderator := r.moderator(botUpdate.UserID)
	if moderator == nil {
		ctxLogger.Warn().Msg("Refused update from unmapped Telegram user")
		r.refuse(ctx, botUpdate)
		return
	}

	if botUpdate.CallbackData != nil {
		for prefix, handler := range r.callbackHandlers {
			if strings.HasPrefix(*botUpdate.CallbackData, prefix) {
				ctxLogger.Info().Str("handler", prefix).Str("data", *botUpdate.CallbackData).Msg("Routing to callback handler")
				if err := handler.Handle(ctx, botUpdate, moderator); err != nil {
					ctxLogger.Error().Err(err).Msg("Callback handler failed")
				}
				return
			}
		}
		ctxLogger.Warn().Str("data", *botUpdate.CallbackData).Msg("No callback handler found")
		return
	}

	if botUpdate.Command == "" {
		ctxLogger.Debug().Msg("Ignoring plain text message")
		return
	}
	handler, ok := r.commandHandlers[botUpdate.Command]
	if !ok {
		r.botClient.SendMessage(ctx, ports.SendMessageParams{
			ChatID: botUpdate.ChatID,
			Text:   "Unknown command. Try /queue, /sla, /approve or /reject.",
		})
		return
	}
	ctxLogger.Info().Str("handler", botUpdate.Command).Msg("Routing to command handler")
	if err := handler.Handle(ctx, botUpdate, moderator); err != nil {
		ctxLogger.Error().Err(err).Msg("Command handler failed")
	}
}

func (r *Router) moderator(telegramID int64) *domain.Actor {
	id, ok := r.moderators[telegramID]
	if !ok {
		return nil
	}
	return &domain.Actor{ID: id, Role: domain.RoleModerator}
}

func (r *Router) refuse(ctx context.Context, update *ports.BotUpdate) {
	if update.CallbackQueryID != "" {
		r.botClient.AnswerCallbackQuery(ctx, ports.AnswerCallbackParams{
			CallbackQueryID: update.CallbackQueryID,
			Text:            refusalText,
			ShowAlert:       true,
		})
		return
	}
	r.botClient.SendMessage(ctx, ports.SendMessageParams{
		ChatID: update.ChatID,
		Text:   refusalText,
	})
}

// parseUpdate converts a tgbotapi.Update into our internal, simplified struct.
func parseUpdate(update *tgbotapi.Update) (*ports.BotUpdate, bool) {
	if cb := update.CallbackQuery; cb != nil {
		if cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
			return nil, false
		}
		data := cb.Data
		return &ports.BotUpdate{
			MessageID:       cb.Message.MessageID,
			ChatID:          cb.Message.Chat.ID,
			UserID:          cb.From.ID,
			CallbackQueryID: cb.ID,
			CallbackData:    &data,
		}, true
	}

	if msg := update.Message; msg != nil {
		if msg.From == nil || msg.Chat == nil {
			return nil, false
		}
		return &ports.BotUpdate{
			MessageID:   msg.MessageID,
			ChatID:      msg.Chat.ID,
			UserID:      msg.From.ID,
			Text:        msg.Text,
			Command:     msg.Command(),
			CommandArgs: strings.TrimSpace(msg.CommandArguments()),
		}, true
	}

	return nil, false
}
