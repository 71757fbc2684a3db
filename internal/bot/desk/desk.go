// Package desk is the Telegram moderation desk: slash commands and inline
// buttons that drive the marketplace moderation operations.
package desk

import (
	"NaijaAuto/internal/bot/messages"
	"NaijaAuto/internal/core/domain"
	"NaijaAuto/internal/core/ports"
	"context"
	"encoding/json"

	"github.com/rs/zerolog"
)

// ApprovePrefix starts the callback data of the alert's Approve button.
const ApprovePrefix = "approve_"

// Service is the slice of the marketplace core the desk calls.
type Service interface {
	ApproveListing(ctx context.Context, moderator *domain.Actor, identifier string, payload []byte) (*domain.Listing, error)
	RejectListing(ctx context.Context, moderator *domain.Actor, identifier string, payload []byte) (*domain.Listing, error)
	GetModerationQueue(ctx context.Context, moderator *domain.Actor) ([]domain.QueueItem, error)
	GetModerationSlaDashboard(ctx context.Context, moderator *domain.Actor) (*domain.SlaDashboard, error)
}

// Registrar is the router the handlers are attached to.
type Registrar interface {
	RegisterCommandHandler(handler ports.CommandHandler)
	RegisterCallbackHandler(handler ports.CallbackHandler)
}

type commandConstructor func(Service, ports.BotClientPort, *zerolog.Logger) ports.CommandHandler

type callbackConstructor func(Service, ports.BotClientPort, *zerolog.Logger) ports.CallbackHandler

var (
	commands = []commandConstructor{
		NewQueueHandler,
		NewSlaHandler,
		NewApproveCommand,
		NewRejectCommand,
	}
	callbacks = []callbackConstructor{
		NewApproveCallback,
	}
)

// RegisterAll builds every desk handler and attaches it to the router.
func RegisterAll(router Registrar, svc Service, bot ports.BotClientPort, baseLogger *zerolog.Logger) {
	for _, constructor := range commands {
		router.RegisterCommandHandler(constructor(svc, bot, baseLogger))
	}
	for _, constructor := range callbacks {
		router.RegisterCallbackHandler(constructor(svc, bot, baseLogger))
	}
}

// reasonPayload encodes the moderation decision body the core expects.
func reasonPayload(reason string) []byte {
	if reason == "" {
		return nil
	}
	body, _ := json.Marshal(map[string]string{"reason": reason})
	return body
}

// replyError tells the moderator why an operation was refused.
func replyError(ctx context.Context, bot ports.BotClientPort, chatID int64, err error) error {
	_, sendErr := bot.SendMessage(ctx, messages.NewBuilder(chatID).WithPlainText("⚠️ "+domain.Message(err)).Build())
	return sendErr
}
