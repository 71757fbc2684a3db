package ports

import (
	"NaijaAuto/internal/core/domain"
	"context"
)

// --- Bot Message Structures ---

// Button represents a single button in a keyboard.
type Button struct {
	Text string
	Data string // For callbacks
	URL  string // For URL buttons
}

// ReplyMarkup represents an inline keyboard attached to a message.
type ReplyMarkup struct {
	Buttons [][]Button
}

// SendMessageParams holds all possible options for sending a message.
type SendMessageParams struct {
	ChatID      int64
	Text        string
	ParseMode   string // e.g., "MarkdownV2" or "HTML"
	ReplyMarkup *ReplyMarkup
}

// AnswerCallbackParams stops the client spinner after a button press.
type AnswerCallbackParams struct {
	CallbackQueryID string
	Text            string
	ShowAlert       bool
}

// --- Bot Client Port (Outbound) ---

// BotClientPort defines the interface for *sending* messages.
type BotClientPort interface {
	SendMessage(ctx context.Context, params SendMessageParams) (messageID int, err error)
	AnswerCallbackQuery(ctx context.Context, params AnswerCallbackParams) error
}

// --- Bot Handler Port (Inbound) ---

// BotUpdate represents a simplified, generic update.
type BotUpdate struct {
	MessageID       int
	ChatID          int64
	UserID          int64
	Text            string
	Command         string
	CommandArgs     string
	CallbackQueryID string
	CallbackData    *string
}

// CommandHandler handles a slash command issued by a mapped moderator.
type CommandHandler interface {
	// Command returns the command string without the slash (e.g., "queue")
	Command() string
	Handle(ctx context.Context, update *BotUpdate, moderator *domain.Actor) error
}

// CallbackHandler handles inline button presses.
type CallbackHandler interface {
	// Prefix returns the prefix for the callback (e.g., "approve_")
	Prefix() string
	Handle(ctx context.Context, update *BotUpdate, moderator *domain.Actor) error
}
