package telegram

import (
	"NaijaAuto/internal/core/domain"
	"NaijaAuto/internal/core/ports"
	"context"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// --- Mocks ---

// MockCommandHandler
type MockCommandHandler struct {
	mock.Mock
}

func (m *MockCommandHandler) Command() string {
	args := m.Called()
	return args.String(0)
}
func (m *MockCommandHandler) Handle(ctx context.Context, update *ports.BotUpdate, moderator *domain.Actor) error {
	args := m.Called(update, moderator)
	return args.Error(0)
}

// MockCallbackHandler
type MockCallbackHandler struct {
	mock.Mock
}

func (m *MockCallbackHandler) Prefix() string {
	args := m.Called()
	return args.String(0)
}
func (m *MockCallbackHandler) Handle(ctx context.Context, update *ports.BotUpdate, moderator *domain.Actor) error {
	args := m.Called(update, moderator)
	return args.Error(0)
}

// MockBotClient is a mock for the BotClientPort
type MockBotClient struct {
	mock.Mock
}

func (m *MockBotClient) SendMessage(ctx context.Context, params ports.SendMessageParams) (int, error) {
	args := m.Called(ctx, params)
	return args.Int(0), args.Error(1)
}
func (m *MockBotClient) AnswerCallbackQuery(ctx context.Context, params ports.AnswerCallbackParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

// --- Helpers ---

const moderatorTelegramID int64 = 789

var moderatorUserID = uuid.MustParse("5b0c3f5e-8d4a-4b8e-9a55-1f0d7c2e6a01")

func newTestRouter(bot ports.BotClientPort) *Router {
	nopLogger := zerolog.Nop()
	return NewRouter(bot, map[int64]uuid.UUID{moderatorTelegramID: moderatorUserID}, &nopLogger)
}

func commandUpdate(from int64, text string, cmdLen int) *tgbotapi.Update {
	return &tgbotapi.Update{
		UpdateID: 123,
		Message: &tgbotapi.Message{
			MessageID: 456,
			From:      &tgbotapi.User{ID: from, UserName: "moderator"},
			Chat:      &tgbotapi.Chat{ID: 1000},
			Text:      text,
			Entities: []tgbotapi.MessageEntity{
				{Type: "bot_command", Offset: 0, Length: cmdLen},
			},
		},
	}
}

func isModerator(a *domain.Actor) bool {
	return a != nil && a.ID == moderatorUserID && a.Role == domain.RoleModerator
}

// --- Tests ---

func TestRouter_HandleUpdate_Command(t *testing.T) {
	ctx := context.Background()
	mockBotClient := new(MockBotClient)
	router := newTestRouter(mockBotClient)

	approveHandler := new(MockCommandHandler)
	approveHandler.On("Command").Return("approve")
	approveHandler.On("Handle", mock.MatchedBy(func(u *ports.BotUpdate) bool {
		return u.Command == "approve" && u.CommandArgs == "toyota-corolla-2015-ikeja looks good" && u.ChatID == 1000
	}), mock.MatchedBy(isModerator)).Return(nil).Once()

	queueHandler := new(MockCommandHandler)
	queueHandler.On("Command").Return("queue")

	router.RegisterCommandHandler(approveHandler)
	router.RegisterCommandHandler(queueHandler)

	router.HandleUpdate(ctx, commandUpdate(moderatorTelegramID, "/approve toyota-corolla-2015-ikeja looks good", 8))

	approveHandler.AssertExpectations(t)
	queueHandler.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
	mockBotClient.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything)
}

func TestRouter_HandleUpdate_Callback(t *testing.T) {
	ctx := context.Background()
	mockBotClient := new(MockBotClient)
	router := newTestRouter(mockBotClient)

	approveHandler := new(MockCallbackHandler)
	approveHandler.On("Prefix").Return("approve_")
	approveHandler.On("Handle", mock.MatchedBy(func(u *ports.BotUpdate) bool {
		return u.CallbackQueryID == "cb_id_1" && *u.CallbackData == "approve_123-abc"
	}), mock.MatchedBy(isModerator)).Return(nil).Once()

	otherHandler := new(MockCallbackHandler)
	otherHandler.On("Prefix").Return("page_")

	router.RegisterCallbackHandler(approveHandler)
	router.RegisterCallbackHandler(otherHandler)

	router.HandleUpdate(ctx, &tgbotapi.Update{
		UpdateID: 124,
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:   "cb_id_1",
			From: &tgbotapi.User{ID: moderatorTelegramID},
			Message: &tgbotapi.Message{
				MessageID: 456,
				Chat:      &tgbotapi.Chat{ID: 1000},
			},
			Data: "approve_123-abc",
		},
	})

	approveHandler.AssertExpectations(t)
	otherHandler.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
}

func TestRouter_RefusesUnknownUsers(t *testing.T) {
	ctx := context.Background()

	t.Run("command", func(t *testing.T) {
		mockBotClient := new(MockBotClient)
		router := newTestRouter(mockBotClient)
		queueHandler := new(MockCommandHandler)
		queueHandler.On("Command").Return("queue")
		router.RegisterCommandHandler(queueHandler)

		mockBotClient.On("SendMessage", mock.Anything, ports.SendMessageParams{ChatID: 1000, Text: refusalText}).
			Return(1, nil).Once()

		router.HandleUpdate(ctx, commandUpdate(42, "/queue", 6))

		mockBotClient.AssertExpectations(t)
		queueHandler.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
	})

	t.Run("callback", func(t *testing.T) {
		mockBotClient := new(MockBotClient)
		router := newTestRouter(mockBotClient)
		approveHandler := new(MockCallbackHandler)
		approveHandler.On("Prefix").Return("approve_")
		router.RegisterCallbackHandler(approveHandler)

		mockBotClient.On("AnswerCallbackQuery", mock.Anything, ports.AnswerCallbackParams{
			CallbackQueryID: "cb_x",
			Text:            refusalText,
			ShowAlert:       true,
		}).Return(nil).Once()

		router.HandleUpdate(ctx, &tgbotapi.Update{
			CallbackQuery: &tgbotapi.CallbackQuery{
				ID:      "cb_x",
				From:    &tgbotapi.User{ID: 42},
				Message: &tgbotapi.Message{MessageID: 1, Chat: &tgbotapi.Chat{ID: 1000}},
				Data:    "approve_123",
			},
		})

		mockBotClient.AssertExpectations(t)
		approveHandler.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
	})
}

func TestRouter_HandleUpdate_UnknownCommandAndText(t *testing.T) {
	ctx := context.Background()
	mockBotClient := new(MockBotClient)
	router := newTestRouter(mockBotClient)

	mockBotClient.On("SendMessage", mock.Anything, mock.MatchedBy(func(p ports.SendMessageParams) bool {
		return p.ChatID == 1000 && p.Text != refusalText
	})).Return(1, nil).Once()

	router.HandleUpdate(ctx, commandUpdate(moderatorTelegramID, "/start", 6))

	// Plain text from a moderator is ignored.
	router.HandleUpdate(ctx, &tgbotapi.Update{
		Message: &tgbotapi.Message{
			MessageID: 457,
			From:      &tgbotapi.User{ID: moderatorTelegramID},
			Chat:      &tgbotapi.Chat{ID: 1000},
			Text:      "hello world",
		},
	})

	mockBotClient.AssertExpectations(t)
}

func TestParseUpdate_Unsupported(t *testing.T) {
	_, ok := parseUpdate(&tgbotapi.Update{UpdateID: 1})
	assert.False(t, ok)

	_, ok = parseUpdate(&tgbotapi.Update{Message: &tgbotapi.Message{Text: "x"}})
	assert.False(t, ok, "messages without a sender are skipped")
}
