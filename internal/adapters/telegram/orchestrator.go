package telegram

import (
	"NaijaAuto/internal/bot/desk"
	"NaijaAuto/internal/core/ports"
	"NaijaAuto/internal/shared/config"
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// Orchestrator wires the moderation desk bot together and runs it.
type Orchestrator struct {
	cfg        *config.Config
	svc        desk.Service
	bus        ports.EventBus
	baseLogger *zerolog.Logger
}

// NewOrchestrator creates a new desk orchestrator.
func NewOrchestrator(
	cfg *config.Config,
	svc desk.Service,
	bus ports.EventBus,
	baseLogger *zerolog.Logger,
) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		svc:        svc,
		bus:        bus,
		baseLogger: baseLogger,
	}
}

// Start connects to Telegram and blocks until ctx is cancelled.
func (o *Orchestrator) Start(ctx context.Context) error {
	log := o.baseLogger.With().Str("bot", "moderation_desk").Logger()
	tg := o.cfg.Telegram

	api, err := tgbotapi.NewBotAPI(tg.BotToken)
	if err != nil {
		return fmt.Errorf("connect telegram: %w", err)
	}
	api.Debug = o.cfg.AppEnv == config.EnvDev
	log.Info().Str("username", api.Self.UserName).Int("moderators", len(tg.Moderators)).Msg("Bot API connected")

	client := newClient(api, &log)

	router := NewRouter(client, tg.Moderators, &log)
	desk.RegisterAll(router, o.svc, client, &log)

	if tg.ModerationChatID != 0 {
		NewListingAlerts(client, tg.ModerationChatID, &log).Subscribe(o.bus)
	} else {
		log.Warn().Msg("TELEGRAM_MODERATION_CHAT_ID not set, submission alerts disabled")
	}

	client.SetMenuCommands(ctx)

	return NewBotServer(api, router, tg.WorkerPoolSize, &log).Start(ctx)
}
