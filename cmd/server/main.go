package main

import (
	"NaijaAuto/internal/adapters/eventbus"
	"NaijaAuto/internal/adapters/memory"
	"NaijaAuto/internal/adapters/paystack"
	"NaijaAuto/internal/adapters/postgres"
	"NaijaAuto/internal/adapters/redis"
	"NaijaAuto/internal/adapters/resend"
	"NaijaAuto/internal/adapters/security"
	"NaijaAuto/internal/adapters/telegram"
	"NaijaAuto/internal/adapters/termii"
	"NaijaAuto/internal/core/ports"
	"NaijaAuto/internal/core/services"
	"NaijaAuto/internal/shared/config"
	"NaijaAuto/internal/shared/logger"
	"NaijaAuto/internal/shared/seed"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	baseLogger := logger.New(cfg.AppEnv == config.EnvDev)
	baseLogger.Info().
		Str("app_env", cfg.AppEnv).
		Bool("postgres", cfg.Postgres.URL != "").
		Bool("redis", cfg.Redis.URL != "").
		Bool("telegram", cfg.Telegram.BotToken != "").
		Msg("Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, &baseLogger); err != nil {
		baseLogger.Fatal().Err(err).Msg("Application stopped with error")
	}
	baseLogger.Info().Msg("Application stopped")
}

func run(ctx context.Context, cfg *config.Config, baseLogger *zerolog.Logger) error {
	repo, closeRepo, err := openRepository(ctx, cfg, baseLogger)
	if err != nil {
		return err
	}
	defer closeRepo()

	guard, closeGuard, err := openWebhookGuard(ctx, cfg, baseLogger)
	if err != nil {
		return err
	}
	defer closeGuard()

	bus := eventbus.NewInMemoryEventBus(baseLogger)
	defer bus.Wait()

	sms := termii.NewClient(termii.Config{
		APIKey:     cfg.Termii.APIKey,
		SenderID:   cfg.Termii.SenderID,
		BaseURL:    cfg.Termii.BaseURL,
		Production: cfg.IsProduction(),
	}, baseLogger)
	payments := paystack.NewClient(paystack.Config{
		SecretKey:  cfg.Paystack.SecretKey,
		BaseURL:    cfg.Paystack.BaseURL,
		AppURL:     cfg.AppURL,
		Production: cfg.IsProduction(),
	}, baseLogger)
	mailer := resend.NewMailer(resend.Config{
		APIKey: cfg.Email.ResendAPIKey,
		From:   cfg.Email.From,
	}, baseLogger)

	svc := services.NewMarketplaceService(repo, sms, payments, guard, bus, services.Settings{
		AppURL:     cfg.AppURL,
		Production: cfg.IsProduction(),
	}, baseLogger)
	services.NewMailNotifier(mailer, baseLogger).Register(bus)

	if err := seed.Run(ctx, repo, seed.Options{DemoData: cfg.SeedDemoData}, baseLogger); err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Telegram.BotToken != "" {
		desk := telegram.NewOrchestrator(cfg, svc, bus, baseLogger)
		g.Go(func() error {
			return desk.Start(gctx)
		})
	} else {
		baseLogger.Warn().Msg("TELEGRAM_BOT_TOKEN not set, moderation desk disabled")
	}

	baseLogger.Info().Msg("All services initialized successfully")
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})
	return g.Wait()
}

// openRepository picks postgres when DATABASE_URL is set and the in-process
// store otherwise.
func openRepository(ctx context.Context, cfg *config.Config, baseLogger *zerolog.Logger) (ports.Repository, func(), error) {
	if cfg.Postgres.URL == "" {
		baseLogger.Warn().Msg("DATABASE_URL not set, using in-memory repository")
		return memory.NewRepository(baseLogger), func() {}, nil
	}

	cipher, err := security.NewFieldCipherFromHex(cfg.EncryptionKey, baseLogger)
	if err != nil {
		return nil, nil, fmt.Errorf("field cipher: %w", err)
	}
	db, err := postgres.NewDB(ctx, cfg.Postgres.URL, baseLogger)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return postgres.NewStore(db, cipher, baseLogger), db.Close, nil
}

func openWebhookGuard(ctx context.Context, cfg *config.Config, baseLogger *zerolog.Logger) (ports.WebhookGuard, func(), error) {
	if cfg.Redis.URL == "" {
		return memory.NewWebhookGuard(), func() {}, nil
	}

	client, err := redis.Connect(ctx, cfg.Redis.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	baseLogger.Info().Msg("Redis webhook guard connected")
	return redis.NewWebhookGuard(client, baseLogger), func() { client.Close() }, nil
}
