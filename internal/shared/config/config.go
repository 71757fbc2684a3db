package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDev        = "dev"
	EnvTest       = "test"
	EnvProduction = "production"
)

type PostgresConfig struct {
	URL string
}

type RedisConfig struct {
	URL string
}

type PaystackConfig struct {
	SecretKey string
	BaseURL   string
}

type TermiiConfig struct {
	APIKey   string
	SenderID string
	BaseURL  string
}

type EmailConfig struct {
	ResendAPIKey string
	From         string
}

type TelegramConfig struct {
	BotToken         string
	ModerationChatID int64
	// Moderators maps a Telegram user id to a marketplace user id.
	Moderators     map[int64]uuid.UUID
	WorkerPoolSize int
}

// Config holds all configuration for the application.
type Config struct {
	AppEnv        string
	AppURL        string
	EncryptionKey string
	SeedDemoData  bool

	Postgres PostgresConfig
	Redis    RedisConfig
	Paystack PaystackConfig
	Termii   TermiiConfig
	Email    EmailConfig
	Telegram TelegramConfig
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == EnvProduction
}

var bindings = map[string]string{
	"app.env":                   "APP_ENV",
	"app.url":                   "APP_URL",
	"encryption.key":            "ENCRYPTION_KEY",
	"seed.demo":                 "SEED_DEMO_DATA",
	"postgres.url":              "DATABASE_URL",
	"redis.url":                 "REDIS_URL",
	"paystack.secret_key":       "PAYSTACK_SECRET_KEY",
	"paystack.base_url":         "PAYSTACK_BASE_URL",
	"termii.api_key":            "TERMII_API_KEY",
	"termii.sender_id":          "TERMII_SENDER_ID",
	"termii.base_url":           "TERMII_BASE_URL",
	"email.resend_api_key":      "RESEND_API_KEY",
	"email.from":                "EMAIL_FROM",
	"telegram.bot_token":        "TELEGRAM_BOT_TOKEN",
	"telegram.moderation_chat":  "TELEGRAM_MODERATION_CHAT_ID",
	"telegram.moderators":       "TELEGRAM_MODERATORS",
	"telegram.worker_pool_size": "TELEGRAM_WORKER_POOL_SIZE",
}

// Load reads an optional .env file and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("could not bind %s: %w", key, err)
		}
	}

	v.SetDefault("app.env", EnvDev)
	v.SetDefault("app.url", "http://localhost:3000")
	v.SetDefault("email.from", "NaijaAuto <noreply@naijaauto.ng>")
	v.SetDefault("telegram.worker_pool_size", 4)

	cfg := Config{
		AppEnv:        strings.ToLower(v.GetString("app.env")),
		AppURL:        strings.TrimRight(v.GetString("app.url"), "/"),
		EncryptionKey: v.GetString("encryption.key"),
		SeedDemoData:  v.GetBool("seed.demo"),
		Postgres:      PostgresConfig{URL: v.GetString("postgres.url")},
		Redis:         RedisConfig{URL: v.GetString("redis.url")},
		Paystack: PaystackConfig{
			SecretKey: v.GetString("paystack.secret_key"),
			BaseURL:   v.GetString("paystack.base_url"),
		},
		Termii: TermiiConfig{
			APIKey:   v.GetString("termii.api_key"),
			SenderID: v.GetString("termii.sender_id"),
			BaseURL:  v.GetString("termii.base_url"),
		},
		Email: EmailConfig{
			ResendAPIKey: v.GetString("email.resend_api_key"),
			From:         v.GetString("email.from"),
		},
		Telegram: TelegramConfig{
			BotToken:       v.GetString("telegram.bot_token"),
			WorkerPoolSize: v.GetInt("telegram.worker_pool_size"),
		},
	}

	switch cfg.AppEnv {
	case EnvDev, EnvTest, EnvProduction:
	default:
		return nil, fmt.Errorf("APP_ENV must be one of dev, test, production, got %q", cfg.AppEnv)
	}

	if cfg.Postgres.URL != "" {
		if cfg.EncryptionKey == "" {
			return nil, errors.New("ENCRYPTION_KEY is required when DATABASE_URL is set")
		}
		if len(cfg.EncryptionKey) != 64 {
			return nil, fmt.Errorf("ENCRYPTION_KEY must be a 64-character hex string (32 bytes), but got %d chars", len(cfg.EncryptionKey))
		}
		if _, err := hex.DecodeString(cfg.EncryptionKey); err != nil {
			return nil, fmt.Errorf("ENCRYPTION_KEY is not valid hex: %w", err)
		}
	}

	if raw := v.GetString("telegram.moderation_chat"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("TELEGRAM_MODERATION_CHAT_ID: %w", err)
		}
		cfg.Telegram.ModerationChatID = id
	}

	moderators, err := parseModerators(v.GetString("telegram.moderators"))
	if err != nil {
		return nil, err
	}
	cfg.Telegram.Moderators = moderators

	if cfg.Telegram.WorkerPoolSize < 1 {
		cfg.Telegram.WorkerPoolSize = 1
	}
	return &cfg, nil
}

// parseModerators reads "tgID:userUUID,tgID:userUUID".
func parseModerators(raw string) (map[int64]uuid.UUID, error) {
	out := make(map[int64]uuid.UUID)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		tg, user, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, fmt.Errorf("TELEGRAM_MODERATORS entry %q must be tgID:userUUID", pair)
		}
		tgID, err := strconv.ParseInt(strings.TrimSpace(tg), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("TELEGRAM_MODERATORS telegram id %q: %w", tg, err)
		}
		userID, err := uuid.Parse(strings.TrimSpace(user))
		if err != nil {
			return nil, fmt.Errorf("TELEGRAM_MODERATORS user id %q: %w", user, err)
		}
		out[tgID] = userID
	}
	return out, nil
}
