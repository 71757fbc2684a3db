// Package redis holds the Redis-backed webhook claim table shared by every
// API instance.
package redis

import (
	"NaijaAuto/internal/core/ports"
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const claimKeyPrefix = "naijaauto:webhook:claim:"

// Connect builds a client from a redis:// URL or a bare host:port.
func Connect(ctx context.Context, redisURL string) (*goredis.Client, error) {
	var client *goredis.Client
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := goredis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client = goredis.NewClient(opt)
	} else {
		client = goredis.NewClient(&goredis.Options{Addr: redisURL})
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

type webhookGuard struct {
	client *goredis.Client
	log    zerolog.Logger
}

var _ ports.WebhookGuard = (*webhookGuard)(nil)

func NewWebhookGuard(client *goredis.Client, baseLogger *zerolog.Logger) ports.WebhookGuard {
	return &webhookGuard{
		client: client,
		log:    baseLogger.With().Str("component", "redis_webhook_guard").Logger(),
	}
}

// Claim sets the key only if it is absent, so exactly one caller wins until
// the ttl lapses.
func (g *webhookGuard) Claim(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	ok, err := g.client.SetNX(ctx, claimKeyPrefix+eventID, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		g.log.Error().Err(err).Str("event_id", eventID).Msg("Failed to claim webhook event")
		return false, err
	}
	if !ok {
		g.log.Debug().Str("event_id", eventID).Msg("Webhook event already claimed")
	}
	return ok, nil
}

func (g *webhookGuard) Release(ctx context.Context, eventID string) error {
	if err := g.client.Del(ctx, claimKeyPrefix+eventID).Err(); err != nil {
		g.log.Error().Err(err).Str("event_id", eventID).Msg("Failed to release webhook claim")
		return err
	}
	return nil
}
