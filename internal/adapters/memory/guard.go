package memory

import (
	"NaijaAuto/internal/core/ports"
	"context"
	"sync"
	"time"
)

// WebhookGuard is the single-process claim table for webhook event ids.
type WebhookGuard struct {
	mu     sync.Mutex
	claims map[string]time.Time
	now    func() time.Time
}

var _ ports.WebhookGuard = (*WebhookGuard)(nil)

func NewWebhookGuard() *WebhookGuard {
	return &WebhookGuard{claims: make(map[string]time.Time), now: time.Now}
}

// Claim returns true for the first caller until ttl elapses or Release is called.
func (g *WebhookGuard) Claim(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if expires, ok := g.claims[eventID]; ok && now.Before(expires) {
		return false, nil
	}
	g.claims[eventID] = now.Add(ttl)
	return true, nil
}

func (g *WebhookGuard) Release(ctx context.Context, eventID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.claims, eventID)
	return nil
}
