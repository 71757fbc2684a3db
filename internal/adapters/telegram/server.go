package telegram

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// updateHandler is what the server dispatches polled updates to.
type updateHandler interface {
	HandleUpdate(ctx context.Context, update *tgbotapi.Update)
}

// BotServer long-polls Telegram and fans updates out to a worker pool.
type BotServer struct {
	api     *tgbotapi.BotAPI
	router  updateHandler
	workers int
	log     zerolog.Logger
}

// NewBotServer creates a new server instance
func NewBotServer(
	api *tgbotapi.BotAPI,
	router updateHandler,
	workers int,
	baseLogger *zerolog.Logger,
) *BotServer {
	if workers < 1 {
		workers = 1
	}
	return &BotServer{
		api:     api,
		router:  router,
		workers: workers,
		log:     baseLogger.With().Str("component", "bot_server").Logger(),
	}
}

// Start polls until ctx is cancelled.
func (s *BotServer) Start(ctx context.Context) error {
	s.log.Info().Int("workers", s.workers).Msg("Starting moderation desk in polling mode")

	if _, err := s.api.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: false}); err != nil {
		s.log.Warn().Err(err).Msg("Failed to delete webhook (continuing anyway)")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := s.api.GetUpdatesChan(u)

	dispatch(ctx, updates, s.router, s.workers, s.log)
	s.api.StopReceivingUpdates()
	s.log.Info().Msg("Polling stopped gracefully")
	return nil
}

// dispatch feeds updates to a fixed pool of workers until ctx is done or the
// source closes, then waits for in-flight updates to finish.
func dispatch(ctx context.Context, updates <-chan tgbotapi.Update, router updateHandler, workers int, log zerolog.Logger) {
	jobs := make(chan tgbotapi.Update, 100)

	var wg sync.WaitGroup
	for w := 1; w <= workers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			wlog := log.With().Int("worker_id", id).Logger()
			wlog.Debug().Msg("Starting polling worker")
			for job := range jobs {
				// In-flight updates finish even after shutdown starts.
				router.HandleUpdate(context.WithoutCancel(ctx), &job)
			}
			wlog.Debug().Msg("Stopping polling worker")
		}(w)
	}

	defer func() {
		close(jobs)
		wg.Wait()
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			select {
			case jobs <- update:
			case <-ctx.Done():
				return
			}
		}
	}
}
