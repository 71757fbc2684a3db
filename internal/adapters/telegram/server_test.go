package telegram

import (
	"context"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type recordingHandler struct {
	mu  sync.Mutex
	ids []int
}

func (h *recordingHandler) HandleUpdate(ctx context.Context, update *tgbotapi.Update) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ids = append(h.ids, update.UpdateID)
}

func TestDispatch_DrainsUntilSourceCloses(t *testing.T) {
	updates := make(chan tgbotapi.Update, 10)
	for i := 1; i <= 10; i++ {
		updates <- tgbotapi.Update{UpdateID: i}
	}
	close(updates)

	h := &recordingHandler{}
	dispatch(context.Background(), updates, h, 3, zerolog.Nop())

	assert.ElementsMatch(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, h.ids)
}

func TestDispatch_StopsOnCancel(t *testing.T) {
	updates := make(chan tgbotapi.Update)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		dispatch(ctx, updates, &recordingHandler{}, 2, zerolog.Nop())
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch did not stop after cancel")
	}
}
