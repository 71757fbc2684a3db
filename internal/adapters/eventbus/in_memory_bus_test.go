package eventbus

import (
	"NaijaAuto/internal/core/ports"
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestInMemoryEventBus_DeliversToAllSubscribers(t *testing.T) {
	nopLogger := zerolog.Nop()
	bus := NewInMemoryEventBus(&nopLogger)

	var calls atomic.Int32
	var got atomic.Value
	bus.Subscribe(ports.TopicListingSubmitted, func(ctx context.Context, e ports.Event) error {
		calls.Add(1)
		got.Store(e.Data)
		return nil
	})
	bus.Subscribe(ports.TopicListingSubmitted, func(ctx context.Context, e ports.Event) error {
		calls.Add(1)
		return errors.New("handler failure stays inside the bus")
	})
	bus.Subscribe(ports.TopicListingReviewed, func(ctx context.Context, e ports.Event) error {
		t.Error("wrong topic delivered")
		return nil
	})

	err := bus.Publish(context.Background(), ports.TopicListingSubmitted, "payload")
	bus.Wait()

	assert.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, "payload", got.Load())
}

func TestInMemoryEventBus_HandlerOutlivesPublisherContext(t *testing.T) {
	nopLogger := zerolog.Nop()
	bus := NewInMemoryEventBus(&nopLogger)

	var ctxErr atomic.Value
	bus.Subscribe("topic", func(ctx context.Context, e ports.Event) error {
		ctxErr.Store(ctx.Err() == nil)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, bus.Publish(ctx, "topic", nil))
	bus.Wait()

	assert.Equal(t, true, ctxErr.Load())
}

func TestInMemoryEventBus_RecoversFromPanics(t *testing.T) {
	nopLogger := zerolog.Nop()
	bus := NewInMemoryEventBus(&nopLogger)
	bus.Subscribe("topic", func(ctx context.Context, e ports.Event) error {
		panic("boom")
	})

	assert.NotPanics(t, func() {
		_ = bus.Publish(context.Background(), "topic", nil)
		bus.Wait()
	})
}

func TestInMemoryEventBus_NoSubscribers(t *testing.T) {
	nopLogger := zerolog.Nop()
	bus := NewInMemoryEventBus(&nopLogger)
	assert.NoError(t, bus.Publish(context.Background(), "nobody", 1))
	bus.Wait()
}
