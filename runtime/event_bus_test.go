package runtime

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/leeforge/plugincatalog/plugin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestEventBus_PublishAndSubscribe(t *testing.T) {
	bus := NewEventBus(1024, zap.NewNop())
	defer bus.Close()

	got := make(chan Event, 1)
	bus.Subscribe(TopicRegistered, func(ctx context.Context, e Event) error {
		got <- e
		return nil
	})

	require.NoError(t, bus.Publish(context.Background(), Event{Topic: TopicRegistered, PluginID: "a"}))

	select {
	case e := <-got:
		assert.Equal(t, "a", e.PluginID)
		_, err := uuid.Parse(e.ID)
		assert.NoError(t, err, "events are stamped with a uuid")
		assert.False(t, e.Timestamp.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("handler not called")
	}
}

func TestEventBus_WildcardAndMultipleSubscribers(t *testing.T) {
	bus := NewEventBus(1024, zap.NewNop())

	var count atomic.Int32
	handler := func(ctx context.Context, e Event) error {
		count.Add(1)
		return nil
	}
	bus.Subscribe(TopicActivation, handler)
	bus.Subscribe(TopicAll, handler)

	require.NoError(t, bus.Publish(context.Background(), Event{Topic: TopicActivation}))
	require.NoError(t, bus.Publish(context.Background(), Event{Topic: TopicCleared}))
	require.NoError(t, bus.Close())

	assert.Equal(t, int32(3), count.Load())
}

func TestEventBus_SubscribeFamily(t *testing.T) {
	bus := NewEventBus(1024, zap.NewNop())

	var helpers, all atomic.Int32
	bus.SubscribeFamily(TopicAll, plugin.FamilyHelper, func(ctx context.Context, e Event) error {
		helpers.Add(1)
		return nil
	})
	bus.Subscribe(TopicAll, func(ctx context.Context, e Event) error {
		all.Add(1)
		return nil
	})
	assert.Equal(t, 2, bus.Subscribers())

	ctx := context.Background()
	require.NoError(t, bus.Publish(ctx, Event{Topic: TopicRegistered, Family: plugin.FamilyHelper}))
	require.NoError(t, bus.Publish(ctx, Event{Topic: TopicRegistered, Family: plugin.FamilyNodeType}))
	require.NoError(t, bus.Publish(ctx, Event{Topic: TopicCleared}))
	require.NoError(t, bus.Close())

	assert.Equal(t, int32(1), helpers.Load())
	assert.Equal(t, int32(3), all.Load())
}

func TestEventBus_SubscribeFamilySeesFamilyMoves(t *testing.T) {
	bus := NewEventBus(16, zap.NewNop())

	var tools atomic.Int32
	bus.SubscribeFamily(TopicReplaced, plugin.FamilyGalleryTool, func(ctx context.Context, e Event) error {
		tools.Add(1)
		return nil
	})

	err := bus.Publish(context.Background(), Event{
		Topic:          TopicReplaced,
		Family:         plugin.FamilyNodeType,
		PreviousFamily: plugin.FamilyGalleryTool,
	})
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if err := bus.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if got := tools.Load(); got != 1 {
		t.Errorf("gallery tool handler calls = %d, want 1", got)
	}
}

func TestEventBus_Unsubscribe(t *testing.T) {
	bus := NewEventBus(1024, zap.NewNop())

	var count atomic.Int32
	sub := bus.Subscribe("evt", func(ctx context.Context, e Event) error {
		count.Add(1)
		return nil
	})
	sub.Unsubscribe()

	require.NoError(t, bus.Publish(context.Background(), Event{Topic: "evt"}))
	require.NoError(t, bus.Close())
	assert.Equal(t, int32(0), count.Load())
}

func TestEventBus_PublishAfterClose(t *testing.T) {
	bus := NewEventBus(1024, zap.NewNop())
	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close(), "close is idempotent")

	err := bus.Publish(context.Background(), Event{Topic: "evt"})
	assert.ErrorIs(t, err, ErrBusClosed)
}

func TestEventBus_CloseWaitsForInFlight(t *testing.T) {
	bus := NewEventBus(1024, zap.NewNop())

	var finished atomic.Bool
	bus.Subscribe("slow", func(ctx context.Context, e Event) error {
		time.Sleep(100 * time.Millisecond)
		finished.Store(true)
		return nil
	})

	require.NoError(t, bus.Publish(context.Background(), Event{Topic: "slow"}))
	require.NoError(t, bus.Close())
	assert.True(t, finished.Load(), "Close returned before in-flight handler completed")
}

func TestEventBus_HandlerPanicIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	bus := NewEventBus(16, zap.New(core))

	var after atomic.Bool
	bus.Subscribe("evt", func(ctx context.Context, e Event) error { panic("boom") })
	bus.Subscribe("evt", func(ctx context.Context, e Event) error {
		after.Store(true)
		return nil
	})

	require.NoError(t, bus.Publish(context.Background(), Event{Topic: "evt"}))
	require.NoError(t, bus.Close())

	assert.True(t, after.Load())
	assert.Equal(t, 1, logs.FilterMessage("event handler panicked").Len())
}

func TestEventBus_ContextCancellation(t *testing.T) {
	bus := NewEventBus(1, zap.NewNop())
	defer bus.Close()

	bus.Subscribe("fill", func(ctx context.Context, e Event) error {
		time.Sleep(200 * time.Millisecond)
		return nil
	})
	require.NoError(t, bus.Publish(context.Background(), Event{Topic: "fill"}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := bus.Publish(ctx, Event{Topic: "fill"})
	if err != nil {
		assert.ErrorIs(t, err, ErrPublishTimeout)
	}
}
