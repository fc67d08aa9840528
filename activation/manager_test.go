package activation

import (
	"context"
	"testing"

	"github.com/leeforge/plugincatalog/catalog"
	"github.com/leeforge/plugincatalog/plugin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func setup(t *testing.T) (*catalog.Catalog, *Manager, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)
	cat := catalog.NewCatalog(catalog.Config{Logger: logger})
	m := NewManager(cat, Config{Logger: logger})
	t.Cleanup(m.Close)
	return cat, m, logs
}

func register(cat *catalog.Catalog, id string, state plugin.ActivationState, canDisable bool) {
	cat.Register(&plugin.Metadata{
		ID:              id,
		Family:          plugin.FamilyGalleryTool,
		Origin:          plugin.OriginPluginDir,
		ActivationState: state,
		CanDisable:      canDisable,
	})
}

func TestManager_ActivateIsIdempotent(t *testing.T) {
	cat, m, _ := setup(t)
	register(cat, "p", plugin.StateInactive, true)
	ctx := context.Background()

	var got []plugin.ActivationState
	m.Subscribe("p", func(s plugin.ActivationState) { got = append(got, s) })

	assert.True(t, m.Activate(ctx, "p"))
	assert.True(t, m.Activate(ctx, "p"))
	assert.Equal(t, []plugin.ActivationState{plugin.StateActive}, got)
	assert.True(t, m.IsActive("p"))
}

func TestManager_UnknownIDs(t *testing.T) {
	_, m, logs := setup(t)
	ctx := context.Background()

	assert.False(t, m.Activate(ctx, "nope"))
	assert.False(t, m.Deactivate(ctx, "nope"))
	assert.False(t, m.Toggle(ctx, "nope"))
	assert.False(t, m.IsActive("nope"))
	assert.Equal(t, 3, logs.FilterLevelExact(zapcore.WarnLevel).Len())
}

func TestManager_NonDisableablePluginStaysActive(t *testing.T) {
	cat, m, logs := setup(t)
	register(cat, "core", plugin.StateActive, false)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.False(t, m.Deactivate(ctx, "core"))
		assert.False(t, m.Toggle(ctx, "core"))
	}
	got, _ := cat.Get("core")
	assert.Equal(t, plugin.StateActive, got.ActivationState)
	assert.Equal(t, 6, logs.FilterMessage("plugin cannot be disabled").Len())
}

func TestManager_ToggleFlipsState(t *testing.T) {
	cat, m, _ := setup(t)
	register(cat, "p", plugin.StateActive, true)
	ctx := context.Background()

	require.True(t, m.Toggle(ctx, "p"))
	assert.False(t, m.IsActive("p"))
	require.True(t, m.Toggle(ctx, "p"))
	assert.True(t, m.IsActive("p"))
}

func TestManager_DeactivateInactiveIsNoop(t *testing.T) {
	cat, m, _ := setup(t)
	register(cat, "p", plugin.StateInactive, true)

	calls := 0
	m.Subscribe("p", func(plugin.ActivationState) { calls++ })

	assert.True(t, m.Deactivate(context.Background(), "p"))
	assert.Zero(t, calls)
}

func TestManager_SubscriptionsAreScopedToID(t *testing.T) {
	cat, m, _ := setup(t)
	register(cat, "a", plugin.StateActive, true)
	register(cat, "b", plugin.StateActive, true)

	aCalls, bCalls := 0, 0
	m.Subscribe("a", func(plugin.ActivationState) { aCalls++ })
	unsubB := m.Subscribe("b", func(plugin.ActivationState) { bCalls++ })

	m.Deactivate(context.Background(), "a")
	assert.Equal(t, 1, aCalls)
	assert.Equal(t, 0, bCalls)

	unsubB()
	m.Deactivate(context.Background(), "b")
	assert.Equal(t, 0, bCalls)
}

func TestManager_SeesDirectCatalogChanges(t *testing.T) {
	cat, m, _ := setup(t)
	register(cat, "p", plugin.StateActive, true)

	var got []plugin.ActivationState
	m.Subscribe("p", func(s plugin.ActivationState) { got = append(got, s) })

	cat.SetActivationState("p", plugin.StateInactive)
	register(cat, "p", plugin.StateActive, true)

	assert.Equal(t, []plugin.ActivationState{plugin.StateInactive, plugin.StateActive}, got)
}

func TestManager_ListenerPanicIsIsolated(t *testing.T) {
	cat, m, logs := setup(t)
	register(cat, "p", plugin.StateActive, true)

	second := 0
	m.Subscribe("p", func(plugin.ActivationState) { panic("bad listener") })
	m.Subscribe("p", func(plugin.ActivationState) { second++ })

	assert.True(t, m.Deactivate(context.Background(), "p"))
	assert.Equal(t, 1, second)

	entries := logs.FilterMessage("activation listener panicked").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "p", entries[0].ContextMap()["id"])
}

func TestManager_CanceledContext(t *testing.T) {
	cat, m, _ := setup(t)
	register(cat, "p", plugin.StateInactive, true)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.False(t, m.Activate(ctx, "p"))
	assert.False(t, m.IsActive("p"))
}

func TestManager_CloseStopsNotifications(t *testing.T) {
	cat, m, _ := setup(t)
	register(cat, "p", plugin.StateActive, true)

	calls := 0
	m.Subscribe("p", func(plugin.ActivationState) { calls++ })
	m.Close()

	cat.SetActivationState("p", plugin.StateInactive)
	assert.Zero(t, calls)
}

func TestManager_SubscribesToCatalogOnlyWhileListening(t *testing.T) {
	cat, m, _ := setup(t)
	register(cat, "p", plugin.StateActive, true)

	if got := cat.Listeners(); got != 0 {
		t.Fatalf("catalog listeners before Subscribe = %d, want 0", got)
	}

	calls := 0
	unsubA := m.Subscribe("p", func(plugin.ActivationState) { calls++ })
	unsubB := m.Subscribe("q", func(plugin.ActivationState) {})
	if got := cat.Listeners(); got != 1 {
		t.Fatalf("catalog listeners with two subscriptions = %d, want 1", got)
	}

	m.Deactivate(context.Background(), "p")
	if calls != 1 {
		t.Errorf("listener calls = %d, want 1", calls)
	}

	unsubA()
	if got := cat.Listeners(); got != 1 {
		t.Errorf("catalog listeners after one unsubscribe = %d, want 1", got)
	}
	unsubB()
	if got := cat.Listeners(); got != 0 {
		t.Errorf("catalog listeners after last unsubscribe = %d, want 0", got)
	}

	m.Close()
	m.Subscribe("p", func(plugin.ActivationState) {})
	if got := cat.Listeners(); got != 0 {
		t.Errorf("closed manager resubscribed: listeners = %d", got)
	}
}
