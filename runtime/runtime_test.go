package runtime

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/leeforge/plugincatalog/bridge"
	"github.com/leeforge/plugincatalog/catalog"
	apperrors "github.com/leeforge/plugincatalog/errors"
	"github.com/leeforge/plugincatalog/plugin"
	"github.com/leeforge/plugincatalog/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// --- Test Helpers ---

// pickyRegistry fails for "bad" and panics for "boom".
type pickyRegistry struct{}

func (pickyRegistry) Register(h plugin.Helper) error {
	switch h.ID {
	case "bad":
		return errors.New("rejected")
	case "boom":
		panic("registry exploded")
	}
	return nil
}

func pickyFamily() *bridge.Family[plugin.Helper] {
	return &bridge.Family[plugin.Helper]{
		Family:   plugin.FamilyHelper,
		Registry: pickyRegistry{},
		Build:    bridge.BuildHelper,
		Defaults: bridge.Defaults{Origin: plugin.OriginBuiltin, CanDisable: true},
	}
}

func helpers(ids ...string) []plugin.Helper {
	out := make([]plugin.Helper, 0, len(ids))
	for _, id := range ids {
		out = append(out, plugin.Helper{Base: plugin.Base{ID: id}})
	}
	return out
}

func newTestRuntime(t *testing.T, strict bool) (*Runtime, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	rt := NewRuntime(Config{
		Logger:      zap.New(core),
		Strict:      strict,
		EventBuffer: 64,
	})
	t.Cleanup(func() { _ = rt.Shutdown(context.Background()) })
	return rt, logs
}

func writeManifest(t *testing.T, root, name, body string) {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, source.ManifestFile), []byte(body), 0o644))
}

// --- Tests ---

func TestRegisterPluginFamily_Lenient(t *testing.T) {
	rt, logs := newTestRuntime(t, false)

	n, err := RegisterPluginFamily(rt, pickyFamily(), helpers("ok-1", "bad", "boom", "ok-2"), bridge.RegisterOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.True(t, rt.Catalog().Has("ok-1"))
	assert.True(t, rt.Catalog().Has("ok-2"))
	assert.False(t, rt.Catalog().Has("bad"))
	assert.False(t, rt.Catalog().Has("boom"))

	failures := rt.Failures()
	require.Len(t, failures, 2)
	for _, f := range failures {
		assert.Equal(t, apperrors.ErrorTypeRegistration, f.Type)
	}
	assert.Equal(t, "bad", failures[0].Details["id"])
	assert.Equal(t, "boom", failures[1].Details["id"])
	assert.Equal(t, 2, logs.FilterMessage("plugin registration failed").Len())
}

func TestRegisterPluginFamily_Strict(t *testing.T) {
	rt, _ := newTestRuntime(t, true)

	n, err := RegisterPluginFamily(rt, pickyFamily(), helpers("ok-1", "bad", "ok-2"), bridge.RegisterOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrRegistration)
	assert.Equal(t, 1, n)
	assert.False(t, rt.Catalog().Has("ok-2"), "strict mode stops at the first failure")
}

func TestRuntime_SetStrictAppliesToLaterPasses(t *testing.T) {
	rt, logs := newTestRuntime(t, false)

	rt.SetStrict(true)
	if !rt.Strict() {
		t.Fatal("Strict() = false after SetStrict(true)")
	}
	rt.SetStrict(true)
	if got := logs.FilterMessage("registration mode changed").Len(); got != 1 {
		t.Errorf("mode change logged %d times, want 1", got)
	}

	n, err := RegisterPluginFamily(rt, pickyFamily(), helpers("ok-1", "bad", "ok-2"), bridge.RegisterOptions{})
	if err == nil || n != 1 {
		t.Fatalf("strict pass = (%d, %v), want (1, error)", n, err)
	}

	rt.SetStrict(false)
	n, err = RegisterPluginFamily(rt, pickyFamily(), helpers("bad", "ok-3"), bridge.RegisterOptions{})
	if err != nil || n != 1 {
		t.Fatalf("lenient pass = (%d, %v), want (1, nil)", n, err)
	}
}

func TestBootstrap_SyncsRegistriesAsBuiltins(t *testing.T) {
	rt, _ := newTestRuntime(t, false)
	store := rt.Families().Helper.Registry
	require.NoError(t, store.Register(plugin.Helper{Base: plugin.Base{ID: "a"}}))
	require.NoError(t, store.Register(plugin.Helper{Base: plugin.Base{ID: "b"}}))

	report, err := rt.Bootstrap(context.Background(), BootstrapPlan{})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Synced)

	entries := rt.Catalog().GetByFamily(plugin.FamilyHelper)
	require.Len(t, entries, 2)
	for _, m := range entries {
		assert.Equal(t, plugin.OriginBuiltin, m.Origin)
		assert.False(t, m.CanDisable)
	}
}

func TestBootstrap_SourcesThenBackend(t *testing.T) {
	rt, _ := newTestRuntime(t, false)
	root := t.TempDir()
	writeManifest(t, root, "panel", `{"id":"panel-a","family":"workspace-panel","panelId":"scene"}`)
	writeManifest(t, root, "broken", `{"id":"x","family":"nope"}`)

	static := source.Static{
		{Family: plugin.FamilyGalleryTool, Origin: plugin.OriginUIBundle, Plugin: plugin.GalleryTool{Base: plugin.Base{ID: "crop"}}},
		{Family: plugin.FamilyGalleryTool, Plugin: plugin.Helper{Base: plugin.Base{ID: "mismatch"}}},
	}

	report, err := rt.Bootstrap(context.Background(), BootstrapPlan{
		Sources: []source.Source{static, source.NewDir(root, plugin.OriginPluginDir, nil)},
		Backend: []bridge.BackendPluginEntry{
			{PluginID: "crop", Enabled: true},
			{PluginID: "backend-1", Enabled: false},
			{},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Loaded)
	assert.Equal(t, 1, report.Backend, "existing ids are not replaced by backend entries")
	assert.Equal(t, 2, report.Failed)

	crop, ok := rt.Catalog().Get("crop")
	require.True(t, ok)
	assert.Equal(t, plugin.FamilyGalleryTool, crop.Family)
	assert.Equal(t, plugin.OriginUIBundle, crop.Origin)

	panel, ok := rt.Catalog().Get("panel-a")
	require.True(t, ok)
	assert.Equal(t, plugin.OriginPluginDir, panel.Origin)

	backend, ok := rt.Catalog().Get("backend-1")
	require.True(t, ok)
	assert.Equal(t, plugin.StateInactive, backend.ActivationState)

	assert.True(t, rt.Families().GalleryTool.Registry.(interface{ Has(string) bool }).Has("crop"))
}

func TestLoadSources_StrictStopsOnDiscoveryError(t *testing.T) {
	rt, _ := newTestRuntime(t, true)
	failing := source.Func(func(context.Context) ([]source.Discovered, error) {
		return nil, apperrors.NewDiscovery("/x/plugin.json", errors.New("bad"))
	})

	_, err := rt.LoadSources(context.Background(), failing)
	assert.ErrorIs(t, err, apperrors.ErrDiscovery)
}

func TestEvents_CatalogChangesArePublished(t *testing.T) {
	rt, _ := newTestRuntime(t, false)

	got := make(chan Event, 4)
	rt.Events().Subscribe(TopicAll, func(ctx context.Context, e Event) error {
		got <- e
		return nil
	})

	rt.Catalog().Register(&plugin.Metadata{ID: "a", Family: plugin.FamilyHelper})
	select {
	case e := <-got:
		assert.Equal(t, TopicRegistered, e.Topic)
		assert.Equal(t, "a", e.PluginID)
		assert.Equal(t, plugin.FamilyHelper, e.Family)
		assert.NotEmpty(t, e.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("no event published")
	}

	rt.Catalog().SetActivationState("a", plugin.StateInactive)
	select {
	case e := <-got:
		assert.Equal(t, TopicActivation, e.Topic)
		assert.Equal(t, plugin.StateActive, e.Previous)
		assert.Equal(t, plugin.StateInactive, e.Current)
	case <-time.After(2 * time.Second):
		t.Fatal("no activation event published")
	}
}

func TestWatch_ReconcilesDirectory(t *testing.T) {
	rt, _ := newTestRuntime(t, false)
	root := t.TempDir()
	writeManifest(t, root, "one", `{"id":"one","family":"helper"}`)
	writeManifest(t, root, "two", `{"id":"two","family":"helper"}`)

	dir := source.NewDir(root, plugin.OriginDevProject, nil)
	require.NoError(t, rt.Watch(context.Background(), dir, 20*time.Millisecond))

	one, ok := rt.Catalog().Get("one")
	require.True(t, ok)
	assert.Equal(t, plugin.OriginDevProject, one.Origin)
	assert.True(t, rt.Catalog().Has("two"))

	require.NoError(t, os.RemoveAll(filepath.Join(root, "two")))
	require.Eventually(t, func() bool {
		return !rt.Catalog().Has("two")
	}, 5*time.Second, 10*time.Millisecond)
	assert.True(t, rt.Catalog().Has("one"))
}

func TestShutdown(t *testing.T) {
	rt := NewRuntime(Config{Catalog: catalog.NewCatalog(catalog.Config{})})
	require.NoError(t, rt.Shutdown(context.Background()))

	// Changes after shutdown are no longer published.
	rt.Catalog().Register(&plugin.Metadata{ID: "late", Family: plugin.FamilyHelper})
	assert.ErrorIs(t, rt.Events().Publish(context.Background(), Event{Topic: "x"}), ErrBusClosed)
}
