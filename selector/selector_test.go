package selector

import (
	"testing"

	"github.com/leeforge/plugincatalog/catalog"
	"github.com/leeforge/plugincatalog/plugin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func register(c *catalog.Catalog, id string, family plugin.Family, ext plugin.Extension, mutate ...func(*plugin.Metadata)) {
	m := &plugin.Metadata{
		ID:              id,
		Family:          family,
		Origin:          plugin.OriginBuiltin,
		ActivationState: plugin.StateActive,
		Extension:       ext,
	}
	for _, fn := range mutate {
		fn(m)
	}
	c.Register(m)
}

func ids[E plugin.Extension](entries []Entry[E]) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}

func TestSelector_FamilyIsolation(t *testing.T) {
	c := catalog.NewCatalog(catalog.Config{})
	register(c, "tool", plugin.FamilyGalleryTool, plugin.GalleryToolExt{Category: "edit"})
	register(c, "panel", plugin.FamilyWorkspacePanel, plugin.WorkspacePanelExt{PanelID: "p"})

	tools := New[plugin.GalleryToolExt](c, plugin.FamilyGalleryTool)
	assert.Equal(t, []string{"tool"}, ids(tools.All()))
	assert.True(t, tools.Has("tool"))
	assert.False(t, tools.Has("panel"), "get must not cross families")

	_, ok := tools.Get("panel")
	assert.False(t, ok)

	e, ok := tools.Get("tool")
	require.True(t, ok)
	assert.Equal(t, "edit", e.Ext.Category)
}

func TestSelector_ByCategoryIsExact(t *testing.T) {
	c := catalog.NewCatalog(catalog.Config{})
	register(c, "a", plugin.FamilyHelper, plugin.HelperExt{Category: "layout"})
	register(c, "b", plugin.FamilyHelper, plugin.HelperExt{Category: "Layout"})
	register(c, "c", plugin.FamilyHelper, plugin.HelperExt{Category: "layout"})

	helpers := New[plugin.HelperExt](c, plugin.FamilyHelper)
	assert.Equal(t, []string{"a", "c"}, ids(helpers.ByCategory("layout")))
	assert.Empty(t, helpers.ByCategory("missing"))
}

func TestSelector_SearchMatchesTagsCaseInsensitively(t *testing.T) {
	c := catalog.NewCatalog(catalog.Config{})
	register(c, "a", plugin.FamilyGalleryTool, plugin.GalleryToolExt{}, func(m *plugin.Metadata) {
		m.Tags = []string{"FooBar"}
	})
	register(c, "b", plugin.FamilyGalleryTool, plugin.GalleryToolExt{}, func(m *plugin.Metadata) {
		m.Description = "nothing relevant"
	})

	tools := New[plugin.GalleryToolExt](c, plugin.FamilyGalleryTool)
	assert.Equal(t, []string{"a"}, ids(tools.Search("foo")))
	assert.Len(t, tools.Search(""), 2, "empty query returns everything")
	assert.Empty(t, tools.Search("zzz"))
}

func TestSelector_SearchFieldsAreConfigurable(t *testing.T) {
	c := catalog.NewCatalog(catalog.Config{})
	register(c, "a", plugin.FamilyNodeType, plugin.NodeTypeExt{Category: "Terrain"})

	plain := New[plugin.NodeTypeExt](c, plugin.FamilyNodeType)
	assert.Empty(t, plain.Search("terrain"))

	withCategory := New[plugin.NodeTypeExt](c, plugin.FamilyNodeType,
		WithSearchFields(append(DefaultSearchFields(), FieldCategory)...))
	assert.Equal(t, []string{"a"}, ids(withCategory.Search("terrain")))
}

func TestSelector_VisibleIsolatesPanickingPredicate(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	c := catalog.NewCatalog(catalog.Config{})

	hidden := plugin.GalleryTool{Base: plugin.Base{ID: "hidden", Visible: func(plugin.VisibilityContext) bool { return false }}}
	broken := plugin.GalleryTool{Base: plugin.Base{ID: "broken", Visible: func(plugin.VisibilityContext) bool { panic("boom") }}}
	plain := plugin.GalleryTool{Base: plugin.Base{ID: "plain"}}

	for _, item := range []plugin.GalleryTool{hidden, broken, plain} {
		register(c, item.ID, plugin.FamilyGalleryTool, plugin.GalleryToolExt{}, func(m *plugin.Metadata) {
			m.Plugin = item
		})
	}
	register(c, "bare", plugin.FamilyGalleryTool, plugin.GalleryToolExt{})

	tools := New[plugin.GalleryToolExt](c, plugin.FamilyGalleryTool, WithLogger(zap.New(core)))
	assert.Equal(t, []string{"plain", "bare"}, ids(tools.Visible(plugin.VisibilityContext{})))

	errs := logs.FilterLevelExact(zapcore.ErrorLevel).All()
	require.Len(t, errs, 1)
	assert.Equal(t, "broken", errs[0].ContextMap()["id"])
}

func TestSelector_SubscribeFiltersByFamily(t *testing.T) {
	c := catalog.NewCatalog(catalog.Config{})
	tools := New[plugin.GalleryToolExt](c, plugin.FamilyGalleryTool)

	calls := 0
	unsubscribe := tools.Subscribe(func() { calls++ })

	register(c, "panel", plugin.FamilyWorkspacePanel, plugin.WorkspacePanelExt{})
	assert.Equal(t, 0, calls)

	register(c, "tool", plugin.FamilyGalleryTool, plugin.GalleryToolExt{})
	assert.Equal(t, 1, calls)

	c.Clear()
	assert.Equal(t, 2, calls)

	unsubscribe()
	register(c, "tool", plugin.FamilyGalleryTool, plugin.GalleryToolExt{})
	assert.Equal(t, 2, calls)
}

func TestSelector_SubscribeSeesCrossFamilyReplace(t *testing.T) {
	c := catalog.NewCatalog(catalog.Config{})
	set := NewSet(c)
	register(c, "x", plugin.FamilyGalleryTool, plugin.GalleryToolExt{})

	toolCalls, nodeCalls := 0, 0
	set.GalleryTools.Subscribe(func() { toolCalls++ })
	set.NodeTypes.Subscribe(func() { nodeCalls++ })

	register(c, "x", plugin.FamilyNodeType, plugin.NodeTypeExt{})

	if got := len(set.GalleryTools.All()); got != 0 {
		t.Fatalf("gallery tools after replace = %d, want 0", got)
	}
	if toolCalls != 1 {
		t.Errorf("gallery tool subscriber calls = %d, want 1", toolCalls)
	}
	if nodeCalls != 1 {
		t.Errorf("node type subscriber calls = %d, want 1", nodeCalls)
	}

	register(c, "x", plugin.FamilyNodeType, plugin.NodeTypeExt{Scope: "world"})
	if toolCalls != 1 {
		t.Errorf("same-family replace notified gallery tools: calls = %d, want 1", toolCalls)
	}
}

func TestSet_GalleryToolsBySurface(t *testing.T) {
	c := catalog.NewCatalog(catalog.Config{})
	register(c, "everywhere", plugin.FamilyGalleryTool, plugin.GalleryToolExt{})
	register(c, "assets", plugin.FamilyGalleryTool, plugin.GalleryToolExt{Surfaces: []string{"assets-default"}})
	register(c, "review", plugin.FamilyGalleryTool, plugin.GalleryToolExt{Surfaces: []string{"review"}}, func(m *plugin.Metadata) {
		m.Plugin = plugin.GalleryTool{Base: plugin.Base{ID: "review", Visible: func(ctx plugin.VisibilityContext) bool {
			return ctx.String("surface") == "review" && ctx.String("mode") == "edit"
		}}}
	})

	set := NewSet(c)
	assert.Equal(t, []string{"everywhere", "assets"}, ids(set.GalleryTools.BySurface("assets-default")))
	assert.Equal(t, []string{"everywhere", "review"}, ids(set.GalleryTools.BySurface("review")))

	ctx := plugin.VisibilityContext{"mode": "edit"}
	assert.Equal(t, []string{"everywhere", "review"}, ids(set.GalleryTools.VisibleForSurface("review", ctx)))
	_, touched := ctx["surface"]
	assert.False(t, touched, "caller context must not be modified")

	assert.Equal(t, []string{"everywhere"}, ids(set.GalleryTools.VisibleForSurface("review", nil)))
}

func TestSet_DockWidgetPanelIDs(t *testing.T) {
	c := catalog.NewCatalog(catalog.Config{})
	register(c, "panel-a", plugin.FamilyWorkspacePanel, plugin.WorkspacePanelExt{PanelID: "scene", Category: "editing"})
	register(c, "panel-b", plugin.FamilyWorkspacePanel, plugin.WorkspacePanelExt{PanelID: "graph", Category: "editing"})
	register(c, "panel-c", plugin.FamilyWorkspacePanel, plugin.WorkspacePanelExt{PanelID: "logs", Category: "debug"})

	register(c, "dock-allow", plugin.FamilyDockWidget, plugin.DockWidgetExt{
		DockviewID:    "left",
		PanelScope:    "debug",
		AllowedPanels: []string{"scene"},
	})
	register(c, "dock-scope", plugin.FamilyDockWidget, plugin.DockWidgetExt{DockviewID: "main", PanelScope: "editing"})
	register(c, "dock-empty", plugin.FamilyDockWidget, plugin.DockWidgetExt{DockviewID: "bare"})

	set := NewSet(c)
	assert.Equal(t, []string{"scene"}, set.DockWidgets.PanelIDs("left"))
	assert.Equal(t, []string{"scene", "graph"}, set.DockWidgets.PanelIDs("main"))
	assert.Nil(t, set.DockWidgets.PanelIDs("bare"))
	assert.Nil(t, set.DockWidgets.PanelIDs("unknown"))
}

func TestSet_FamilyQueries(t *testing.T) {
	c := catalog.NewCatalog(catalog.Config{})
	register(c, "panel", plugin.FamilyWorkspacePanel, plugin.WorkspacePanelExt{PanelID: "p1", SupportsCompactMode: true})
	register(c, "panel-full", plugin.FamilyWorkspacePanel, plugin.WorkspacePanelExt{PanelID: "p2"})
	register(c, "n-low", plugin.FamilyNodeType, plugin.NodeTypeExt{Scope: "scene", UserCreatable: true, PreloadPriority: 1})
	register(c, "n-high", plugin.FamilyNodeType, plugin.NodeTypeExt{Scope: "world", PreloadPriority: 10})
	register(c, "n-mid", plugin.FamilyNodeType, plugin.NodeTypeExt{Scope: "scene", UserCreatable: true, PreloadPriority: 1})
	register(c, "dialog", plugin.FamilyInteraction, plugin.InteractionExt{UIMode: "dialogue"})
	register(c, "inline", plugin.FamilyInteraction, plugin.InteractionExt{UIMode: "inline"})
	register(c, "gen-a", plugin.FamilyGenerationUI, plugin.GenerationUIExt{ProviderID: "a", Operations: []string{"txt2img"}, Priority: 1})
	register(c, "gen-b", plugin.FamilyGenerationUI, plugin.GenerationUIExt{ProviderID: "b", Operations: []string{"txt2img", "img2img"}, Priority: 5})
	register(c, "gizmo", plugin.FamilyGizmoSurface, plugin.GizmoSurfaceExt{Contexts: []string{"scene"}})
	register(c, "graph", plugin.FamilyGraphEditor, plugin.GraphEditorExt{StoreID: "arc"})
	register(c, "dev", plugin.FamilyDevTool, plugin.DevToolExt{PanelID: "inspector"})

	set := NewSet(c)

	compact := set.WorkspacePanels.CompactCapable()
	assert.Equal(t, []string{"panel"}, ids(compact))
	p, ok := set.WorkspacePanels.ByPanelID("p2")
	require.True(t, ok)
	assert.Equal(t, "panel-full", p.ID)

	assert.Equal(t, []string{"n-low", "n-mid"}, ids(set.NodeTypes.ByScope("scene")))
	assert.Equal(t, []string{"n-low", "n-mid"}, ids(set.NodeTypes.UserCreatable()))
	assert.Equal(t, []string{"n-high", "n-low", "n-mid"}, ids(set.NodeTypes.PreloadOrder()))

	assert.Equal(t, []string{"dialog"}, ids(set.Interactions.ByUIMode("dialogue")))

	assert.Equal(t, []string{"gen-b", "gen-a"}, ids(set.GenerationUI.ForOperation("txt2img")))
	assert.Equal(t, []string{"gen-b"}, ids(set.GenerationUI.ForOperation("img2img")))
	g, ok := set.GenerationUI.ByProvider("a")
	require.True(t, ok)
	assert.Equal(t, "gen-a", g.ID)

	assert.Equal(t, []string{"gizmo"}, ids(set.GizmoSurfaces.ForContext("scene")))
	assert.Empty(t, set.GizmoSurfaces.ForContext("world"))

	editor, ok := set.GraphEditors.ByStoreID("arc")
	require.True(t, ok)
	assert.Equal(t, "graph", editor.ID)

	assert.Equal(t, []string{"dev"}, ids(set.DevTools.WithPanel()))
	assert.Empty(t, set.Helpers.All())
}
