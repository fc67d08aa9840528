package bridge

import (
	"testing"

	"github.com/leeforge/plugincatalog/catalog"
	"github.com/leeforge/plugincatalog/plugin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildInteraction_DialogueInfersCapabilities(t *testing.T) {
	m := BuildInteraction(plugin.Interaction{Base: plugin.Base{ID: "talk"}, UIMode: "dialogue"})
	assert.True(t, m.Capabilities.Bool(plugin.CapOpensDialogue))
	assert.True(t, m.Capabilities.Bool(plugin.CapModifiesSession))

	m = BuildInteraction(plugin.Interaction{Base: plugin.Base{ID: "look"}, UIMode: "inline"})
	assert.False(t, m.Capabilities.Has(plugin.CapOpensDialogue))
}

func TestBuildNodeType_ScopeInfersFeatures(t *testing.T) {
	m := BuildNodeType(plugin.NodeType{Base: plugin.Base{ID: "terrain"}, Scope: "world"})
	assert.Equal(t, []string{"game"}, m.ConsumesFeatures)
	assert.Equal(t, []string{"world-builder", "node-type:terrain"}, m.ProvidesFeatures)
	assert.True(t, m.Capabilities.Bool(plugin.CapUserCreatable))

	no := false
	m = BuildNodeType(plugin.NodeType{Base: plugin.Base{ID: "light"}, Scope: "scene", UserCreatable: &no})
	assert.Equal(t, []string{"scene-graph"}, m.ConsumesFeatures)
	ext, _ := plugin.ExtensionAs[plugin.NodeTypeExt](m)
	assert.False(t, ext.UserCreatable)
}

func TestBuilders_MergeDeclaredFeatures(t *testing.T) {
	m := BuildGalleryTool(plugin.GalleryTool{
		Base: plugin.Base{
			ID:               "crop",
			ProvidesFeatures: []string{"cropping", "gallery-tool:edit"},
			ConsumesFeatures: []string{"gallery", "selection"},
		},
		Category: "edit",
	})
	assert.Equal(t, []string{"cropping", "gallery-tool:edit"}, m.ProvidesFeatures)
	assert.Equal(t, []string{"gallery", "selection"}, m.ConsumesFeatures)
}

func TestBuilders_FamilyInference(t *testing.T) {
	cases := []struct {
		name     string
		meta     *plugin.Metadata
		provides []string
		consumes []string
	}{
		{"workspace panel", BuildWorkspacePanel(plugin.WorkspacePanel{Base: plugin.Base{ID: "w"}, PanelID: "scene"}), []string{"panel:scene"}, nil},
		{"dock widget", BuildDockWidget(plugin.DockWidget{Base: plugin.Base{ID: "d"}}), nil, []string{"workspace-panels"}},
		{"generation ui", BuildGenerationUI(plugin.GenerationUI{Base: plugin.Base{ID: "g"}, ProviderID: "sd"}), []string{"generation-ui:sd"}, []string{"generation"}},
		{"renderer", BuildRenderer(plugin.Renderer{Base: plugin.Base{ID: "r"}, NodeType: "terrain"}), nil, []string{"node-type:terrain"}},
		{"helper", BuildHelper(plugin.Helper{Base: plugin.Base{ID: "h"}}), []string{"helpers"}, nil},
		{"world tool", BuildWorldTool(plugin.WorldTool{Base: plugin.Base{ID: "wt"}}), nil, []string{"game"}},
		{"graph editor", BuildGraphEditor(plugin.GraphEditor{Base: plugin.Base{ID: "ge"}}), []string{"graph-editor"}, nil},
		{"dev tool", BuildDevTool(plugin.DevTool{Base: plugin.Base{ID: "dt"}}), nil, []string{"devtools"}},
		{"brain tool", BuildBrainTool(plugin.BrainTool{Base: plugin.Base{ID: "b"}}), nil, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.provides, tc.meta.ProvidesFeatures)
			assert.Equal(t, tc.consumes, tc.meta.ConsumesFeatures)
		})
	}
}

func TestBuilders_CommonFields(t *testing.T) {
	m := BuildWorkspacePanel(plugin.WorkspacePanel{
		Base: plugin.Base{
			Name:        "Scene",
			Description: "scene view",
			Version:     "2.0.0",
			Author:      "core",
			Tags:        []string{"view"},
		},
		PanelID:             "scene",
		SupportsCompactMode: true,
	})
	assert.Equal(t, "Scene", m.ID, "id falls back to name")
	assert.Equal(t, "scene view", m.Description)
	assert.Equal(t, "2.0.0", m.Version)
	assert.Equal(t, "core", m.Author)
	assert.Equal(t, []string{"view"}, m.Tags)
	assert.True(t, m.Capabilities.Bool(plugin.CapSupportsCompactMode))
}

func TestFamilies_RegisterAny(t *testing.T) {
	cat := catalog.NewCatalog(catalog.Config{})
	fams := NewFamilies()

	require.NoError(t, fams.RegisterAny(cat, plugin.FamilyNodeType, plugin.NodeType{Base: plugin.Base{ID: "n1"}}, RegisterOptions{}))
	require.NoError(t, fams.RegisterAny(cat, plugin.FamilyHelper, &plugin.Helper{Base: plugin.Base{ID: "h1"}}, RegisterOptions{}))

	assert.Error(t, fams.RegisterAny(cat, plugin.FamilyHelper, plugin.NodeType{}, RegisterOptions{}))
	assert.Error(t, fams.RegisterAny(cat, plugin.Family("mystery"), plugin.Helper{}, RegisterOptions{}))

	n, _ := cat.Get("n1")
	assert.False(t, n.CanDisable, "node types are locked by default")
	h, _ := cat.Get("h1")
	assert.True(t, h.CanDisable)

	assert.True(t, fams.NodeType.Registry.(interface{ Has(string) bool }).Has("n1"))
	assert.Len(t, fams.Syncers(), len(plugin.KnownFamilies()))
	for _, f := range plugin.KnownFamilies() {
		assert.True(t, fams.Supports(f), f)
	}
}
