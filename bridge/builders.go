package bridge

import (
	"github.com/leeforge/plugincatalog/plugin"
)

// Feature names inferred from item fields.
const (
	FeatureGame            = "game"
	FeatureWorldBuilder    = "world-builder"
	FeatureSceneGraph      = "scene-graph"
	FeatureGallery         = "gallery"
	FeatureWorkspacePanels = "workspace-panels"
	FeatureGeneration      = "generation"
	FeatureHelpers         = "helpers"
	FeatureGraphEditor     = "graph-editor"
	FeatureDevTools        = "devtools"
)

// baseMetadata copies the fields every item shares.
func baseMetadata(b plugin.Base, id string) *plugin.Metadata {
	provides, consumes := b.DeclaredFeatures()
	return &plugin.Metadata{
		ID:               id,
		Name:             b.Name,
		Version:          b.Version,
		Description:      b.Description,
		Author:           b.Author,
		Tags:             append([]string(nil), b.Tags...),
		ProvidesFeatures: append([]string(nil), provides...),
		ConsumesFeatures: append([]string(nil), consumes...),
		Experimental:     b.Experimental,
		Deprecated:       b.Deprecated,
	}
}

type featureSet struct {
	provides []string
	consumes []string
}

// infer appends inferred features after the declared ones, skipping
// duplicates and keeping order.
func (fs featureSet) infer(m *plugin.Metadata) {
	m.ProvidesFeatures = mergeFeatures(m.ProvidesFeatures, fs.provides)
	m.ConsumesFeatures = mergeFeatures(m.ConsumesFeatures, fs.consumes)
}

func mergeFeatures(declared, inferred []string) []string {
	if len(declared) == 0 && len(inferred) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(declared)+len(inferred))
	out := make([]string, 0, len(declared)+len(inferred))
	for _, list := range [][]string{declared, inferred} {
		for _, f := range list {
			if f == "" {
				continue
			}
			if _, ok := seen[f]; ok {
				continue
			}
			seen[f] = struct{}{}
			out = append(out, f)
		}
	}
	return out
}

func setIf(m *plugin.Metadata, key string, cond bool) {
	if cond {
		m.Capabilities.Set(key, true)
	}
}

func BuildGalleryTool(t plugin.GalleryTool) *plugin.Metadata {
	m := baseMetadata(t.Base, t.ItemID())
	m.Extension = plugin.GalleryToolExt{Category: t.Category, Surfaces: append([]string(nil), t.Surfaces...)}

	fs := featureSet{consumes: []string{FeatureGallery}}
	if t.Category != "" {
		fs.provides = []string{"gallery-tool:" + t.Category}
	}
	fs.infer(m)
	setIf(m, "requiresSelection", t.RequiresSelection)
	return m
}

func BuildNodeType(n plugin.NodeType) *plugin.Metadata {
	m := baseMetadata(n.Base, n.ItemID())
	m.Extension = plugin.NodeTypeExt{
		Scope:           n.Scope,
		Category:        n.Category,
		UserCreatable:   n.IsUserCreatable(),
		PreloadPriority: n.PreloadPriority,
	}

	var fs featureSet
	switch n.Scope {
	case "world":
		fs.consumes = []string{FeatureGame}
		fs.provides = []string{FeatureWorldBuilder}
	case "scene":
		fs.consumes = []string{FeatureSceneGraph}
	}
	fs.provides = append(fs.provides, "node-type:"+m.ID)
	fs.infer(m)

	m.Capabilities.Set(plugin.CapUserCreatable, n.IsUserCreatable())
	setIf(m, plugin.CapHasRenderer, n.HasRenderer)
	return m
}

func BuildInteraction(i plugin.Interaction) *plugin.Metadata {
	m := baseMetadata(i.Base, i.ItemID())
	m.Extension = plugin.InteractionExt{Category: i.Category, UIMode: i.UIMode}

	setIf(m, plugin.CapOpensDialogue, i.UIMode == "dialogue")
	setIf(m, plugin.CapModifiesSession, i.ModifiesSession || i.UIMode == "dialogue")
	setIf(m, plugin.CapRequiresAssets, i.RequiresAssets)
	return m
}

func BuildHelper(h plugin.Helper) *plugin.Metadata {
	m := baseMetadata(h.Base, h.ItemID())
	m.Extension = plugin.HelperExt{Category: h.Category}
	featureSet{provides: []string{FeatureHelpers}}.infer(m)
	return m
}

func BuildWorldTool(w plugin.WorldTool) *plugin.Metadata {
	m := baseMetadata(w.Base, w.ItemID())
	m.Extension = plugin.WorldToolExt{Category: w.Category}
	featureSet{consumes: []string{FeatureGame}}.infer(m)
	setIf(m, plugin.CapModifiesSession, w.ModifiesSession)
	return m
}

func BuildRenderer(r plugin.Renderer) *plugin.Metadata {
	m := baseMetadata(r.Base, r.ItemID())
	m.Extension = plugin.RendererExt{NodeType: r.NodeType, Preloadable: r.Preloadable}
	if r.NodeType != "" {
		featureSet{consumes: []string{"node-type:" + r.NodeType}}.infer(m)
	}
	return m
}

func BuildUIPlugin(u plugin.UIPlugin) *plugin.Metadata {
	m := baseMetadata(u.Base, u.ItemID())
	m.Extension = plugin.UIPluginExt{PluginType: u.PluginType, Icon: u.Icon}
	setIf(m, plugin.CapAddsNodeTypes, u.AddsNodeTypes)
	setIf(m, plugin.CapAddsGalleryTools, u.AddsGalleryTools)
	return m
}

func BuildGraphEditor(g plugin.GraphEditor) *plugin.Metadata {
	m := baseMetadata(g.Base, g.ItemID())
	m.Extension = plugin.GraphEditorExt{StoreID: g.StoreID, Category: g.Category}
	featureSet{provides: []string{FeatureGraphEditor}}.infer(m)
	return m
}

func BuildDevTool(d plugin.DevTool) *plugin.Metadata {
	m := baseMetadata(d.Base, d.ItemID())
	m.Extension = plugin.DevToolExt{Category: d.Category, PanelID: d.PanelID}
	featureSet{consumes: []string{FeatureDevTools}}.infer(m)
	return m
}

func BuildWorkspacePanel(p plugin.WorkspacePanel) *plugin.Metadata {
	m := baseMetadata(p.Base, p.ItemID())
	m.Extension = plugin.WorkspacePanelExt{
		PanelID:             p.PanelID,
		Category:            p.Category,
		SupportsCompactMode: p.SupportsCompactMode,
		Icon:                p.Icon,
	}
	if p.PanelID != "" {
		featureSet{provides: []string{"panel:" + p.PanelID}}.infer(m)
	}
	setIf(m, plugin.CapSupportsCompactMode, p.SupportsCompactMode)
	setIf(m, plugin.CapHasSettings, p.HasSettings)
	return m
}

func BuildGizmoSurface(g plugin.GizmoSurface) *plugin.Metadata {
	m := baseMetadata(g.Base, g.ItemID())
	m.Extension = plugin.GizmoSurfaceExt{Category: g.Category, Contexts: append([]string(nil), g.Contexts...)}
	return m
}

func BuildGenerationUI(g plugin.GenerationUI) *plugin.Metadata {
	m := baseMetadata(g.Base, g.ItemID())
	m.Extension = plugin.GenerationUIExt{
		ProviderID: g.ProviderID,
		Operations: append([]string(nil), g.Operations...),
		Priority:   g.Priority,
	}
	fs := featureSet{consumes: []string{FeatureGeneration}}
	if g.ProviderID != "" {
		fs.provides = []string{"generation-ui:" + g.ProviderID}
	}
	fs.infer(m)
	return m
}

func BuildPanelGroup(g plugin.PanelGroup) *plugin.Metadata {
	m := baseMetadata(g.Base, g.ItemID())
	m.Extension = plugin.PanelGroupExt{Category: g.Category, PanelIDs: append([]string(nil), g.PanelIDs...)}
	consumes := make([]string, 0, len(g.PanelIDs))
	for _, id := range g.PanelIDs {
		consumes = append(consumes, "panel:"+id)
	}
	featureSet{consumes: consumes}.infer(m)
	return m
}

func BuildDockWidget(d plugin.DockWidget) *plugin.Metadata {
	m := baseMetadata(d.Base, d.ItemID())
	m.Extension = plugin.DockWidgetExt{
		DockviewID:    d.DockviewID,
		PanelScope:    d.PanelScope,
		AllowedPanels: append([]string(nil), d.AllowedPanels...),
		DefaultPanels: append([]string(nil), d.DefaultPanels...),
	}
	featureSet{consumes: []string{FeatureWorkspacePanels}}.infer(m)
	return m
}

func BuildGallerySurface(g plugin.GallerySurface) *plugin.Metadata {
	m := baseMetadata(g.Base, g.ItemID())
	m.Extension = plugin.GallerySurfaceExt{Category: g.Category, MediaTypes: append([]string(nil), g.MediaTypes...)}
	featureSet{consumes: []string{FeatureGallery}}.infer(m)
	return m
}

func BuildBrainTool(b plugin.BrainTool) *plugin.Metadata {
	m := baseMetadata(b.Base, b.ItemID())
	m.Extension = plugin.BrainToolExt{Category: b.Category}
	return m
}
