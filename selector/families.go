package selector

import (
	"slices"
	"sort"

	"github.com/leeforge/plugincatalog/catalog"
	"github.com/leeforge/plugincatalog/plugin"
)

// GalleryTools selects gallery tools.
type GalleryTools struct {
	*Selector[plugin.GalleryToolExt]
}

// BySurface returns tools offered on surface. Tools without a surface
// list are offered everywhere.
func (s GalleryTools) BySurface(surface string) []Entry[plugin.GalleryToolExt] {
	return s.Filter(func(e Entry[plugin.GalleryToolExt]) bool {
		return len(e.Ext.Surfaces) == 0 || slices.Contains(e.Ext.Surfaces, surface)
	})
}

// VisibleForSurface combines BySurface with the visibility predicates.
// ctx is copied and given a "surface" key.
func (s GalleryTools) VisibleForSurface(surface string, ctx plugin.VisibilityContext) []Entry[plugin.GalleryToolExt] {
	scoped := make(plugin.VisibilityContext, len(ctx)+1)
	for k, v := range ctx {
		scoped[k] = v
	}
	scoped["surface"] = surface
	return filterVisible(s.BySurface(surface), scoped, s.logger)
}

// WorkspacePanels selects workspace panels.
type WorkspacePanels struct {
	*Selector[plugin.WorkspacePanelExt]
}

// ByPanelID returns the panel mounted under panelID.
func (s WorkspacePanels) ByPanelID(panelID string) (Entry[plugin.WorkspacePanelExt], bool) {
	for _, e := range s.All() {
		if e.Ext.PanelID == panelID {
			return e, true
		}
	}
	return Entry[plugin.WorkspacePanelExt]{}, false
}

// CompactCapable returns panels that support compact mode.
func (s WorkspacePanels) CompactCapable() []Entry[plugin.WorkspacePanelExt] {
	return s.Filter(func(e Entry[plugin.WorkspacePanelExt]) bool { return e.Ext.SupportsCompactMode })
}

// PanelIDsInCategory returns the panel ids of every panel in category.
func (s WorkspacePanels) PanelIDsInCategory(category string) []string {
	var ids []string
	for _, e := range s.ByCategory(category) {
		if e.Ext.PanelID != "" {
			ids = append(ids, e.Ext.PanelID)
		}
	}
	return ids
}

// DockWidgets selects dock widgets.
type DockWidgets struct {
	*Selector[plugin.DockWidgetExt]
	panels WorkspacePanels
}

// ByDockviewID returns the widget bound to dockviewID.
func (s DockWidgets) ByDockviewID(dockviewID string) (Entry[plugin.DockWidgetExt], bool) {
	for _, e := range s.All() {
		if e.Ext.DockviewID == dockviewID {
			return e, true
		}
	}
	return Entry[plugin.DockWidgetExt]{}, false
}

// PanelIDs resolves the panels a dock widget may host. An explicit allow
// list wins; otherwise the panel scope is resolved against workspace panel
// categories. Unknown widgets have no panels.
func (s DockWidgets) PanelIDs(dockviewID string) []string {
	e, ok := s.ByDockviewID(dockviewID)
	if !ok {
		return nil
	}
	if len(e.Ext.AllowedPanels) > 0 {
		return slices.Clone(e.Ext.AllowedPanels)
	}
	if e.Ext.PanelScope == "" {
		return nil
	}
	return s.panels.PanelIDsInCategory(e.Ext.PanelScope)
}

// NodeTypes selects node types.
type NodeTypes struct {
	*Selector[plugin.NodeTypeExt]
}

// ByScope returns node types with the given scope.
func (s NodeTypes) ByScope(scope string) []Entry[plugin.NodeTypeExt] {
	return s.Filter(func(e Entry[plugin.NodeTypeExt]) bool { return e.Ext.Scope == scope })
}

// UserCreatable returns node types a user may create directly.
func (s NodeTypes) UserCreatable() []Entry[plugin.NodeTypeExt] {
	return s.Filter(func(e Entry[plugin.NodeTypeExt]) bool { return e.Ext.UserCreatable })
}

// PreloadOrder returns node types ordered by descending preload priority,
// keeping catalog order among equals.
func (s NodeTypes) PreloadOrder() []Entry[plugin.NodeTypeExt] {
	all := s.All()
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Ext.PreloadPriority > all[j].Ext.PreloadPriority
	})
	return all
}

// Interactions selects interactions.
type Interactions struct {
	*Selector[plugin.InteractionExt]
}

// ByUIMode returns interactions rendered in mode.
func (s Interactions) ByUIMode(mode string) []Entry[plugin.InteractionExt] {
	return s.Filter(func(e Entry[plugin.InteractionExt]) bool { return e.Ext.UIMode == mode })
}

// GenerationUI selects generation UI providers.
type GenerationUI struct {
	*Selector[plugin.GenerationUIExt]
}

// ForOperation returns providers supporting operation, highest priority first.
func (s GenerationUI) ForOperation(operation string) []Entry[plugin.GenerationUIExt] {
	out := s.Filter(func(e Entry[plugin.GenerationUIExt]) bool {
		return slices.Contains(e.Ext.Operations, operation)
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Ext.Priority > out[j].Ext.Priority
	})
	return out
}

// ByProvider returns the UI registered for providerID.
func (s GenerationUI) ByProvider(providerID string) (Entry[plugin.GenerationUIExt], bool) {
	for _, e := range s.All() {
		if e.Ext.ProviderID == providerID {
			return e, true
		}
	}
	return Entry[plugin.GenerationUIExt]{}, false
}

// GizmoSurfaces selects gizmo surfaces.
type GizmoSurfaces struct {
	*Selector[plugin.GizmoSurfaceExt]
}

// ForContext returns surfaces usable in context. Surfaces without a
// context list are usable everywhere.
func (s GizmoSurfaces) ForContext(context string) []Entry[plugin.GizmoSurfaceExt] {
	return s.Filter(func(e Entry[plugin.GizmoSurfaceExt]) bool {
		return len(e.Ext.Contexts) == 0 || slices.Contains(e.Ext.Contexts, context)
	})
}

// GraphEditors selects graph editors.
type GraphEditors struct {
	*Selector[plugin.GraphEditorExt]
}

// ByStoreID returns the editor bound to storeID.
func (s GraphEditors) ByStoreID(storeID string) (Entry[plugin.GraphEditorExt], bool) {
	for _, e := range s.All() {
		if e.Ext.StoreID == storeID {
			return e, true
		}
	}
	return Entry[plugin.GraphEditorExt]{}, false
}

// DevTools selects developer tools.
type DevTools struct {
	*Selector[plugin.DevToolExt]
}

// WithPanel returns dev tools that open a panel.
func (s DevTools) WithPanel() []Entry[plugin.DevToolExt] {
	return s.Filter(func(e Entry[plugin.DevToolExt]) bool { return e.Ext.PanelID != "" })
}

// Set bundles one selector per family over a single catalog.
type Set struct {
	GalleryTools    GalleryTools
	WorkspacePanels WorkspacePanels
	DockWidgets     DockWidgets
	NodeTypes       NodeTypes
	Interactions    Interactions
	GenerationUI    GenerationUI
	GizmoSurfaces   GizmoSurfaces
	GraphEditors    GraphEditors
	DevTools        DevTools

	Helpers         *Selector[plugin.HelperExt]
	WorldTools      *Selector[plugin.WorldToolExt]
	Renderers       *Selector[plugin.RendererExt]
	UIPlugins       *Selector[plugin.UIPluginExt]
	PanelGroups     *Selector[plugin.PanelGroupExt]
	GallerySurfaces *Selector[plugin.GallerySurfaceExt]
	BrainTools      *Selector[plugin.BrainToolExt]
}

// NewSet builds every family selector for cat.
func NewSet(cat *catalog.Catalog, opts ...Option) *Set {
	categoryFields := append(DefaultSearchFields(), FieldCategory)
	withCategory := append(slices.Clone(opts), WithSearchFields(categoryFields...))

	panels := WorkspacePanels{New[plugin.WorkspacePanelExt](cat, plugin.FamilyWorkspacePanel, withCategory...)}
	return &Set{
		GalleryTools:    GalleryTools{New[plugin.GalleryToolExt](cat, plugin.FamilyGalleryTool, withCategory...)},
		WorkspacePanels: panels,
		DockWidgets:     DockWidgets{Selector: New[plugin.DockWidgetExt](cat, plugin.FamilyDockWidget, opts...), panels: panels},
		NodeTypes:       NodeTypes{New[plugin.NodeTypeExt](cat, plugin.FamilyNodeType, withCategory...)},
		Interactions:    Interactions{New[plugin.InteractionExt](cat, plugin.FamilyInteraction, withCategory...)},
		GenerationUI:    GenerationUI{New[plugin.GenerationUIExt](cat, plugin.FamilyGenerationUI, opts...)},
		GizmoSurfaces:   GizmoSurfaces{New[plugin.GizmoSurfaceExt](cat, plugin.FamilyGizmoSurface, withCategory...)},
		GraphEditors:    GraphEditors{New[plugin.GraphEditorExt](cat, plugin.FamilyGraphEditor, withCategory...)},
		DevTools:        DevTools{New[plugin.DevToolExt](cat, plugin.FamilyDevTool, withCategory...)},

		Helpers:         New[plugin.HelperExt](cat, plugin.FamilyHelper, withCategory...),
		WorldTools:      New[plugin.WorldToolExt](cat, plugin.FamilyWorldTool, withCategory...),
		Renderers:       New[plugin.RendererExt](cat, plugin.FamilyRenderer, opts...),
		UIPlugins:       New[plugin.UIPluginExt](cat, plugin.FamilyUIPlugin, opts...),
		PanelGroups:     New[plugin.PanelGroupExt](cat, plugin.FamilyPanelGroup, withCategory...),
		GallerySurfaces: New[plugin.GallerySurfaceExt](cat, plugin.FamilyGallerySurface, withCategory...),
		BrainTools:      New[plugin.BrainToolExt](cat, plugin.FamilyBrainTool, withCategory...),
	}
}
