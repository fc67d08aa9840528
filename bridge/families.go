package bridge

import (
	"fmt"

	"github.com/leeforge/plugincatalog/catalog"
	apperrors "github.com/leeforge/plugincatalog/errors"
	"github.com/leeforge/plugincatalog/plugin"
	"github.com/leeforge/plugincatalog/registry"
)

// Families bundles a registry-backed Family for every known plugin family.
type Families struct {
	GalleryTool    *Family[plugin.GalleryTool]
	NodeType       *Family[plugin.NodeType]
	Interaction    *Family[plugin.Interaction]
	Helper         *Family[plugin.Helper]
	WorldTool      *Family[plugin.WorldTool]
	Renderer       *Family[plugin.Renderer]
	UIPlugin       *Family[plugin.UIPlugin]
	GraphEditor    *Family[plugin.GraphEditor]
	DevTool        *Family[plugin.DevTool]
	WorkspacePanel *Family[plugin.WorkspacePanel]
	GizmoSurface   *Family[plugin.GizmoSurface]
	GenerationUI   *Family[plugin.GenerationUI]
	PanelGroup     *Family[plugin.PanelGroup]
	DockWidget     *Family[plugin.DockWidget]
	GallerySurface *Family[plugin.GallerySurface]
	BrainTool      *Family[plugin.BrainTool]

	registrars  map[plugin.Family]registrar
	unregisters map[plugin.Family]func(cat *catalog.Catalog, id string) bool
	syncers     []Syncer
}

type registrar func(cat *catalog.Catalog, raw any, opts RegisterOptions) error

// NewFamilies creates empty registries for every family.
func NewFamilies() *Families {
	userDefaults := Defaults{Origin: plugin.OriginBuiltin, CanDisable: true}
	coreDefaults := Defaults{Origin: plugin.OriginBuiltin, CanDisable: false}

	f := &Families{
		registrars:  make(map[plugin.Family]registrar),
		unregisters: make(map[plugin.Family]func(*catalog.Catalog, string) bool),
	}
	f.GalleryTool = addFamily(f, plugin.FamilyGalleryTool, BuildGalleryTool, userDefaults)
	f.NodeType = addFamily(f, plugin.FamilyNodeType, BuildNodeType, coreDefaults)
	f.Interaction = addFamily(f, plugin.FamilyInteraction, BuildInteraction, userDefaults)
	f.Helper = addFamily(f, plugin.FamilyHelper, BuildHelper, userDefaults)
	f.WorldTool = addFamily(f, plugin.FamilyWorldTool, BuildWorldTool, userDefaults)
	f.Renderer = addFamily(f, plugin.FamilyRenderer, BuildRenderer, coreDefaults)
	f.UIPlugin = addFamily(f, plugin.FamilyUIPlugin, BuildUIPlugin, userDefaults)
	f.GraphEditor = addFamily(f, plugin.FamilyGraphEditor, BuildGraphEditor, userDefaults)
	f.DevTool = addFamily(f, plugin.FamilyDevTool, BuildDevTool, userDefaults)
	f.WorkspacePanel = addFamily(f, plugin.FamilyWorkspacePanel, BuildWorkspacePanel, userDefaults)
	f.GizmoSurface = addFamily(f, plugin.FamilyGizmoSurface, BuildGizmoSurface, userDefaults)
	f.GenerationUI = addFamily(f, plugin.FamilyGenerationUI, BuildGenerationUI, userDefaults)
	f.PanelGroup = addFamily(f, plugin.FamilyPanelGroup, BuildPanelGroup, userDefaults)
	f.DockWidget = addFamily(f, plugin.FamilyDockWidget, BuildDockWidget, userDefaults)
	f.GallerySurface = addFamily(f, plugin.FamilyGallerySurface, BuildGallerySurface, userDefaults)
	f.BrainTool = addFamily(f, plugin.FamilyBrainTool, BuildBrainTool, userDefaults)
	return f
}

func addFamily[T plugin.Item](f *Families, family plugin.Family, build func(T) *plugin.Metadata, defaults Defaults) *Family[T] {
	store := registry.New[T](func(item T) string { return item.ItemID() }, registry.Options{})
	fam := &Family[T]{
		Family:   family,
		Registry: store,
		Build:    build,
		Defaults: defaults,
	}
	f.registrars[family] = func(cat *catalog.Catalog, raw any, opts RegisterOptions) error {
		item, ok := raw.(T)
		if !ok {
			ptr, isPtr := raw.(*T)
			if !isPtr || ptr == nil {
				return apperrors.NewRegistration(family.String(), "",
					apperrors.NewValidation(fmt.Sprintf("expected %T, got %T", item, raw)))
			}
			item = *ptr
		}
		return Register(cat, fam, item, opts)
	}
	f.unregisters[family] = func(cat *catalog.Catalog, id string) bool {
		return Unregister(cat, fam, id)
	}
	f.syncers = append(f.syncers, fam)
	return fam
}

// Syncers returns every family as a Syncer, in a stable order.
func (f *Families) Syncers() []Syncer {
	return append([]Syncer(nil), f.syncers...)
}

// Supports reports whether family has a registered descriptor.
func (f *Families) Supports(family plugin.Family) bool {
	_, ok := f.registrars[family]
	return ok
}

// RegisterAny registers an untyped item under family. The item must be the
// family's item type or a pointer to it.
func (f *Families) RegisterAny(cat *catalog.Catalog, family plugin.Family, item any, opts RegisterOptions) error {
	reg, ok := f.registrars[family]
	if !ok {
		return apperrors.NewRegistration(family.String(), "",
			apperrors.NewValidation(fmt.Sprintf("unknown plugin family %q", family)))
	}
	return reg(cat, item, opts)
}

// UnregisterAny removes id from family's registry and from the catalog.
func (f *Families) UnregisterAny(cat *catalog.Catalog, family plugin.Family, id string) bool {
	unregister, ok := f.unregisters[family]
	if !ok {
		return cat.Unregister(id)
	}
	return unregister(cat, id)
}
