package plugin

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Family identifies the kind of capability a plugin supplies.
// The set is open: any non-empty value is a valid family.
type Family string

const (
	FamilyWorldTool      Family = "world-tool"
	FamilyHelper         Family = "helper"
	FamilyInteraction    Family = "interaction"
	FamilyGalleryTool    Family = "gallery-tool"
	FamilyNodeType       Family = "node-type"
	FamilyRenderer       Family = "renderer"
	FamilyUIPlugin       Family = "ui-plugin"
	FamilyGraphEditor    Family = "graph-editor"
	FamilyDevTool        Family = "dev-tool"
	FamilyWorkspacePanel Family = "workspace-panel"
	FamilyGizmoSurface   Family = "gizmo-surface"
	FamilyGenerationUI   Family = "generation-ui"
	FamilyPanelGroup     Family = "panel-group"
	FamilyDockWidget     Family = "dock-widget"
	FamilyGallerySurface Family = "gallery-surface"
	FamilyBrainTool      Family = "brain-tool"
)

var knownFamilies = []Family{
	FamilyWorldTool,
	FamilyHelper,
	FamilyInteraction,
	FamilyGalleryTool,
	FamilyNodeType,
	FamilyRenderer,
	FamilyUIPlugin,
	FamilyGraphEditor,
	FamilyDevTool,
	FamilyWorkspacePanel,
	FamilyGizmoSurface,
	FamilyGenerationUI,
	FamilyPanelGroup,
	FamilyDockWidget,
	FamilyGallerySurface,
	FamilyBrainTool,
}

// KnownFamilies returns the families the application ships support for.
func KnownFamilies() []Family {
	return append([]Family(nil), knownFamilies...)
}

// Valid reports whether f can tag a catalog entry.
func (f Family) Valid() bool {
	return strings.TrimSpace(string(f)) != ""
}

// Known reports whether f is one of the built-in families.
func (f Family) Known() bool {
	for _, k := range knownFamilies {
		if k == f {
			return true
		}
	}
	return false
}

// Label returns a display label, e.g. "gallery-tool" -> "Gallery Tool".
func (f Family) Label() string {
	words := strings.ReplaceAll(string(f), "-", " ")
	return cases.Title(language.English).String(words)
}

func (f Family) String() string {
	return string(f)
}
