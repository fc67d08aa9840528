package source

import (
	"fmt"

	"github.com/leeforge/plugincatalog/json"
	"github.com/leeforge/plugincatalog/plugin"
	"github.com/leeforge/plugincatalog/validation"
)

// ManifestFile is the file name Dir looks for in each plugin directory.
const ManifestFile = "plugin.json"

// Manifest is the envelope every plugin.json carries. The family-specific
// item is decoded from the same document.
type Manifest struct {
	ID         string        `json:"id" validate:"required"`
	Family     plugin.Family `json:"family" validate:"required"`
	Enabled    bool          `json:"enabled" default:"true"`
	CanDisable bool          `json:"canDisable" default:"true"`
}

type decodeFunc func(data []byte) (plugin.Item, error)

func decodeAs[T plugin.Item](data []byte) (plugin.Item, error) {
	var item T
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, err
	}
	return item, nil
}

var decoders = map[plugin.Family]decodeFunc{
	plugin.FamilyGalleryTool:    decodeAs[plugin.GalleryTool],
	plugin.FamilyNodeType:       decodeAs[plugin.NodeType],
	plugin.FamilyInteraction:    decodeAs[plugin.Interaction],
	plugin.FamilyHelper:         decodeAs[plugin.Helper],
	plugin.FamilyWorldTool:      decodeAs[plugin.WorldTool],
	plugin.FamilyRenderer:       decodeAs[plugin.Renderer],
	plugin.FamilyUIPlugin:       decodeAs[plugin.UIPlugin],
	plugin.FamilyGraphEditor:    decodeAs[plugin.GraphEditor],
	plugin.FamilyDevTool:        decodeAs[plugin.DevTool],
	plugin.FamilyWorkspacePanel: decodeAs[plugin.WorkspacePanel],
	plugin.FamilyGizmoSurface:   decodeAs[plugin.GizmoSurface],
	plugin.FamilyGenerationUI:   decodeAs[plugin.GenerationUI],
	plugin.FamilyPanelGroup:     decodeAs[plugin.PanelGroup],
	plugin.FamilyDockWidget:     decodeAs[plugin.DockWidget],
	plugin.FamilyGallerySurface: decodeAs[plugin.GallerySurface],
	plugin.FamilyBrainTool:      decodeAs[plugin.BrainTool],
}

// DecodeManifest parses a plugin.json document into its envelope and the
// family-specific item.
func DecodeManifest(data []byte) (Manifest, plugin.Item, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, nil, err
	}
	if err := validation.Struct(m); err != nil {
		return Manifest{}, nil, err
	}

	decode, ok := decoders[m.Family]
	if !ok {
		return Manifest{}, nil, fmt.Errorf("unknown plugin family %q", m.Family)
	}
	item, err := decode(data)
	if err != nil {
		return Manifest{}, nil, err
	}
	return m, item, nil
}
