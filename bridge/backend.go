package bridge

import (
	"os"

	"github.com/leeforge/plugincatalog/catalog"
	apperrors "github.com/leeforge/plugincatalog/errors"
	"github.com/leeforge/plugincatalog/json"
	"github.com/leeforge/plugincatalog/plugin"
	"github.com/leeforge/plugincatalog/validation"
)

// BackendManifest is the descriptive part of a server-supplied plugin.
type BackendManifest struct {
	PluginID    string   `json:"pluginId" mapstructure:"pluginId"`
	PluginName  string   `json:"pluginName" mapstructure:"pluginName"`
	Version     string   `json:"version" mapstructure:"version"`
	Description string   `json:"description,omitempty" mapstructure:"description"`
	Author      string   `json:"author,omitempty" mapstructure:"author"`
	Icon        string   `json:"icon,omitempty" mapstructure:"icon"`
	Tags        []string `json:"tags,omitempty" mapstructure:"tags"`
}

// BackendPluginEntry describes a plugin provided by the backend.
type BackendPluginEntry struct {
	PluginID string          `json:"pluginId" mapstructure:"pluginId" validate:"required"`
	Enabled  bool            `json:"enabled" mapstructure:"enabled"`
	Kind     string          `json:"kind,omitempty" mapstructure:"kind"`
	Origin   string          `json:"origin,omitempty" mapstructure:"origin"`
	Manifest BackendManifest `json:"manifest" mapstructure:"manifest"`
}

// Validate checks the entry's required fields.
func (e BackendPluginEntry) Validate() error {
	return validation.Struct(e)
}

// BackendMetadata builds the ui-plugin catalog entry for e.
func BackendMetadata(e BackendPluginEntry) *plugin.Metadata {
	state := plugin.StateInactive
	if e.Enabled {
		state = plugin.StateActive
	}

	name := e.Manifest.PluginName
	if name == "" {
		name = e.PluginID
	}

	m := &plugin.Metadata{
		ID:              e.PluginID,
		Name:            name,
		Family:          plugin.FamilyUIPlugin,
		Origin:          plugin.NormalizeOrigin(e.Origin),
		ActivationState: state,
		CanDisable:      true,
		Version:         e.Manifest.Version,
		Description:     e.Manifest.Description,
		Author:          e.Manifest.Author,
		Tags:            append([]string(nil), e.Manifest.Tags...),
		Extension: plugin.UIPluginExt{
			PluginType:  "backend",
			Icon:        e.Manifest.Icon,
			BackendKind: e.Kind,
		},
	}
	m.Capabilities.Set(plugin.CapBackendProvided, true)
	return m
}

// EnsureBackendPluginCatalogEntry adds a ui-plugin entry for a backend
// plugin unless its id is already catalogued. It returns true only when a
// new entry was created; invalid entries create nothing.
func EnsureBackendPluginCatalogEntry(cat *catalog.Catalog, e BackendPluginEntry) bool {
	if err := e.Validate(); err != nil {
		return false
	}
	return cat.RegisterIfAbsent(BackendMetadata(e))
}

// LoadBackendEntries reads a JSON array of backend plugin entries from path.
func LoadBackendEntries(path string) ([]BackendPluginEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewDiscovery(path, err)
	}
	var entries []BackendPluginEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, apperrors.NewDiscovery(path, err)
	}
	return entries, nil
}
