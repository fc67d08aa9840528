package plugin

import "strings"

// Origin records where a plugin came from.
type Origin string

const (
	OriginBuiltin    Origin = "builtin"     // Shipped with the application
	OriginPluginDir  Origin = "plugin-dir"  // Loaded from a user plugin directory
	OriginUIBundle   Origin = "ui-bundle"   // Delivered as a bundled UI plugin
	OriginDevProject Origin = "dev-project" // Loaded from a local dev project
)

// Valid reports whether o is one of the canonical origins.
func (o Origin) Valid() bool {
	switch o {
	case OriginBuiltin, OriginPluginDir, OriginUIBundle, OriginDevProject:
		return true
	default:
		return false
	}
}

// IsUser returns true for origins supplied by the user rather than the app.
func (o Origin) IsUser() bool {
	return o == OriginPluginDir || o == OriginUIBundle
}

func (o Origin) String() string {
	return string(o)
}

// NormalizeOrigin maps an origin string reported by the backend to the
// canonical Origin. "plugins-dir" and "dev" are accepted as legacy aliases;
// unrecognised values fall back to OriginPluginDir.
func NormalizeOrigin(raw string) Origin {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "builtin":
		return OriginBuiltin
	case "plugin-dir", "plugins-dir":
		return OriginPluginDir
	case "ui-bundle":
		return OriginUIBundle
	case "dev", "dev-project":
		return OriginDevProject
	default:
		return OriginPluginDir
	}
}
