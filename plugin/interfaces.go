package plugin

// Item is a raw plugin object as supplied by discovery or bootstrap code.
type Item interface {
	ItemID() string
}

// VisibilityContext is the host-supplied state a plugin inspects to decide
// whether it should be shown (selected assets, active surface, mode, ...).
type VisibilityContext map[string]any

// String returns the string stored under key, "" if missing.
func (c VisibilityContext) String(key string) string {
	s, _ := c[key].(string)
	return s
}

// VisibilityPredicate is implemented by plugins that decide their own
// visibility. Plugins without it are always visible.
type VisibilityPredicate interface {
	WhenVisible(ctx VisibilityContext) bool
}

// FeatureDeclarer exposes declared provides/consumes features.
type FeatureDeclarer interface {
	DeclaredFeatures() (provides, consumes []string)
}
