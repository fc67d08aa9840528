package plugin

// Well-known capability keys. Capabilities drive filtering and search only;
// nothing dispatches on them.
const (
	CapModifiesSession     = "modifiesSession"
	CapOpensDialogue       = "opensDialogue"
	CapAddsNodeTypes       = "addsNodeTypes"
	CapAddsGalleryTools    = "addsGalleryTools"
	CapHasRenderer         = "hasRenderer"
	CapSupportsCompactMode = "supportsCompactMode"
	CapRequiresAssets      = "requiresAssets"
	CapUserCreatable       = "userCreatable"
	CapHasSettings         = "hasSettings"
	CapBackendProvided     = "backendProvided"
)

// Capabilities is a sparse record of boolean or string flags.
type Capabilities map[string]any

// Has reports whether key is set to anything.
func (c Capabilities) Has(key string) bool {
	_, ok := c[key]
	return ok
}

// Bool returns the flag value, false when missing or not a bool.
func (c Capabilities) Bool(key string) bool {
	b, _ := c[key].(bool)
	return b
}

// String returns the string value, "" when missing or not a string.
func (c Capabilities) String(key string) string {
	s, _ := c[key].(string)
	return s
}

// Set stores v under key, allocating the map if needed.
func (c *Capabilities) Set(key string, v any) {
	if *c == nil {
		*c = make(Capabilities)
	}
	(*c)[key] = v
}

// Clone returns a shallow copy; nil stays nil.
func (c Capabilities) Clone() Capabilities {
	if c == nil {
		return nil
	}
	out := make(Capabilities, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}
