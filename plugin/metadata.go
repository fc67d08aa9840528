package plugin

// Metadata is the catalog's record for one registered plugin.
//
// Only ActivationState is ever mutated after registration, and only through
// the catalog. Extension payloads are treated as immutable once registered.
type Metadata struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Family          Family          `json:"family"`
	Origin          Origin          `json:"origin"`
	ActivationState ActivationState `json:"activationState"`
	CanDisable      bool            `json:"canDisable"`

	Version     string   `json:"version,omitempty"`
	Description string   `json:"description,omitempty"`
	Author      string   `json:"author,omitempty"`
	Tags        []string `json:"tags,omitempty"`

	// Dependency-graph fields. Used for usage statistics and visualisation,
	// never enforced and never used to order loading.
	ProvidesFeatures []string `json:"providesFeatures,omitempty"`
	ConsumesFeatures []string `json:"consumesFeatures,omitempty"`

	Capabilities Capabilities `json:"capabilities,omitempty"`

	Experimental bool `json:"experimental,omitempty"`
	Deprecated   bool `json:"deprecated,omitempty"`

	// Extension carries the family-specific fields.
	Extension Extension `json:"extension,omitempty"`

	// Plugin is the raw plugin object the metadata was built from, if any.
	Plugin any `json:"-"`
}

// DisplayName returns Name, falling back to ID.
func (m *Metadata) DisplayName() string {
	if m.Name != "" {
		return m.Name
	}
	return m.ID
}

// IsActive reports whether the plugin is switched on.
func (m *Metadata) IsActive() bool {
	return m.ActivationState.IsActive()
}

// Category returns the family-specific category, "" if the family has none.
func (m *Metadata) Category() string {
	if c, ok := m.Extension.(Categorized); ok {
		return c.CategoryName()
	}
	return ""
}

// Clone returns a copy that shares no slices or maps with m, including the
// slices of the built-in extensions. Plugin is shared; custom extensions are
// copied through ExtensionCloner when they implement it.
func (m *Metadata) Clone() *Metadata {
	if m == nil {
		return nil
	}
	out := *m
	out.Tags = cloneStrings(m.Tags)
	out.ProvidesFeatures = cloneStrings(m.ProvidesFeatures)
	out.ConsumesFeatures = cloneStrings(m.ConsumesFeatures)
	out.Capabilities = m.Capabilities.Clone()
	out.Extension = cloneExtension(m.Extension)
	return &out
}

// ExtensionAs returns m's extension as E.
func ExtensionAs[E Extension](m *Metadata) (E, bool) {
	var zero E
	if m == nil || m.Extension == nil {
		return zero, false
	}
	e, ok := m.Extension.(E)
	return e, ok
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}
