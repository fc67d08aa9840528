package plugin

// UnknownID is used when a plugin carries neither an id nor a name.
const UnknownID = "unknown"

// Base holds the fields every raw plugin item shares.
type Base struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Description      string   `json:"description,omitempty"`
	Version          string   `json:"version,omitempty"`
	Author           string   `json:"author,omitempty"`
	Tags             []string `json:"tags,omitempty"`
	ProvidesFeatures []string `json:"providesFeatures,omitempty"`
	ConsumesFeatures []string `json:"consumesFeatures,omitempty"`
	Experimental     bool     `json:"experimental,omitempty"`
	Deprecated       bool     `json:"deprecated,omitempty"`

	// Visible is the plugin's own visibility predicate; nil means always visible.
	Visible func(VisibilityContext) bool `json:"-"`
}

// ItemID returns ID, falling back to Name and then UnknownID.
func (b Base) ItemID() string {
	switch {
	case b.ID != "":
		return b.ID
	case b.Name != "":
		return b.Name
	default:
		return UnknownID
	}
}

// WhenVisible runs the Visible predicate, defaulting to visible.
func (b Base) WhenVisible(ctx VisibilityContext) bool {
	if b.Visible == nil {
		return true
	}
	return b.Visible(ctx)
}

// DeclaredFeatures returns the explicitly declared feature lists.
func (b Base) DeclaredFeatures() (provides, consumes []string) {
	return b.ProvidesFeatures, b.ConsumesFeatures
}

type GalleryTool struct {
	Base
	Category          string   `json:"category,omitempty"`
	Surfaces          []string `json:"surfaces,omitempty"`
	RequiresSelection bool     `json:"requiresSelection,omitempty"`
}

type NodeType struct {
	Base
	Scope           string `json:"scope,omitempty"`
	Category        string `json:"category,omitempty"`
	UserCreatable   *bool  `json:"userCreatable,omitempty"`
	PreloadPriority int    `json:"preloadPriority,omitempty"`
	HasRenderer     bool   `json:"hasRenderer,omitempty"`
}

// IsUserCreatable defaults to true when unset.
func (n NodeType) IsUserCreatable() bool {
	return n.UserCreatable == nil || *n.UserCreatable
}

type Interaction struct {
	Base
	Category        string `json:"category,omitempty"`
	UIMode          string `json:"uiMode,omitempty"`
	ModifiesSession bool   `json:"modifiesSession,omitempty"`
	RequiresAssets  bool   `json:"requiresAssets,omitempty"`
}

type Helper struct {
	Base
	Category string `json:"category,omitempty"`
}

type WorldTool struct {
	Base
	Category        string `json:"category,omitempty"`
	ModifiesSession bool   `json:"modifiesSession,omitempty"`
}

type Renderer struct {
	Base
	NodeType    string `json:"nodeType"`
	Preloadable bool   `json:"preloadable,omitempty"`
}

type UIPlugin struct {
	Base
	PluginType       string `json:"pluginType,omitempty"`
	Icon             string `json:"icon,omitempty"`
	AddsNodeTypes    bool   `json:"addsNodeTypes,omitempty"`
	AddsGalleryTools bool   `json:"addsGalleryTools,omitempty"`
}

type GraphEditor struct {
	Base
	StoreID  string `json:"storeId,omitempty"`
	Category string `json:"category,omitempty"`
}

type DevTool struct {
	Base
	Category string `json:"category,omitempty"`
	PanelID  string `json:"panelId,omitempty"`
}

type WorkspacePanel struct {
	Base
	PanelID             string `json:"panelId,omitempty"`
	Category            string `json:"category,omitempty"`
	SupportsCompactMode bool   `json:"supportsCompactMode,omitempty"`
	Icon                string `json:"icon,omitempty"`
	HasSettings         bool   `json:"hasSettings,omitempty"`
}

type GizmoSurface struct {
	Base
	Category string   `json:"category,omitempty"`
	Contexts []string `json:"contexts,omitempty"`
}

type GenerationUI struct {
	Base
	ProviderID string   `json:"providerId,omitempty"`
	Operations []string `json:"operations,omitempty"`
	Priority   int      `json:"priority,omitempty"`
}

type PanelGroup struct {
	Base
	Category string   `json:"category,omitempty"`
	PanelIDs []string `json:"panelIds,omitempty"`
}

type DockWidget struct {
	Base
	DockviewID    string   `json:"dockviewId,omitempty"`
	PanelScope    string   `json:"panelScope,omitempty"`
	AllowedPanels []string `json:"allowedPanels,omitempty"`
	DefaultPanels []string `json:"defaultPanels,omitempty"`
}

type GallerySurface struct {
	Base
	Category   string   `json:"category,omitempty"`
	MediaTypes []string `json:"mediaTypes,omitempty"`
}

type BrainTool struct {
	Base
	Category string `json:"category,omitempty"`
}

var (
	_ Item                = GalleryTool{}
	_ VisibilityPredicate = GalleryTool{}
	_ FeatureDeclarer     = NodeType{}
)
