package plugin

// Extension is a family-specific payload layered onto Metadata.
type Extension interface {
	ExtensionFamily() Family
}

// Categorized is implemented by extensions that carry a category.
type Categorized interface {
	CategoryName() string
}

type WorkspacePanelExt struct {
	PanelID             string `json:"panelId"`
	Category            string `json:"category,omitempty"`
	SupportsCompactMode bool   `json:"supportsCompactMode,omitempty"`
	Icon                string `json:"icon,omitempty"`
}

func (WorkspacePanelExt) ExtensionFamily() Family { return FamilyWorkspacePanel }
func (e WorkspacePanelExt) CategoryName() string  { return e.Category }

type NodeTypeExt struct {
	Scope           string `json:"scope,omitempty"`
	Category        string `json:"category,omitempty"`
	UserCreatable   bool   `json:"userCreatable"`
	PreloadPriority int    `json:"preloadPriority,omitempty"`
}

func (NodeTypeExt) ExtensionFamily() Family { return FamilyNodeType }
func (e NodeTypeExt) CategoryName() string  { return e.Category }

type GalleryToolExt struct {
	Category string   `json:"category,omitempty"`
	Surfaces []string `json:"surfaces,omitempty"`
}

func (GalleryToolExt) ExtensionFamily() Family { return FamilyGalleryTool }
func (e GalleryToolExt) CategoryName() string  { return e.Category }

type InteractionExt struct {
	Category string `json:"category,omitempty"`
	UIMode   string `json:"uiMode,omitempty"`
}

func (InteractionExt) ExtensionFamily() Family { return FamilyInteraction }
func (e InteractionExt) CategoryName() string  { return e.Category }

type HelperExt struct {
	Category string `json:"category,omitempty"`
}

func (HelperExt) ExtensionFamily() Family { return FamilyHelper }
func (e HelperExt) CategoryName() string  { return e.Category }

type WorldToolExt struct {
	Category string `json:"category,omitempty"`
}

func (WorldToolExt) ExtensionFamily() Family { return FamilyWorldTool }
func (e WorldToolExt) CategoryName() string  { return e.Category }

type GraphEditorExt struct {
	StoreID  string `json:"storeId,omitempty"`
	Category string `json:"category,omitempty"`
}

func (GraphEditorExt) ExtensionFamily() Family { return FamilyGraphEditor }
func (e GraphEditorExt) CategoryName() string  { return e.Category }

type DevToolExt struct {
	Category string `json:"category,omitempty"`
	PanelID  string `json:"panelId,omitempty"`
}

func (DevToolExt) ExtensionFamily() Family { return FamilyDevTool }
func (e DevToolExt) CategoryName() string  { return e.Category }

// DockWidgetExt describes which panels a dock may host. AllowedPanels takes
// precedence; otherwise PanelScope selects workspace panels by category.
type DockWidgetExt struct {
	DockviewID    string   `json:"dockviewId"`
	PanelScope    string   `json:"panelScope,omitempty"`
	AllowedPanels []string `json:"allowedPanels,omitempty"`
	DefaultPanels []string `json:"defaultPanels,omitempty"`
}

func (DockWidgetExt) ExtensionFamily() Family { return FamilyDockWidget }

type GizmoSurfaceExt struct {
	Category string   `json:"category,omitempty"`
	Contexts []string `json:"contexts,omitempty"`
}

func (GizmoSurfaceExt) ExtensionFamily() Family { return FamilyGizmoSurface }
func (e GizmoSurfaceExt) CategoryName() string  { return e.Category }

type GenerationUIExt struct {
	ProviderID string   `json:"providerId,omitempty"`
	Operations []string `json:"operations,omitempty"`
	Priority   int      `json:"priority,omitempty"`
}

func (GenerationUIExt) ExtensionFamily() Family { return FamilyGenerationUI }

type PanelGroupExt struct {
	Category string   `json:"category,omitempty"`
	PanelIDs []string `json:"panelIds,omitempty"`
}

func (PanelGroupExt) ExtensionFamily() Family { return FamilyPanelGroup }
func (e PanelGroupExt) CategoryName() string  { return e.Category }

type GallerySurfaceExt struct {
	Category   string   `json:"category,omitempty"`
	MediaTypes []string `json:"mediaTypes,omitempty"`
}

func (GallerySurfaceExt) ExtensionFamily() Family { return FamilyGallerySurface }
func (e GallerySurfaceExt) CategoryName() string  { return e.Category }

type BrainToolExt struct {
	Category string `json:"category,omitempty"`
}

func (BrainToolExt) ExtensionFamily() Family { return FamilyBrainTool }
func (e BrainToolExt) CategoryName() string  { return e.Category }

type RendererExt struct {
	NodeType    string `json:"nodeType"`
	Preloadable bool   `json:"preloadable,omitempty"`
}

func (RendererExt) ExtensionFamily() Family { return FamilyRenderer }

type UIPluginExt struct {
	PluginType  string `json:"pluginType,omitempty"`
	Icon        string `json:"icon,omitempty"`
	BackendKind string `json:"backendKind,omitempty"`
}

func (UIPluginExt) ExtensionFamily() Family { return FamilyUIPlugin }

// ExtensionCloner is implemented by custom extensions holding slices, maps
// or pointers that Metadata.Clone must not share.
type ExtensionCloner interface {
	CloneExtension() Extension
}

func cloneExtension(e Extension) Extension {
	switch ext := e.(type) {
	case GalleryToolExt:
		ext.Surfaces = cloneStrings(ext.Surfaces)
		return ext
	case DockWidgetExt:
		ext.AllowedPanels = cloneStrings(ext.AllowedPanels)
		ext.DefaultPanels = cloneStrings(ext.DefaultPanels)
		return ext
	case GizmoSurfaceExt:
		ext.Contexts = cloneStrings(ext.Contexts)
		return ext
	case GenerationUIExt:
		ext.Operations = cloneStrings(ext.Operations)
		return ext
	case PanelGroupExt:
		ext.PanelIDs = cloneStrings(ext.PanelIDs)
		return ext
	case GallerySurfaceExt:
		ext.MediaTypes = cloneStrings(ext.MediaTypes)
		return ext
	case ExtensionCloner:
		return ext.CloneExtension()
	default:
		return e
	}
}
