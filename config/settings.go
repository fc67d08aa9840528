package config

import (
	"time"

	"github.com/leeforge/plugincatalog/logging"
)

// Settings is the catalog daemon configuration.
type Settings struct {
	Log     logging.Config  `mapstructure:"log" json:"log"`
	Catalog CatalogSettings `mapstructure:"catalog" json:"catalog"`
	HTTP    HTTPSettings    `mapstructure:"http" json:"http"`
}

// CatalogSettings controls plugin discovery.
type CatalogSettings struct {
	// Strict aborts bootstrap at the first plugin that fails to register.
	Strict bool `mapstructure:"strict" json:"strict"`

	PluginDirs     []string `mapstructure:"plugin_dirs" json:"pluginDirs"`
	BundleDirs     []string `mapstructure:"bundle_dirs" json:"bundleDirs"`
	DevProjectDirs []string `mapstructure:"dev_project_dirs" json:"devProjectDirs"`

	// BackendManifest is a JSON file listing backend-provided plugins.
	BackendManifest string `mapstructure:"backend_manifest" json:"backendManifest"`

	// Watch reloads plugin directories when their manifests change.
	Watch         bool          `mapstructure:"watch" json:"watch"`
	WatchDebounce time.Duration `mapstructure:"watch_debounce" json:"watchDebounce" default:"300ms" validate:"gte=0"`
}

// HTTPSettings controls the diagnostics API.
type HTTPSettings struct {
	Enabled         bool          `mapstructure:"enabled" json:"enabled" default:"true"`
	Addr            string        `mapstructure:"addr" json:"addr" default:":8080" validate:"required"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" json:"shutdownTimeout" default:"10s" validate:"gt=0"`
}
