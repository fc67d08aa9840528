// Package catalogapi exposes the plugin catalog over HTTP for diagnostics
// and for toggling plugins from tooling.
package catalogapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/leeforge/plugincatalog/activation"
	"github.com/leeforge/plugincatalog/catalog"
	"github.com/leeforge/plugincatalog/http/middleware"
	"github.com/leeforge/plugincatalog/logging"
	"github.com/leeforge/plugincatalog/metrics"
	"go.uber.org/zap"
)

// Deps are the collaborators the router serves from. Catalog is required.
type Deps struct {
	Catalog   *catalog.Catalog
	Manager   *activation.Manager
	Collector *metrics.Collector
	Logger    *zap.Logger
}

type handler struct {
	catalog *catalog.Catalog
	manager *activation.Manager
	logger  *zap.Logger
}

// NewRouter builds the chi router. A nil Manager is replaced by one bound to
// the catalog, which stays unsubscribed since the router never listens for
// per-plugin changes. /metrics is mounted only when a Collector is given.
func NewRouter(deps Deps) chi.Router {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Manager == nil {
		deps.Manager = activation.NewManager(deps.Catalog, activation.Config{Logger: deps.Logger})
	}
	h := &handler{
		catalog: deps.Catalog,
		manager: deps.Manager,
		logger:  deps.Logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.TraceID())
	r.Use(middleware.Timing())
	r.Use(logging.HTTPMiddleware(deps.Logger))
	r.Use(logging.RecoveryMiddleware())
	if deps.Collector != nil {
		r.Use(metrics.Middleware(deps.Collector))
	}

	r.Route("/plugins", func(r chi.Router) {
		r.Get("/", h.listPlugins)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.getPlugin)
			r.Post("/activate", h.activate)
			r.Post("/deactivate", h.deactivate)
			r.Post("/toggle", h.toggle)
		})
	})
	r.Get("/families", h.families)
	r.Get("/summary", h.summary)
	r.Get("/features", h.features)
	r.Get("/health", h.health)
	if deps.Collector != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Collector))
	}
	return r
}
