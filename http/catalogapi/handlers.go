package catalogapi

import (
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	apperrors "github.com/leeforge/plugincatalog/errors"
	"github.com/leeforge/plugincatalog/http/binding"
	"github.com/leeforge/plugincatalog/http/responder"
	"github.com/leeforge/plugincatalog/plugin"
	"github.com/leeforge/plugincatalog/selector"
	"go.uber.org/zap"
)

var searchFields = append(selector.DefaultSearchFields(), selector.FieldCategory)

type listQuery struct {
	Family string `query:"family"`
	Origin string `query:"origin" validate:"omitempty,oneof=builtin plugin-dir plugins-dir ui-bundle dev dev-project"`
	Q      string `query:"q"`
	Active *bool  `query:"active"`
	Offset int    `query:"offset" validate:"gte=0"`
	Limit  int    `query:"limit" validate:"gte=0"`
}

// listPlugins serves GET /plugins. Meta.total counts every match before
// offset and limit are applied; a zero limit returns all.
func (h *handler) listPlugins(w http.ResponseWriter, r *http.Request) {
	var q listQuery
	if err := binding.Query(r, &q); err != nil {
		responder.WriteError(w, r, err)
		return
	}

	family := plugin.Family(q.Family)
	plugins := make([]*plugin.Metadata, 0)
	for _, m := range h.catalog.GetAll() {
		if family != "" && m.Family != family {
			continue
		}
		if q.Origin != "" && m.Origin != plugin.NormalizeOrigin(q.Origin) {
			continue
		}
		if q.Active != nil && m.IsActive() != *q.Active {
			continue
		}
		if !selector.Matches(m, q.Q, searchFields...) {
			continue
		}
		plugins = append(plugins, m)
	}

	total := len(plugins)
	if q.Offset > total {
		q.Offset = total
	}
	plugins = plugins[q.Offset:]
	if q.Limit > 0 && q.Limit < len(plugins) {
		plugins = plugins[:q.Limit]
	}
	responder.OK(w, r, plugins, responder.WithTotal(total))
}

func (h *handler) getPlugin(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	m, ok := h.catalog.Get(id)
	if !ok {
		responder.NotFound(w, r, "plugin", id)
		return
	}
	responder.OK(w, r, m)
}

func (h *handler) activate(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(m *plugin.Metadata) (bool, error) {
		return h.manager.Activate(r.Context(), m.ID), nil
	})
}

func (h *handler) deactivate(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(m *plugin.Metadata) (bool, error) {
		if !m.CanDisable {
			return false, apperrors.NewNotDisableable(m.ID)
		}
		return h.manager.Deactivate(r.Context(), m.ID), nil
	})
}

func (h *handler) toggle(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(m *plugin.Metadata) (bool, error) {
		if m.IsActive() && !m.CanDisable {
			return false, apperrors.NewNotDisableable(m.ID)
		}
		return h.manager.Toggle(r.Context(), m.ID), nil
	})
}

// transition looks the plugin up, applies fn and answers with the updated
// metadata.
func (h *handler) transition(w http.ResponseWriter, r *http.Request, fn func(*plugin.Metadata) (bool, error)) {
	id := chi.URLParam(r, "id")
	m, ok := h.catalog.Get(id)
	if !ok {
		responder.NotFound(w, r, "plugin", id)
		return
	}

	done, err := fn(m)
	if err != nil {
		responder.WriteError(w, r, err)
		return
	}
	if !done {
		h.logger.Warn("activation change not applied", zap.String("id", id))
		responder.WriteError(w, r, apperrors.NewInternal("activation change not applied"))
		return
	}

	updated, ok := h.catalog.Get(id)
	if !ok {
		responder.NotFound(w, r, "plugin", id)
		return
	}
	responder.OK(w, r, updated)
}

type familyView struct {
	Family plugin.Family `json:"family"`
	Label  string        `json:"label"`
	Known  bool          `json:"known"`
	Count  int           `json:"count"`
	Active int           `json:"active"`
}

// families lists every known family plus any other family present in the
// catalog, with counts.
func (h *handler) families(w http.ResponseWriter, r *http.Request) {
	views := make(map[plugin.Family]*familyView)
	for _, f := range plugin.KnownFamilies() {
		views[f] = &familyView{Family: f, Label: f.Label(), Known: true}
	}
	for _, m := range h.catalog.GetAll() {
		v, ok := views[m.Family]
		if !ok {
			v = &familyView{Family: m.Family, Label: m.Family.Label()}
			views[m.Family] = v
		}
		v.Count++
		if m.IsActive() {
			v.Active++
		}
	}

	out := make([]familyView, 0, len(views))
	for _, v := range views {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Family < out[j].Family })
	responder.OK(w, r, out, responder.WithTotal(len(out)))
}

func (h *handler) summary(w http.ResponseWriter, r *http.Request) {
	responder.OK(w, r, h.catalog.GetSummary())
}

type featuresView struct {
	Usage      []selector.FeatureUsage          `json:"usage"`
	Graph      map[string]selector.FeatureEdges `json:"graph"`
	Unprovided []string                         `json:"unprovided"`
}

func (h *handler) features(w http.ResponseWriter, r *http.Request) {
	responder.OK(w, r, featuresView{
		Usage:      selector.SortedFeatureUsage(h.catalog),
		Graph:      selector.FeatureGraph(h.catalog),
		Unprovided: selector.UnprovidedFeatures(h.catalog),
	})
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	responder.OK(w, r, selector.PluginHealth(h.catalog))
}
