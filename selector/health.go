package selector

import (
	"github.com/leeforge/plugincatalog/plugin"
)

// MetadataHealth counts plugins missing descriptive metadata.
type MetadataHealth struct {
	MissingDescription int `json:"missingDescription"`
	MissingCategory    int `json:"missingCategory"`
	MissingTags        int `json:"missingTags"`
	MissingVersion     int `json:"missingVersion"`
}

// Issues lists plugins flagged experimental or deprecated.
type Issues struct {
	Experimental []string `json:"experimental"`
	Deprecated   []string `json:"deprecated"`
}

// Health is a read-only diagnostic over the whole catalog.
type Health struct {
	Total          int                   `json:"total"`
	ByFamily       map[plugin.Family]int `json:"byFamily"`
	MetadataHealth MetadataHealth        `json:"metadataHealth"`
	Issues         Issues                `json:"issues"`
}

// PluginHealth computes Health for r.
func PluginHealth(r Reader) Health {
	h := Health{
		ByFamily: make(map[plugin.Family]int),
		Issues: Issues{
			Experimental: []string{},
			Deprecated:   []string{},
		},
	}
	for _, m := range r.GetAll() {
		h.Total++
		h.ByFamily[m.Family]++

		if m.Description == "" {
			h.MetadataHealth.MissingDescription++
		}
		if m.Category() == "" {
			h.MetadataHealth.MissingCategory++
		}
		if len(m.Tags) == 0 {
			h.MetadataHealth.MissingTags++
		}
		if m.Version == "" {
			h.MetadataHealth.MissingVersion++
		}

		if m.Experimental {
			h.Issues.Experimental = append(h.Issues.Experimental, m.ID)
		}
		if m.Deprecated {
			h.Issues.Deprecated = append(h.Issues.Deprecated, m.ID)
		}
	}
	return h
}
